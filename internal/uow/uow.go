// Package uow provides a unit-of-work wrapper around *sql.Tx so that
// side effects which must not fire until a transaction has actually
// committed — publishing a bus event, invalidating a cache entry,
// enqueuing a best-effort email — are registered during the
// transaction and only run once Do's commit succeeds. Grounded on
// kirinyoku-tix-go's internal/uow package, adapted from pgx to
// database/sql.
package uow

import (
	"context"
	"database/sql"
)

// AfterCommit is a side effect that runs after a successful commit.
type AfterCommit func(ctx context.Context)

// UoW wraps a *sql.DB to run transactional units of work.
type UoW struct {
	db *sql.DB
}

// New constructs a UoW over db.
func New(db *sql.DB) *UoW {
	return &UoW{db: db}
}

// Do runs fn inside a default-isolation transaction and executes every
// hook fn registered via after, in order, once the commit succeeds.
func (u *UoW) Do(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx, after func(AfterCommit)) error) error {
	return u.DoWithOpts(ctx, nil, fn)
}

// DoWithOpts is Do with explicit transaction options, used by callers
// that need sql.LevelSerializable.
func (u *UoW) DoWithOpts(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx *sql.Tx, after func(AfterCommit)) error) error {
	tx, err := u.db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var hooks []AfterCommit
	if err := fn(ctx, tx, func(h AfterCommit) { hooks = append(hooks, h) }); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	for _, h := range hooks {
		h(ctx)
	}
	return nil
}
