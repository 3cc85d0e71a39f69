package model

import "time"

// Showtime is one scheduled presentation of a movie in a room.  It is
// owned by the catalog collaborator (movie/theater/room CRUD is out of
// scope for this module) and is immutable once referenced by a Hold;
// this package only ever reads it.
//
// Fields:
//  ID        – primary key identifier.
//  MovieID   – reference to the external movie catalog.
//  RoomID    – reference to the external room/hall catalog.
//  StartTime – when the presentation begins, UTC.
//  BasePrice – base ticket price in the smallest currency unit (cents).
//  Language  – audio/subtitle language tag, e.g. "en", "vi".
//  Format    – presentation format, e.g. "2D", "3D", "IMAX".
type Showtime struct {
	ID        uint64    // showtimes.id
	MovieID   uint64    // showtimes.movie_id
	RoomID    uint64    // showtimes.room_id
	StartTime time.Time // showtimes.start_time
	BasePrice uint32    // showtimes.base_price
	Language  string    // showtimes.language
	Format    string    // showtimes.format
}
