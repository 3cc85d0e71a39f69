package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/kseat/cinema-reservation-core/internal/bus"
	"github.com/kseat/cinema-reservation-core/internal/config"
	"github.com/kseat/cinema-reservation-core/internal/database"
	"github.com/kseat/cinema-reservation-core/internal/handler"
	"github.com/kseat/cinema-reservation-core/internal/mailer"
	"github.com/kseat/cinema-reservation-core/internal/middleware"
	"github.com/kseat/cinema-reservation-core/internal/payment"
	"github.com/kseat/cinema-reservation-core/internal/queue"
	"github.com/kseat/cinema-reservation-core/internal/reaper"
	"github.com/kseat/cinema-reservation-core/internal/repository"
	"github.com/kseat/cinema-reservation-core/internal/reservation"
	"github.com/kseat/cinema-reservation-core/internal/router"
	"github.com/kseat/cinema-reservation-core/internal/session"
	"github.com/kseat/cinema-reservation-core/internal/ticket"
	"github.com/kseat/cinema-reservation-core/internal/uow"
	"github.com/kseat/cinema-reservation-core/internal/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("info: .env not found; using defaults/env")
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: open failed: %v", err)
	}
	defer db.Close()

	holds := repository.NewHoldRepo(db)
	payments := repository.NewPaymentRepo(db)
	transactions := repository.NewTransactionRepo(db)
	tickets := repository.NewTicketRepo(db)
	showtimes := repository.NewShowtimeRepo(db)
	seats := repository.NewSeatRepo(db)
	work := uow.New(db)

	// Event bus: Redis-backed when a cache/rate-limit Redis instance is
	// reachable (multi-instance deployment), in-process otherwise — a
	// single node's pub-sub has no cross-node coordination to fall back
	// on.
	rdb := config.NewRedisClient()
	var eventBus bus.Bus
	if rdb != nil {
		eventBus = bus.NewRedisBus(rdb, cfg.EventQueueCap)
		log.Println("bus: using Redis-backed event bus")
	} else {
		eventBus = bus.NewMemoryBus(cfg.EventQueueCap)
		log.Println("bus: Redis unreachable, using in-process event bus")
	}

	sessions := session.NewRegistry()

	reservationSvc := reservation.NewService(holds, showtimes, seats, eventBus, cfg.HoldTTL)

	ticketSvc := ticket.NewService(tickets, holds, transactions, seats, showtimes, cfg.JWTSecret)

	ampqPublisher, err := queue.NewPublisher(cfg.AMQPUrl)
	if err != nil {
		log.Fatalf("queue: publisher dial failed: %v", err)
	}
	defer ampqPublisher.Close()

	gateway := payment.NewVNPayGateway(payment.GatewayConfig{
		TmnCode:    cfg.GatewayTmnCode,
		HashSecret: cfg.GatewayHashSecret,
		PaymentURL: cfg.GatewayPaymentURL,
		ReturnURL:  cfg.GatewayReturnURL,
	})

	paymentSvc := payment.NewService(payments, transactions, holds, showtimes, seats, ticketSvc, gateway, eventBus, ampqPublisher, work, cfg.HoldTTL)

	wsHub := ws.NewHub(eventBus, reservationSvc, sessions)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := reaper.New(holds, eventBus, cfg.ReaperPeriod)
	go r.Run(ctx)

	sender := mailer.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPSenderName)
	consumer := queue.NewConsumer(cfg.AMQPUrl, sender)
	go consumer.Run(ctx)

	e := echo.New()
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins}))

	var cacheMW echo.MiddlewareFunc
	var rateLimitMW echo.MiddlewareFunc
	if rdb != nil {
		cacheCfg := config.LoadCacheConfig()
		if cacheCfg.Enabled {
			cacheMW = middleware.NewRedisCache(cacheCfg, rdb)
		}
		rlCfg := config.LoadRateLimitConfig()
		if rlCfg.Enabled {
			rateLimitMW = middleware.NewTokenBucket(rlCfg, rdb)
		}
	}

	router.RegisterRoutes(e, router.Handlers{
		Reservation: handler.NewReservationHandler(reservationSvc),
		Payment:     handler.NewPaymentHandler(paymentSvc),
		WS:          handler.NewWSHandler(wsHub),
		Cache:       cacheMW,
		RateLimit:   rateLimitMW,
	}, cfg.JWTSecret)

	addr := ":" + cfg.Port
	srv := &http.Server{Addr: addr, Handler: e}

	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server: graceful shutdown failed: %v", err)
	}
}
