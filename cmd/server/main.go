package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/screenhall/booking-engine/internal/config"
	"github.com/screenhall/booking-engine/internal/database"
	"github.com/screenhall/booking-engine/internal/handler"
	"github.com/screenhall/booking-engine/internal/pay"
	"github.com/screenhall/booking-engine/internal/queue"
	"github.com/screenhall/booking-engine/internal/repository"
	"github.com/screenhall/booking-engine/internal/router"
	"github.com/screenhall/booking-engine/internal/service"
	"github.com/screenhall/booking-engine/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	var logger *zap.Logger
	var err error
	if cfg.Env == "prod" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("database connect failed", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable, rate limiting and response cache disabled")
	}

	// The sandbox provider stands in for the real gateway outside prod.
	sandbox := pay.NewSandbox()
	var provider pay.Provider = sandbox
	var webhookSandbox *pay.Sandbox
	if cfg.Env != "prod" {
		webhookSandbox = sandbox
	}

	st := store.NewMySQLStore(db)
	publisher := queue.NewPublisher(cfg.RabbitURL, logger)

	reservations := service.NewReservationService(st, logger)
	payments := service.NewPaymentService(st, provider, publisher,
		cfg.BookingTTL, cfg.ProviderTimeout, cfg.Currency, logger)
	reaper := service.NewReaper(st, cfg.BookingTTL, cfg.ReaperInterval, logger)

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	halls := repository.NewHallRepo(db)
	seats := repository.NewSeatRepo(db)
	sessions := repository.NewSessionRepo(db)
	vouchers := repository.NewVoucherRepo(db)
	bookings := repository.NewBookingRepo(db)
	paymentRows := repository.NewPaymentRepo(db)

	h := router.Handlers{
		Auth:    handler.NewAuthHandler(cfg, users, tokens),
		Public:  handler.NewPublicHandler(sessions, seats, bookings),
		Booking: handler.NewBookingHandler(reservations, bookings, paymentRows),
		Payment: handler.NewPaymentHandler(payments, webhookSandbox),
		Catalog: handler.NewCatalogHandler(halls, seats, sessions, vouchers),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	router.Register(e, h, cfg, rdb)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go reaper.Run(ctx)
	go queue.StartBookingConsumer(ctx, cfg.RabbitURL, logger, queue.LogConfirmation(logger))

	go func() {
		addr := ":" + cfg.Port
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}
