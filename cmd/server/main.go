package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/tidyhome/booking-api/internal/config"
	"github.com/tidyhome/booking-api/internal/database"
	"github.com/tidyhome/booking-api/internal/handler"
	"github.com/tidyhome/booking-api/internal/queue"
	"github.com/tidyhome/booking-api/internal/repository"
	"github.com/tidyhome/booking-api/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	rdb := config.NewRedisClient() // nil disables rate limiting and caching

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	services := repository.NewServiceRepo(db)
	bookings := repository.NewBookingRepo(db)

	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	serviceHandler := handler.NewServiceHandler(services)
	bookingHandler := handler.NewBookingHandler(bookings, services)

	e := echo.New()
	router.RegisterRoutes(e, cfg, rdb, authHandler, serviceHandler, bookingHandler)

	// The client shell is a static SPA served by the same binary.
	e.Static("/", cfg.WebDir)

	go func() {
		if err := queue.StartStatusConsumer(); err != nil {
			log.Printf("status consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
