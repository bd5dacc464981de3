package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sports-match-booking/internal/allocator"
	"github.com/iliyamo/sports-match-booking/internal/config"
	"github.com/iliyamo/sports-match-booking/internal/database"
	"github.com/iliyamo/sports-match-booking/internal/handler"
	"github.com/iliyamo/sports-match-booking/internal/queue"
	"github.com/iliyamo/sports-match-booking/internal/repository"
	"github.com/iliyamo/sports-match-booking/internal/router"
	"github.com/iliyamo/sports-match-booking/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer db.Close()

	// Redis is optional: nil disables the response cache and rate limiter.
	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	stadiums := repository.NewStadiumRepo(db)
	matches := repository.NewMatchRepo(db)

	alloc := allocator.New(stadiums)
	matchSvc := service.NewMatchService(users, matches, stadiums, alloc)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	matchH := handler.NewMatchHandler(matchSvc)
	stadiumH := handler.NewStadiumHandler(stadiums)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterMatch(e, matchH, cfg.JWTSecret, rdb)
	router.RegisterStadium(e, stadiumH, cfg.JWTSecret, rdb)

	// Lifecycle event consumer runs beside the server; it gives up after
	// repeated dial failures instead of retrying forever.
	go func() {
		if err := queue.StartMatchConsumer(); err != nil {
			log.Printf("match consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
