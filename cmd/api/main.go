package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "staycal/internal/adapters/http_server"
	"staycal/internal/adapters/kafka"
	"staycal/internal/adapters/observability"
	redisad "staycal/internal/adapters/redis"
	"staycal/internal/app"
	"staycal/internal/domain"
	"staycal/internal/shared"
	mysqlrepo "staycal/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	var pub domain.Publisher = kafka.LogPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Fatal().Err(err).Msg("kafka producer init failed")
		}
		defer kp.Close()
		pub = kp
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("kafka publisher ready")
	}

	avail := app.NewAvailabilityService(repo, cache, cfg.CacheTTL)
	quote := app.NewQuoteService(repo)
	bookings := app.NewBookingService(repo, repo, cache, pub)
	listings := app.NewListingService(repo)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Avail:        avail,
		Quote:        quote,
		Bookings:     bookings,
		Listings:     listings,
		BookingRPS:   cfg.BookingRPS,
		BookingBurst: cfg.BookingBurst,
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
