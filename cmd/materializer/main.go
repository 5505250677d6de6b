package main

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"staycal/internal/adapters/observability"
	redisad "staycal/internal/adapters/redis"
	"staycal/internal/app"
	"staycal/internal/domain"
	"staycal/internal/shared"
	mysqlrepo "staycal/internal/storage/mysql"
)

// Re-materializes the rate calendar for every room type over the
// configured horizon. Run on pricing-rule changes or on a schedule to
// extend the horizon.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Int("workers", cfg.Workers).
		Int("horizon_days", cfg.HorizonDays).
		Msg("materializer starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	mat := app.NewMaterializerService(repo, cache)

	ids, err := repo.ListRoomTypeIDs(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list room types failed")
	}

	from := domain.DateOf(time.Now().UTC())
	to := from.AddDate(0, 0, cfg.HorizonDays-1)

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, id := range ids {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(roomTypeID int64) {
			defer wg.Done()
			defer sem.Release(1)

			n, err := mat.Materialize(ctx, roomTypeID, from, to)
			if err != nil {
				log.Warn().Int64("room_type", roomTypeID).Err(err).Msg("materialize failed")
				return
			}
			log.Info().Int64("room_type", roomTypeID).Int("entries", n).Msg("materialize ok")
		}(id)
	}

	wg.Wait()
	log.Info().Msg("materialization completed")
}
