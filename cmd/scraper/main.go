package main

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/MichalMitros/product-scraper/cmd/scraper/config"
	"github.com/MichalMitros/product-scraper/internal/fetcher"
	"github.com/MichalMitros/product-scraper/internal/handler"
	"github.com/MichalMitros/product-scraper/internal/media"
	"github.com/MichalMitros/product-scraper/internal/platform/rabbitmq"
	"github.com/MichalMitros/product-scraper/internal/platform/storage"
	"github.com/MichalMitros/product-scraper/internal/scraper"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/time/rate"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Fatal().
			Err(err).
			Msg("can't load .env file")
	}

	var cfg config.Config
	if err := env.Parse(&cfg); err != nil {
		logger.Fatal().
			Err(err).
			Msg("can't parse env variables")
	}

	amqpConnection, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Fatal().
			Err(err).
			Msg("can't open RabbitMQ connection")
	}

	conn, err := rabbitmq.NewRabbitMQ(
		amqpConnection,
		cfg.RabbitMQ.Exchange,
		rabbitmq.WithPrefetch(cfg.RabbitMQ.Prefetch),
	)
	if err != nil {
		logger.Fatal().
			Err(err).
			Msg("can't open RabbitMQ channel")
	}

	if err := conn.Bind(cfg.RabbitMQ.Queue, cfg.RabbitMQ.RoutingKey); err != nil {
		logger.Fatal().
			Err(err).
			Msg("can't bind commands queue")
	}

	pgDB, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().
			Err(err).
			Msg("can't open Postgres connection")
	}

	if err := storage.Migrate(ctx, pgDB); err != nil {
		logger.Fatal().
			Err(err).
			Msg("can't migrate database")
	}

	scr := scraper.NewScraper(
		newFetcher(&cfg),
		storage.NewPostgres(pgDB),
		media.NewStore(afero.NewOsFs(), cfg.Scraper.MediaDir),
		&logger,
		scraperOptions(&cfg)...,
	)

	han := handler.NewHandler(conn, scr, &logger)

	// start consuming and handling messages
	err = han.Start(ctx, cfg.RabbitMQ.Queue)
	if err != nil {
		logger.Fatal().
			Err(err).
			Msg("can't start consuming")
	}

	logger.Info().Msg("product scraper up and running")

	// handle graceful shutdown and context cancellation
	termChan := make(chan os.Signal, 1)
	signal.Notify(termChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-termChan:
		cancel()
	case <-ctx.Done():
	}

	logger.Info().Msg("graceful shutdown start")

	// wait for consumer to finish
	<-conn.Done()

	// close connections
	wg := sync.WaitGroup{}
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := pgDB.Close(); err != nil {
			logger.Fatal().
				Err(err).
				Msg("can't close Postgres connection")
		}
	}()

	go func() {
		defer wg.Done()
		if err := amqpConnection.Close(); err != nil {
			logger.Fatal().
				Err(err).
				Msg("can't close RabbitMQ connection")
		}
	}()

	wg.Wait()

	logger.Info().Msg("graceful shutdown successful")
}

func newFetcher(cfg *config.Config) *fetcher.Fetcher {
	client := &http.Client{Timeout: cfg.HTTPTimeout}

	if cfg.Scraper.RequestsPerSecond <= 0 {
		return fetcher.NewFetcher(client, cfg.UserAgent)
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.Scraper.RequestsPerSecond), max(cfg.Scraper.RateBurst, 1))

	return fetcher.NewFetcher(client, cfg.UserAgent, fetcher.WithRateLimit(limiter))
}

func scraperOptions(cfg *config.Config) []scraper.Option {
	ops := []scraper.Option{scraper.WithConcurrency(cfg.Scraper.Concurrency)}

	if cfg.Scraper.StrictImagePath {
		ops = append(ops, scraper.WithStrictImagePath())
	}

	return ops
}
