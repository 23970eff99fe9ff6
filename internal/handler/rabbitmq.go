package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MichalMitros/product-scraper/internal/platform/rabbitmq"
	"github.com/MichalMitros/product-scraper/internal/scraper"
	"github.com/MichalMitros/product-scraper/pkg/v1/commander"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

//go:generate mockery --name Scraper --filename scraper.go
//go:generate mockery --name Consumer --filename consumer.go

var (
	// ErrInvalidCommand is returned when scrape command can't be decoded or has no product urls.
	ErrInvalidCommand = errors.New("invalid scrape command")
	// ErrScrapingFailed is returned when at least one product of scrape command failed.
	ErrScrapingFailed = errors.New("scraping failed")
)

// Scraper scrapes product pages.
type Scraper interface {
	ScrapeAll(ctx context.Context, productURLs []string) []scraper.Result
}

// Consumer consumes messages from queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler rabbitmq.HandlerFunc) (<-chan error, error)
}

// RMQHandler handles RMQ messages.
type RMQHandler struct {
	consumer Consumer
	scraper  Scraper
	logger   *zerolog.Logger
}

// NewHandler returns new RMQHandler.
func NewHandler(consumer Consumer, scr Scraper, logger *zerolog.Logger) *RMQHandler {
	return &RMQHandler{
		consumer: consumer,
		scraper:  scr,
		logger:   logger,
	}
}

// Start starts consuming and handling scrape commands from RMQ.
func (h *RMQHandler) Start(ctx context.Context, queue string) error {
	errorsChan, err := h.consumer.Consume(ctx, queue, h.Handle)
	if err != nil {
		return err
	}

	go func() {
		for err := range errorsChan {
			h.logger.Error().
				Err(err).
				Msg("can't handle message")
		}
	}()

	return nil
}

// Handle scrapes every product url of scrape command message.
// It returns error when command is invalid or any of the products failed.
func (h *RMQHandler) Handle(ctx context.Context, message []byte) error {
	cmd, err := decodeMessage(message)
	if err != nil {
		return err
	}

	h.logger.Debug().
		Strs("productUrls", cmd.ProductURLs).
		Msg("scraping started")

	results := h.scraper.ScrapeAll(ctx, cmd.ProductURLs)
	failed := lo.CountBy(results, func(r scraper.Result) bool { return !r.OK() })

	h.logger.Debug().
		Int("scraped", len(results)-failed).
		Int("failed", failed).
		Msg("scraping finished")

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d products failed", ErrScrapingFailed, failed, len(results))
	}

	return nil
}

func decodeMessage(msg []byte) (*commander.ScrapeCommand, error) {
	var cmd commander.ScrapeCommand
	if err := json.Unmarshal(msg, &cmd); err != nil {
		return nil, fmt.Errorf("%w: can't decode scrape command: %w", ErrInvalidCommand, err)
	}

	if len(cmd.ProductURLs) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, commander.ErrNoProductURLs)
	}

	return &cmd, nil
}
