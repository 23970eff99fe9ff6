package commander

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

//go:generate mockery --name Sender --filename sender.go

// ErrNoProductURLs is returned when scrape command would have no product urls.
var ErrNoProductURLs = errors.New("no product urls")

// Sender sends messages.
type Sender interface {
	Send(context.Context, []byte) error
}

// ScrapeCommander sends scrape commands.
type ScrapeCommander struct {
	sender Sender
}

// NewScrapeCommander returns new ScrapeCommander using provided sender for sending messages.
func NewScrapeCommander(sender Sender) ScrapeCommander {
	return ScrapeCommander{
		sender: sender,
	}
}

// SendScrapeCommand sends single scrape command with all provided product urls.
func (c ScrapeCommander) SendScrapeCommand(ctx context.Context, productURLs ...string) error {
	if len(productURLs) == 0 {
		return ErrNoProductURLs
	}

	cmdMsg, err := json.Marshal(ScrapeCommand{ProductURLs: productURLs})
	if err != nil {
		return fmt.Errorf("can't marshal scrape command: %w", err)
	}

	if err := c.sender.Send(ctx, cmdMsg); err != nil {
		return fmt.Errorf("can't send scrape command: %w", err)
	}

	return nil
}
