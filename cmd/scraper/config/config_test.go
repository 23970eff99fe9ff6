package config_test

import (
	"testing"
	"time"

	"github.com/MichalMitros/product-scraper/cmd/scraper/config"
	"github.com/MichalMitros/product-scraper/pkg/v1/commander"
	"github.com/caarlos0/env/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitConfigDefaults(t *testing.T) {
	var cfg config.Config

	require.NoError(t, env.Parse(&cfg, env.Options{Environment: map[string]string{}}), "shouldn't return any error")

	assert.Equal(t, config.Config{
		HTTPTimeout: 10 * time.Second,
		UserAgent:   "product-scraper/0.0.1",
		Scraper: config.Scraper{
			MediaDir:          "./public",
			Concurrency:       4,
			RequestsPerSecond: 2,
			RateBurst:         1,
		},
		RabbitMQ: config.RabbitMQ{
			Exchange:   "ps-ex",
			Queue:      "product-scraper.commands",
			RoutingKey: commander.ScrapeRoutingKey,
			Prefetch:   1,
		},
	}, cfg, "should use default values")
}

func TestUnitConfigFromEnvironment(t *testing.T) {
	var cfg config.Config

	err := env.Parse(&cfg, env.Options{Environment: map[string]string{
		"DATABASE_URL":         "postgres://scraper@localhost/products",
		"HTTP_TIMEOUT":         "3s",
		"REQUESTS_PER_SECOND":  "0",
		"STRICT_IMAGE_PATH":    "true",
		"RABBITMQ_PREFETCH":    "8",
		"RABBITMQ_ROUTING_KEY": "ps.cmd.scrape.eu",
	}})

	require.NoError(t, err, "shouldn't return any error")
	assert.Equal(t, "postgres://scraper@localhost/products", cfg.DatabaseURL, "should read database url")
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout, "should read http timeout")
	assert.Zero(t, cfg.Scraper.RequestsPerSecond, "should disable rate limiting")
	assert.True(t, cfg.Scraper.StrictImagePath, "should enable strict image path")
	assert.Equal(t, 8, cfg.RabbitMQ.Prefetch, "should read prefetch")
	assert.Equal(t, "ps.cmd.scrape.eu", cfg.RabbitMQ.RoutingKey, "should read routing key")
}

func TestUnitConfigInvalidValue(t *testing.T) {
	var cfg config.Config

	err := env.Parse(&cfg, env.Options{Environment: map[string]string{"HTTP_TIMEOUT": "soon"}})

	require.Error(t, err, "should reject invalid duration")
}
