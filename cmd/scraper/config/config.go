package config

import "time"

// Config holds application configuration.
type Config struct {
	DatabaseURL string        `env:"DATABASE_URL"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`
	UserAgent   string        `env:"USER_AGENT" envDefault:"product-scraper/0.0.1"`

	Scraper  Scraper
	RabbitMQ RabbitMQ
}

// Scraper holds scraping pipeline configuration.
type Scraper struct {
	MediaDir    string `env:"MEDIA_DIR" envDefault:"./public"`
	Concurrency int    `env:"SCRAPE_CONCURRENCY" envDefault:"4"`
	// RequestsPerSecond limits outgoing http requests, 0 disables limiting.
	RequestsPerSecond float64 `env:"REQUESTS_PER_SECOND" envDefault:"2"`
	RateBurst         int     `env:"RATE_BURST" envDefault:"1"`
	StrictImagePath   bool    `env:"STRICT_IMAGE_PATH" envDefault:"false"`
}

// RabbitMQ holds RabbitMQ configuration.
type RabbitMQ struct {
	URL      string `env:"RABBITMQ_URL"`
	Exchange string `env:"RABBITMQ_EXCHANGE" envDefault:"ps-ex"`
	Queue    string `env:"RABBITMQ_QUEUE" envDefault:"product-scraper.commands"`
	// RoutingKey binds commands queue to exchange, matches commander.ScrapeRoutingKey by default.
	RoutingKey string `env:"RABBITMQ_ROUTING_KEY" envDefault:"ps.cmd.scrape"`
	Prefetch   int    `env:"RABBITMQ_PREFETCH" envDefault:"1"`
}
