package repository

import (
	"time"

	"github.com/okian/scorekeeper/pkg/logger"
)

const (
	defaultKeyPrefix = "scorekeeper:"
	defaultFileMode  = 0o644
)

type options struct {
	log       logger.Logger
	keyPrefix string
	ttl       time.Duration
	migrate   bool
}

func defaultOptions() options {
	return options{
		log:       logger.Nop(),
		keyPrefix: defaultKeyPrefix,
		migrate:   true,
	}
}

// Option applies a configuration option to a store.
type Option func(*options)

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithKeyPrefix sets the Redis key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.keyPrefix = prefix
		}
	}
}

// WithTTL expires Redis keys after d. Zero keeps them forever.
func WithTTL(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.ttl = d
		}
	}
}

// WithMigrations toggles schema creation when a Postgres store opens.
func WithMigrations(enabled bool) Option {
	return func(o *options) {
		o.migrate = enabled
	}
}

func apply(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
