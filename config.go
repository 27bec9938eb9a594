package notify

import "time"

// Config holds dispatcher tuning loaded from the environment.
type Config struct {
	BatchSize    int           `env:"NOTIFY_BATCH_SIZE" envDefault:"50"`
	PullInterval time.Duration `env:"NOTIFY_PULL_INTERVAL" envDefault:"5s"`
	SendTimeout  time.Duration `env:"NOTIFY_SEND_TIMEOUT" envDefault:"30s"`
	StaleAfter   time.Duration `env:"NOTIFY_STALE_AFTER" envDefault:"5m"`
}

// Options translates the config into dispatcher options.
func (c Config) Options() []DispatcherOption {
	return []DispatcherOption{
		WithBatchSize(c.BatchSize),
		WithPullInterval(c.PullInterval),
		WithSendTimeout(c.SendTimeout),
		WithStaleAfter(c.StaleAfter),
	}
}
