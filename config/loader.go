package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var loadDotEnv sync.Once

// Load parses environment variables into cfg based on `env` struct tags.
// On first use it also loads a .env file from the working directory when
// one exists, so local development works without exporting anything.
//
//	type GatewayConfig struct {
//		EndpointURL string `env:"SMS_ENDPOINT_URL,required"`
//		APIKey      string `env:"SMS_API_KEY,required"`
//	}
//
//	var cfg GatewayConfig
//	if err := config.Load(&cfg); err != nil { … }
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilPointer
	}
	loadDotEnv.Do(func() {
		// Missing .env is fine; real environments export variables.
		_ = godotenv.Load()
	})
	if err := env.Parse(cfg); err != nil {
		return errors.Join(ErrParse, err)
	}
	return nil
}

// MustLoad is Load that panics, for configuration the process cannot start
// without.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}
