package logging

import (
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/edvin/patroni-exporter/internal/config"
)

// NewLogger creates the root structured logger. Every line carries a run_id
// so log output from restarts can be told apart.
func NewLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "patroni-exporter").
		Str("run_id", uuid.NewString()).
		Logger()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	return logger.Level(level)
}
