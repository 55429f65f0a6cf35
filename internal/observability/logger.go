package observability

import (
	"github.com/danmuck/bagctl/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger installs the global logger for app.
func InitLogger(app string, cfg logging.Config) zerolog.Logger {
	logger := logging.New(cfg).With().Str("app", app).Logger()
	zerolog.SetGlobalLevel(cfg.Level)
	log.Logger = logger
	return logger
}
