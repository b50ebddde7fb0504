package types

import (
	"log/slog"

	"github.com/lepinkainen/tinyimg/config"
)

// DefaultVersion is the fallback version when AppContext is nil
const DefaultVersion = "dev"

// AppContext holds application-wide context information passed to commands
type AppContext struct {
	Version    string
	ConfigPath string
	Config     *config.Config
	Logger     *slog.Logger
}

// LoggerOrDiscard returns the context logger, or a logger that drops everything
func (a *AppContext) LoggerOrDiscard() *slog.Logger {
	if a == nil || a.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.Logger
}
