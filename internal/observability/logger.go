package observability

import (
	"log/slog"
	"os"

	"github.com/cvenhancer/core/internal/config"
)

// SetupLogger configures a JSON slog logger tagged with the service name and
// environment, verbose in dev and info-level elsewhere.
func SetupLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{}
	if cfg.IsDev() {
		opts.Level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(h).With(
		slog.String("service", cfg.OTELServiceName),
		slog.String("env", cfg.AppEnv),
	)
}
