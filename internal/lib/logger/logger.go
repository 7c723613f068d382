package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/linemk/ecofinds/internal/lib/logger/handlers/slogpretty"
)

// switching logger
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// полные имена окружений, которые встречаются в конфигах (env-default в config — "development")
var envAliases = map[string]string{
	"development": EnvDev,
	"production":  EnvProd,
}

// SetupLogger инициализирует логгер в зависимости от переданного окружения
// для локальной разработки используется цветной вывод (pretty), а для dev/prod – JSON
func SetupLogger(env string) *slog.Logger {
	return New(env, os.Stdout)
}

// New пишет логи в out. Каждая запись помечается окружением.
func New(env string, out io.Writer) *slog.Logger {
	env = normalizeEnv(env)

	var log *slog.Logger
	switch env {
	case EnvLocal:
		log = setupPrettySlog(out)
	case EnvDev:
		log = slog.New(
			slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log.With(slog.String("env", env))
}

func normalizeEnv(env string) string {
	env = strings.ToLower(strings.TrimSpace(env))
	if alias, ok := envAliases[env]; ok {
		return alias
	}
	return env
}

func setupPrettySlog(out io.Writer) *slog.Logger {
	color.NoColor = false

	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(out)
	return slog.New(handler)
}
