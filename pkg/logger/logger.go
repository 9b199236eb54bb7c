package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config opciones del logger del servicio de traslados.
type Config struct {
	Env     string // development: consola; cualquier otro valor: JSON
	Level   string // nivel zerolog; vacío o inválido equivale a info
	Service string // se agrega como campo "service" en cada evento
}

// Logger envuelve zerolog; los casos de uso reciben sub-loggers vía Component.
type Logger struct {
	zl zerolog.Logger
}

// New arma el logger raíz y lo instala como log.Logger global.
func New(cfg Config) *Logger {
	zl := zerolog.New(output(cfg.Env)).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
	if cfg.Service != "" {
		zl = zl.With().Str("service", cfg.Service).Logger()
	}
	log.Logger = zl
	return &Logger{zl: zl}
}

func output(env string) io.Writer {
	if env == "development" {
		return zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}
	return os.Stdout
}

func parseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return level
}

func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }

// Component sub-logger con campo "component" (transfer, http, migrate).
func (l *Logger) Component(name string) zerolog.Logger {
	return l.zl.With().Str("component", name).Logger()
}
