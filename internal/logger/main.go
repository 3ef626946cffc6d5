// Package logger implements the process-wide zerolog logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelWriter routes events to one of two sinks: warnings and worse to the
// error sink, everything below to the info sink.
type LevelWriter struct {
	io.Writer
	ErrorWriter io.Writer
	InfoWriter  io.Writer
}

// WriteLevel implements zerolog.LevelWriter.
func (lw *LevelWriter) WriteLevel(l zerolog.Level, p []byte) (n int, err error) {
	if l == zerolog.Disabled {
		return 0, nil
	}

	w := lw.InfoWriter
	if l >= zerolog.WarnLevel {
		w = lw.ErrorWriter
	}

	return w.Write(p) //nolint:wrapcheck
}

// Init configures the global zerolog logger from the config. At least one
// of the console and file outputs should be enabled to see anything.
func Init(cfg Log) error {
	var (
		logLevel, err = zerolog.ParseLevel(cfg.LogLevel)
		writers       []io.Writer
		stack         bool
	)

	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("loglevel %s is not supported", cfg.LogLevel))
	}

	if cfg.ServiceName == "" {
		return ErrServiceNameIsEmpty
	}

	if cfg.AppName == "" {
		return ErrAppNameIsEmpty
	}

	// trace level carries error stacks
	if logLevel == zerolog.TraceLevel {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack //nolint:reassign
		stack = true
	}

	zerolog.SetGlobalLevel(logLevel)

	ph := NewPrometheusHook(cfg.ServiceName)

	if cfg.Console.Enabled {
		writers = append(writers, NewConsoleWriter(cfg))
	}

	if cfg.File.Enabled {
		writers = append(writers, newRollingFileWriter(cfg))
	}

	mw := zerolog.MultiLevelWriter(writers...)

	switch {
	case cfg.ReportCaller && stack:
		log.Logger = zerolog.New(mw).Hook(ph).With().Timestamp().Stack().Logger()
	case cfg.ReportCaller:
		log.Logger = zerolog.New(mw).Hook(ph).With().Timestamp().Caller().Logger()
	default:
		log.Logger = zerolog.New(mw).Hook(ph).With().Timestamp().Logger()
	}

	return nil
}

// newRollingFileWriter backs the two sinks with lumberjack rolling files.
func newRollingFileWriter(cfg Log) io.Writer {
	if err := os.MkdirAll(cfg.File.Path, 0o750); err != nil { //nolint: mnd
		log.Error().Err(err).Str("path", cfg.File.Path).Msg("can't create log directory")

		return nil
	}

	return &LevelWriter{
		ErrorWriter: &lumberjack.Logger{
			Filename:   path.Join(cfg.File.Path, cfg.File.ErrorLog),
			MaxSize:    cfg.File.ErrorMaxSize,
			MaxAge:     cfg.File.ErrorMaxAge,
			MaxBackups: cfg.File.ErrorMaxBackups,
		},
		InfoWriter: &lumberjack.Logger{
			Filename:   path.Join(cfg.File.Path, cfg.File.InfoLog),
			MaxSize:    cfg.File.InfoMaxSize,
			MaxAge:     cfg.File.InfoMaxAge,
			MaxBackups: cfg.File.InfoMaxBackups,
		},
	}
}

// NewConsoleWriter sends the error sink to stderr and the info sink to
// stdout, optionally through zerolog's human-readable ConsoleWriter.
func NewConsoleWriter(cfg Log) io.Writer {
	lw := LevelWriter{
		ErrorWriter: os.Stderr,
		InfoWriter:  os.Stdout,
	}

	if cfg.Console.UseConsoleWriter {
		lw.ErrorWriter = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: zerolog.TimeFieldFormat,
		}

		lw.InfoWriter = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: zerolog.TimeFieldFormat,
		}
	}

	return &lw
}
