package cli

import (
	"io"
	"os"

	"golang.org/x/term"

	"github.com/sdejongh/imdidiff/pkg/config"
	"github.com/sdejongh/imdidiff/pkg/logging"
)

// consoleLevel picks the console threshold: warnings by default so missing
// targets stay visible, everything with --verbose, errors only with --quiet
func consoleLevel(cfg config.LoggingConfig) logging.Level {
	switch {
	case globalFlags.Quiet:
		return logging.ErrorLevel
	case globalFlags.Verbose:
		level, err := logging.ParseLevel(cfg.Level)
		if err != nil || level > logging.InfoLevel {
			return logging.InfoLevel
		}
		return level
	default:
		return logging.WarnLevel
	}
}

// createLogger builds the console logger writing to stderr, plus a file
// logger when a log file is configured
func createLogger(stderr io.Writer, cfg config.LoggingConfig) (logging.Logger, error) {
	console := logging.NewConsoleLogger(stderr, consoleLevel(cfg), isTerminal(stderr))
	if cfg.File == "" {
		return console, nil
	}

	format, err := logging.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	file, err := logging.NewFileLogger(logging.FileLoggerConfig{
		Path:       cfg.File,
		Format:     format,
		Level:      level,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
	})
	if err != nil {
		return nil, err
	}
	return logging.Multi{console, file}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
