package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const permission = 0664

var (
	mu  sync.RWMutex
	log = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// Options controls where the process logger writes
type Options struct {
	Dir    string    // directory for the daily log file, empty disables file output
	Level  string    // zerolog level name
	Writer io.Writer // console writer, defaults to stdout
}

// SetupLogger initialises the process logger. Output goes to the console and,
// when a directory is given, to a file named after the current date.
func SetupLogger(opts Options) error {
	console := opts.Writer
	if console == nil {
		console = os.Stdout
	}
	writer := console

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		name := filepath.Join(opts.Dir, time.Now().Format("2006-01-02")+".log")
		file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, permission)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		writer = io.MultiWriter(console, zerolog.SyncWriter(file))
	}

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	mu.Lock()
	log = zerolog.New(writer).Level(level).With().Timestamp().Logger()
	mu.Unlock()
	return nil
}

// Get returns the process logger for structured use
func Get() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := log
	return &l
}

// Debug logs at debug level
func Debug(format string, v ...interface{}) {
	Get().Debug().Msgf(format, v...)
}

// Info logs at info level
func Info(format string, v ...interface{}) {
	Get().Info().Msgf(format, v...)
}

// Warning logs at warn level
func Warning(format string, v ...interface{}) {
	Get().Warn().Msgf(format, v...)
}

// Error logs at error level
func Error(format string, v ...interface{}) {
	Get().Error().Msgf(format, v...)
}
