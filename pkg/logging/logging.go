// Package logging builds the zerolog loggers used by the CLI and the TUI.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Mode selects where log lines go.
type Mode int

const (
	// ModeCLI logs to stderr and the log file.
	ModeCLI Mode = iota
	// ModeTUI logs to the file only; the terminal belongs to the UI.
	ModeTUI
)

// Options configure New.
type Options struct {
	Mode    Mode
	Level   string
	Verbose bool
	// ConsoleLevel, when set, raises the threshold for the console only.
	// It is ignored when Verbose is set.
	ConsoleLevel string
	File         string
	// Console replaces stderr, mainly for tests.
	Console io.Writer
}

// Logger wraps the logger with the file it may hold open.
type Logger struct {
	zerolog.Logger
	file io.Closer
}

// Close releases the log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// New builds a logger. If the log file cannot be created the logger keeps
// going without it, and the error is returned alongside.
func New(opts Options) (*Logger, error) {
	level := ParseLevel(opts.Level)
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	var writers []io.Writer
	if opts.Mode == ModeCLI {
		console := selectOutput(opts.Console)
		if opts.ConsoleLevel != "" && !opts.Verbose {
			console = &zerolog.FilteredLevelWriter{
				Writer: zerolog.LevelWriterAdapter{Writer: console},
				Level:  ParseLevel(opts.ConsoleLevel),
			}
		}
		writers = append(writers, console)
	}

	var (
		file    io.WriteCloser
		fileErr error
	)
	if opts.File != "" {
		file, fileErr = fileWriter(opts.File)
		if file != nil {
			writers = append(writers, file)
		}
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = io.Discard
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}

	l := &Logger{
		Logger: zerolog.New(out).Level(level).With().Timestamp().Logger(),
		file:   file,
	}
	return l, fileErr
}

// ParseLevel maps a config level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func selectOutput(console io.Writer) io.Writer {
	if console != nil {
		return console
	}
	if term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("NO_COLOR") == "" {
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return os.Stderr
}

func fileWriter(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    5,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}, nil
}
