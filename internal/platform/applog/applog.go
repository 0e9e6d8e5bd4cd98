// Package applog persists application log entries coming from browsers and from the server itself.
package applog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMessageLength bounds accepted messages in characters.
const MaxMessageLength = 2000

// Level is the severity of an entry.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Source tells where an entry originated.
const (
	SourceClient = "client"
	SourceServer = "server"
)

var (
	ErrInvalidLevel    = errors.New("log level must be one of debug, info, warn, error")
	ErrEmptyMessage    = errors.New("log message is required")
	ErrMessageTooLong  = fmt.Errorf("log message exceeds %d characters", MaxMessageLength)
	ErrTooManyEntries  = errors.New("too many log entries in one request")
	maxEntriesPerBatch = 50
)

// Entry is one log record.
type Entry struct {
	Level   Level
	Message string
	Context map[string]any
	URL     string
	Source  string
	Time    time.Time
}

// ParseLevel validates a level string.
func ParseLevel(raw string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(raw))) {
	case LevelDebug:
		return LevelDebug, nil
	case LevelInfo:
		return LevelInfo, nil
	case LevelWarn, "warning":
		return LevelWarn, nil
	case LevelError:
		return LevelError, nil
	default:
		return "", ErrInvalidLevel
	}
}

// Validate checks level and message bounds.
func (e Entry) Validate() error {
	if _, err := ParseLevel(string(e.Level)); err != nil {
		return err
	}
	if strings.TrimSpace(e.Message) == "" {
		return ErrEmptyMessage
	}
	if utf8.RuneCountInString(e.Message) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// SlogLevel maps the entry level onto slog.
func (l Level) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func levelFromSlog(l slog.Level) Level {
	switch {
	case l >= slog.LevelError:
		return LevelError
	case l >= slog.LevelWarn:
		return LevelWarn
	case l >= slog.LevelInfo:
		return LevelInfo
	default:
		return LevelDebug
	}
}

// Sink stores entries.
type Sink interface {
	Write(ctx context.Context, entries []Entry) error
}

// Service validates and forwards client log entries.
type Service struct {
	sink Sink
	now  func() time.Time
}

// NewService wires a sink.
func NewService(sink Sink) *Service {
	return &Service{sink: sink, now: time.Now}
}

// Ingest validates every entry, stamps it as client sourced and writes them in one batch.
// Nothing is written when any entry is invalid.
func (s *Service) Ingest(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if len(entries) > maxEntriesPerBatch {
		return ErrTooManyEntries
	}
	prepared := make([]Entry, 0, len(entries))
	for i, e := range entries {
		level, err := ParseLevel(string(e.Level))
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		e.Level = level
		if err := e.Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		e.Source = SourceClient
		if e.Time.IsZero() {
			e.Time = s.now().UTC()
		}
		prepared = append(prepared, e)
	}
	return s.sink.Write(ctx, prepared)
}

// IsValidationError reports whether err came from entry validation.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidLevel) || errors.Is(err, ErrEmptyMessage) ||
		errors.Is(err, ErrMessageTooLong) || errors.Is(err, ErrTooManyEntries)
}
