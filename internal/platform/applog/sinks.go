package applog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
)

// SlogSink writes entries to a structured logger. It is the fallback when
// PostgreSQL logging is not configured.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink wraps logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Write(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		attrs := []slog.Attr{
			slog.String("source", e.Source),
			slog.String("url", e.URL),
		}
		if len(e.Context) > 0 {
			attrs = append(attrs, slog.Any("context", e.Context))
		}
		s.logger.LogAttrs(ctx, e.Level.SlogLevel(), e.Message, attrs...)
	}
	return nil
}

// BatchSender is the part of pgxpool.Pool used by PgxSink.
type BatchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PgxSink calls the log_event stored procedure, one batch round trip per Write.
type PgxSink struct {
	db BatchSender
}

// NewPgxSink wires a pool. Caller owns the pool lifecycle.
func NewPgxSink(db BatchSender) *PgxSink {
	return &PgxSink{db: db}
}

const logEventSQL = "SELECT log_event($1, $2, $3::jsonb, $4, $5)"

func (s *PgxSink) Write(ctx context.Context, entries []Entry) error {
	if s == nil || s.db == nil {
		return errors.New("postgres log sink not configured")
	}
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range entries {
		contextJSON := []byte("{}")
		if len(e.Context) > 0 {
			raw, err := json.Marshal(e.Context)
			if err != nil {
				return fmt.Errorf("marshal log context: %w", err)
			}
			contextJSON = raw
		}
		batch.Queue(logEventSQL, string(e.Level), e.Message, string(contextJSON), e.URL, e.Source)
	}
	results := s.db.SendBatch(ctx, batch)
	var errs error
	for range entries {
		if _, err := results.Exec(); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errors.Join(errs, results.Close())
}

// AsyncSink queues entries for a background writer and drops them when the
// queue is full, so logging never blocks request handling.
type AsyncSink struct {
	next     Sink
	queue    chan Entry
	fallback *slog.Logger
	wg       sync.WaitGroup
	once     sync.Once

	mu      sync.Mutex
	dropped int
}

// NewAsyncSink starts the writer goroutine. Close drains it.
func NewAsyncSink(next Sink, size int, fallback *slog.Logger) *AsyncSink {
	if size <= 0 {
		size = 256
	}
	s := &AsyncSink{next: next, queue: make(chan Entry, size), fallback: fallback}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *AsyncSink) Write(_ context.Context, entries []Entry) error {
	for _, e := range entries {
		select {
		case s.queue <- e:
		default:
			s.mu.Lock()
			s.dropped++
			s.mu.Unlock()
		}
	}
	return nil
}

// Dropped reports how many entries were discarded because the queue was full.
func (s *AsyncSink) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *AsyncSink) run() {
	defer s.wg.Done()
	const maxBatch = 32
	batch := make([]Entry, 0, maxBatch)
	for e := range s.queue {
		batch = append(batch[:0], e)
	drain:
		for len(batch) < maxBatch {
			select {
			case next, ok := <-s.queue:
				if !ok {
					break drain
				}
				batch = append(batch, next)
			default:
				break drain
			}
		}
		if err := s.next.Write(context.Background(), batch); err != nil && s.fallback != nil {
			s.fallback.Warn("failed to persist log entries", slog.Int("count", len(batch)), slog.String("error", err.Error()))
		}
	}
}

// Close stops accepting entries and waits for queued ones to be written.
func (s *AsyncSink) Close() {
	s.once.Do(func() {
		close(s.queue)
		s.wg.Wait()
	})
}
