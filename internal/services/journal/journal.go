// Package journal persists the event stream for indexers. Emit never
// blocks the ledger: events are buffered and written in batches by Run.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/wagerhouse/internal/events"
	"github.com/fastprodman/wagerhouse/internal/infra/pgutils"
	"github.com/fastprodman/wagerhouse/internal/repos/eventlog"
)

const (
	defaultBuffer    = 1024
	defaultBatchSize = 64
	flushTimeout     = 5 * time.Second
)

// TxFunc runs fn in a database transaction.
type TxFunc func(ctx context.Context, fn func(*sql.Tx) error) error

type Service struct {
	log       eventlog.EventLog
	withTx    TxFunc
	records   chan eventlog.Record
	batchSize int
	now       func() time.Time

	dropped atomic.Uint64
}

type Option func(*Service)

func WithBuffer(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.records = make(chan eventlog.Record, n)
		}
	}
}

func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTxFunc replaces pgutils.WithTx.
func WithTxFunc(fn TxFunc) Option {
	return func(s *Service) {
		if fn != nil {
			s.withTx = fn
		}
	}
}

func New(db *sql.DB, log eventlog.EventLog, opts ...Option) *Service {
	s := &Service{
		log: log,
		withTx: func(ctx context.Context, fn func(*sql.Tx) error) error {
			return pgutils.WithTx(ctx, db, fn)
		},
		records:   make(chan eventlog.Record, defaultBuffer),
		batchSize: defaultBatchSize,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Emit queues e for persistence. When the buffer is full the event is
// dropped and counted.
func (s *Service) Emit(e events.Event) {
	if e == nil {
		return
	}

	rec := eventlog.Record{
		ID:         uuid.New(),
		Type:       e.EventType(),
		Attributes: e.Attributes(),
		OccurredAt: s.now().UTC(),
	}

	select {
	case s.records <- rec:
	default:
		n := s.dropped.Add(1)
		slog.Warn("event journal buffer full, event dropped", "type", rec.Type, "dropped", n)
	}
}

// Dropped reports how many events were lost to a full buffer.
func (s *Service) Dropped() uint64 { return s.dropped.Load() }

// Run writes queued events until ctx is canceled, then flushes what is
// still buffered.
func (s *Service) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
			defer cancel()

			return s.flush(flushCtx, s.drain(nil))
		case rec := <-s.records:
			batch := s.fill([]eventlog.Record{rec})

			err := s.flush(ctx, batch)
			if err != nil {
				// failed batches are not retried
				slog.Error("persist events", "error", err, "count", len(batch))
			}
		}
	}
}

// fill tops batch up with whatever is already buffered, up to batchSize.
func (s *Service) fill(batch []eventlog.Record) []eventlog.Record {
	for len(batch) < s.batchSize {
		select {
		case rec := <-s.records:
			batch = append(batch, rec)
		default:
			return batch
		}
	}

	return batch
}

func (s *Service) drain(batch []eventlog.Record) []eventlog.Record {
	for {
		select {
		case rec := <-s.records:
			batch = append(batch, rec)
		default:
			return batch
		}
	}
}

func (s *Service) flush(ctx context.Context, batch []eventlog.Record) error {
	if len(batch) == 0 {
		return nil
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return s.log.Append(ctx, tx, batch...)
	})
	if err != nil {
		return fmt.Errorf("flush %d events: %w", len(batch), err)
	}

	return nil
}

// List returns persisted events.
func (s *Service) List(ctx context.Context, f eventlog.Filter) ([]eventlog.Record, error) {
	recs, err := s.log.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	return recs, nil
}
