package eventlog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrDuplicateEvent = errors.New("duplicate event")

// Record is one persisted event. Seq is assigned by the store and orders
// records in the order they were appended.
type Record struct {
	Seq        int64
	ID         uuid.UUID
	Type       string
	Attributes map[string]string
	OccurredAt time.Time
}

// Filter selects records with Seq > AfterSeq, optionally of a single Type.
type Filter struct {
	AfterSeq int64
	Type     string
	Limit    int
}

type EventLog interface {
	Append(ctx context.Context, tx *sql.Tx, records ...Record) error
	List(ctx context.Context, f Filter) ([]Record, error)
}
