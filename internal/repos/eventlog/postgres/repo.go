package eventlog

import (
	"database/sql"

	"github.com/fastprodman/wagerhouse/internal/repos/eventlog"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

var _ eventlog.EventLog = (*eventLogRepo)(nil)

type eventLogRepo struct{ db *sql.DB }

func New(db *sql.DB) *eventLogRepo {
	return &eventLogRepo{db: db}
}
