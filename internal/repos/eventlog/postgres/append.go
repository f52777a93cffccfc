package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fastprodman/wagerhouse/internal/repos/eventlog"
)

func (r *eventLogRepo) Append(ctx context.Context, tx *sql.Tx, records ...eventlog.Record) error {
	for _, rec := range records {
		attrs := rec.Attributes
		if attrs == nil {
			attrs = map[string]string{}
		}

		raw, err := json.Marshal(attrs)
		if err != nil {
			return fmt.Errorf("marshal attributes: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO ledger_events (event_id, event_type, attributes, occurred_at)
			VALUES ($1, $2, $3::jsonb, $4)
		`, rec.ID, rec.Type, string(raw), rec.OccurredAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) {
				if pgErr.Code == "23505" { // unique_violation
					return eventlog.ErrDuplicateEvent
				}
			}

			return fmt.Errorf("insert event: %w", err)
		}
	}

	return nil
}
