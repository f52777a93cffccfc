package eventlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fastprodman/wagerhouse/internal/repos/eventlog"
)

func (r *eventLogRepo) List(ctx context.Context, f eventlog.Filter) ([]eventlog.Record, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT seq, event_id, event_type, attributes, occurred_at
		FROM ledger_events
		WHERE seq > $1 AND ($2::text = '' OR event_type = $2::text)
		ORDER BY seq
		LIMIT $3
	`, f.AfterSeq, f.Type, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	//nolint:errcheck
	defer rows.Close()

	out := make([]eventlog.Record, 0, limit)

	for rows.Next() {
		var (
			rec eventlog.Record
			raw []byte
		)

		err = rows.Scan(&rec.Seq, &rec.ID, &rec.Type, &raw, &rec.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		err = json.Unmarshal(raw, &rec.Attributes)
		if err != nil {
			return nil, fmt.Errorf("unmarshal attributes: %w", err)
		}

		rec.OccurredAt = rec.OccurredAt.UTC()
		out = append(out, rec)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return out, nil
}
