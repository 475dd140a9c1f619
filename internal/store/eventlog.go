package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"planline/internal/model"
)

func appendEventTx(ctx context.Context, tx *sql.Tx, o Origin, typ, entityID string, payload any) error {
	pb, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events(event_id, issued_at_unixms, actor_id, source, type, entity_id, payload_json)
		VALUES(?, ?, ?, ?, ?, ?, ?)`,
		id.String(), nowFunc().UTC().UnixMilli(), o.Actor, o.Source, strings.TrimSpace(typ), entityID, string(pb))
	return err
}

// ReadEvents returns events with seq > afterSeq in log order. limit <= 0
// means no limit.
func (s Store) ReadEvents(ctx context.Context, afterSeq int64, limit int) ([]model.Event, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	q := `SELECT seq, event_id, issued_at_unixms, actor_id, source, type, entity_id, payload_json
	      FROM events
	      WHERE seq > ?
	      ORDER BY seq ASC`
	var rows *sql.Rows
	if limit > 0 {
		rows, err = db.QueryContext(ctx, q+` LIMIT ?`, afterSeq, limit)
	} else {
		rows, err = db.QueryContext(ctx, q, afterSeq)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ReadEventsForTimeline returns the newest limit events of one timeline,
// oldest first.
func (s Store) ReadEventsForTimeline(ctx context.Context, id string, limit int) ([]model.Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return []model.Event{}, nil
	}
	if limit <= 0 {
		limit = -1
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT seq, event_id, issued_at_unixms, actor_id, source, type, entity_id, payload_json
	      FROM (SELECT * FROM events WHERE entity_id = ? ORDER BY seq DESC LIMIT ?)
	      ORDER BY seq ASC`, id, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// LastEventSeq is the seq of the newest event (0 when the log is empty).
func (s Store) LastEventSeq(ctx context.Context) (int64, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	var seq sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(seq) FROM events`).Scan(&seq); err != nil {
		return 0, err
	}
	return seq.Int64, nil
}

func scanEvents(rows *sql.Rows) ([]model.Event, error) {
	out := []model.Event{}
	for rows.Next() {
		var ev model.Event
		var tsMs int64
		var payloadJSON string
		if err := rows.Scan(&ev.Seq, &ev.ID, &tsMs, &ev.ActorID, &ev.Source, &ev.Type, &ev.EntityID, &payloadJSON); err != nil {
			return nil, err
		}
		ev.TS = time.UnixMilli(tsMs).UTC()
		ev.Payload = json.RawMessage(payloadJSON)
		out = append(out, ev)
	}
	return out, rows.Err()
}
