package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"planline/internal/model"
	"planline/internal/weeks"
)

// CreateInput holds the optional initial fields of a new timeline.
type CreateInput struct {
	Name          string          `json:"name,omitempty"`
	StartDate     string          `json:"startDate,omitempty"`
	Tasks         []model.Task    `json:"tasks,omitempty"`
	NodePositions model.Positions `json:"nodePositions,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

const timelineColumns = `id, name, start_date, tasks_json, node_positions_json, notes, created_at_unixms, updated_at_unixms`

// Create inserts a timeline. A blank name becomes "My Timeline" and a blank
// start date becomes today.
func (s Store) Create(ctx context.Context, o Origin, in CreateInput) (model.Record, error) {
	o = o.normalized()
	now := nowFunc().UTC()

	rec := model.Record{
		Name:          strings.TrimSpace(in.Name),
		StartDate:     strings.TrimSpace(in.StartDate),
		Tasks:         in.Tasks,
		NodePositions: in.NodePositions,
		Notes:         in.Notes,
		CreatedAt:     time.UnixMilli(now.UnixMilli()).UTC(),
	}
	rec.UpdatedAt = rec.CreatedAt
	if rec.Name == "" {
		rec.Name = model.DefaultTimelineName
	}
	if rec.StartDate == "" {
		rec.StartDate = weeks.FormatDate(now)
	} else if _, err := weeks.ParseDate(rec.StartDate); err != nil {
		return model.Record{}, InvalidFieldError{Field: "startDate", Reason: err.Error()}
	}
	normalizeRecord(&rec)

	id, err := model.NewRandomID("tl")
	if err != nil {
		return model.Record{}, err
	}
	rec.ID = id

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertTimeline(ctx, tx, rec); err != nil {
			return err
		}
		return appendEventTx(ctx, tx, o, "timeline.create", rec.ID, rec)
	})
	if err != nil {
		return model.Record{}, err
	}
	return rec, nil
}

// List returns summaries, most recently updated first.
func (s Store) List(ctx context.Context) ([]model.Summary, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT id, name, start_date, created_at_unixms, updated_at_unixms
		FROM timelines
		ORDER BY updated_at_unixms DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Summary{}
	for rows.Next() {
		var sum model.Summary
		var createdMs, updatedMs int64
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.StartDate, &createdMs, &updatedMs); err != nil {
			return nil, err
		}
		sum.CreatedAt = time.UnixMilli(createdMs).UTC()
		sum.UpdatedAt = time.UnixMilli(updatedMs).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s Store) Get(ctx context.Context, id string) (model.Record, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return model.Record{}, err
	}
	defer db.Close()
	return getTimeline(ctx, db, strings.TrimSpace(id))
}

// Update applies a partial update. Only the fields set in p change.
func (s Store) Update(ctx context.Context, o Origin, id string, p model.Patch) (model.Record, error) {
	if p.Empty() {
		return model.Record{}, ErrNoFields
	}
	if p.StartDate != nil {
		if _, err := weeks.ParseDate(*p.StartDate); err != nil {
			return model.Record{}, InvalidFieldError{Field: "startDate", Reason: err.Error()}
		}
	}
	o = o.normalized()
	id = strings.TrimSpace(id)

	var rec model.Record
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		rec, err = getTimeline(ctx, tx, id)
		if err != nil {
			return err
		}
		applyPatch(&rec, p)
		rec.UpdatedAt = time.UnixMilli(nowFunc().UTC().UnixMilli()).UTC()
		if err := updateTimeline(ctx, tx, rec); err != nil {
			return err
		}
		return appendEventTx(ctx, tx, o, "timeline.update", rec.ID, p)
	})
	if err != nil {
		return model.Record{}, err
	}
	return rec, nil
}

// Save overwrites every editable field with snap.
func (s Store) Save(ctx context.Context, o Origin, id string, snap model.Snapshot) (model.Record, error) {
	return s.Update(ctx, o, id, model.PatchFromSnapshot(snap))
}

func (s Store) Delete(ctx context.Context, o Origin, id string) error {
	o = o.normalized()
	id = strings.TrimSpace(id)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM timelines WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return appendEventTx(ctx, tx, o, "timeline.delete", id, map[string]string{"id": id})
	})
}

func (s Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getTimeline(ctx context.Context, q querier, id string) (model.Record, error) {
	row := q.QueryRowContext(ctx, `SELECT `+timelineColumns+` FROM timelines WHERE id = ?`, id)
	var rec model.Record
	var tasksJSON, posJSON string
	var createdMs, updatedMs int64
	err := row.Scan(&rec.ID, &rec.Name, &rec.StartDate, &tasksJSON, &posJSON, &rec.Notes, &createdMs, &updatedMs)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Record{}, ErrNotFound
	}
	if err != nil {
		return model.Record{}, err
	}
	// Unreadable task or position blobs load as empty rather than failing the read.
	_ = json.Unmarshal([]byte(tasksJSON), &rec.Tasks)
	_ = json.Unmarshal([]byte(posJSON), &rec.NodePositions)
	rec.CreatedAt = time.UnixMilli(createdMs).UTC()
	rec.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	normalizeRecord(&rec)
	return rec, nil
}

func insertTimeline(ctx context.Context, tx *sql.Tx, rec model.Record) error {
	tasksJSON, posJSON, err := encodeRecordBlobs(rec)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO timelines(`+timelineColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.StartDate, tasksJSON, posJSON, rec.Notes,
		rec.CreatedAt.UnixMilli(), rec.UpdatedAt.UnixMilli())
	return err
}

func updateTimeline(ctx context.Context, tx *sql.Tx, rec model.Record) error {
	tasksJSON, posJSON, err := encodeRecordBlobs(rec)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `UPDATE timelines
		SET name = ?, start_date = ?, tasks_json = ?, node_positions_json = ?, notes = ?, updated_at_unixms = ?
		WHERE id = ?`,
		rec.Name, rec.StartDate, tasksJSON, posJSON, rec.Notes, rec.UpdatedAt.UnixMilli(), rec.ID)
	return err
}

func encodeRecordBlobs(rec model.Record) (string, string, error) {
	tb, err := json.Marshal(rec.Tasks)
	if err != nil {
		return "", "", err
	}
	pb, err := json.Marshal(rec.NodePositions)
	if err != nil {
		return "", "", err
	}
	return string(tb), string(pb), nil
}

func applyPatch(rec *model.Record, p model.Patch) {
	if p.Name != nil {
		rec.Name = *p.Name
	}
	if p.StartDate != nil {
		rec.StartDate = *p.StartDate
	}
	if p.Tasks != nil {
		rec.Tasks = model.CloneTasks(*p.Tasks)
	}
	if p.NodePositions != nil {
		rec.NodePositions = p.NodePositions.Clone()
	}
	if p.Notes != nil {
		rec.Notes = *p.Notes
	}
	normalizeRecord(rec)
}

func normalizeRecord(rec *model.Record) {
	if rec.Tasks == nil {
		rec.Tasks = []model.Task{}
	}
	for i := range rec.Tasks {
		if rec.Tasks[i].BlockedBy == nil {
			rec.Tasks[i].BlockedBy = []string{}
		}
	}
	if rec.NodePositions == nil {
		rec.NodePositions = model.Positions{}
	}
}
