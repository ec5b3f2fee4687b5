package store

import (
	"database/sql"
	"encoding/json"
	"time"
)

// EventRecord is an emitted gesture event kept in the history.
type EventRecord struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	BaseType    string          `json:"baseType"`
	Stage       string          `json:"stage"`
	X           float64         `json:"x"`
	Y           float64         `json:"y"`
	PointLength int             `json:"pointLength"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// EventRepository records and queries the event history.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create appends an event to the history and sets its ID.
func (r *EventRepository) Create(e *EventRecord) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	data := e.Data
	if data == nil {
		data = json.RawMessage("{}")
	}

	result, err := r.db.Exec(
		`INSERT INTO events (type, base_type, stage, x, y, point_length, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Type, e.BaseType, e.Stage, e.X, e.Y, e.PointLength, string(data), e.CreatedAt,
	)
	if err != nil {
		return err
	}

	e.ID, err = result.LastInsertId()
	return err
}

// Recent returns up to limit events, newest first. An empty baseType
// matches every recognizer.
func (r *EventRepository) Recent(baseType string, limit int) ([]EventRecord, error) {
	query := `SELECT id, type, base_type, stage, x, y, point_length, data, created_at FROM events`
	var args []any
	if baseType != "" {
		query += ` WHERE base_type = ?`
		args = append(args, baseType)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []EventRecord
	for rows.Next() {
		var e EventRecord
		var data string
		if err := rows.Scan(&e.ID, &e.Type, &e.BaseType, &e.Stage, &e.X, &e.Y, &e.PointLength, &data, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Data = json.RawMessage(data)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// Count returns the number of recorded events.
func (r *EventRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

// Prune deletes all but the newest keep events and returns how many were removed.
func (r *EventRepository) Prune(keep int) (int64, error) {
	result, err := r.db.Exec(
		`DELETE FROM events WHERE id NOT IN (SELECT id FROM events ORDER BY id DESC LIMIT ?)`,
		keep,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
