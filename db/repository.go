package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// FocusSampleRecord is a row in the focus_samples table: one drained
// interaction window plus the score computed from it (-1 when the
// analyzer had too few samples to score).
type FocusSampleRecord struct {
	ID            int64     `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Keystrokes    int       `json:"keystrokes"`
	MouseDistance float64   `json:"mouse_distance"`
	MouseClicks   int       `json:"mouse_clicks"`
	IdleSeconds   float64   `json:"idle_seconds"`
	Score         float64   `json:"score"`
}

// AlertRecord is a row in the alert_history table tracking the lifecycle
// of a raised alert.
type AlertRecord struct {
	ID         int64      `json:"id"`
	AlertID    string     `json:"alert_id"`
	Kind       string     `json:"kind"`
	Message    string     `json:"message"`
	Intensity  float64    `json:"intensity"`
	DurationMS int        `json:"duration_ms"`
	Pattern    []int      `json:"pattern"`
	Resolution string     `json:"resolution"` // empty while unresolved
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// Repository provides history reads and writes. When an AsyncWriter is
// configured, inserts are queued and executed off the caller's
// goroutine; with a nil writer they run synchronously.
type Repository struct {
	db     *Database
	writer *AsyncWriter
}

// NewRepository creates a Repository. writer may be nil for synchronous
// writes.
func NewRepository(db *Database, writer *AsyncWriter) *Repository {
	return &Repository{db: db, writer: writer}
}

// InsertFocusSample records one drained sample.
func (r *Repository) InsertFocusSample(ctx context.Context, rec FocusSampleRecord) error {
	op := func(ctx context.Context) error {
		_, err := r.db.DB().ExecContext(ctx,
			`INSERT INTO focus_samples
			 (timestamp, keystrokes, mouse_distance, mouse_clicks, idle_seconds, score)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			rec.Timestamp.UTC().Format(time.RFC3339Nano),
			rec.Keystrokes, rec.MouseDistance, rec.MouseClicks, rec.IdleSeconds, rec.Score)
		if err != nil {
			return fmt.Errorf("insert focus sample: %w", err)
		}
		return nil
	}

	if r.writer != nil {
		r.writer.Enqueue(op)
		return nil
	}
	return op(ctx)
}

// InsertAlert records a newly raised alert.
func (r *Repository) InsertAlert(ctx context.Context, rec AlertRecord) error {
	pattern, err := json.Marshal(rec.Pattern)
	if err != nil {
		return fmt.Errorf("marshal pattern: %w", err)
	}

	op := func(ctx context.Context) error {
		_, err := r.db.DB().ExecContext(ctx,
			`INSERT INTO alert_history
			 (alert_id, kind, message, intensity, duration_ms, pattern, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.AlertID, rec.Kind, rec.Message, rec.Intensity, rec.DurationMS,
			string(pattern), rec.CreatedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("insert alert: %w", err)
		}
		return nil
	}

	if r.writer != nil {
		r.writer.Enqueue(op)
		return nil
	}
	return op(ctx)
}

// MarkAlertResolved stamps an alert with its resolution outcome
// ("dismissed", "break_taken").
func (r *Repository) MarkAlertResolved(ctx context.Context, alertID, resolution string) error {
	op := func(ctx context.Context) error {
		_, err := r.db.DB().ExecContext(ctx,
			`UPDATE alert_history SET resolution = ?, resolved_at = ?
			 WHERE alert_id = ? AND resolution = ''`,
			resolution, time.Now().UTC().Format(time.RFC3339Nano), alertID)
		if err != nil {
			return fmt.Errorf("mark alert resolved: %w", err)
		}
		return nil
	}

	if r.writer != nil {
		r.writer.Enqueue(op)
		return nil
	}
	return op(ctx)
}

// RecentFocusSamples returns up to limit samples, newest first.
func (r *Repository) RecentFocusSamples(ctx context.Context, limit int) ([]FocusSampleRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.DB().QueryContext(ctx,
		`SELECT id, timestamp, keystrokes, mouse_distance, mouse_clicks, idle_seconds, score
		 FROM focus_samples ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query focus samples: %w", err)
	}
	defer rows.Close()

	var out []FocusSampleRecord
	for rows.Next() {
		var rec FocusSampleRecord
		var ts string
		if err := rows.Scan(&rec.ID, &ts, &rec.Keystrokes, &rec.MouseDistance,
			&rec.MouseClicks, &rec.IdleSeconds, &rec.Score); err != nil {
			return nil, fmt.Errorf("scan focus sample: %w", err)
		}
		if rec.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse sample timestamp: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecentAlerts returns up to limit alert records, newest first.
func (r *Repository) RecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.DB().QueryContext(ctx,
		`SELECT id, alert_id, kind, message, intensity, duration_ms, pattern,
		        resolution, created_at, resolved_at
		 FROM alert_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []AlertRecord
	for rows.Next() {
		var rec AlertRecord
		var pattern, createdAt string
		var resolvedAt sql.NullString
		if err := rows.Scan(&rec.ID, &rec.AlertID, &rec.Kind, &rec.Message,
			&rec.Intensity, &rec.DurationMS, &pattern, &rec.Resolution,
			&createdAt, &resolvedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		if err := json.Unmarshal([]byte(pattern), &rec.Pattern); err != nil {
			return nil, fmt.Errorf("parse alert pattern: %w", err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse alert timestamp: %w", err)
		}
		if resolvedAt.Valid {
			t, err := time.Parse(time.RFC3339Nano, resolvedAt.String)
			if err != nil {
				return nil, fmt.Errorf("parse resolution timestamp: %w", err)
			}
			rec.ResolvedAt = &t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
