// Package postgres persists saved segments. Rules are stored as opaque
// JSON payloads; the database never interprets a rule, only keys it by
// segment and owner.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/ignite/content-signals/internal/segment"
)

// ErrNotFound is returned when a segment id does not exist.
var ErrNotFound = errors.New("postgres: segment not found")

// SegmentRepo provides database operations for saved segments.
type SegmentRepo struct {
	db *sql.DB
}

// NewSegmentRepo creates a segment repository.
func NewSegmentRepo(db *sql.DB) *SegmentRepo {
	return &SegmentRepo{db: db}
}

// Open connects to postgres and verifies the connection.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// Create inserts a new segment. The segment's ID and timestamps are
// assigned here.
func (r *SegmentRepo) Create(ctx context.Context, seg *segment.Segment) error {
	seg.ID = uuid.New()
	seg.CreatedAt = time.Now().UTC()
	seg.UpdatedAt = seg.CreatedAt

	ruleJSON, err := json.Marshal(seg.Rule)
	if err != nil {
		return fmt.Errorf("marshal rule: %w", err)
	}

	query := `
		INSERT INTO segments (
			id, owner_id, name, description, rule, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query,
		seg.ID, seg.OwnerID, seg.Name, seg.Description, ruleJSON,
		seg.CreatedAt, seg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert segment: %w", err)
	}
	return nil
}

// Update replaces a segment's name, description, and rule.
func (r *SegmentRepo) Update(ctx context.Context, seg *segment.Segment) error {
	seg.UpdatedAt = time.Now().UTC()

	ruleJSON, err := json.Marshal(seg.Rule)
	if err != nil {
		return fmt.Errorf("marshal rule: %w", err)
	}

	query := `
		UPDATE segments
		SET name = $2, description = $3, rule = $4, updated_at = $5
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		seg.ID, seg.Name, seg.Description, ruleJSON, seg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update segment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID fetches one segment.
func (r *SegmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*segment.Segment, error) {
	query := `
		SELECT id, owner_id, name, description, rule, created_at, updated_at
		FROM segments
		WHERE id = $1
	`
	seg, err := scanSegment(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get segment: %w", err)
	}
	return seg, nil
}

// ListByOwner returns the owner's segments, most recently updated first.
func (r *SegmentRepo) ListByOwner(ctx context.Context, ownerID string) ([]segment.Segment, error) {
	query := `
		SELECT id, owner_id, name, description, rule, created_at, updated_at
		FROM segments
		WHERE owner_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	var segments []segment.Segment
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		segments = append(segments, *seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	return segments, nil
}

// Delete removes a segment.
func (r *SegmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM segments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete segment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSegment(row rowScanner) (*segment.Segment, error) {
	var seg segment.Segment
	var ruleJSON []byte
	if err := row.Scan(&seg.ID, &seg.OwnerID, &seg.Name, &seg.Description,
		&ruleJSON, &seg.CreatedAt, &seg.UpdatedAt); err != nil {
		return nil, err
	}
	if len(ruleJSON) > 0 {
		if err := json.Unmarshal(ruleJSON, &seg.Rule); err != nil {
			return nil, fmt.Errorf("unmarshal rule: %w", err)
		}
	}
	return &seg, nil
}
