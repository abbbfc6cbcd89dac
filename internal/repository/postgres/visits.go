// Package postgres implements the relay's persistence against PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ignite/click-relay/internal/domain"
)

// UTMMap stores campaign parameters as JSONB.
type UTMMap map[string]string

// Value implements driver.Valuer.
func (m UTMMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *UTMMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("utm map: unexpected type %T", src)
	}
	return json.Unmarshal(b, m)
}

// VisitRepo persists Visit records.
type VisitRepo struct{ db *sql.DB }

// NewVisitRepo creates a Postgres-backed visit repository.
func NewVisitRepo(db *sql.DB) *VisitRepo { return &VisitRepo{db: db} }

// Insert writes one Visit row. Visits are append-only.
func (r *VisitRepo) Insert(ctx context.Context, v *domain.Visit) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO visits (id, fbp, fbc, ip_truncated, user_agent, utm_parameters, source_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, v.ID, v.FBP, v.FBC, v.IPTruncated, v.UserAgent, UTMMap(v.UTM), v.SourceURL, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

// Exists reports whether a Visit with the given id is already stored.
func (r *VisitRepo) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM visits WHERE id = $1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("visit exists: %w", err)
	}
	return true, nil
}
