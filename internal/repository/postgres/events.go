package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/click-relay/internal/domain"
)

// EventRepo persists ClickEvent records.
type EventRepo struct{ db *sql.DB }

// NewEventRepo creates a Postgres-backed event repository.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// Insert writes one ClickEvent row. Events are append-only.
func (r *EventRepo) Insert(ctx context.Context, e *domain.ClickEvent) error {
	if e.EventTime.IsZero() {
		e.EventTime = time.Now().UTC()
	}
	if e.Type == "" {
		e.Type = domain.EventClick
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (id, visit_id, type, provider, track_id, button_position, event_time, source_event_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.VisitID, string(e.Type), e.Provider, e.TrackID, string(e.ButtonPosition), e.EventTime, e.SourceEventID)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}
