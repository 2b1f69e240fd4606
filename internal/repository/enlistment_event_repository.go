package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/enlistment-api/internal/models"
)

// EnlistmentEventRepository appends and reads the enlistment audit journal.
type EnlistmentEventRepository struct {
	db *sqlx.DB
}

// NewEnlistmentEventRepository constructs the repository.
func NewEnlistmentEventRepository(db *sqlx.DB) *EnlistmentEventRepository {
	return &EnlistmentEventRepository{db: db}
}

// Create appends an event, filling the id and timestamp when absent.
func (r *EnlistmentEventRepository) Create(ctx context.Context, event *models.EnlistmentEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	const query = `INSERT INTO enlistment_events (id, student_number, section_id, action, actor, occurred_at)
        VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query, event.ID, event.StudentNumber, event.SectionID, event.Action, event.Actor, event.OccurredAt); err != nil {
		return fmt.Errorf("create enlistment event: %w", err)
	}
	return nil
}

// ListByStudent returns a student's journal, oldest first.
func (r *EnlistmentEventRepository) ListByStudent(ctx context.Context, studentNumber int) ([]models.EnlistmentEvent, error) {
	const query = `SELECT id, student_number, section_id, action, actor, occurred_at FROM enlistment_events WHERE student_number = $1 ORDER BY occurred_at ASC`
	var events []models.EnlistmentEvent
	if err := r.db.SelectContext(ctx, &events, query, studentNumber); err != nil {
		return nil, fmt.Errorf("list enlistment events: %w", err)
	}
	return events, nil
}

// CountBySection returns how many times each action was recorded for a section.
func (r *EnlistmentEventRepository) CountBySection(ctx context.Context, sectionID string) (map[models.EnlistmentAction]int, error) {
	const query = `SELECT action, COUNT(*) AS total FROM enlistment_events WHERE section_id = $1 GROUP BY action`
	rows, err := r.db.QueryxContext(ctx, query, sectionID)
	if err != nil {
		return nil, fmt.Errorf("count enlistment events: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.EnlistmentAction]int)
	for rows.Next() {
		var action models.EnlistmentAction
		var total int
		if err := rows.Scan(&action, &total); err != nil {
			return nil, fmt.Errorf("scan enlistment event count: %w", err)
		}
		counts[action] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enlistment event counts: %w", err)
	}
	return counts, nil
}
