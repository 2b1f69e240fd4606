package models

import "time"

// EnlistmentAction identifies the roster change recorded in the journal.
type EnlistmentAction string

// Journal actions.
const (
	EnlistmentActionEnlist EnlistmentAction = "ENLIST"
	EnlistmentActionCancel EnlistmentAction = "CANCEL"
)

// EnlistmentEvent is an append-only audit record of a committed enlist or cancel.
type EnlistmentEvent struct {
	ID            string           `db:"id" json:"id"`
	StudentNumber int              `db:"student_number" json:"student_number"`
	SectionID     string           `db:"section_id" json:"section_id"`
	Action        EnlistmentAction `db:"action" json:"action"`
	Actor         string           `db:"actor" json:"actor"`
	OccurredAt    time.Time        `db:"occurred_at" json:"occurred_at"`
}

// SectionActivity summarises the journal for one section next to its live fill.
type SectionActivity struct {
	SectionID string `json:"section_id"`
	Enrolled  int    `json:"enrolled"`
	Capacity  int    `json:"capacity"`
	Enlisted  int    `json:"enlisted"`
	Cancelled int    `json:"cancelled"`
}
