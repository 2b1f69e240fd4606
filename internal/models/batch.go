package models

import "time"

// BatchJobStatus represents the lifecycle of a batch enlistment job.
type BatchJobStatus string

// Possible batch job statuses.
const (
	BatchJobQueued     BatchJobStatus = "QUEUED"
	BatchJobProcessing BatchJobStatus = "PROCESSING"
	BatchJobFinished   BatchJobStatus = "FINISHED"
	BatchJobFailed     BatchJobStatus = "FAILED"
)

// BatchItem is a single (student, section) pair of a batch request.
type BatchItem struct {
	StudentNumber int    `json:"student_number"`
	SectionID     string `json:"section_id"`
}

// BatchItemResult reports the outcome of one batch item. Code is empty on
// success and carries the rule that fired otherwise.
type BatchItemResult struct {
	BatchItem
	Enlisted bool   `json:"enlisted"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
}

// BatchJob tracks a queued batch enlistment.
type BatchJob struct {
	ID         string            `json:"id"`
	Status     BatchJobStatus    `json:"status"`
	Actor      string            `json:"actor"`
	Items      []BatchItem       `json:"items"`
	Results    []BatchItemResult `json:"results,omitempty"`
	Error      string            `json:"error,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
}
