package notification

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("notification not found")

// Notification is one sent low-attendance warning. The log is append-only:
// re-sends write new rows and only the latest row per (student, subject) is
// consulted for the cooldown, keeping the history auditable.
type Notification struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	SubjectID  string    `json:"subject_id"`
	SentAt     time.Time `json:"sent_at"` // UTC
	Percentage float64   `json:"percentage"`
}

type Repository interface {
	Create(ctx context.Context, n Notification) (Notification, error)
	// GetLatest returns the most recent notification for the pair, or
	// ErrNotFound when none was ever sent.
	GetLatest(ctx context.Context, studentID, subjectID string) (Notification, error)
}
