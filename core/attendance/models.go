package attendance

import (
	"errors"
	"time"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/schedule"
)

var (
	// errors
	ErrNotFound         = errors.New("attendance record not found")
	ErrNoSession        = errors.New("no session exists for this reference and date")
	ErrSessionCancelled = errors.New("session is cancelled")
	ErrFutureDate       = errors.New("cannot mark attendance for a future date")
	ErrEmptyRoster      = errors.New("roster has no entries")
	ErrDuplicateStudent = errors.New("duplicate student in roster")
)

type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
)

func (s Status) Valid() bool { return s == StatusPresent || s == StatusAbsent }

// Record is one student's outcome for one session. Ref carries the
// slot-or-extra-class origin; its either-or shape is structural
// (schedule.SessionRef) and mirrored by the storage constraints.
type Record struct {
	ID        string              `json:"id"`
	StudentID string              `json:"student_id"`
	Ref       schedule.SessionRef `json:"ref"`
	Date      time.Time           `json:"date"`
	Status    Status              `json:"status"`
	IsLate    bool                `json:"is_late"`
	MarkedBy  string              `json:"marked_by"`
	CreatedAt time.Time           `json:"created_at"` // UTC
	UpdatedAt time.Time           `json:"updated_at"` // UTC
}

// Attended reports whether this record counts toward the student's attended
// total. Late arrivals are present.
func (r Record) Attended() bool { return r.Status == StatusPresent }

// Summary is the aggregation result for one student × subject × period.
// Held == 0 yields 0%, which callers distinguish from "attended nothing"
// only via Held.
type Summary struct {
	Held       int     `json:"held"`
	Attended   int     `json:"attended"`
	Percentage float64 `json:"percentage"`
}

// QueryFilter narrows QueryRecords. Zero fields are ignored.
type QueryFilter struct {
	StudentID string
	Ref       schedule.SessionRef
	Date      time.Time
	Period    core.Period
}
