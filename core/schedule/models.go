package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/trezcool/mahudhurio/core"
)

var (
	// errors
	ErrNotFound        = errors.New("schedule entry not found")
	ErrNotSchedulable  = errors.New("time slot is not schedulable")
	ErrSameFaculty     = errors.New("substitute must differ from the scheduled faculty")
	ErrExtraCancelled  = errors.New("extra class is cancelled")
	ErrWeekdayMismatch = errors.New("slot does not recur on this date")
)

// Session / ExtraClass statuses
const (
	StatusScheduled = "scheduled"
	StatusCancelled = "cancelled"
)

// TimeSlot is a bell period. Wall-clock times are 24h "HH:MM" strings so
// lexical order is chronological order.
type TimeSlot struct {
	ID            string `json:"id"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Label         string `json:"label,omitempty"`
	IsSchedulable bool   `json:"is_schedulable"`
}

func (ts TimeSlot) String() string {
	if ts.Label != "" {
		return fmt.Sprintf("%s (%s - %s)", ts.Label, ts.StartTime, ts.EndTime)
	}
	return fmt.Sprintf("%s - %s", ts.StartTime, ts.EndTime)
}

// Slot is one recurring weekly period of the timetable template.
// Name fields are denormalized read-model data populated by the repository.
type Slot struct {
	ID         string       `json:"id"`
	GroupID    string       `json:"group_id"`
	SubjectID  string       `json:"subject_id"`
	FacultyID  string       `json:"faculty_id"`
	Weekday    time.Weekday `json:"weekday"`
	TimeSlotID string       `json:"time_slot_id"`

	TimeSlot    TimeSlot `json:"time_slot"`
	GroupName   string   `json:"group_name"`
	SubjectName string   `json:"subject_name"`
	FacultyName string   `json:"faculty_name"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Cancellation marks a slot as not conducted on one date.
// A nil CancelledBy means the system (deadline sweep) authored it.
type Cancellation struct {
	ID          string    `json:"id"`
	SlotID      string    `json:"slot_id"`
	Date        time.Time `json:"date"`
	CancelledBy *string   `json:"cancelled_by"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

func (c Cancellation) IsSystem() bool { return c.CancelledBy == nil }

// Substitution is a one-day faculty swap for a slot.
type Substitution struct {
	ID             string    `json:"id"`
	SlotID         string    `json:"slot_id"`
	Date           time.Time `json:"date"`
	SubstituteID   string    `json:"substitute_id"`
	SubstituteName string    `json:"substitute_name"`
	CreatedAt      time.Time `json:"created_at"` // UTC
}

// ExtraClass is an ad-hoc, non-recurring session.
type ExtraClass struct {
	ID         string    `json:"id"`
	TeacherID  string    `json:"teacher_id"`
	GroupID    string    `json:"group_id"`
	SubjectID  string    `json:"subject_id"`
	Date       time.Time `json:"date"`
	TimeSlotID string    `json:"time_slot_id"`
	Status     string    `json:"status"`

	TimeSlot    TimeSlot `json:"time_slot"`
	GroupName   string   `json:"group_name"`
	SubjectName string   `json:"subject_name"`
	TeacherName string   `json:"teacher_name"`

	CreatedAt time.Time `json:"created_at"` // UTC
}

// RefKind tags a SessionRef.
type RefKind int

const (
	RefSlot RefKind = iota + 1
	RefExtraClass
)

// SessionRef points to the origin of a session: exactly one of a recurring
// slot or an extra class. The zero value is invalid; construct through
// SlotRef/ExtraClassRef so the either-or invariant holds structurally.
type SessionRef struct {
	kind RefKind
	id   string
}

func SlotRef(id string) SessionRef       { return SessionRef{kind: RefSlot, id: id} }
func ExtraClassRef(id string) SessionRef { return SessionRef{kind: RefExtraClass, id: id} }

func (r SessionRef) Kind() RefKind { return r.kind }
func (r SessionRef) ID() string    { return r.id }
func (r SessionRef) IsZero() bool  { return r.kind == 0 || r.id == "" }

func (r SessionRef) SlotID() (string, bool) {
	if r.kind == RefSlot {
		return r.id, true
	}
	return "", false
}

func (r SessionRef) ExtraClassID() (string, bool) {
	if r.kind == RefExtraClass {
		return r.id, true
	}
	return "", false
}

func (r SessionRef) Validate() error {
	if r.IsZero() {
		return core.NewInvalidReferenceError("exactly one of slot_id or extra_class_id is required")
	}
	return nil
}

type sessionRefJSON struct {
	SlotID       string `json:"slot_id,omitempty"`
	ExtraClassID string `json:"extra_class_id,omitempty"`
}

func (r SessionRef) MarshalJSON() ([]byte, error) {
	out := sessionRefJSON{}
	switch r.kind {
	case RefSlot:
		out.SlotID = r.id
	case RefExtraClass:
		out.ExtraClassID = r.id
	}
	return json.Marshal(out)
}

func (r *SessionRef) UnmarshalJSON(data []byte) error {
	var in sessionRefJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch {
	case in.SlotID != "" && in.ExtraClassID != "":
		return core.NewInvalidReferenceError("slot_id and extra_class_id are mutually exclusive")
	case in.SlotID != "":
		*r = SlotRef(in.SlotID)
	case in.ExtraClassID != "":
		*r = ExtraClassRef(in.ExtraClassID)
	default:
		return core.NewInvalidReferenceError("exactly one of slot_id or extra_class_id is required")
	}
	return nil
}

// Session is a resolved, concrete occurrence on one date. Sessions are
// derived by the resolver and never stored.
type Session struct {
	Date time.Time  `json:"date"`
	Ref  SessionRef `json:"ref"`

	GroupID     string `json:"group_id"`
	GroupName   string `json:"group_name"`
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`

	// FacultyID is the effective teacher after substitutions.
	// SubstitutedFor holds the originally scheduled teacher when swapped.
	FacultyID      string `json:"faculty_id"`
	SubstitutedFor string `json:"substituted_for,omitempty"`

	TimeSlot TimeSlot `json:"time_slot"`
	Status   string   `json:"status"`
}
