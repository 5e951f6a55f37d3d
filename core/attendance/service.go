package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/roster"
	"github.com/trezcool/mahudhurio/core/schedule"
)

type (
	Repository interface {
		// CreateRecords writes a whole roster in one transaction: all
		// records commit or none do. Unique-violation on any record is a
		// core.ConflictError and rolls back the batch.
		CreateRecords(ctx context.Context, recs []Record) ([]Record, error)
		GetRecord(ctx context.Context, id string) (Record, error)
		UpdateRecord(ctx context.Context, rec Record) (Record, error)
		QueryRecords(ctx context.Context, filter QueryFilter) ([]Record, error)
		HasRecordForSlotDate(ctx context.Context, slotID string, date time.Time) (bool, error)

		// CountHeldSlotSessions counts distinct (slot, date) pairs among
		// template-linked records for a subject taught to a group. Each
		// session contributes one held unit no matter how many student
		// records hang under it.
		CountHeldSlotSessions(ctx context.Context, groupID, subjectID string, period core.Period) (int, error)
		// CountPresent counts the student's Present records for a subject
		// across both session sources.
		CountPresent(ctx context.Context, studentID, subjectID string, period core.Period) (int, error)
	}

	// ScheduleStore is the narrow port onto the schedule domain the ledger
	// needs: session existence, cancellation lookups and the extra-class
	// side of the held count.
	ScheduleStore interface {
		GetSlot(ctx context.Context, id string) (schedule.Slot, error)
		GetExtraClass(ctx context.Context, id string) (schedule.ExtraClass, error)
		GetCancellation(ctx context.Context, slotID string, date time.Time) (schedule.Cancellation, error)
		CountScheduledExtraClasses(ctx context.Context, groupID, subjectID string, period core.Period) (int, error)
	}

	Service struct {
		repo   Repository
		sched  ScheduleStore
		roster roster.Repository
	}
)

func NewService(repo Repository, sched ScheduleStore, rosterRepo roster.Repository) *Service {
	return &Service{repo: repo, sched: sched, roster: rosterRepo}
}

// Repo exposes the ledger's read side for collaborators (the deadline sweep
// checks record existence through it).
func (svc *Service) Repo() Repository { return svc.repo }

// MarkRoster records attendance for every student of one session atomically.
// now and settings are passed explicitly; the service keeps no ambient state.
func (svc *Service) MarkRoster(ctx context.Context, nr NewRoster, now time.Time, settings core.Settings) ([]Record, error) {
	if err := nr.Ref.Validate(); err != nil {
		return nil, err
	}
	if len(nr.Entries) == 0 {
		return nil, core.NewValidationError(ErrEmptyRoster, core.FieldError{Field: "entries", Error: ErrEmptyRoster.Error()})
	}

	date, err := core.ParseDate(nr.Date)
	if err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: "date", Error: "invalid date"})
	}
	today := core.Date(now)
	if date.After(today) {
		return nil, core.NewValidationError(ErrFutureDate, core.FieldError{Field: "date", Error: ErrFutureDate.Error()})
	}

	if err = svc.checkSession(ctx, nr.Ref, date); err != nil {
		return nil, err
	}

	// marking window: up to markDeadlineDays after the session date
	deadline := date.AddDate(0, 0, settings.MarkDeadlineDays)
	if today.After(deadline) {
		return nil, core.NewDeadlineExceededError("mark", deadline)
	}

	seen := make(map[string]bool, len(nr.Entries))
	tstamp := now.UTC()
	recs := make([]Record, 0, len(nr.Entries))
	for _, e := range nr.Entries {
		if seen[e.StudentID] {
			return nil, core.NewValidationError(ErrDuplicateStudent, core.FieldError{Field: "entries", Error: ErrDuplicateStudent.Error()})
		}
		seen[e.StudentID] = true

		if !Status(e.Status).Valid() {
			return nil, core.NewValidationError(nil, core.FieldError{Field: "status", Error: "must be Present or Absent"})
		}
		recs = append(recs, Record{
			ID:        uuid.New().String(),
			StudentID: e.StudentID,
			Ref:       nr.Ref,
			Date:      date,
			Status:    Status(e.Status),
			IsLate:    e.IsLate,
			MarkedBy:  nr.MarkedBy,
			CreatedAt: tstamp,
			UpdatedAt: tstamp,
		})
	}

	return svc.repo.CreateRecords(ctx, recs)
}

// checkSession verifies the referenced session actually occurs on date and
// is actionable. A cancelled session blocks marking with a ConflictError.
func (svc *Service) checkSession(ctx context.Context, ref schedule.SessionRef, date time.Time) error {
	switch ref.Kind() {
	case schedule.RefSlot:
		slot, err := svc.sched.GetSlot(ctx, ref.ID())
		if err != nil {
			return errors.Wrap(err, "getting slot")
		}
		if slot.Weekday != date.Weekday() {
			return ErrNoSession
		}
		if _, err = svc.sched.GetCancellation(ctx, slot.ID, date); err == nil {
			return core.NewConflictError("session", ErrSessionCancelled)
		} else if errors.Cause(err) != schedule.ErrNotFound {
			return errors.Wrap(err, "checking cancellation")
		}
	case schedule.RefExtraClass:
		x, err := svc.sched.GetExtraClass(ctx, ref.ID())
		if err != nil {
			return errors.Wrap(err, "getting extra class")
		}
		if !core.Date(x.Date).Equal(date) {
			return ErrNoSession
		}
		if x.Status == schedule.StatusCancelled {
			return core.NewConflictError("session", ErrSessionCancelled)
		}
	default:
		return core.NewInvalidReferenceError("unknown session reference")
	}
	return nil
}

// UpdateRecord revises a marked record within the edit window, which runs
// from the record's creation.
func (svc *Service) UpdateRecord(ctx context.Context, id string, ur UpdateRecord, now time.Time, settings core.Settings) (Record, error) {
	rec, err := svc.repo.GetRecord(ctx, id)
	if err != nil {
		return Record{}, err
	}

	deadline := core.Date(rec.CreatedAt).AddDate(0, 0, settings.EditDeadlineDays)
	if core.Date(now).After(deadline) {
		return Record{}, core.NewDeadlineExceededError("edit", deadline)
	}

	if !Status(ur.Status).Valid() {
		return Record{}, core.NewValidationError(nil, core.FieldError{Field: "status", Error: "must be Present or Absent"})
	}
	rec.Status = Status(ur.Status)
	rec.IsLate = ur.IsLate
	rec.MarkedBy = ur.MarkedBy
	rec.UpdatedAt = now.UTC()

	return svc.repo.UpdateRecord(ctx, rec)
}

func (svc *Service) QueryRecords(ctx context.Context, filter QueryFilter) ([]Record, error) {
	return svc.repo.QueryRecords(ctx, filter)
}

// Aggregate computes held/attended counts and the attendance percentage for
// one student × subject × period.
//
// Held unions two disjoint sources: distinct (date, slot) pairs among
// template-linked records for the subject and group, plus scheduled extra
// classes for the same. A session can only ever originate from one source,
// so a plain sum never double-counts. Held == 0 yields 0%, not an error.
func (svc *Service) Aggregate(ctx context.Context, studentID, subjectID string, period core.Period) (Summary, error) {
	student, err := svc.roster.GetStudent(ctx, studentID)
	if err != nil {
		return Summary{}, errors.Wrap(err, "getting student")
	}

	heldSlots, err := svc.repo.CountHeldSlotSessions(ctx, student.GroupID, subjectID, period)
	if err != nil {
		return Summary{}, errors.Wrap(err, "counting held slot sessions")
	}
	heldExtras, err := svc.sched.CountScheduledExtraClasses(ctx, student.GroupID, subjectID, period)
	if err != nil {
		return Summary{}, errors.Wrap(err, "counting extra classes")
	}
	attended, err := svc.repo.CountPresent(ctx, studentID, subjectID, period)
	if err != nil {
		return Summary{}, errors.Wrap(err, "counting present records")
	}

	sum := Summary{
		Held:     heldSlots + heldExtras,
		Attended: attended,
	}
	if sum.Held > 0 {
		sum.Percentage = float64(sum.Attended) / float64(sum.Held) * 100
	}
	return sum, nil
}
