package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

type (
	// SlotFilter narrows QuerySlots. Zero fields are ignored.
	SlotFilter struct {
		Weekday   *time.Weekday
		GroupID   string
		FacultyID string
	}

	// ExtraClassFilter narrows QueryExtraClasses. Zero fields are ignored.
	ExtraClassFilter struct {
		Date      time.Time
		GroupID   string
		SubjectID string
		Status    string
		Period    core.Period
	}

	Repository interface {
		CreateTimeSlot(ctx context.Context, ts TimeSlot) (TimeSlot, error)
		QueryTimeSlots(ctx context.Context) ([]TimeSlot, error)
		GetTimeSlot(ctx context.Context, id string) (TimeSlot, error)

		// CreateSlot relies on the storage uniqueness constraints on
		// (weekday, time_slot, faculty) and (weekday, time_slot, group);
		// violations surface as core.ConflictError.
		CreateSlot(ctx context.Context, slot Slot) (Slot, error)
		QuerySlots(ctx context.Context, filter SlotFilter) ([]Slot, error)
		GetSlot(ctx context.Context, id string) (Slot, error)
		DeleteSlot(ctx context.Context, id string) error

		// CreateCancellation must treat the unique (slot, date) constraint as
		// the concurrency guard: a duplicate insert is a core.ConflictError.
		CreateCancellation(ctx context.Context, c Cancellation) (Cancellation, error)
		GetCancellation(ctx context.Context, slotID string, date time.Time) (Cancellation, error)
		QueryCancellations(ctx context.Context, date time.Time) ([]Cancellation, error)

		CreateSubstitution(ctx context.Context, s Substitution) (Substitution, error)
		QuerySubstitutions(ctx context.Context, date time.Time) ([]Substitution, error)

		CreateExtraClass(ctx context.Context, x ExtraClass) (ExtraClass, error)
		GetExtraClass(ctx context.Context, id string) (ExtraClass, error)
		UpdateExtraClassStatus(ctx context.Context, id, status string) error
		QueryExtraClasses(ctx context.Context, filter ExtraClassFilter) ([]ExtraClass, error)
		CountScheduledExtraClasses(ctx context.Context, groupID, subjectID string, period core.Period) (int, error)
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Repo exposes the underlying repository to collaborators that only need
// narrow read ports (the attendance service, the worker wiring).
func (svc *Service) Repo() Repository { return svc.repo }

func (svc *Service) CreateTimeSlot(ctx context.Context, nt NewTimeSlot) (TimeSlot, error) {
	ts := TimeSlot{
		ID:            uuid.New().String(),
		StartTime:     nt.StartTime,
		EndTime:       nt.EndTime,
		Label:         core.CleanString(nt.Label),
		IsSchedulable: nt.IsSchedulable == nil || *nt.IsSchedulable,
	}
	if ts.StartTime >= ts.EndTime {
		return TimeSlot{}, core.NewValidationError(nil, core.FieldError{Field: "start_time", Error: "start time must be before end time"})
	}
	return svc.repo.CreateTimeSlot(ctx, ts)
}

func (svc *Service) QueryTimeSlots(ctx context.Context) ([]TimeSlot, error) {
	return svc.repo.QueryTimeSlots(ctx)
}

func (svc *Service) CreateSlot(ctx context.Context, ns NewSlot) (Slot, error) {
	ts, err := svc.repo.GetTimeSlot(ctx, ns.TimeSlotID)
	if err != nil {
		return Slot{}, errors.Wrap(err, "getting time slot")
	}
	if !ts.IsSchedulable {
		return Slot{}, core.NewValidationError(ErrNotSchedulable, core.FieldError{Field: "time_slot_id", Error: ErrNotSchedulable.Error()})
	}

	now := time.Now().UTC()
	slot := Slot{
		ID:         uuid.New().String(),
		GroupID:    ns.GroupID,
		SubjectID:  ns.SubjectID,
		FacultyID:  ns.FacultyID,
		Weekday:    time.Weekday(ns.Weekday),
		TimeSlotID: ns.TimeSlotID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateSlot(ctx, slot)
}

func (svc *Service) QuerySlots(ctx context.Context, filter SlotFilter) ([]Slot, error) {
	return svc.repo.QuerySlots(ctx, filter)
}

func (svc *Service) GetSlot(ctx context.Context, id string) (Slot, error) {
	return svc.repo.GetSlot(ctx, id)
}

func (svc *Service) DeleteSlot(ctx context.Context, id string) error {
	return svc.repo.DeleteSlot(ctx, id)
}

// Resolve derives the authoritative session list for one date.
func (svc *Service) Resolve(ctx context.Context, date time.Time) ([]Session, error) {
	date = core.Date(date)
	weekday := date.Weekday()

	slots, err := svc.repo.QuerySlots(ctx, SlotFilter{Weekday: &weekday})
	if err != nil {
		return nil, errors.Wrap(err, "querying slots")
	}
	cancellations, err := svc.repo.QueryCancellations(ctx, date)
	if err != nil {
		return nil, errors.Wrap(err, "querying cancellations")
	}
	substitutions, err := svc.repo.QuerySubstitutions(ctx, date)
	if err != nil {
		return nil, errors.Wrap(err, "querying substitutions")
	}
	extras, err := svc.repo.QueryExtraClasses(ctx, ExtraClassFilter{Date: date})
	if err != nil {
		return nil, errors.Wrap(err, "querying extra classes")
	}

	return Resolve(date, slots, cancellations, substitutions, extras), nil
}

// CreateCancellation records that a slot is not conducted on a date.
// cancelledBy is the acting user; the deadline sweep passes nil.
func (svc *Service) CreateCancellation(ctx context.Context, nc NewCancellation, cancelledBy *string) (Cancellation, error) {
	slot, err := svc.repo.GetSlot(ctx, nc.SlotID)
	if err != nil {
		return Cancellation{}, errors.Wrap(err, "getting slot")
	}
	date, err := core.ParseDate(nc.Date)
	if err != nil {
		return Cancellation{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: "invalid date"})
	}
	if date.Weekday() != slot.Weekday {
		return Cancellation{}, core.NewValidationError(ErrWeekdayMismatch, core.FieldError{Field: "date", Error: ErrWeekdayMismatch.Error()})
	}
	c := Cancellation{
		ID:          uuid.New().String(),
		SlotID:      nc.SlotID,
		Date:        date,
		CancelledBy: cancelledBy,
		CreatedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateCancellation(ctx, c)
}

// SubstitutionNotice is the explicit notification payload returned to the
// caller when a substitution is created; actual delivery is the caller's
// concern. This replaces the implicit save-hook the feature grew out of.
type SubstitutionNotice struct {
	SubstituteID string
	Date         time.Time
	SubjectName  string
	GroupName    string
	TimeSlot     TimeSlot
}

func (svc *Service) CreateSubstitution(ctx context.Context, ns NewSubstitution) (Substitution, SubstitutionNotice, error) {
	slot, err := svc.repo.GetSlot(ctx, ns.SlotID)
	if err != nil {
		return Substitution{}, SubstitutionNotice{}, errors.Wrap(err, "getting slot")
	}
	if ns.SubstituteID == slot.FacultyID {
		return Substitution{}, SubstitutionNotice{}, core.NewValidationError(ErrSameFaculty, core.FieldError{Field: "substitute_id", Error: ErrSameFaculty.Error()})
	}
	date, err := core.ParseDate(ns.Date)
	if err != nil {
		return Substitution{}, SubstitutionNotice{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: "invalid date"})
	}
	if date.Weekday() != slot.Weekday {
		return Substitution{}, SubstitutionNotice{}, core.NewValidationError(ErrWeekdayMismatch, core.FieldError{Field: "date", Error: ErrWeekdayMismatch.Error()})
	}

	sub := Substitution{
		ID:           uuid.New().String(),
		SlotID:       ns.SlotID,
		Date:         date,
		SubstituteID: ns.SubstituteID,
		CreatedAt:    time.Now().UTC(),
	}
	sub, err = svc.repo.CreateSubstitution(ctx, sub)
	if err != nil {
		return Substitution{}, SubstitutionNotice{}, err
	}

	notice := SubstitutionNotice{
		SubstituteID: sub.SubstituteID,
		Date:         date,
		SubjectName:  slot.SubjectName,
		GroupName:    slot.GroupName,
		TimeSlot:     slot.TimeSlot,
	}
	return sub, notice, nil
}

func (svc *Service) CreateExtraClass(ctx context.Context, nx NewExtraClass) (ExtraClass, error) {
	ts, err := svc.repo.GetTimeSlot(ctx, nx.TimeSlotID)
	if err != nil {
		return ExtraClass{}, errors.Wrap(err, "getting time slot")
	}
	if !ts.IsSchedulable {
		return ExtraClass{}, core.NewValidationError(ErrNotSchedulable, core.FieldError{Field: "time_slot_id", Error: ErrNotSchedulable.Error()})
	}
	date, err := core.ParseDate(nx.Date)
	if err != nil {
		return ExtraClass{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: "invalid date"})
	}

	x := ExtraClass{
		ID:         uuid.New().String(),
		TeacherID:  nx.TeacherID,
		GroupID:    nx.GroupID,
		SubjectID:  nx.SubjectID,
		Date:       date,
		TimeSlotID: nx.TimeSlotID,
		Status:     StatusScheduled,
		CreatedAt:  time.Now().UTC(),
	}
	return svc.repo.CreateExtraClass(ctx, x)
}

func (svc *Service) QueryExtraClasses(ctx context.Context, filter ExtraClassFilter) ([]ExtraClass, error) {
	return svc.repo.QueryExtraClasses(ctx, filter)
}

// CancelExtraClass marks a one-off class as not conducted. A cancelled extra
// class stays visible in the resolved day and stops counting as held.
func (svc *Service) CancelExtraClass(ctx context.Context, id string) (ExtraClass, error) {
	x, err := svc.repo.GetExtraClass(ctx, id)
	if err != nil {
		return ExtraClass{}, errors.Wrap(err, "getting extra class")
	}
	if x.Status == StatusCancelled {
		return ExtraClass{}, core.NewConflictError("extra class", ErrExtraCancelled)
	}
	if err = svc.repo.UpdateExtraClassStatus(ctx, id, StatusCancelled); err != nil {
		return ExtraClass{}, err
	}
	x.Status = StatusCancelled
	return x, nil
}
