package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/schedule"
)

type scheduleRepository struct {
	db *DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

func (repo scheduleRepository) CreateTimeSlot(ctx context.Context, ts schedule.TimeSlot) (schedule.TimeSlot, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	repo.db.timeSlots[ts.ID] = ts
	return ts, nil
}

func (repo scheduleRepository) QueryTimeSlots(ctx context.Context) ([]schedule.TimeSlot, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	out := make([]schedule.TimeSlot, 0, len(repo.db.timeSlots))
	for _, ts := range repo.db.timeSlots {
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (repo scheduleRepository) GetTimeSlot(ctx context.Context, id string) (schedule.TimeSlot, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	ts, ok := repo.db.timeSlots[id]
	if !ok {
		return schedule.TimeSlot{}, schedule.ErrNotFound
	}
	return ts, nil
}

func (repo scheduleRepository) CreateSlot(ctx context.Context, slot schedule.Slot) (schedule.Slot, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	for _, s := range repo.db.slots {
		if s.Weekday == slot.Weekday && s.TimeSlotID == slot.TimeSlotID {
			if s.FacultyID == slot.FacultyID || s.GroupID == slot.GroupID {
				return schedule.Slot{}, core.NewConflictError("slot", nil)
			}
		}
	}
	repo.db.denormalizeSlot(&slot)
	repo.db.slots[slot.ID] = slot
	return slot, nil
}

func (repo scheduleRepository) QuerySlots(ctx context.Context, filter schedule.SlotFilter) ([]schedule.Slot, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	var out []schedule.Slot
	for _, s := range repo.db.slots {
		if filter.Weekday != nil && s.Weekday != *filter.Weekday {
			continue
		}
		if filter.GroupID != "" && s.GroupID != filter.GroupID {
			continue
		}
		if filter.FacultyID != "" && s.FacultyID != filter.FacultyID {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weekday != out[j].Weekday {
			return out[i].Weekday < out[j].Weekday
		}
		return out[i].TimeSlot.StartTime < out[j].TimeSlot.StartTime
	})
	return out, nil
}

func (repo scheduleRepository) GetSlot(ctx context.Context, id string) (schedule.Slot, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	s, ok := repo.db.slots[id]
	if !ok {
		return schedule.Slot{}, schedule.ErrNotFound
	}
	return s, nil
}

func (repo scheduleRepository) DeleteSlot(ctx context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	if _, ok := repo.db.slots[id]; !ok {
		return schedule.ErrNotFound
	}
	delete(repo.db.slots, id)
	return nil
}

func (repo scheduleRepository) CreateCancellation(ctx context.Context, c schedule.Cancellation) (schedule.Cancellation, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	for _, existing := range repo.db.cancellations {
		if existing.SlotID == c.SlotID && existing.Date.Equal(core.Date(c.Date)) {
			return schedule.Cancellation{}, core.NewConflictError("cancellation", nil)
		}
	}
	c.Date = core.Date(c.Date)
	repo.db.cancellations[c.ID] = c
	return c, nil
}

func (repo scheduleRepository) GetCancellation(ctx context.Context, slotID string, date time.Time) (schedule.Cancellation, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	date = core.Date(date)
	for _, c := range repo.db.cancellations {
		if c.SlotID == slotID && c.Date.Equal(date) {
			return c, nil
		}
	}
	return schedule.Cancellation{}, schedule.ErrNotFound
}

func (repo scheduleRepository) QueryCancellations(ctx context.Context, date time.Time) ([]schedule.Cancellation, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	date = core.Date(date)
	var out []schedule.Cancellation
	for _, c := range repo.db.cancellations {
		if c.Date.Equal(date) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (repo scheduleRepository) CreateSubstitution(ctx context.Context, s schedule.Substitution) (schedule.Substitution, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	for _, existing := range repo.db.substitutions {
		if existing.SlotID == s.SlotID && existing.Date.Equal(core.Date(s.Date)) {
			return schedule.Substitution{}, core.NewConflictError("substitution", nil)
		}
	}
	s.Date = core.Date(s.Date)
	if f, ok := repo.db.faculty[s.SubstituteID]; ok {
		s.SubstituteName = f.Name
	}
	repo.db.substitutions[s.ID] = s
	return s, nil
}

func (repo scheduleRepository) QuerySubstitutions(ctx context.Context, date time.Time) ([]schedule.Substitution, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	date = core.Date(date)
	var out []schedule.Substitution
	for _, s := range repo.db.substitutions {
		if s.Date.Equal(date) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (repo scheduleRepository) CreateExtraClass(ctx context.Context, x schedule.ExtraClass) (schedule.ExtraClass, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	x.Date = core.Date(x.Date)
	for _, existing := range repo.db.extraClasses {
		if existing.Date.Equal(x.Date) && existing.TimeSlotID == x.TimeSlotID {
			if existing.TeacherID == x.TeacherID || existing.GroupID == x.GroupID {
				return schedule.ExtraClass{}, core.NewConflictError("extra class", nil)
			}
		}
	}
	repo.db.denormalizeExtraClass(&x)
	repo.db.extraClasses[x.ID] = x
	return x, nil
}

func (repo scheduleRepository) GetExtraClass(ctx context.Context, id string) (schedule.ExtraClass, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	x, ok := repo.db.extraClasses[id]
	if !ok {
		return schedule.ExtraClass{}, schedule.ErrNotFound
	}
	return x, nil
}

func (repo scheduleRepository) UpdateExtraClassStatus(ctx context.Context, id, status string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	x, ok := repo.db.extraClasses[id]
	if !ok {
		return schedule.ErrNotFound
	}
	x.Status = status
	repo.db.extraClasses[id] = x
	return nil
}

func (repo scheduleRepository) QueryExtraClasses(ctx context.Context, filter schedule.ExtraClassFilter) ([]schedule.ExtraClass, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	var out []schedule.ExtraClass
	for _, x := range repo.db.extraClasses {
		if !filter.Date.IsZero() && !x.Date.Equal(core.Date(filter.Date)) {
			continue
		}
		if filter.GroupID != "" && x.GroupID != filter.GroupID {
			continue
		}
		if filter.SubjectID != "" && x.SubjectID != filter.SubjectID {
			continue
		}
		if filter.Status != "" && x.Status != filter.Status {
			continue
		}
		if !filter.Period.Contains(x.Date) {
			continue
		}
		out = append(out, x)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].TimeSlot.StartTime < out[j].TimeSlot.StartTime
	})
	return out, nil
}

func (repo scheduleRepository) CountScheduledExtraClasses(ctx context.Context, groupID, subjectID string, period core.Period) (int, error) {
	xs, err := repo.QueryExtraClasses(ctx, schedule.ExtraClassFilter{
		GroupID:   groupID,
		SubjectID: subjectID,
		Status:    schedule.StatusScheduled,
		Period:    period,
	})
	if err != nil {
		return 0, err
	}
	return len(xs), nil
}

// denormalizeSlot fills the read-model name fields the way the SQL joins do.
// Callers hold the write lock.
func (db *DB) denormalizeSlot(slot *schedule.Slot) {
	slot.TimeSlot = db.timeSlots[slot.TimeSlotID]
	if g, ok := db.groups[slot.GroupID]; ok {
		slot.GroupName = g.Name
	}
	if s, ok := db.subjects[slot.SubjectID]; ok {
		slot.SubjectName = s.Name
	}
	if f, ok := db.faculty[slot.FacultyID]; ok {
		slot.FacultyName = f.Name
	}
}

func (db *DB) denormalizeExtraClass(x *schedule.ExtraClass) {
	x.TimeSlot = db.timeSlots[x.TimeSlotID]
	if g, ok := db.groups[x.GroupID]; ok {
		x.GroupName = g.Name
	}
	if s, ok := db.subjects[x.SubjectID]; ok {
		x.SubjectName = s.Name
	}
	if f, ok := db.faculty[x.TeacherID]; ok {
		x.TeacherName = f.Name
	}
}
