package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/schedule"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo attendanceRepository) CreateRecords(ctx context.Context, recs []attendance.Record) ([]attendance.Record, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	// validate the whole batch before touching the map so the write is atomic
	for _, rec := range recs {
		for _, existing := range repo.db.records {
			if existing.StudentID == rec.StudentID &&
				existing.Ref == rec.Ref &&
				existing.Date.Equal(core.Date(rec.Date)) {
				return nil, core.NewConflictError("attendance record", nil)
			}
		}
	}
	for i := range recs {
		recs[i].Date = core.Date(recs[i].Date)
		repo.db.records[recs[i].ID] = recs[i]
	}
	return recs, nil
}

func (repo attendanceRepository) GetRecord(ctx context.Context, id string) (attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	rec, ok := repo.db.records[id]
	if !ok {
		return attendance.Record{}, attendance.ErrNotFound
	}
	return rec, nil
}

func (repo attendanceRepository) UpdateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	if _, ok := repo.db.records[rec.ID]; !ok {
		return attendance.Record{}, attendance.ErrNotFound
	}
	repo.db.records[rec.ID] = rec
	return rec, nil
}

func (repo attendanceRepository) QueryRecords(ctx context.Context, filter attendance.QueryFilter) ([]attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	var out []attendance.Record
	for _, rec := range repo.db.records {
		if filter.StudentID != "" && rec.StudentID != filter.StudentID {
			continue
		}
		if !filter.Ref.IsZero() && rec.Ref != filter.Ref {
			continue
		}
		if !filter.Date.IsZero() && !rec.Date.Equal(core.Date(filter.Date)) {
			continue
		}
		if !filter.Period.Contains(rec.Date) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (repo attendanceRepository) HasRecordForSlotDate(ctx context.Context, slotID string, date time.Time) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	date = core.Date(date)
	for _, rec := range repo.db.records {
		if id, ok := rec.Ref.SlotID(); ok && id == slotID && rec.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (repo attendanceRepository) CountHeldSlotSessions(ctx context.Context, groupID, subjectID string, period core.Period) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	type sessionKey struct {
		slotID string
		date   time.Time
	}
	seen := make(map[sessionKey]bool)
	for _, rec := range repo.db.records {
		slotID, ok := rec.Ref.SlotID()
		if !ok {
			continue
		}
		slot, found := repo.db.slots[slotID]
		if !found || slot.GroupID != groupID || slot.SubjectID != subjectID {
			continue
		}
		if !period.Contains(rec.Date) {
			continue
		}
		seen[sessionKey{slotID, rec.Date}] = true
	}
	return len(seen), nil
}

func (repo attendanceRepository) CountPresent(ctx context.Context, studentID, subjectID string, period core.Period) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	var cnt int
	for _, rec := range repo.db.records {
		if rec.StudentID != studentID || rec.Status != attendance.StatusPresent {
			continue
		}
		if !period.Contains(rec.Date) {
			continue
		}
		if repo.recordSubjectID(rec) != subjectID {
			continue
		}
		cnt++
	}
	return cnt, nil
}

// recordSubjectID resolves the subject a record belongs to through its
// session source. Callers hold at least the read lock.
func (repo attendanceRepository) recordSubjectID(rec attendance.Record) string {
	switch rec.Ref.Kind() {
	case schedule.RefSlot:
		if slot, ok := repo.db.slots[rec.Ref.ID()]; ok {
			return slot.SubjectID
		}
	case schedule.RefExtraClass:
		if x, ok := repo.db.extraClasses[rec.Ref.ID()]; ok {
			return x.SubjectID
		}
	}
	return ""
}
