package attendance_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/roster"
	"github.com/trezcool/mahudhurio/core/schedule"
	inmemdb "github.com/trezcool/mahudhurio/storage/database/inmem"
)

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type env struct {
	db       *inmemdb.DB
	svc      *attendance.Service
	schedSvc *schedule.Service
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := inmemdb.NewDB()
	scheduleRepo := inmemdb.NewScheduleRepository(db)
	return env{
		db:       db,
		svc:      attendance.NewService(inmemdb.NewAttendanceRepository(db), scheduleRepo, inmemdb.NewRosterRepository(db)),
		schedSvc: schedule.NewService(scheduleRepo, nopLogger{}),
	}
}

func (e env) addSlot(t *testing.T, id string, weekday time.Weekday, groupID, subjectID string) schedule.Slot {
	t.Helper()
	ctx := context.Background()
	ts, err := e.schedSvc.Repo().CreateTimeSlot(ctx, schedule.TimeSlot{
		ID: "ts-" + id, StartTime: "08:00", EndTime: "09:00", IsSchedulable: true,
	})
	if err != nil {
		t.Fatalf("CreateTimeSlot() failed: %v", err)
	}
	slot, err := e.schedSvc.Repo().CreateSlot(ctx, schedule.Slot{
		ID: id, GroupID: groupID, SubjectID: subjectID, FacultyID: "f1",
		Weekday: weekday, TimeSlotID: ts.ID, TimeSlot: ts,
	})
	if err != nil {
		t.Fatalf("CreateSlot() failed: %v", err)
	}
	return slot
}

// 2024-03-04 is a Monday
var monday = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func rosterFor(slotID, date string, studentIDs ...string) attendance.NewRoster {
	entries := make([]attendance.RosterEntry, 0, len(studentIDs))
	for _, id := range studentIDs {
		entries = append(entries, attendance.RosterEntry{StudentID: id, Status: "Present"})
	}
	return attendance.NewRoster{
		Ref:      schedule.SlotRef(slotID),
		Date:     date,
		MarkedBy: "faculty-1",
		Entries:  entries,
	}
}

func TestService_MarkRoster(t *testing.T) {
	ctx := context.Background()
	settings := core.DefaultSettings() // mark_deadline_days = 1
	now := monday.Add(20 * time.Hour)  // evening of the session day

	t.Run("marks whole roster atomically", func(t *testing.T) {
		e := newEnv(t)
		slot := e.addSlot(t, "s1", time.Monday, "g1", "sub1")

		recs, err := e.svc.MarkRoster(ctx, rosterFor(slot.ID, "2024-03-04", "st1", "st2", "st3"), now, settings)
		if err != nil {
			t.Fatalf("MarkRoster() failed: %v", err)
		}
		if len(recs) != 3 {
			t.Fatalf("created %d records, want 3", len(recs))
		}
		for _, rec := range recs {
			if !rec.Date.Equal(monday) {
				t.Errorf("record date = %s, want %s", rec.Date, monday)
			}
			if !rec.Attended() {
				t.Errorf("record %s: Present must count as attended", rec.ID)
			}
		}
	})

	t.Run("re-marking the same pair conflicts", func(t *testing.T) {
		e := newEnv(t)
		slot := e.addSlot(t, "s1", time.Monday, "g1", "sub1")

		if _, err := e.svc.MarkRoster(ctx, rosterFor(slot.ID, "2024-03-04", "st1"), now, settings); err != nil {
			t.Fatalf("first MarkRoster() failed: %v", err)
		}
		_, err := e.svc.MarkRoster(ctx, rosterFor(slot.ID, "2024-03-04", "st1"), now, settings)
		if !core.IsConflict(err) {
			t.Errorf("MarkRoster() error = %v, want ConflictError", err)
		}
	})

	t.Run("partial duplicate rolls the batch back", func(t *testing.T) {
		e := newEnv(t)
		slot := e.addSlot(t, "s1", time.Monday, "g1", "sub1")

		if _, err := e.svc.MarkRoster(ctx, rosterFor(slot.ID, "2024-03-04", "st1"), now, settings); err != nil {
			t.Fatalf("first MarkRoster() failed: %v", err)
		}
		if _, err := e.svc.MarkRoster(ctx, rosterFor(slot.ID, "2024-03-04", "st2", "st1"), now, settings); !core.IsConflict(err) {
			t.Fatalf("MarkRoster() error = %v, want ConflictError", err)
		}

		// st2 must not have been written
		recs, err := e.svc.QueryRecords(ctx, attendance.QueryFilter{StudentID: "st2"})
		if err != nil {
			t.Fatalf("QueryRecords() failed: %v", err)
		}
		if len(recs) != 0 {
			t.Errorf("found %d records for st2 after failed batch, want 0", len(recs))
		}
	})

	t.Run("past mark deadline", func(t *testing.T) {
		e := newEnv(t)
		slot := e.addSlot(t, "s1", time.Monday, "g1", "sub1")

		twoDaysLater := monday.AddDate(0, 0, 2)
		_, err := e.svc.MarkRoster(ctx, rosterFor(slot.ID, "2024-03-04", "st1"), twoDaysLater, settings)
		if !core.IsDeadlineExceeded(err) {
			t.Errorf("MarkRoster() error = %v, want DeadlineExceededError", err)
		}
	})

	t.Run("future date", func(t *testing.T) {
		e := newEnv(t)
		slot := e.addSlot(t, "s1", time.Monday, "g1", "sub1")

		_, err := e.svc.MarkRoster(ctx, rosterFor(slot.ID, "2024-03-04", "st1"), monday.AddDate(0, 0, -3), settings)
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("MarkRoster() error = %v, want ValidationError", err)
		}
	})

	t.Run("weekday mismatch", func(t *testing.T) {
		e := newEnv(t)
		slot := e.addSlot(t, "s1", time.Tuesday, "g1", "sub1")

		_, err := e.svc.MarkRoster(ctx, rosterFor(slot.ID, "2024-03-04", "st1"), now, settings)
		if err != attendance.ErrNoSession {
			t.Errorf("MarkRoster() error = %v, want ErrNoSession", err)
		}
	})

	t.Run("cancelled session", func(t *testing.T) {
		e := newEnv(t)
		slot := e.addSlot(t, "s1", time.Monday, "g1", "sub1")

		who := "admin-1"
		if _, err := e.schedSvc.CreateCancellation(ctx, schedule.NewCancellation{
			SlotID: slot.ID, Date: "2024-03-04",
		}, &who); err != nil {
			t.Fatalf("CreateCancellation() failed: %v", err)
		}

		_, err := e.svc.MarkRoster(ctx, rosterFor(slot.ID, "2024-03-04", "st1"), now, settings)
		if !core.IsConflict(err) {
			t.Errorf("MarkRoster() error = %v, want ConflictError", err)
		}
	})

	t.Run("duplicate student in roster", func(t *testing.T) {
		e := newEnv(t)
		slot := e.addSlot(t, "s1", time.Monday, "g1", "sub1")

		_, err := e.svc.MarkRoster(ctx, rosterFor(slot.ID, "2024-03-04", "st1", "st1"), now, settings)
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("MarkRoster() error = %v, want ValidationError", err)
		}
	})

	t.Run("unknown slot", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.svc.MarkRoster(ctx, rosterFor("nope", "2024-03-04", "st1"), now, settings)
		if errors.Cause(err) != schedule.ErrNotFound {
			t.Errorf("MarkRoster() error = %v, want schedule.ErrNotFound", err)
		}
	})
}

func TestService_UpdateRecord(t *testing.T) {
	ctx := context.Background()
	settings := core.DefaultSettings() // edit_deadline_days = 3
	now := monday.Add(20 * time.Hour)

	e := newEnv(t)
	slot := e.addSlot(t, "s1", time.Monday, "g1", "sub1")

	recs, err := e.svc.MarkRoster(ctx, rosterFor(slot.ID, "2024-03-04", "st1"), now, settings)
	if err != nil {
		t.Fatalf("MarkRoster() failed: %v", err)
	}
	rec := recs[0]

	t.Run("within edit window", func(t *testing.T) {
		got, err := e.svc.UpdateRecord(ctx, rec.ID, attendance.UpdateRecord{
			Status: "Absent", MarkedBy: "faculty-2",
		}, now.AddDate(0, 0, 2), settings)
		if err != nil {
			t.Fatalf("UpdateRecord() failed: %v", err)
		}
		if got.Status != attendance.StatusAbsent {
			t.Errorf("status = %q, want Absent", got.Status)
		}
	})

	t.Run("past edit window", func(t *testing.T) {
		_, err := e.svc.UpdateRecord(ctx, rec.ID, attendance.UpdateRecord{
			Status: "Present", MarkedBy: "faculty-2",
		}, now.AddDate(0, 0, 4), settings)
		if !core.IsDeadlineExceeded(err) {
			t.Errorf("UpdateRecord() error = %v, want DeadlineExceededError", err)
		}
	})

	t.Run("unknown record", func(t *testing.T) {
		_, err := e.svc.UpdateRecord(ctx, "nope", attendance.UpdateRecord{
			Status: "Present", MarkedBy: "faculty-2",
		}, now, settings)
		if err != attendance.ErrNotFound {
			t.Errorf("UpdateRecord() error = %v, want ErrNotFound", err)
		}
	})
}

func TestService_Aggregate(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	e.db.AddStudent(roster.Student{ID: "st1", Name: "Amani", GroupID: "g1"})
	slot := e.addSlot(t, "s1", time.Monday, "g1", "sub1")

	// 5 held template sessions; st1 present at all 5
	tstamp := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		date := monday.AddDate(0, 0, 7*i)
		_, err := e.svc.Repo().CreateRecords(ctx, []attendance.Record{{
			ID: "r-" + date.Format("0102"), StudentID: "st1", Ref: schedule.SlotRef(slot.ID),
			Date: date, Status: attendance.StatusPresent, CreatedAt: tstamp, UpdatedAt: tstamp,
		}})
		if err != nil {
			t.Fatalf("CreateRecords() failed: %v", err)
		}
	}

	// 3 scheduled extra classes; st1 present at 1, absent at 1, unmarked at 1
	ts, _ := e.schedSvc.Repo().GetTimeSlot(ctx, "ts-s1")
	statuses := []attendance.Status{attendance.StatusPresent, attendance.StatusAbsent, ""}
	for i, status := range statuses {
		date := monday.AddDate(0, 0, i+1)
		x, err := e.schedSvc.Repo().CreateExtraClass(ctx, schedule.ExtraClass{
			ID: fmt.Sprintf("x%d", i+1), TeacherID: "f2", GroupID: "g1", SubjectID: "sub1",
			Date: date, TimeSlotID: ts.ID, TimeSlot: ts, Status: schedule.StatusScheduled,
		})
		if err != nil {
			t.Fatalf("CreateExtraClass() failed: %v", err)
		}
		if status == "" {
			continue
		}
		_, err = e.svc.Repo().CreateRecords(ctx, []attendance.Record{{
			ID: "rx-" + x.ID, StudentID: "st1", Ref: schedule.ExtraClassRef(x.ID),
			Date: date, Status: status, CreatedAt: tstamp, UpdatedAt: tstamp,
		}})
		if err != nil {
			t.Fatalf("CreateRecords() failed: %v", err)
		}
	}

	sum, err := e.svc.Aggregate(ctx, "st1", "sub1", core.Period{})
	if err != nil {
		t.Fatalf("Aggregate() failed: %v", err)
	}
	if sum.Held != 8 {
		t.Errorf("Held = %d, want 8 (5 template + 3 extra)", sum.Held)
	}
	if sum.Attended != 6 {
		t.Errorf("Attended = %d, want 6", sum.Attended)
	}
	if sum.Percentage != 75 {
		t.Errorf("Percentage = %v, want 75", sum.Percentage)
	}

	t.Run("period narrows the window", func(t *testing.T) {
		sum, err := e.svc.Aggregate(ctx, "st1", "sub1", core.Period{From: monday, To: monday})
		if err != nil {
			t.Fatalf("Aggregate() failed: %v", err)
		}
		if sum.Held != 1 || sum.Attended != 1 {
			t.Errorf("got held=%d attended=%d, want 1/1", sum.Held, sum.Attended)
		}
	})

	t.Run("no held sessions yields zero percent", func(t *testing.T) {
		sum, err := e.svc.Aggregate(ctx, "st1", "other-subject", core.Period{})
		if err != nil {
			t.Fatalf("Aggregate() failed: %v", err)
		}
		if sum.Held != 0 || sum.Percentage != 0 {
			t.Errorf("got held=%d percentage=%v, want 0/0", sum.Held, sum.Percentage)
		}
	})

	t.Run("unknown student", func(t *testing.T) {
		if _, err := e.svc.Aggregate(ctx, "nope", "sub1", core.Period{}); errors.Cause(err) != roster.ErrNotFound {
			t.Errorf("Aggregate() error = %v, want roster.ErrNotFound", err)
		}
	})
}
