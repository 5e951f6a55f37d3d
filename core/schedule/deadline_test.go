package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
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

type sweepEnv struct {
	db      *inmemdb.DB
	svc     *schedule.Service
	attRepo attendance.Repository
}

func newSweepEnv(t *testing.T) sweepEnv {
	t.Helper()
	db := inmemdb.NewDB()
	return sweepEnv{
		db:      db,
		svc:     schedule.NewService(inmemdb.NewScheduleRepository(db), nopLogger{}),
		attRepo: inmemdb.NewAttendanceRepository(db),
	}
}

func (env sweepEnv) addSlot(t *testing.T, id string, weekday time.Weekday) schedule.Slot {
	t.Helper()
	ctx := context.Background()
	ts, err := env.svc.Repo().CreateTimeSlot(ctx, schedule.TimeSlot{
		ID: "ts-" + id, StartTime: "08:00", EndTime: "09:00", IsSchedulable: true,
	})
	if err != nil {
		t.Fatalf("CreateTimeSlot() failed: %v", err)
	}
	slot, err := env.svc.Repo().CreateSlot(ctx, schedule.Slot{
		ID: id, GroupID: "g-" + id, SubjectID: "sub-" + id, FacultyID: "f-" + id,
		Weekday: weekday, TimeSlotID: ts.ID, TimeSlot: ts,
	})
	if err != nil {
		t.Fatalf("CreateSlot() failed: %v", err)
	}
	return slot
}

func TestRunDeadlineSweep(t *testing.T) {
	ctx := context.Background()
	settings := core.DefaultSettings() // mark_deadline_days = 1

	// slot recurs on Monday 2024-03-04; sweeping on the 6th is past the
	// deadline of the 5th
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 3, 6, 1, 0, 0, 0, time.UTC)

	t.Run("cancels unmarked session past deadline", func(t *testing.T) {
		env := newSweepEnv(t)
		slot := env.addSlot(t, "s1", time.Monday)

		res, err := env.svc.RunDeadlineSweep(ctx, now, settings, env.attRepo, schedule.DefaultSweepWindowDays)
		if err != nil {
			t.Fatalf("RunDeadlineSweep() failed: %v", err)
		}
		if len(res.Cancelled) != 1 {
			t.Fatalf("cancelled %d sessions, want 1", len(res.Cancelled))
		}
		if !res.Cancelled[0].Date.Equal(monday) {
			t.Errorf("cancelled date = %s, want %s", res.Cancelled[0].Date, monday)
		}

		c, err := env.svc.Repo().GetCancellation(ctx, slot.ID, monday)
		if err != nil {
			t.Fatalf("GetCancellation() failed: %v", err)
		}
		if !c.IsSystem() {
			t.Error("sweep cancellation must be system-authored")
		}
	})

	t.Run("idempotent on re-run", func(t *testing.T) {
		env := newSweepEnv(t)
		env.addSlot(t, "s1", time.Monday)

		if _, err := env.svc.RunDeadlineSweep(ctx, now, settings, env.attRepo, schedule.DefaultSweepWindowDays); err != nil {
			t.Fatalf("first sweep failed: %v", err)
		}

		nextDay := now.AddDate(0, 0, 1)
		res, err := env.svc.RunDeadlineSweep(ctx, nextDay, settings, env.attRepo, schedule.DefaultSweepWindowDays)
		if err != nil {
			t.Fatalf("second sweep failed: %v", err)
		}
		if len(res.Cancelled) != 0 {
			t.Errorf("second sweep cancelled %d sessions, want 0", len(res.Cancelled))
		}
		if len(res.Failures) != 0 {
			t.Errorf("second sweep had %d failures, want 0", len(res.Failures))
		}
	})

	t.Run("skips marked sessions", func(t *testing.T) {
		env := newSweepEnv(t)
		slot := env.addSlot(t, "s1", time.Monday)

		ts := now.UTC()
		_, err := env.attRepo.CreateRecords(ctx, []attendance.Record{{
			ID: "r1", StudentID: "st1", Ref: schedule.SlotRef(slot.ID), Date: monday,
			Status: attendance.StatusAbsent, CreatedAt: ts, UpdatedAt: ts,
		}})
		if err != nil {
			t.Fatalf("CreateRecords() failed: %v", err)
		}

		res, err := env.svc.RunDeadlineSweep(ctx, now, settings, env.attRepo, schedule.DefaultSweepWindowDays)
		if err != nil {
			t.Fatalf("RunDeadlineSweep() failed: %v", err)
		}
		if len(res.Cancelled) != 0 {
			t.Errorf("cancelled %d marked sessions, want 0", len(res.Cancelled))
		}
	})

	t.Run("skips sessions inside the marking window", func(t *testing.T) {
		env := newSweepEnv(t)
		// Tuesday 2024-03-05: deadline is the 6th, still open when sweeping on the 6th
		env.addSlot(t, "s1", time.Tuesday)

		res, err := env.svc.RunDeadlineSweep(ctx, now, settings, env.attRepo, schedule.DefaultSweepWindowDays)
		if err != nil {
			t.Fatalf("RunDeadlineSweep() failed: %v", err)
		}
		if len(res.Cancelled) != 0 {
			t.Errorf("cancelled %d sessions inside their window, want 0", len(res.Cancelled))
		}
	})

	t.Run("skips manually cancelled sessions", func(t *testing.T) {
		env := newSweepEnv(t)
		slot := env.addSlot(t, "s1", time.Monday)

		who := "admin-1"
		if _, err := env.svc.CreateCancellation(ctx, schedule.NewCancellation{
			SlotID: slot.ID, Date: core.FormatDate(monday),
		}, &who); err != nil {
			t.Fatalf("CreateCancellation() failed: %v", err)
		}

		res, err := env.svc.RunDeadlineSweep(ctx, now, settings, env.attRepo, schedule.DefaultSweepWindowDays)
		if err != nil {
			t.Fatalf("RunDeadlineSweep() failed: %v", err)
		}
		if len(res.Cancelled) != 0 {
			t.Errorf("cancelled %d already-cancelled sessions, want 0", len(res.Cancelled))
		}

		c, err := env.svc.Repo().GetCancellation(ctx, slot.ID, monday)
		if err != nil {
			t.Fatalf("GetCancellation() failed: %v", err)
		}
		if c.IsSystem() {
			t.Error("manual cancellation must keep its author")
		}
	})
}
