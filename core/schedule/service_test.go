package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/schedule"
)

func TestService_CreateCancellation(t *testing.T) {
	ctx := context.Background()
	env := newSweepEnv(t)
	slot := env.addSlot(t, "s1", time.Monday)

	t.Run("weekday mismatch", func(t *testing.T) {
		// 2024-03-05 is a Tuesday
		_, err := env.svc.CreateCancellation(ctx, schedule.NewCancellation{SlotID: slot.ID, Date: "2024-03-05"}, nil)
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("CreateCancellation() error = %v, want ValidationError", err)
		}
	})

	t.Run("matching weekday", func(t *testing.T) {
		c, err := env.svc.CreateCancellation(ctx, schedule.NewCancellation{SlotID: slot.ID, Date: "2024-03-04"}, nil)
		if err != nil {
			t.Fatalf("CreateCancellation() failed: %v", err)
		}
		if c.SlotID != slot.ID {
			t.Errorf("SlotID = %q, want %q", c.SlotID, slot.ID)
		}
	})
}

func TestService_CancelExtraClass(t *testing.T) {
	ctx := context.Background()
	env := newSweepEnv(t)

	ts, err := env.svc.Repo().CreateTimeSlot(ctx, schedule.TimeSlot{
		ID: "ts-x", StartTime: "14:00", EndTime: "15:00", IsSchedulable: true,
	})
	if err != nil {
		t.Fatalf("CreateTimeSlot() failed: %v", err)
	}
	x, err := env.svc.CreateExtraClass(ctx, schedule.NewExtraClass{
		TeacherID: "f1", GroupID: "g1", SubjectID: "sub1", Date: "2024-03-05", TimeSlotID: ts.ID,
	})
	if err != nil {
		t.Fatalf("CreateExtraClass() failed: %v", err)
	}

	cancelled, err := env.svc.CancelExtraClass(ctx, x.ID)
	if err != nil {
		t.Fatalf("CancelExtraClass() failed: %v", err)
	}
	if cancelled.Status != schedule.StatusCancelled {
		t.Errorf("Status = %q, want %q", cancelled.Status, schedule.StatusCancelled)
	}

	t.Run("stored state reflects the cancel", func(t *testing.T) {
		got, err := env.svc.Repo().GetExtraClass(ctx, x.ID)
		if err != nil {
			t.Fatalf("GetExtraClass() failed: %v", err)
		}
		if got.Status != schedule.StatusCancelled {
			t.Errorf("Status = %q, want %q", got.Status, schedule.StatusCancelled)
		}
	})

	t.Run("session resolves as cancelled", func(t *testing.T) {
		date, _ := core.ParseDate("2024-03-05")
		sessions, err := env.svc.Resolve(ctx, date)
		if err != nil {
			t.Fatalf("Resolve() failed: %v", err)
		}
		if len(sessions) != 1 || sessions[0].Status != schedule.StatusCancelled {
			t.Errorf("resolved sessions = %+v, want one cancelled session", sessions)
		}
	})

	t.Run("cancelling twice conflicts", func(t *testing.T) {
		_, err := env.svc.CancelExtraClass(ctx, x.ID)
		if !core.IsConflict(err) {
			t.Errorf("CancelExtraClass() error = %v, want ConflictError", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := env.svc.CancelExtraClass(ctx, "nope")
		if errors.Cause(err) != schedule.ErrNotFound {
			t.Errorf("CancelExtraClass() error = %v, want ErrNotFound", err)
		}
	})
}
