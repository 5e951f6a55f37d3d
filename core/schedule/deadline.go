package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

// DefaultSweepWindowDays is the trailing window of past days the deadline
// sweep re-examines on every run. Re-examining already-processed dates is
// harmless: the unique (slot, date) constraint makes the sweep idempotent.
const DefaultSweepWindowDays = 4

type (
	// AttendanceChecker is the sweep's only view of the attendance ledger.
	AttendanceChecker interface {
		HasRecordForSlotDate(ctx context.Context, slotID string, date time.Time) (bool, error)
	}

	// DigestEntry describes one auto-cancelled session for the notification
	// collaborator.
	DigestEntry struct {
		Date    time.Time
		Subject string
		Group   string
		Faculty string
	}

	// SweepResult reports what one sweep did. Failures holds per-slot errors
	// the sweep logged and skipped; one bad slot never aborts the run.
	SweepResult struct {
		Cancelled []DigestEntry
		Failures  []error
	}
)

// RunDeadlineSweep auto-cancels past sessions whose marking window lapsed
// with no recorded attendance. For each day d in the trailing window and each
// slot recurring on weekday(d): if now is past d + markDeadlineDays and the
// ledger holds no record for (slot, d) and no cancellation exists yet, a
// system-authored Cancellation is created and the session joins the digest.
//
// The sweep is safe under at-least-once scheduling: a concurrent or repeated
// insert loses to the unique (slot, date) constraint and is treated as
// already handled, not as an error.
func (svc *Service) RunDeadlineSweep(ctx context.Context, now time.Time, settings core.Settings, att AttendanceChecker, windowDays int) (SweepResult, error) {
	if windowDays <= 0 {
		windowDays = DefaultSweepWindowDays
	}
	today := core.Date(now)

	var res SweepResult
	for i := 1; i <= windowDays; i++ {
		day := today.AddDate(0, 0, -i)

		deadline := day.AddDate(0, 0, settings.MarkDeadlineDays)
		if !today.After(deadline) {
			continue
		}

		weekday := day.Weekday()
		slots, err := svc.repo.QuerySlots(ctx, SlotFilter{Weekday: &weekday})
		if err != nil {
			return res, errors.Wrapf(err, "querying slots for %s", core.FormatDate(day))
		}

		for _, slot := range slots {
			if err := svc.sweepSlot(ctx, slot, day, att, &res); err != nil {
				svc.logger.Error(fmt.Sprintf("deadline sweep: slot %s on %s: %v", slot.ID, core.FormatDate(day), err), err)
				res.Failures = append(res.Failures, errors.Wrapf(err, "slot %s on %s", slot.ID, core.FormatDate(day)))
			}
		}
	}
	return res, nil
}

func (svc *Service) sweepSlot(ctx context.Context, slot Slot, day time.Time, att AttendanceChecker, res *SweepResult) error {
	marked, err := att.HasRecordForSlotDate(ctx, slot.ID, day)
	if err != nil {
		return errors.Wrap(err, "checking attendance")
	}
	if marked {
		return nil
	}

	if _, err = svc.repo.GetCancellation(ctx, slot.ID, day); err == nil {
		return nil // already cancelled
	} else if errors.Cause(err) != ErrNotFound {
		return errors.Wrap(err, "checking cancellation")
	}

	_, err = svc.CreateCancellation(ctx, NewCancellation{SlotID: slot.ID, Date: core.FormatDate(day)}, nil)
	if err != nil {
		if core.IsConflict(err) {
			return nil // raced another run; already handled
		}
		return errors.Wrap(err, "creating cancellation")
	}

	res.Cancelled = append(res.Cancelled, DigestEntry{
		Date:    day,
		Subject: slot.SubjectName,
		Group:   slot.GroupName,
		Faculty: slot.FacultyName,
	})
	return nil
}
