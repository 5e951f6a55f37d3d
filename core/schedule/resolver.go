package schedule

import (
	"sort"
	"time"

	"github.com/trezcool/mahudhurio/core"
)

// Resolve merges the weekly template with the day's exceptions into the
// authoritative session list for one date. It is a pure function: it reads
// only its arguments, performs no writes, and identical inputs always yield
// identical output.
//
// Rules:
//   - slots recur on their weekday; others are ignored even if passed in;
//   - a Substitution for (slot, date) swaps the effective faculty;
//   - a Cancellation for (slot, date) marks the session cancelled but keeps
//     it in the output for audit views. Cancellation wins over Substitution
//     for actionability; the substitute is retained as metadata;
//   - every ExtraClass dated `date` becomes its own session with its status;
//   - output is ordered by time-slot start time, then group name.
func Resolve(date time.Time, slots []Slot, cancellations []Cancellation, substitutions []Substitution, extras []ExtraClass) []Session {
	date = core.Date(date)
	weekday := date.Weekday()

	cancelled := make(map[string]bool, len(cancellations))
	for _, c := range cancellations {
		if core.Date(c.Date).Equal(date) {
			cancelled[c.SlotID] = true
		}
	}
	substituted := make(map[string]Substitution, len(substitutions))
	for _, s := range substitutions {
		if core.Date(s.Date).Equal(date) {
			substituted[s.SlotID] = s
		}
	}

	sessions := make([]Session, 0, len(slots)+len(extras))

	for _, slot := range slots {
		if slot.Weekday != weekday {
			continue
		}
		sess := Session{
			Date:        date,
			Ref:         SlotRef(slot.ID),
			GroupID:     slot.GroupID,
			GroupName:   slot.GroupName,
			SubjectID:   slot.SubjectID,
			SubjectName: slot.SubjectName,
			FacultyID:   slot.FacultyID,
			TimeSlot:    slot.TimeSlot,
			Status:      StatusScheduled,
		}
		if sub, ok := substituted[slot.ID]; ok {
			sess.SubstitutedFor = slot.FacultyID
			sess.FacultyID = sub.SubstituteID
		}
		if cancelled[slot.ID] {
			sess.Status = StatusCancelled
		}
		sessions = append(sessions, sess)
	}

	for _, x := range extras {
		if !core.Date(x.Date).Equal(date) {
			continue
		}
		sessions = append(sessions, Session{
			Date:        date,
			Ref:         ExtraClassRef(x.ID),
			GroupID:     x.GroupID,
			GroupName:   x.GroupName,
			SubjectID:   x.SubjectID,
			SubjectName: x.SubjectName,
			FacultyID:   x.TeacherID,
			TimeSlot:    x.TimeSlot,
			Status:      x.Status,
		})
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].TimeSlot.StartTime != sessions[j].TimeSlot.StartTime {
			return sessions[i].TimeSlot.StartTime < sessions[j].TimeSlot.StartTime
		}
		return sessions[i].GroupName < sessions[j].GroupName
	})
	return sessions
}
