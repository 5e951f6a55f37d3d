package schedule

import (
	"testing"
	"time"
)

var (
	tsMorning = TimeSlot{ID: "ts1", StartTime: "08:00", EndTime: "09:00", IsSchedulable: true}
	tsMidday  = TimeSlot{ID: "ts2", StartTime: "11:00", EndTime: "12:00", IsSchedulable: true}

	// 2024-03-04 is a Monday
	monday = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
)

func slotFixture(id string, weekday time.Weekday, ts TimeSlot, group, faculty string) Slot {
	return Slot{
		ID:         id,
		GroupID:    group,
		GroupName:  group,
		SubjectID:  "sub-" + id,
		FacultyID:  faculty,
		Weekday:    weekday,
		TimeSlotID: ts.ID,
		TimeSlot:   ts,
	}
}

func TestResolve(t *testing.T) {
	slots := []Slot{
		slotFixture("s1", time.Monday, tsMidday, "g1", "f1"),
		slotFixture("s2", time.Monday, tsMorning, "g2", "f2"),
		slotFixture("s3", time.Tuesday, tsMorning, "g1", "f1"),
	}

	tests := []struct {
		name          string
		cancellations []Cancellation
		substitutions []Substitution
		extras        []ExtraClass
		want          []struct {
			id      string
			faculty string
			status  string
			subFor  string
		}
	}{
		{
			name: "template only, ordered by start time",
			want: []struct{ id, faculty, status, subFor string }{
				{"s2", "f2", StatusScheduled, ""},
				{"s1", "f1", StatusScheduled, ""},
			},
		},
		{
			name:          "substitution swaps faculty only",
			substitutions: []Substitution{{ID: "x", SlotID: "s1", Date: monday, SubstituteID: "f9"}},
			want: []struct{ id, faculty, status, subFor string }{
				{"s2", "f2", StatusScheduled, ""},
				{"s1", "f9", StatusScheduled, "f1"},
			},
		},
		{
			name:          "cancellation keeps session for audit",
			cancellations: []Cancellation{{ID: "c", SlotID: "s2", Date: monday}},
			want: []struct{ id, faculty, status, subFor string }{
				{"s2", "f2", StatusCancelled, ""},
				{"s1", "f1", StatusScheduled, ""},
			},
		},
		{
			name:          "cancellation wins over substitution, substitute retained",
			cancellations: []Cancellation{{ID: "c", SlotID: "s1", Date: monday}},
			substitutions: []Substitution{{ID: "x", SlotID: "s1", Date: monday, SubstituteID: "f9"}},
			want: []struct{ id, faculty, status, subFor string }{
				{"s2", "f2", StatusScheduled, ""},
				{"s1", "f9", StatusCancelled, "f1"},
			},
		},
		{
			name: "extra class joins the day",
			extras: []ExtraClass{{
				ID: "x1", TeacherID: "f3", GroupID: "g3", GroupName: "g3",
				SubjectID: "sub-x", Date: monday, TimeSlotID: tsMorning.ID,
				TimeSlot: tsMorning, Status: StatusScheduled,
			}},
			want: []struct{ id, faculty, status, subFor string }{
				{"s2", "f2", StatusScheduled, ""},
				{"x1", "f3", StatusScheduled, ""},
				{"s1", "f1", StatusScheduled, ""},
			},
		},
		{
			name: "cancelled extra class keeps its own status",
			extras: []ExtraClass{{
				ID: "x1", TeacherID: "f3", GroupID: "g3", GroupName: "g3",
				SubjectID: "sub-x", Date: monday, TimeSlotID: tsMidday.ID,
				TimeSlot: tsMidday, Status: StatusCancelled,
			}},
			want: []struct{ id, faculty, status, subFor string }{
				{"s2", "f2", StatusScheduled, ""},
				{"s1", "f1", StatusScheduled, ""},
				{"x1", "f3", StatusCancelled, ""},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(monday, slots, tt.cancellations, tt.substitutions, tt.extras)
			if len(got) != len(tt.want) {
				t.Fatalf("Resolve() returned %d sessions, want %d", len(got), len(tt.want))
			}
			for i, w := range tt.want {
				if got[i].Ref.ID() != w.id {
					t.Errorf("session %d: got %q, want %q", i, got[i].Ref.ID(), w.id)
				}
				if got[i].FacultyID != w.faculty {
					t.Errorf("session %d: faculty = %q, want %q", i, got[i].FacultyID, w.faculty)
				}
				if got[i].Status != w.status {
					t.Errorf("session %d: status = %q, want %q", i, got[i].Status, w.status)
				}
				if got[i].SubstitutedFor != w.subFor {
					t.Errorf("session %d: substitutedFor = %q, want %q", i, got[i].SubstitutedFor, w.subFor)
				}
			}
		})
	}
}

func TestResolve_ignoresOtherDates(t *testing.T) {
	tuesday := monday.AddDate(0, 0, 1)
	slots := []Slot{slotFixture("s1", time.Monday, tsMorning, "g1", "f1")}
	cancellations := []Cancellation{{ID: "c", SlotID: "s1", Date: tuesday}}
	extras := []ExtraClass{{ID: "x1", Date: tuesday, TimeSlot: tsMidday, Status: StatusScheduled}}

	got := Resolve(monday, slots, cancellations, nil, extras)
	if len(got) != 1 {
		t.Fatalf("Resolve() returned %d sessions, want 1", len(got))
	}
	if got[0].Status != StatusScheduled {
		t.Errorf("cancellation for another date must not apply, got status %q", got[0].Status)
	}
}

func TestResolve_pure(t *testing.T) {
	slots := []Slot{slotFixture("s1", time.Monday, tsMorning, "g1", "f1")}
	subs := []Substitution{{ID: "x", SlotID: "s1", Date: monday, SubstituteID: "f9"}}

	first := Resolve(monday, slots, nil, subs, nil)
	second := Resolve(monday, slots, nil, subs, nil)
	if len(first) != len(second) || first[0] != second[0] {
		t.Error("identical inputs must yield identical output")
	}
	if slots[0].FacultyID != "f1" {
		t.Error("Resolve must not mutate its inputs")
	}
}

func TestSessionRef_json(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
		want    SessionRef
	}{
		{name: "slot ref", in: `{"slot_id":"s1"}`, want: SlotRef("s1")},
		{name: "extra class ref", in: `{"extra_class_id":"x1"}`, want: ExtraClassRef("x1")},
		{name: "both set", in: `{"slot_id":"s1","extra_class_id":"x1"}`, wantErr: true},
		{name: "neither set", in: `{}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ref SessionRef
			err := ref.UnmarshalJSON([]byte(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && ref != tt.want {
				t.Errorf("UnmarshalJSON() = %+v, want %+v", ref, tt.want)
			}
		})
	}
}
