// Package inmemdb provides map-backed repositories for tests and local
// development. The same uniqueness rules the SQL schema enforces are enforced
// here so conflict semantics match across backends.
package inmemdb

import (
	"sync"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/notification"
	"github.com/trezcool/mahudhurio/core/roster"
	"github.com/trezcool/mahudhurio/core/schedule"
)

// DB is the shared in-memory store. All repositories created from one DB see
// the same data, mirroring how the SQL repositories share a connection pool.
type DB struct {
	mu sync.RWMutex

	timeSlots     map[string]schedule.TimeSlot
	slots         map[string]schedule.Slot
	cancellations map[string]schedule.Cancellation
	substitutions map[string]schedule.Substitution
	extraClasses  map[string]schedule.ExtraClass

	records       map[string]attendance.Record
	notifications []notification.Notification

	subjects      map[string]roster.Subject
	groups        map[string]roster.Group
	faculty       map[string]roster.Faculty
	students      map[string]roster.Student
	groupSubjects map[string][]string // groupID -> subjectIDs

	settings core.Settings
}

func NewDB() *DB {
	return &DB{
		timeSlots:     make(map[string]schedule.TimeSlot),
		slots:         make(map[string]schedule.Slot),
		cancellations: make(map[string]schedule.Cancellation),
		substitutions: make(map[string]schedule.Substitution),
		extraClasses:  make(map[string]schedule.ExtraClass),
		records:       make(map[string]attendance.Record),
		subjects:      make(map[string]roster.Subject),
		groups:        make(map[string]roster.Group),
		faculty:       make(map[string]roster.Faculty),
		students:      make(map[string]roster.Student),
		groupSubjects: make(map[string][]string),
		settings:      core.DefaultSettings(),
	}
}

// Seed helpers for tests and fixtures.

func (db *DB) AddSubject(s roster.Subject) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.subjects[s.ID] = s
}

func (db *DB) AddGroup(g roster.Group) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.groups[g.ID] = g
}

func (db *DB) AddFaculty(f roster.Faculty) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.faculty[f.ID] = f
}

func (db *DB) AddStudent(s roster.Student) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.students[s.ID] = s
}

// AssignSubject links a subject to a group's course.
func (db *DB) AssignSubject(groupID, subjectID string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.groupSubjects[groupID] = append(db.groupSubjects[groupID], subjectID)
}
