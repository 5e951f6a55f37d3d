package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/mahudhurio/core/roster"
)

type rosterRepository struct {
	db *DB
}

var _ roster.Repository = (*rosterRepository)(nil) // interface compliance check

func NewRosterRepository(db *DB) *rosterRepository {
	return &rosterRepository{db: db}
}

func (repo rosterRepository) GetSubject(ctx context.Context, id string) (roster.Subject, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	s, ok := repo.db.subjects[id]
	if !ok {
		return roster.Subject{}, roster.ErrNotFound
	}
	return s, nil
}

func (repo rosterRepository) GetGroup(ctx context.Context, id string) (roster.Group, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	g, ok := repo.db.groups[id]
	if !ok {
		return roster.Group{}, roster.ErrNotFound
	}
	return g, nil
}

func (repo rosterRepository) GetFaculty(ctx context.Context, id string) (roster.Faculty, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	f, ok := repo.db.faculty[id]
	if !ok {
		return roster.Faculty{}, roster.ErrNotFound
	}
	return f, nil
}

func (repo rosterRepository) GetStudent(ctx context.Context, id string) (roster.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	s, ok := repo.db.students[id]
	if !ok {
		return roster.Student{}, roster.ErrNotFound
	}
	return s, nil
}

func (repo rosterRepository) QueryEnrolledStudents(ctx context.Context) ([]roster.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	var out []roster.Student
	for _, s := range repo.db.students {
		if s.GroupID != "" {
			out = append(out, s)
		}
	}
	sortStudents(out)
	return out, nil
}

func (repo rosterRepository) QuerySubjectsForGroup(ctx context.Context, groupID string) ([]roster.Subject, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	var out []roster.Subject
	for _, id := range repo.db.groupSubjects[groupID] {
		if s, ok := repo.db.subjects[id]; ok {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func sortStudents(students []roster.Student) {
	sort.Slice(students, func(i, j int) bool {
		if students[i].Name != students[j].Name {
			return students[i].Name < students[j].Name
		}
		return students[i].ID < students[j].ID
	})
}
