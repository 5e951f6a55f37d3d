// Package roster holds the reference data the scheduling core reads:
// subjects, student groups, faculty and students. Accounts, enrolment and
// profile management live outside this system; the core only ever looks
// these entities up.
package roster

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("roster entry not found")

type (
	Subject struct {
		ID   string `json:"id"`
		Code string `json:"code"`
		Name string `json:"name"`
	}

	Group struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	Faculty struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	Student struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		GroupID string `json:"group_id"`
	}

	Repository interface {
		GetSubject(ctx context.Context, id string) (Subject, error)
		GetGroup(ctx context.Context, id string) (Group, error)
		GetFaculty(ctx context.Context, id string) (Faculty, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		// QueryEnrolledStudents returns every student assigned to a group.
		QueryEnrolledStudents(ctx context.Context) ([]Student, error)
		// QuerySubjectsForGroup returns the subjects taught to a group's course.
		QuerySubjectsForGroup(ctx context.Context, groupID string) ([]Subject, error)
	}
)
