package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/roster"
)

type rosterRepository struct {
	db core.DBExecutor
}

var _ roster.Repository = (*rosterRepository)(nil) // interface compliance check

func NewRosterRepository(db core.DBExecutor) *rosterRepository {
	return &rosterRepository{db: db}
}

func (repo rosterRepository) GetSubject(ctx context.Context, id string) (roster.Subject, error) {
	var s roster.Subject
	err := repo.db.GetContext(ctx, &s, `SELECT id, code, name FROM subject WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return roster.Subject{}, roster.ErrNotFound
		}
		return roster.Subject{}, errors.Wrap(err, "getting subject")
	}
	return s, nil
}

func (repo rosterRepository) GetGroup(ctx context.Context, id string) (roster.Group, error) {
	var g roster.Group
	err := repo.db.GetContext(ctx, &g, `SELECT id, name FROM student_group WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return roster.Group{}, roster.ErrNotFound
		}
		return roster.Group{}, errors.Wrap(err, "getting group")
	}
	return g, nil
}

func (repo rosterRepository) GetFaculty(ctx context.Context, id string) (roster.Faculty, error) {
	var f roster.Faculty
	err := repo.db.GetContext(ctx, &f, `SELECT id, name, email FROM faculty WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return roster.Faculty{}, roster.ErrNotFound
		}
		return roster.Faculty{}, errors.Wrap(err, "getting faculty")
	}
	return f, nil
}

type studentRow struct {
	ID      string `db:"id"`
	Name    string `db:"name"`
	Email   string `db:"email"`
	GroupID string `db:"group_id"`
}

func (r studentRow) domain() roster.Student {
	return roster.Student{ID: r.ID, Name: r.Name, Email: r.Email, GroupID: r.GroupID}
}

const studentSelect = `SELECT id, name, email, group_id FROM student`

func (repo rosterRepository) GetStudent(ctx context.Context, id string) (roster.Student, error) {
	var row studentRow
	err := repo.db.GetContext(ctx, &row, studentSelect+` WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return roster.Student{}, roster.ErrNotFound
		}
		return roster.Student{}, errors.Wrap(err, "getting student")
	}
	return row.domain(), nil
}

func (repo rosterRepository) QueryEnrolledStudents(ctx context.Context) ([]roster.Student, error) {
	var rows []studentRow
	err := repo.db.SelectContext(ctx, &rows, studentSelect+` WHERE group_id IS NOT NULL AND group_id <> '' ORDER BY group_id, name`)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrolled students")
	}
	return studentsDomain(rows), nil
}

func (repo rosterRepository) QuerySubjectsForGroup(ctx context.Context, groupID string) ([]roster.Subject, error) {
	var subjects []roster.Subject
	err := repo.db.SelectContext(ctx, &subjects, `
SELECT sub.id, sub.code, sub.name
  FROM subject sub
  JOIN group_subject gs ON gs.subject_id = sub.id
 WHERE gs.group_id = $1
 ORDER BY sub.code`, groupID)
	if err != nil {
		return nil, errors.Wrap(err, "querying subjects for group")
	}
	return subjects, nil
}

func studentsDomain(rows []studentRow) []roster.Student {
	out := make([]roster.Student, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out
}
