package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/schedule"
)

type scheduleRepository struct {
	db core.DBExecutor
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db core.DBExecutor) *scheduleRepository {
	return &scheduleRepository{db: db}
}

// row types

type timeSlotRow struct {
	ID            string `db:"id"`
	StartTime     string `db:"start_time"`
	EndTime       string `db:"end_time"`
	Label         string `db:"label"`
	IsSchedulable bool   `db:"is_schedulable"`
}

func (r timeSlotRow) domain() schedule.TimeSlot {
	return schedule.TimeSlot{
		ID:            r.ID,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		Label:         r.Label,
		IsSchedulable: r.IsSchedulable,
	}
}

type slotRow struct {
	ID         string    `db:"id"`
	GroupID    string    `db:"group_id"`
	SubjectID  string    `db:"subject_id"`
	FacultyID  string    `db:"faculty_id"`
	Weekday    int       `db:"weekday"`
	TimeSlotID string    `db:"time_slot_id"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`

	TSStartTime     string `db:"ts_start_time"`
	TSEndTime       string `db:"ts_end_time"`
	TSLabel         string `db:"ts_label"`
	TSIsSchedulable bool   `db:"ts_is_schedulable"`
	GroupName       string `db:"group_name"`
	SubjectName     string `db:"subject_name"`
	FacultyName     string `db:"faculty_name"`
}

func (r slotRow) domain() schedule.Slot {
	return schedule.Slot{
		ID:         r.ID,
		GroupID:    r.GroupID,
		SubjectID:  r.SubjectID,
		FacultyID:  r.FacultyID,
		Weekday:    time.Weekday(r.Weekday),
		TimeSlotID: r.TimeSlotID,
		TimeSlot: schedule.TimeSlot{
			ID:            r.TimeSlotID,
			StartTime:     r.TSStartTime,
			EndTime:       r.TSEndTime,
			Label:         r.TSLabel,
			IsSchedulable: r.TSIsSchedulable,
		},
		GroupName:   r.GroupName,
		SubjectName: r.SubjectName,
		FacultyName: r.FacultyName,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

const slotSelect = `
SELECT s.id, s.group_id, s.subject_id, s.faculty_id, s.weekday, s.time_slot_id, s.created_at, s.updated_at,
       ts.start_time AS ts_start_time, ts.end_time AS ts_end_time, ts.label AS ts_label, ts.is_schedulable AS ts_is_schedulable,
       g.name AS group_name, subj.name AS subject_name, f.name AS faculty_name
  FROM schedule_slot s
  JOIN time_slot ts ON ts.id = s.time_slot_id
  JOIN student_group g ON g.id = s.group_id
  JOIN subject subj ON subj.id = s.subject_id
  JOIN faculty f ON f.id = s.faculty_id`

// time slots

func (repo scheduleRepository) CreateTimeSlot(ctx context.Context, ts schedule.TimeSlot) (schedule.TimeSlot, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO time_slot (id, start_time, end_time, label, is_schedulable) VALUES ($1, $2, $3, $4, $5)`,
		ts.ID, ts.StartTime, ts.EndTime, ts.Label, ts.IsSchedulable)
	if err != nil {
		return schedule.TimeSlot{}, trapConflictErr(err, "time slot", "inserting time slot")
	}
	return ts, nil
}

func (repo scheduleRepository) QueryTimeSlots(ctx context.Context) ([]schedule.TimeSlot, error) {
	var rows []timeSlotRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT id, start_time, end_time, label, is_schedulable FROM time_slot ORDER BY start_time`)
	if err != nil {
		return nil, errors.Wrap(err, "querying time slots")
	}
	out := make([]schedule.TimeSlot, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (repo scheduleRepository) GetTimeSlot(ctx context.Context, id string) (schedule.TimeSlot, error) {
	var row timeSlotRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, start_time, end_time, label, is_schedulable FROM time_slot WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return schedule.TimeSlot{}, schedule.ErrNotFound
		}
		return schedule.TimeSlot{}, errors.Wrap(err, "getting time slot")
	}
	return row.domain(), nil
}

// slots

func (repo scheduleRepository) CreateSlot(ctx context.Context, slot schedule.Slot) (schedule.Slot, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO schedule_slot (id, group_id, subject_id, faculty_id, weekday, time_slot_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		slot.ID, slot.GroupID, slot.SubjectID, slot.FacultyID, int(slot.Weekday), slot.TimeSlotID, slot.CreatedAt, slot.UpdatedAt)
	if err != nil {
		return schedule.Slot{}, trapConflictErr(err, "schedule slot", "inserting slot")
	}
	return repo.GetSlot(ctx, slot.ID)
}

func (repo scheduleRepository) QuerySlots(ctx context.Context, filter schedule.SlotFilter) ([]schedule.Slot, error) {
	q := slotSelect + ` WHERE 1=1`
	args := make([]interface{}, 0, 3)
	if filter.Weekday != nil {
		args = append(args, int(*filter.Weekday))
		q += ` AND s.weekday = $` + itoa(len(args))
	}
	if filter.GroupID != "" {
		args = append(args, filter.GroupID)
		q += ` AND s.group_id = $` + itoa(len(args))
	}
	if filter.FacultyID != "" {
		args = append(args, filter.FacultyID)
		q += ` AND s.faculty_id = $` + itoa(len(args))
	}
	q += ` ORDER BY s.weekday, ts.start_time, g.name`

	var rows []slotRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying slots")
	}
	out := make([]schedule.Slot, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (repo scheduleRepository) GetSlot(ctx context.Context, id string) (schedule.Slot, error) {
	var row slotRow
	err := repo.db.GetContext(ctx, &row, slotSelect+` WHERE s.id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return schedule.Slot{}, schedule.ErrNotFound
		}
		return schedule.Slot{}, errors.Wrap(err, "getting slot")
	}
	return row.domain(), nil
}

func (repo scheduleRepository) DeleteSlot(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM schedule_slot WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting slot")
	}
	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return schedule.ErrNotFound
	}
	return nil
}

// exceptions

func (repo scheduleRepository) CreateCancellation(ctx context.Context, c schedule.Cancellation) (schedule.Cancellation, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO class_cancellation (id, slot_id, date, cancelled_by, created_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.SlotID, c.Date, c.CancelledBy, c.CreatedAt)
	if err != nil {
		return schedule.Cancellation{}, trapConflictErr(err, "cancellation", "inserting cancellation")
	}
	return c, nil
}

type cancellationRow struct {
	ID          string    `db:"id"`
	SlotID      string    `db:"slot_id"`
	Date        time.Time `db:"date"`
	CancelledBy *string   `db:"cancelled_by"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r cancellationRow) domain() schedule.Cancellation {
	return schedule.Cancellation{ID: r.ID, SlotID: r.SlotID, Date: core.Date(r.Date), CancelledBy: r.CancelledBy, CreatedAt: r.CreatedAt}
}

func (repo scheduleRepository) GetCancellation(ctx context.Context, slotID string, date time.Time) (schedule.Cancellation, error) {
	var row cancellationRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, slot_id, date, cancelled_by, created_at FROM class_cancellation WHERE slot_id = $1 AND date = $2`,
		slotID, core.Date(date))
	if err != nil {
		if err == sql.ErrNoRows {
			return schedule.Cancellation{}, schedule.ErrNotFound
		}
		return schedule.Cancellation{}, errors.Wrap(err, "getting cancellation")
	}
	return row.domain(), nil
}

func (repo scheduleRepository) QueryCancellations(ctx context.Context, date time.Time) ([]schedule.Cancellation, error) {
	var rows []cancellationRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT id, slot_id, date, cancelled_by, created_at FROM class_cancellation WHERE date = $1`, core.Date(date))
	if err != nil {
		return nil, errors.Wrap(err, "querying cancellations")
	}
	out := make([]schedule.Cancellation, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

type substitutionRow struct {
	ID             string    `db:"id"`
	SlotID         string    `db:"slot_id"`
	Date           time.Time `db:"date"`
	SubstituteID   string    `db:"substitute_id"`
	SubstituteName string    `db:"substitute_name"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r substitutionRow) domain() schedule.Substitution {
	return schedule.Substitution{ID: r.ID, SlotID: r.SlotID, Date: core.Date(r.Date), SubstituteID: r.SubstituteID, SubstituteName: r.SubstituteName, CreatedAt: r.CreatedAt}
}

func (repo scheduleRepository) CreateSubstitution(ctx context.Context, s schedule.Substitution) (schedule.Substitution, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO daily_substitution (id, slot_id, date, substitute_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.SlotID, s.Date, s.SubstituteID, s.CreatedAt)
	if err != nil {
		return schedule.Substitution{}, trapConflictErr(err, "substitution", "inserting substitution")
	}
	return s, nil
}

func (repo scheduleRepository) QuerySubstitutions(ctx context.Context, date time.Time) ([]schedule.Substitution, error) {
	var rows []substitutionRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT ds.id, ds.slot_id, ds.date, ds.substitute_id, f.name AS substitute_name, ds.created_at
		   FROM daily_substitution ds
		   JOIN faculty f ON f.id = ds.substitute_id
		  WHERE ds.date = $1`, core.Date(date))
	if err != nil {
		return nil, errors.Wrap(err, "querying substitutions")
	}
	out := make([]schedule.Substitution, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

type extraClassRow struct {
	ID         string    `db:"id"`
	TeacherID  string    `db:"teacher_id"`
	GroupID    string    `db:"group_id"`
	SubjectID  string    `db:"subject_id"`
	Date       time.Time `db:"date"`
	TimeSlotID string    `db:"time_slot_id"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`

	TSStartTime     string `db:"ts_start_time"`
	TSEndTime       string `db:"ts_end_time"`
	TSLabel         string `db:"ts_label"`
	TSIsSchedulable bool   `db:"ts_is_schedulable"`
	GroupName       string `db:"group_name"`
	SubjectName     string `db:"subject_name"`
	TeacherName     string `db:"teacher_name"`
}

func (r extraClassRow) domain() schedule.ExtraClass {
	return schedule.ExtraClass{
		ID:         r.ID,
		TeacherID:  r.TeacherID,
		GroupID:    r.GroupID,
		SubjectID:  r.SubjectID,
		Date:       core.Date(r.Date),
		TimeSlotID: r.TimeSlotID,
		Status:     r.Status,
		TimeSlot: schedule.TimeSlot{
			ID:            r.TimeSlotID,
			StartTime:     r.TSStartTime,
			EndTime:       r.TSEndTime,
			Label:         r.TSLabel,
			IsSchedulable: r.TSIsSchedulable,
		},
		GroupName:   r.GroupName,
		SubjectName: r.SubjectName,
		TeacherName: r.TeacherName,
		CreatedAt:   r.CreatedAt,
	}
}

const extraClassSelect = `
SELECT x.id, x.teacher_id, x.group_id, x.subject_id, x.date, x.time_slot_id, x.status, x.created_at,
       ts.start_time AS ts_start_time, ts.end_time AS ts_end_time, ts.label AS ts_label, ts.is_schedulable AS ts_is_schedulable,
       g.name AS group_name, subj.name AS subject_name, f.name AS teacher_name
  FROM extra_class x
  JOIN time_slot ts ON ts.id = x.time_slot_id
  JOIN student_group g ON g.id = x.group_id
  JOIN subject subj ON subj.id = x.subject_id
  JOIN faculty f ON f.id = x.teacher_id`

func (repo scheduleRepository) CreateExtraClass(ctx context.Context, x schedule.ExtraClass) (schedule.ExtraClass, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO extra_class (id, teacher_id, group_id, subject_id, date, time_slot_id, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		x.ID, x.TeacherID, x.GroupID, x.SubjectID, x.Date, x.TimeSlotID, x.Status, x.CreatedAt)
	if err != nil {
		return schedule.ExtraClass{}, trapConflictErr(err, "extra class", "inserting extra class")
	}
	return repo.GetExtraClass(ctx, x.ID)
}

func (repo scheduleRepository) GetExtraClass(ctx context.Context, id string) (schedule.ExtraClass, error) {
	var row extraClassRow
	err := repo.db.GetContext(ctx, &row, extraClassSelect+` WHERE x.id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return schedule.ExtraClass{}, schedule.ErrNotFound
		}
		return schedule.ExtraClass{}, errors.Wrap(err, "getting extra class")
	}
	return row.domain(), nil
}

func (repo scheduleRepository) UpdateExtraClassStatus(ctx context.Context, id, status string) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE extra_class SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return errors.Wrap(err, "updating extra class status")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "checking affected rows")
	} else if n == 0 {
		return schedule.ErrNotFound
	}
	return nil
}

func (repo scheduleRepository) QueryExtraClasses(ctx context.Context, filter schedule.ExtraClassFilter) ([]schedule.ExtraClass, error) {
	q := extraClassSelect + ` WHERE 1=1`
	args := make([]interface{}, 0, 5)
	if !filter.Date.IsZero() {
		args = append(args, core.Date(filter.Date))
		q += ` AND x.date = $` + itoa(len(args))
	}
	if filter.GroupID != "" {
		args = append(args, filter.GroupID)
		q += ` AND x.group_id = $` + itoa(len(args))
	}
	if filter.SubjectID != "" {
		args = append(args, filter.SubjectID)
		q += ` AND x.subject_id = $` + itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		q += ` AND x.status = $` + itoa(len(args))
	}
	if !filter.Period.From.IsZero() {
		args = append(args, core.Date(filter.Period.From))
		q += ` AND x.date >= $` + itoa(len(args))
	}
	if !filter.Period.To.IsZero() {
		args = append(args, core.Date(filter.Period.To))
		q += ` AND x.date <= $` + itoa(len(args))
	}
	q += ` ORDER BY x.date, ts.start_time, g.name`

	var rows []extraClassRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying extra classes")
	}
	out := make([]schedule.ExtraClass, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (repo scheduleRepository) CountScheduledExtraClasses(ctx context.Context, groupID, subjectID string, period core.Period) (int, error) {
	q := `SELECT COUNT(*) FROM extra_class WHERE group_id = $1 AND subject_id = $2 AND status = $3`
	args := []interface{}{groupID, subjectID, schedule.StatusScheduled}
	if !period.From.IsZero() {
		args = append(args, core.Date(period.From))
		q += ` AND date >= $` + itoa(len(args))
	}
	if !period.To.IsZero() {
		args = append(args, core.Date(period.To))
		q += ` AND date <= $` + itoa(len(args))
	}

	var cnt int
	if err := repo.db.GetContext(ctx, &cnt, q, args...); err != nil {
		return 0, errors.Wrap(err, "counting extra classes")
	}
	return cnt, nil
}
