package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/schedule"
)

// attendanceRepository is the only repository needing the concrete *sqlx.DB:
// roster marking runs in a transaction it begins itself. The transaction body
// only sees core.DBTransactor.
type attendanceRepository struct {
	db *sqlx.DB
}

var (
	_ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check
	_ core.DBExecutor       = (*sqlx.DB)(nil)
	_ core.DBTransactor     = (*sqlx.Tx)(nil)
)

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

type recordRow struct {
	ID           string    `db:"id"`
	StudentID    string    `db:"student_id"`
	SlotID       *string   `db:"slot_id"`
	ExtraClassID *string   `db:"extra_class_id"`
	Date         time.Time `db:"date"`
	Status       string    `db:"status"`
	IsLate       bool      `db:"is_late"`
	MarkedBy     *string   `db:"marked_by"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r recordRow) domain() attendance.Record {
	rec := attendance.Record{
		ID:        r.ID,
		StudentID: r.StudentID,
		Date:      core.Date(r.Date),
		Status:    attendance.Status(r.Status),
		IsLate:    r.IsLate,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.SlotID != nil {
		rec.Ref = schedule.SlotRef(*r.SlotID)
	} else if r.ExtraClassID != nil {
		rec.Ref = schedule.ExtraClassRef(*r.ExtraClassID)
	}
	if r.MarkedBy != nil {
		rec.MarkedBy = *r.MarkedBy
	}
	return rec
}

// refColumns splits a SessionRef into the two nullable FK columns.
func refColumns(ref schedule.SessionRef) (slotID, extraClassID *string) {
	if id, ok := ref.SlotID(); ok {
		return &id, nil
	}
	if id, ok := ref.ExtraClassID(); ok {
		return nil, &id
	}
	return nil, nil
}

const recordInsert = `
INSERT INTO attendance_record (id, student_id, slot_id, extra_class_id, date, status, is_late, marked_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

func (repo attendanceRepository) CreateRecords(ctx context.Context, recs []attendance.Record) ([]attendance.Record, error) {
	var tx core.DBTransactor
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, rec := range recs {
		if err = insertRecord(ctx, tx, rec); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing roster")
	}
	return recs, nil
}

func insertRecord(ctx context.Context, exec core.DBExecutor, rec attendance.Record) error {
	slotID, extraID := refColumns(rec.Ref)
	var markedBy *string
	if rec.MarkedBy != "" {
		markedBy = &rec.MarkedBy
	}
	_, err := exec.ExecContext(ctx, recordInsert,
		rec.ID, rec.StudentID, slotID, extraID, rec.Date, string(rec.Status), rec.IsLate, markedBy, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return trapConflictErr(err, "attendance record", "inserting attendance record")
	}
	return nil
}

const recordSelect = `
SELECT id, student_id, slot_id, extra_class_id, date, status, is_late, marked_by, created_at, updated_at
  FROM attendance_record`

func (repo attendanceRepository) GetRecord(ctx context.Context, id string) (attendance.Record, error) {
	var row recordRow
	err := repo.db.GetContext(ctx, &row, recordSelect+` WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "getting attendance record")
	}
	return row.domain(), nil
}

func (repo attendanceRepository) UpdateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	var markedBy *string
	if rec.MarkedBy != "" {
		markedBy = &rec.MarkedBy
	}
	res, err := repo.db.ExecContext(ctx,
		`UPDATE attendance_record SET status = $1, is_late = $2, marked_by = $3, updated_at = $4 WHERE id = $5`,
		string(rec.Status), rec.IsLate, markedBy, rec.UpdatedAt, rec.ID)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "updating attendance record")
	}
	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return attendance.Record{}, attendance.ErrNotFound
	}
	return rec, nil
}

func (repo attendanceRepository) QueryRecords(ctx context.Context, filter attendance.QueryFilter) ([]attendance.Record, error) {
	q := recordSelect + ` WHERE 1=1`
	args := make([]interface{}, 0, 4)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		q += ` AND student_id = $` + itoa(len(args))
	}
	if !filter.Ref.IsZero() {
		if id, ok := filter.Ref.SlotID(); ok {
			args = append(args, id)
			q += ` AND slot_id = $` + itoa(len(args))
		} else if id, ok := filter.Ref.ExtraClassID(); ok {
			args = append(args, id)
			q += ` AND extra_class_id = $` + itoa(len(args))
		}
	}
	if !filter.Date.IsZero() {
		args = append(args, core.Date(filter.Date))
		q += ` AND date = $` + itoa(len(args))
	}
	if !filter.Period.From.IsZero() {
		args = append(args, core.Date(filter.Period.From))
		q += ` AND date >= $` + itoa(len(args))
	}
	if !filter.Period.To.IsZero() {
		args = append(args, core.Date(filter.Period.To))
		q += ` AND date <= $` + itoa(len(args))
	}
	q += ` ORDER BY date, created_at`

	var rows []recordRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}
	out := make([]attendance.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (repo attendanceRepository) HasRecordForSlotDate(ctx context.Context, slotID string, date time.Time) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM attendance_record WHERE slot_id = $1 AND date = $2)`,
		slotID, core.Date(date))
	if err != nil {
		return false, errors.Wrap(err, "checking attendance existence")
	}
	return exists, nil
}

func (repo attendanceRepository) CountHeldSlotSessions(ctx context.Context, groupID, subjectID string, period core.Period) (int, error) {
	q := `
SELECT COUNT(DISTINCT (ar.slot_id, ar.date))
  FROM attendance_record ar
  JOIN schedule_slot s ON s.id = ar.slot_id
 WHERE s.group_id = $1 AND s.subject_id = $2`
	args := []interface{}{groupID, subjectID}
	if !period.From.IsZero() {
		args = append(args, core.Date(period.From))
		q += ` AND ar.date >= $` + itoa(len(args))
	}
	if !period.To.IsZero() {
		args = append(args, core.Date(period.To))
		q += ` AND ar.date <= $` + itoa(len(args))
	}

	var cnt int
	if err := repo.db.GetContext(ctx, &cnt, q, args...); err != nil {
		return 0, errors.Wrap(err, "counting held sessions")
	}
	return cnt, nil
}

func (repo attendanceRepository) CountPresent(ctx context.Context, studentID, subjectID string, period core.Period) (int, error) {
	// both ledger sources in one filter; the XOR constraint guarantees each
	// record joins exactly one of the two
	q := `
SELECT COUNT(*)
  FROM attendance_record ar
  LEFT JOIN schedule_slot s ON s.id = ar.slot_id
  LEFT JOIN extra_class x ON x.id = ar.extra_class_id
 WHERE ar.student_id = $1
   AND ar.status = $2
   AND COALESCE(s.subject_id, x.subject_id) = $3`
	args := []interface{}{studentID, string(attendance.StatusPresent), subjectID}
	if !period.From.IsZero() {
		args = append(args, core.Date(period.From))
		q += ` AND ar.date >= $` + itoa(len(args))
	}
	if !period.To.IsZero() {
		args = append(args, core.Date(period.To))
		q += ` AND ar.date <= $` + itoa(len(args))
	}

	var cnt int
	if err := repo.db.GetContext(ctx, &cnt, q, args...); err != nil {
		return 0, errors.Wrap(err, "counting present records")
	}
	return cnt, nil
}
