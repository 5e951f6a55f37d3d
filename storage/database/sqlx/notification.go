package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/notification"
)

type notificationRepository struct {
	db core.DBExecutor
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db core.DBExecutor) *notificationRepository {
	return &notificationRepository{db: db}
}

type notificationRow struct {
	ID         string    `db:"id"`
	StudentID  string    `db:"student_id"`
	SubjectID  string    `db:"subject_id"`
	SentAt     time.Time `db:"sent_at"`
	Percentage float64   `db:"percentage"`
}

func (r notificationRow) domain() notification.Notification {
	return notification.Notification{
		ID:         r.ID,
		StudentID:  r.StudentID,
		SubjectID:  r.SubjectID,
		SentAt:     r.SentAt,
		Percentage: r.Percentage,
	}
}

func (repo notificationRepository) Create(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	_, err := repo.db.ExecContext(ctx, `
INSERT INTO low_attendance_notification (id, student_id, subject_id, sent_at, percentage)
VALUES ($1, $2, $3, $4, $5)`,
		n.ID, n.StudentID, n.SubjectID, n.SentAt, n.Percentage)
	if err != nil {
		return notification.Notification{}, trapConflictErr(err, "notification", "inserting notification")
	}
	return n, nil
}

func (repo notificationRepository) GetLatest(ctx context.Context, studentID, subjectID string) (notification.Notification, error) {
	var row notificationRow
	err := repo.db.GetContext(ctx, &row, `
SELECT id, student_id, subject_id, sent_at, percentage
  FROM low_attendance_notification
 WHERE student_id = $1 AND subject_id = $2
 ORDER BY sent_at DESC
 LIMIT 1`, studentID, subjectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return notification.Notification{}, notification.ErrNotFound
		}
		return notification.Notification{}, errors.Wrap(err, "getting latest notification")
	}
	return row.domain(), nil
}
