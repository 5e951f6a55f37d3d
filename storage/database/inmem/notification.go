package inmemdb

import (
	"context"

	"github.com/trezcool/mahudhurio/core/notification"
)

type notificationRepository struct {
	db *DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) *notificationRepository {
	return &notificationRepository{db: db}
}

func (repo notificationRepository) Create(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	repo.db.notifications = append(repo.db.notifications, n)
	return n, nil
}

func (repo notificationRepository) GetLatest(ctx context.Context, studentID, subjectID string) (notification.Notification, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	var latest notification.Notification
	var found bool
	for _, n := range repo.db.notifications {
		if n.StudentID != studentID || n.SubjectID != subjectID {
			continue
		}
		if !found || n.SentAt.After(latest.SentAt) {
			latest, found = n, true
		}
	}
	if !found {
		return notification.Notification{}, notification.ErrNotFound
	}
	return latest, nil
}
