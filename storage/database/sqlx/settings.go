package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

type settingsStore struct {
	db core.DBExecutor
}

var _ core.SettingsStore = (*settingsStore)(nil) // interface compliance check

func NewSettingsStore(db core.DBExecutor) *settingsStore {
	return &settingsStore{db: db}
}

func (st settingsStore) Load(ctx context.Context) (core.Settings, error) {
	var s core.Settings
	err := st.db.GetContext(ctx, &s, `
SELECT required_percentage, mark_deadline_days, edit_deadline_days,
       cancellation_threshold_hours, notification_cooldown_days, notification_recipient_email
  FROM attendance_settings
 WHERE id = 1`)
	if err != nil {
		return core.Settings{}, errors.Wrap(err, "loading settings")
	}
	return s, nil
}

func (st settingsStore) Save(ctx context.Context, s core.Settings) error {
	_, err := st.db.ExecContext(ctx, `
UPDATE attendance_settings
   SET required_percentage = $1, mark_deadline_days = $2, edit_deadline_days = $3,
       cancellation_threshold_hours = $4, notification_cooldown_days = $5, notification_recipient_email = $6
 WHERE id = 1`,
		s.RequiredPercentage, s.MarkDeadlineDays, s.EditDeadlineDays,
		s.CancellationThresholdHours, s.NotificationCooldownDays, s.NotificationRecipientEmail)
	return errors.Wrap(err, "saving settings")
}
