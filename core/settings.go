package core

import "context"

// Settings are the runtime-tunable attendance rules. They are persisted as a
// single row and read fresh (or through a short-lived cache) per invocation;
// nothing in the core mutates them.
type Settings struct {
	RequiredPercentage         int    `json:"required_percentage" db:"required_percentage"`
	MarkDeadlineDays           int    `json:"mark_deadline_days" db:"mark_deadline_days"`
	EditDeadlineDays           int    `json:"edit_deadline_days" db:"edit_deadline_days"`
	CancellationThresholdHours int    `json:"cancellation_threshold_hours" db:"cancellation_threshold_hours"`
	NotificationCooldownDays   int    `json:"notification_cooldown_days" db:"notification_cooldown_days"`
	NotificationRecipientEmail string `json:"notification_recipient_email" db:"notification_recipient_email"`
}

// DefaultSettings mirror the values the settings row is seeded with.
func DefaultSettings() Settings {
	return Settings{
		RequiredPercentage:         75,
		MarkDeadlineDays:           1,
		EditDeadlineDays:           3,
		CancellationThresholdHours: 2,
		NotificationCooldownDays:   30,
	}
}

type SettingsStore interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
}
