package notification

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/roster"
	"github.com/trezcool/mahudhurio/core/schedule"
)

type (
	// Aggregator is the attendance side the tracker consults.
	Aggregator interface {
		Aggregate(ctx context.Context, studentID, subjectID string, period core.Period) (attendance.Summary, error)
	}

	Service struct {
		repo    Repository
		roster  roster.Repository
		agg     Aggregator
		mailSvc core.EmailService
		logger  core.Logger
	}

	// CheckResult reports one low-attendance sweep. Failures holds
	// per-student errors the sweep logged and skipped.
	CheckResult struct {
		Notified int
		Skipped  int
		Failures []error
	}
)

func NewService(repo Repository, rosterRepo roster.Repository, agg Aggregator, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{repo: repo, roster: rosterRepo, agg: agg, mailSvc: mailSvc, logger: logger}
}

// ShouldNotify decides whether a low-attendance warning is due for the pair:
// the current percentage must be below the required threshold and the last
// warning (if any) must be older than the cooldown. A pair with no held
// sessions is never notified.
func (svc *Service) ShouldNotify(ctx context.Context, studentID, subjectID string, now time.Time, settings core.Settings) (bool, error) {
	sum, err := svc.agg.Aggregate(ctx, studentID, subjectID, core.Period{To: core.Date(now)})
	if err != nil {
		return false, errors.Wrap(err, "aggregating attendance")
	}
	return svc.shouldNotify(ctx, studentID, subjectID, sum, now, settings)
}

func (svc *Service) shouldNotify(ctx context.Context, studentID, subjectID string, sum attendance.Summary, now time.Time, settings core.Settings) (bool, error) {
	if sum.Held == 0 || sum.Percentage >= float64(settings.RequiredPercentage) {
		return false, nil
	}

	last, err := svc.repo.GetLatest(ctx, studentID, subjectID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return true, nil
		}
		return false, errors.Wrap(err, "getting latest notification")
	}

	cooldown := time.Duration(settings.NotificationCooldownDays) * 24 * time.Hour
	return now.UTC().Sub(last.SentAt) > cooldown, nil
}

// RecordSent appends a new log row for a delivered warning.
func (svc *Service) RecordSent(ctx context.Context, studentID, subjectID string, percentage float64, now time.Time) error {
	_, err := svc.repo.Create(ctx, Notification{
		ID:         uuid.New().String(),
		StudentID:  studentID,
		SubjectID:  subjectID,
		SentAt:     now.UTC(),
		Percentage: percentage,
	})
	return err
}

// RunLowAttendanceCheck walks every enrolled student and each subject of
// their group, warning the ones below the required percentage whose cooldown
// has elapsed. Per-student failures are logged and skipped.
func (svc *Service) RunLowAttendanceCheck(ctx context.Context, now time.Time, settings core.Settings) (CheckResult, error) {
	var res CheckResult

	students, err := svc.roster.QueryEnrolledStudents(ctx)
	if err != nil {
		return res, errors.Wrap(err, "querying students")
	}

	for _, student := range students {
		subjects, err := svc.roster.QuerySubjectsForGroup(ctx, student.GroupID)
		if err != nil {
			svc.logger.Error(fmt.Sprintf("low attendance check: student %s: %v", student.ID, err), err)
			res.Failures = append(res.Failures, errors.Wrapf(err, "student %s", student.ID))
			continue
		}

		for _, subject := range subjects {
			if err := svc.checkStudentSubject(ctx, student, subject, now, settings, &res); err != nil {
				svc.logger.Error(fmt.Sprintf("low attendance check: student %s subject %s: %v", student.ID, subject.ID, err), err)
				res.Failures = append(res.Failures, errors.Wrapf(err, "student %s subject %s", student.ID, subject.ID))
			}
		}
	}
	return res, nil
}

func (svc *Service) checkStudentSubject(ctx context.Context, student roster.Student, subject roster.Subject, now time.Time, settings core.Settings, res *CheckResult) error {
	sum, err := svc.agg.Aggregate(ctx, student.ID, subject.ID, core.Period{To: core.Date(now)})
	if err != nil {
		return errors.Wrap(err, "aggregating attendance")
	}

	due, err := svc.shouldNotify(ctx, student.ID, subject.ID, sum, now, settings)
	if err != nil {
		return err
	}
	if !due {
		if sum.Held > 0 && sum.Percentage < float64(settings.RequiredPercentage) {
			res.Skipped++ // low but within cooldown
		}
		return nil
	}

	if student.Email != "" {
		svc.mailSvc.SendMessages(lowAttendanceEmail(student, subject, sum, settings))
	}
	if err = svc.RecordSent(ctx, student.ID, subject.ID, sum.Percentage, now); err != nil {
		return errors.Wrap(err, "recording notification")
	}
	res.Notified++
	return nil
}

// SendCancellationDigest mails the deadline sweep's digest to the configured
// recipient, once per sweep. Empty digests and a missing recipient are
// no-ops.
func (svc *Service) SendCancellationDigest(digest []schedule.DigestEntry, settings core.Settings) {
	if len(digest) == 0 || settings.NotificationRecipientEmail == "" {
		return
	}
	svc.mailSvc.SendMessages(cancellationDigestEmail(digest, settings))
}

func lowAttendanceEmail(student roster.Student, subject roster.Subject, sum attendance.Summary, settings core.Settings) *core.EmailMessage {
	return &core.EmailMessage{
		To:      []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject: fmt.Sprintf("Low Attendance Warning: %s", subject.Name),
		TextContent: fmt.Sprintf(
			"Warning: Your attendance in %s is %.2f%% (%d of %d sessions), which is below the required minimum of %d%%.",
			subject.Name, sum.Percentage, sum.Attended, sum.Held, settings.RequiredPercentage,
		),
		HTMLContent: renderLowAttendanceHTML(student, subject, sum, settings),
	}
}

func cancellationDigestEmail(digest []schedule.DigestEntry, settings core.Settings) *core.EmailMessage {
	return &core.EmailMessage{
		To:          []mail.Address{{Address: settings.NotificationRecipientEmail}},
		Subject:     fmt.Sprintf("System Alert: %d Classes Automatically Cancelled", len(digest)),
		TextContent: renderDigestText(digest),
		HTMLContent: renderDigestHTML(digest),
	}
}
