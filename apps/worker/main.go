package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/notification"
	"github.com/trezcool/mahudhurio/core/schedule"
	emailsvc "github.com/trezcool/mahudhurio/services/email"
	logsvc "github.com/trezcool/mahudhurio/services/logger"
	"github.com/trezcool/mahudhurio/storage/cache"
	"github.com/trezcool/mahudhurio/storage/database"
	sqlxrepos "github.com/trezcool/mahudhurio/storage/database/sqlx"
)

// jobs runs the periodic maintenance: the overnight deadline sweep (with its
// cancellation digest) and the low-attendance check.
type jobs struct {
	scheduleSvc     *schedule.Service
	attendanceSvc   *attendance.Service
	notificationSvc *notification.Service
	settingsStore   core.SettingsStore
	logger          core.Logger
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "WORKER : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Fatal("Failed to close", err)
		}
	}()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	scheduleRepo := sqlxrepos.NewScheduleRepository(db)
	attendanceRepo := sqlxrepos.NewAttendanceRepository(db)
	rosterRepo := sqlxrepos.NewRosterRepository(db)
	notificationRepo := sqlxrepos.NewNotificationRepository(db)
	settingsStore := cache.NewSettingsStore(sqlxrepos.NewSettingsStore(db), cache.DefaultSettingsTTL)

	scheduleSvc := schedule.NewService(scheduleRepo, logger)
	attendanceSvc := attendance.NewService(attendanceRepo, scheduleRepo, rosterRepo)
	notificationSvc := notification.NewService(notificationRepo, rosterRepo, attendanceSvc, mailSvc, logger)

	j := jobs{
		scheduleSvc:     scheduleSvc,
		attendanceSvc:   attendanceSvc,
		notificationSvc: notificationSvc,
		settingsStore:   settingsStore,
		logger:          logger,
	}

	// =========================================================================
	// Schedule Jobs

	logger.Info(fmt.Sprintf("Worker initializing : version %q", conf.Build))
	defer logger.Info("Worker stopped")

	c := cron.New()
	if _, err = c.AddFunc("5 0 * * *", j.deadlineSweep); err != nil {
		logger.Fatal(fmt.Sprintf("scheduling deadline sweep: %v", err), err)
	}
	if _, err = c.AddFunc("0 7 * * *", j.lowAttendanceCheck); err != nil {
		logger.Fatal(fmt.Sprintf("scheduling low attendance check: %v", err), err)
	}
	c.Start()

	// =========================================================================
	// Shutdown

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	ctx := c.Stop() // let running jobs finish
	<-ctx.Done()
}

func (j jobs) deadlineSweep() {
	ctx := context.Background()
	now := time.Now().UTC()

	settings, err := j.settingsStore.Load(ctx)
	if err != nil {
		j.logger.Error(fmt.Sprintf("deadline sweep: loading settings: %v", err), err)
		return
	}

	res, err := j.scheduleSvc.RunDeadlineSweep(ctx, now, settings, j.attendanceSvc.Repo(), schedule.DefaultSweepWindowDays)
	if err != nil {
		j.logger.Error(fmt.Sprintf("deadline sweep: %v", err), err)
		return
	}

	j.logger.Info(fmt.Sprintf("deadline sweep: %d cancelled, %d failures", len(res.Cancelled), len(res.Failures)))
	j.notificationSvc.SendCancellationDigest(res.Cancelled, settings)
}

func (j jobs) lowAttendanceCheck() {
	ctx := context.Background()
	now := time.Now().UTC()

	settings, err := j.settingsStore.Load(ctx)
	if err != nil {
		j.logger.Error(fmt.Sprintf("low attendance check: loading settings: %v", err), err)
		return
	}

	res, err := j.notificationSvc.RunLowAttendanceCheck(ctx, now, settings)
	if err != nil {
		j.logger.Error(fmt.Sprintf("low attendance check: %v", err), err)
		return
	}
	j.logger.Info(fmt.Sprintf("low attendance check: %d notified, %d within cooldown, %d failures",
		res.Notified, res.Skipped, len(res.Failures)))
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
