package main

import (
	"log"
	"os"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/notification"
	"github.com/trezcool/mahudhurio/core/schedule"
	emailsvc "github.com/trezcool/mahudhurio/services/email"
	logsvc "github.com/trezcool/mahudhurio/services/logger"
	"github.com/trezcool/mahudhurio/storage/database"
	sqlxrepos "github.com/trezcool/mahudhurio/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	appLogger := logsvc.NewRollbarLogger(logger, conf)
	appLogger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	mailSvc := emailsvc.NewConsoleService(conf)

	scheduleRepo := sqlxrepos.NewScheduleRepository(db)
	attendanceRepo := sqlxrepos.NewAttendanceRepository(db)
	rosterRepo := sqlxrepos.NewRosterRepository(db)
	notificationRepo := sqlxrepos.NewNotificationRepository(db)

	scheduleSvc := schedule.NewService(scheduleRepo, appLogger)
	attendanceSvc := attendance.NewService(attendanceRepo, scheduleRepo, rosterRepo)
	notificationSvc := notification.NewService(notificationRepo, rosterRepo, attendanceSvc, mailSvc, appLogger)

	// start CLI
	cli := commandLine{
		db:              db.DB,
		scheduleSvc:     scheduleSvc,
		attendanceSvc:   attendanceSvc,
		notificationSvc: notificationSvc,
		settingsStore:   sqlxrepos.NewSettingsStore(db),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
