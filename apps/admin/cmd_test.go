package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/notification"
	"github.com/trezcool/mahudhurio/core/roster"
	"github.com/trezcool/mahudhurio/core/schedule"
	emailsvc "github.com/trezcool/mahudhurio/services/email"
	inmemdb "github.com/trezcool/mahudhurio/storage/database/inmem"
)

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func setup(t *testing.T) (*commandLine, *inmemdb.DB) {
	t.Helper()

	db := inmemdb.NewDB()
	conf := &core.Config{AppName: "Mahudhurio", Debug: true, TestMode: true}

	scheduleRepo := inmemdb.NewScheduleRepository(db)
	attendanceRepo := inmemdb.NewAttendanceRepository(db)
	rosterRepo := inmemdb.NewRosterRepository(db)
	notificationRepo := inmemdb.NewNotificationRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	scheduleSvc := schedule.NewService(scheduleRepo, nopLogger{})
	attendanceSvc := attendance.NewService(attendanceRepo, scheduleRepo, rosterRepo)
	notificationSvc := notification.NewService(notificationRepo, rosterRepo, attendanceSvc, mailSvc, nopLogger{})

	return &commandLine{
		scheduleSvc:     scheduleSvc,
		attendanceSvc:   attendanceSvc,
		notificationSvc: notificationSvc,
		settingsStore:   inmemdb.NewSettingsStore(db),
	}, db
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "course", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					assert.Equal(t, tt.wantErr, err)
				} else if tt.wantErrStr != "" {
					assert.EqualError(t, err, tt.wantErrStr)
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_unknownCommand(t *testing.T) {
	cli, _ := setup(t)

	tests := []cliTest{
		{name: "no command", args: nil, wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, cli.run(args))
		})
	}
}

func Test_commandLine_sweep(t *testing.T) {
	cli, db := setup(t)
	ctx := context.Background()

	db.AddGroup(roster.Group{ID: "g1", Name: "CS-1A"})
	db.AddSubject(roster.Subject{ID: "sub1", Code: "MATH101", Name: "Mathematics"})
	db.AddFaculty(roster.Faculty{ID: "f1", Name: "Mx. Kito", Email: "kito@school.test"})

	ts, err := cli.scheduleSvc.Repo().CreateTimeSlot(ctx, schedule.TimeSlot{
		ID: "ts1", StartTime: "08:00", EndTime: "09:00", IsSchedulable: true,
	})
	require.NoError(t, err)

	// recurring session 2 days ago with no attendance marked
	day := core.Date(time.Now().UTC()).AddDate(0, 0, -2)
	_, err = cli.scheduleSvc.Repo().CreateSlot(ctx, schedule.Slot{
		ID: "s1", GroupID: "g1", SubjectID: "sub1", FacultyID: "f1",
		Weekday: day.Weekday(), TimeSlotID: ts.ID,
	})
	require.NoError(t, err)

	require.NoError(t, cli.sweep(schedule.DefaultSweepWindowDays))

	_, err = cli.scheduleSvc.Repo().GetCancellation(ctx, "s1", day)
	assert.NoError(t, err, "sweep should have cancelled the unmarked session")

	// a second run is a no-op
	require.NoError(t, cli.sweep(schedule.DefaultSweepWindowDays))
}

func Test_commandLine_notifylow(t *testing.T) {
	cli, db := setup(t)

	db.AddGroup(roster.Group{ID: "g1", Name: "CS-1A"})
	db.AddSubject(roster.Subject{ID: "sub1", Code: "MATH101", Name: "Mathematics"})
	db.AddStudent(roster.Student{ID: "st1", Name: "Amani", Email: "amani@school.test", GroupID: "g1"})
	db.AssignSubject("g1", "sub1")

	// no held sessions: nothing to notify, command still succeeds
	require.NoError(t, cli.notifyLow())
}
