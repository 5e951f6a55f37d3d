package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/notification"
	"github.com/trezcool/mahudhurio/core/schedule"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db              *sql.DB
	scheduleSvc     *schedule.Service
	attendanceSvc   *attendance.Service
	notificationSvc *notification.Service
	settingsStore   core.SettingsStore
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [args] - run a goose migration command (up, down, status, ...)")
	fmt.Println("  sweep [-window DAYS]   - auto-cancel past sessions with no attendance after the marking deadline")
	fmt.Println("  notifylow              - send low attendance warnings that are due")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	sweepCmd := flag.NewFlagSet("sweep", flag.ExitOnError)
	sweepWindow := sweepCmd.Int("window", schedule.DefaultSweepWindowDays, "Trailing number of past days to examine.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "sweep":
		if err := sweepCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.sweep(*sweepWindow)
	case "notifylow":
		return cli.notifyLow()
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) sweep(windowDays int) error {
	ctx := context.Background()
	now := time.Now().UTC()

	settings, err := cli.settingsStore.Load(ctx)
	if err != nil {
		return err
	}

	res, err := cli.scheduleSvc.RunDeadlineSweep(ctx, now, settings, cli.attendanceSvc.Repo(), windowDays)
	if err != nil {
		return err
	}

	fmt.Printf("sweep: %d cancelled, %d failures\n", len(res.Cancelled), len(res.Failures))
	for _, entry := range res.Cancelled {
		fmt.Printf("  %s  %s / %s (%s)\n", core.FormatDate(entry.Date), entry.Subject, entry.Group, entry.Faculty)
	}
	cli.notificationSvc.SendCancellationDigest(res.Cancelled, settings)
	return nil
}

func (cli *commandLine) notifyLow() error {
	ctx := context.Background()

	settings, err := cli.settingsStore.Load(ctx)
	if err != nil {
		return err
	}

	res, err := cli.notificationSvc.RunLowAttendanceCheck(ctx, time.Now().UTC(), settings)
	if err != nil {
		return err
	}
	fmt.Printf("notifylow: %d notified, %d within cooldown, %d failures\n", res.Notified, res.Skipped, len(res.Failures))
	return nil
}
