package echoapi

import (
	"net/http"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/schedule"
)

type attendanceApi struct {
	svc           *attendance.Service
	settingsStore core.SettingsStore
	validate      *validator.Validate
	translator    ut.Translator
}

func registerAttendanceAPI(g *echo.Group, deps ServerDeps) {
	api := attendanceApi{
		svc:           deps.AttendanceSvc,
		settingsStore: deps.SettingsStore,
		validate:      deps.Validate,
		translator:    deps.Translator,
	}

	ag := g.Group("/attendance")
	ag.POST("", api.markRoster)
	ag.GET("", api.queryRecords)
	ag.GET("/summary", api.summary)
	ag.PUT("/:id", api.updateRecord)
}

// Handlers

func (api *attendanceApi) markRoster(ctx echo.Context) error {
	var data attendance.NewRoster
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRoster")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	settings, err := api.settingsStore.Load(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "loading settings")
	}

	recs, err := api.svc.MarkRoster(ctx.Request().Context(), data, time.Now().UTC(), settings)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, recs)
}

func (api *attendanceApi) updateRecord(ctx echo.Context) error {
	var data attendance.UpdateRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRecord")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	settings, err := api.settingsStore.Load(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "loading settings")
	}

	rec, err := api.svc.UpdateRecord(ctx.Request().Context(), ctx.Param("id"), data, time.Now().UTC(), settings)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) queryRecords(ctx echo.Context) error {
	var filter attendance.QueryFilter
	filter.StudentID = ctx.QueryParam("student_id")
	if id := ctx.QueryParam("slot_id"); id != "" {
		filter.Ref = schedule.SlotRef(id)
	} else if id := ctx.QueryParam("extra_class_id"); id != "" {
		filter.Ref = schedule.ExtraClassRef(id)
	}
	if d := ctx.QueryParam("date"); d != "" {
		date, err := core.ParseDate(d)
		if err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "date", Error: "must be a YYYY-MM-DD date"})
		}
		filter.Date = date
	}
	period, err := bindPeriod(ctx)
	if err != nil {
		return err
	}
	filter.Period = period

	recs, err := api.svc.QueryRecords(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying attendance records")
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *attendanceApi) summary(ctx echo.Context) error {
	studentID := ctx.QueryParam("student_id")
	subjectID := ctx.QueryParam("subject_id")
	if studentID == "" || subjectID == "" {
		return core.NewValidationError(nil,
			core.FieldError{Field: "student_id", Error: "this field is required"},
			core.FieldError{Field: "subject_id", Error: "this field is required"},
		)
	}
	period, err := bindPeriod(ctx)
	if err != nil {
		return err
	}

	sum, err := api.svc.Aggregate(ctx.Request().Context(), studentID, subjectID, period)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sum)
}

// bindPeriod reads the optional from/to query params.
func bindPeriod(ctx echo.Context) (core.Period, error) {
	var period core.Period
	if f := ctx.QueryParam("from"); f != "" {
		from, err := core.ParseDate(f)
		if err != nil {
			return core.Period{}, core.NewValidationError(err, core.FieldError{Field: "from", Error: "must be a YYYY-MM-DD date"})
		}
		period.From = from
	}
	if t := ctx.QueryParam("to"); t != "" {
		to, err := core.ParseDate(t)
		if err != nil {
			return core.Period{}, core.NewValidationError(err, core.FieldError{Field: "to", Error: "must be a YYYY-MM-DD date"})
		}
		period.To = to
	}
	return period, nil
}
