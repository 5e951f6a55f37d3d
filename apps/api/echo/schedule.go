package echoapi

import (
	"fmt"
	"net/http"
	"net/mail"
	"strconv"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/roster"
	"github.com/trezcool/mahudhurio/core/schedule"
)

type scheduleApi struct {
	svc        *schedule.Service
	rosterRepo roster.Repository
	mailSvc    core.EmailService
	validate   *validator.Validate
	translator ut.Translator
}

func registerScheduleAPI(g *echo.Group, deps ServerDeps) {
	api := scheduleApi{
		svc:        deps.ScheduleSvc,
		rosterRepo: deps.RosterRepo,
		mailSvc:    deps.MailSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	g.GET("/sessions", api.resolveSessions)

	tg := g.Group("/timeslots")
	tg.POST("", api.createTimeSlot)
	tg.GET("", api.queryTimeSlots)

	sg := g.Group("/slots")
	sg.POST("", api.createSlot)
	sg.GET("", api.querySlots)
	sg.GET("/:id", api.retrieveSlot)
	sg.DELETE("/:id", api.destroySlot)

	g.POST("/cancellations", api.createCancellation)
	g.POST("/substitutions", api.createSubstitution)

	xg := g.Group("/extra-classes")
	xg.POST("", api.createExtraClass)
	xg.GET("", api.queryExtraClasses)
	xg.POST("/:id/cancel", api.cancelExtraClass)
}

// Handlers

func (api *scheduleApi) resolveSessions(ctx echo.Context) error {
	date, err := core.ParseDate(ctx.QueryParam("date"))
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "date", Error: "must be a YYYY-MM-DD date"})
	}

	sessions, err := api.svc.Resolve(ctx.Request().Context(), date)
	if err != nil {
		return errors.Wrap(err, "resolving sessions")
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *scheduleApi) createTimeSlot(ctx echo.Context) error {
	var data schedule.NewTimeSlot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTimeSlot")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ts, err := api.svc.CreateTimeSlot(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating time slot")
	}
	return ctx.JSON(http.StatusCreated, ts)
}

func (api *scheduleApi) queryTimeSlots(ctx echo.Context) error {
	tss, err := api.svc.QueryTimeSlots(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying time slots")
	}
	return ctx.JSON(http.StatusOK, tss)
}

func (api *scheduleApi) createSlot(ctx echo.Context) error {
	var data schedule.NewSlot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSlot")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	slot, err := api.svc.CreateSlot(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating slot")
	}
	return ctx.JSON(http.StatusCreated, slot)
}

func (api *scheduleApi) querySlots(ctx echo.Context) error {
	var filter schedule.SlotFilter
	if wd := ctx.QueryParam("weekday"); wd != "" {
		d, err := strconv.Atoi(wd)
		if err != nil || d < 0 || d > 6 {
			return core.NewValidationError(nil, core.FieldError{Field: "weekday", Error: "must be between 0 and 6"})
		}
		weekday := time.Weekday(d)
		filter.Weekday = &weekday
	}
	filter.GroupID = ctx.QueryParam("group_id")
	filter.FacultyID = ctx.QueryParam("faculty_id")

	slots, err := api.svc.QuerySlots(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying slots")
	}
	return ctx.JSON(http.StatusOK, slots)
}

func (api *scheduleApi) retrieveSlot(ctx echo.Context) error {
	slot, err := api.svc.GetSlot(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, slot)
}

func (api *scheduleApi) destroySlot(ctx echo.Context) error {
	if err := api.svc.DeleteSlot(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

type cancellationRequest struct {
	schedule.NewCancellation
	CancelledBy string `json:"cancelled_by" validate:"omitempty,uuid4"`
}

func (r cancellationRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

func (api *scheduleApi) createCancellation(ctx echo.Context) error {
	var data cancellationRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to cancellationRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	var cancelledBy *string
	if data.CancelledBy != "" {
		cancelledBy = &data.CancelledBy
	}
	c, err := api.svc.CreateCancellation(ctx.Request().Context(), data.NewCancellation, cancelledBy)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *scheduleApi) createSubstitution(ctx echo.Context) error {
	var data schedule.NewSubstitution
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubstitution")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sub, notice, err := api.svc.CreateSubstitution(ctx.Request().Context(), data)
	if err != nil {
		return err
	}

	// notify the substitute; delivery failure must not fail the request
	if substitute, err := api.rosterRepo.GetFaculty(ctx.Request().Context(), notice.SubstituteID); err == nil {
		api.mailSvc.SendMessages(substitutionNoticeEmail(substitute, notice))
	} else {
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "getting substitute for notice"))
	}

	return ctx.JSON(http.StatusCreated, sub)
}

func substitutionNoticeEmail(substitute roster.Faculty, notice schedule.SubstitutionNotice) *core.EmailMessage {
	return &core.EmailMessage{
		To:      []mail.Address{{Name: substitute.Name, Address: substitute.Email}},
		Subject: "Substitution assignment for " + core.FormatDate(notice.Date),
		TextContent: fmt.Sprintf(
			"Hello %s,\n\nYou have been assigned to cover %s for %s on %s during %s.\n",
			substitute.Name, notice.SubjectName, notice.GroupName, core.FormatDate(notice.Date), notice.TimeSlot.String(),
		),
	}
}

func (api *scheduleApi) createExtraClass(ctx echo.Context) error {
	var data schedule.NewExtraClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewExtraClass")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	x, err := api.svc.CreateExtraClass(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, x)
}

func (api *scheduleApi) cancelExtraClass(ctx echo.Context) error {
	x, err := api.svc.CancelExtraClass(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, x)
}

func (api *scheduleApi) queryExtraClasses(ctx echo.Context) error {
	var filter schedule.ExtraClassFilter
	if d := ctx.QueryParam("date"); d != "" {
		date, err := core.ParseDate(d)
		if err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "date", Error: "must be a YYYY-MM-DD date"})
		}
		filter.Date = date
	}
	filter.GroupID = ctx.QueryParam("group_id")
	filter.SubjectID = ctx.QueryParam("subject_id")
	filter.Status = ctx.QueryParam("status")

	xs, err := api.svc.QueryExtraClasses(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying extra classes")
	}
	return ctx.JSON(http.StatusOK, xs)
}
