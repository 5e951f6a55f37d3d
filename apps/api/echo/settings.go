package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

type settingsApi struct {
	store    core.SettingsStore
	validate *validator.Validate
}

func registerSettingsAPI(g *echo.Group, deps ServerDeps) {
	api := settingsApi{
		store:    deps.SettingsStore,
		validate: deps.Validate,
	}

	sg := g.Group("/settings")
	sg.GET("", api.retrieve)
	sg.PUT("", api.update)
}

type settingsRequest struct {
	RequiredPercentage         int    `json:"required_percentage" validate:"min=0,max=100"`
	MarkDeadlineDays           int    `json:"mark_deadline_days" validate:"min=0"`
	EditDeadlineDays           int    `json:"edit_deadline_days" validate:"min=0"`
	CancellationThresholdHours int    `json:"cancellation_threshold_hours" validate:"min=0"`
	NotificationCooldownDays   int    `json:"notification_cooldown_days" validate:"min=1"`
	NotificationRecipientEmail string `json:"notification_recipient_email" validate:"omitempty,email"`
}

func (r settingsRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

// Handlers

func (api *settingsApi) retrieve(ctx echo.Context) error {
	settings, err := api.store.Load(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "loading settings")
	}
	return ctx.JSON(http.StatusOK, settings)
}

func (api *settingsApi) update(ctx echo.Context) error {
	var data settingsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to settingsRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	settings := core.Settings{
		RequiredPercentage:         data.RequiredPercentage,
		MarkDeadlineDays:           data.MarkDeadlineDays,
		EditDeadlineDays:           data.EditDeadlineDays,
		CancellationThresholdHours: data.CancellationThresholdHours,
		NotificationCooldownDays:   data.NotificationCooldownDays,
		NotificationRecipientEmail: data.NotificationRecipientEmail,
	}
	if err := api.store.Save(ctx.Request().Context(), settings); err != nil {
		return errors.Wrap(err, "saving settings")
	}
	return ctx.JSON(http.StatusOK, settings)
}
