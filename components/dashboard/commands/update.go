package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	dashboard "github.com/goliatone/go-brandboard/components/dashboard"
)

// UpdateWidgetInput captures a partial widget mutation.
type UpdateWidgetInput struct {
	WidgetID string                 `json:"widgetId"`
	Update   dashboard.WidgetUpdate `json:"update"`
}

type updateService interface {
	UpdateWidget(ctx context.Context, widgetID string, update dashboard.WidgetUpdate) error
}

// UpdateWidgetCommand wraps Service.UpdateWidget.
type UpdateWidgetCommand struct {
	service   updateService
	guard     EditGuard
	telemetry Telemetry
}

// NewUpdateWidgetCommand builds a command instance.
func NewUpdateWidgetCommand(service updateService, guard EditGuard, telemetry Telemetry) *UpdateWidgetCommand {
	return &UpdateWidgetCommand{
		service:   service,
		guard:     normalizeGuard(guard),
		telemetry: normalizeTelemetry(telemetry),
	}
}

var _ gocommand.Commander[UpdateWidgetInput] = (*UpdateWidgetCommand)(nil)

// Execute merges the update into the widget.
func (c *UpdateWidgetCommand) Execute(ctx context.Context, msg UpdateWidgetInput) error {
	if c.service == nil {
		return errors.New("update command requires service")
	}
	if msg.WidgetID == "" {
		return errors.New("update command requires widget id")
	}
	if err := checkEdit(c.guard); err != nil {
		return err
	}
	if err := c.service.UpdateWidget(ctx, msg.WidgetID, msg.Update); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.widget.update", map[string]any{"widget_id": msg.WidgetID})
	return nil
}
