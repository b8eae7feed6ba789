package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	dashboard "github.com/goliatone/go-brandboard/components/dashboard"
)

// DuplicateWidgetInput identifies the widget to clone.
type DuplicateWidgetInput struct {
	WidgetID string `json:"widgetId"`
}

type duplicateService interface {
	DuplicateWidget(ctx context.Context, widgetID string) (dashboard.Widget, bool, error)
}

// DuplicateWidgetCommand wraps Service.DuplicateWidget.
type DuplicateWidgetCommand struct {
	service   duplicateService
	guard     EditGuard
	telemetry Telemetry
}

// NewDuplicateWidgetCommand builds a command instance.
func NewDuplicateWidgetCommand(service duplicateService, guard EditGuard, telemetry Telemetry) *DuplicateWidgetCommand {
	return &DuplicateWidgetCommand{
		service:   service,
		guard:     normalizeGuard(guard),
		telemetry: normalizeTelemetry(telemetry),
	}
}

var _ gocommand.Commander[DuplicateWidgetInput] = (*DuplicateWidgetCommand)(nil)

// Execute clones the widget. A missing source is not an error; there is
// nothing for the caller to recover from.
func (c *DuplicateWidgetCommand) Execute(ctx context.Context, msg DuplicateWidgetInput) error {
	if c.service == nil {
		return errors.New("duplicate command requires service")
	}
	if msg.WidgetID == "" {
		return errors.New("duplicate command requires widget id")
	}
	if err := checkEdit(c.guard); err != nil {
		return err
	}
	clone, ok, err := c.service.DuplicateWidget(ctx, msg.WidgetID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	c.telemetry.Record(ctx, "dashboard.widget.duplicate", map[string]any{
		"source_id": msg.WidgetID,
		"widget_id": clone.WidgetID,
	})
	return nil
}
