package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	dashboard "github.com/goliatone/go-brandboard/components/dashboard"
)

// AddWidgetInput captures the payload for adding a widget from the catalog.
type AddWidgetInput struct {
	Type        dashboard.WidgetType      `json:"type"`
	Title       string                    `json:"title,omitempty"`
	Description string                    `json:"description,omitempty"`
	Settings    *dashboard.WidgetSettings `json:"settings,omitempty"`
	Position    *dashboard.Position       `json:"position,omitempty"`
	GridColumns int                       `json:"gridColumns,omitempty"`
}

type addService interface {
	AddWidget(ctx context.Context, req dashboard.AddWidgetRequest) (dashboard.Widget, error)
}

// AddWidgetCommand wraps Service.AddWidget.
type AddWidgetCommand struct {
	service   addService
	guard     EditGuard
	telemetry Telemetry
}

// NewAddWidgetCommand builds a command instance.
func NewAddWidgetCommand(service addService, guard EditGuard, telemetry Telemetry) *AddWidgetCommand {
	return &AddWidgetCommand{
		service:   service,
		guard:     normalizeGuard(guard),
		telemetry: normalizeTelemetry(telemetry),
	}
}

var _ gocommand.Commander[AddWidgetInput] = (*AddWidgetCommand)(nil)

// Execute instantiates the widget and appends it to the layout.
func (c *AddWidgetCommand) Execute(ctx context.Context, msg AddWidgetInput) error {
	if c.service == nil {
		return errors.New("add command requires service")
	}
	if msg.Type == "" {
		return errors.New("add command requires widget type")
	}
	if err := checkEdit(c.guard); err != nil {
		return err
	}
	w, err := c.service.AddWidget(ctx, dashboard.AddWidgetRequest{
		Type:        msg.Type,
		Title:       msg.Title,
		Description: msg.Description,
		Settings:    msg.Settings,
		Position:    msg.Position,
		GridColumns: msg.GridColumns,
	})
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.widget.add", map[string]any{
		"widget_id":   w.WidgetID,
		"widget_type": string(w.Type),
	})
	return nil
}
