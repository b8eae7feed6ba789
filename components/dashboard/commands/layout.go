package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	dashboard "github.com/goliatone/go-brandboard/components/dashboard"
)

// SetLayoutInput carries a full replacement layout after a batch geometry
// change, such as a drag-and-drop rearrangement.
type SetLayoutInput struct {
	Layout []dashboard.Widget `json:"layout"`
}

type layoutService interface {
	SetLayout(ctx context.Context, layout []dashboard.Widget) error
}

// SetLayoutCommand wraps Service.SetLayout.
type SetLayoutCommand struct {
	service   layoutService
	guard     EditGuard
	telemetry Telemetry
}

// NewSetLayoutCommand builds a command instance.
func NewSetLayoutCommand(service layoutService, guard EditGuard, telemetry Telemetry) *SetLayoutCommand {
	return &SetLayoutCommand{
		service:   service,
		guard:     normalizeGuard(guard),
		telemetry: normalizeTelemetry(telemetry),
	}
}

var _ gocommand.Commander[SetLayoutInput] = (*SetLayoutCommand)(nil)

// Execute replaces the layout geometry.
func (c *SetLayoutCommand) Execute(ctx context.Context, msg SetLayoutInput) error {
	if c.service == nil {
		return errors.New("layout command requires service")
	}
	if err := checkEdit(c.guard); err != nil {
		return err
	}
	if err := c.service.SetLayout(ctx, msg.Layout); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.layout.set", map[string]any{
		"widget_count": len(msg.Layout),
	})
	return nil
}
