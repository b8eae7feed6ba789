package queries

import (
	"context"
	"fmt"

	gocommand "github.com/goliatone/go-command"

	dashboard "github.com/goliatone/go-brandboard/components/dashboard"
)

type widgetSource interface {
	GetWidget(widgetID string) (dashboard.Widget, bool)
}

// WidgetInput identifies the widget to fetch.
type WidgetInput struct {
	WidgetID string `json:"widgetId"`
}

// WidgetQuery fetches a single widget by id.
type WidgetQuery struct {
	source widgetSource
}

// NewWidgetQuery builds the query.
func NewWidgetQuery(source widgetSource) *WidgetQuery {
	return &WidgetQuery{source: source}
}

var _ gocommand.Querier[WidgetInput, dashboard.Widget] = (*WidgetQuery)(nil)

// Query resolves the widget.
func (q *WidgetQuery) Query(ctx context.Context, msg WidgetInput) (dashboard.Widget, error) {
	w, ok := q.source.GetWidget(msg.WidgetID)
	if !ok {
		return dashboard.Widget{}, fmt.Errorf("queries: widget %s not found", msg.WidgetID)
	}
	return w, nil
}
