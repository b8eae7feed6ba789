package dashboard

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TemplateName identifies a starter layout for dashboards that load empty.
type TemplateName string

const (
	TemplateMarketing TemplateName = "marketing"
	TemplateExecutive TemplateName = "executive"
	TemplateAnalyst   TemplateName = "analyst"
)

// DefaultTemplate is the template used when none is named.
const DefaultTemplate = TemplateMarketing

type templateSlot struct {
	typ WidgetType
	pos Position
}

var defaultTemplates = map[TemplateName][]templateSlot{
	TemplateMarketing: {
		{typ: WidgetBrandSentiment, pos: Position{X: 0, Y: 0}},
		{typ: WidgetMentionsTrend, pos: Position{X: 6, Y: 0}},
		{typ: WidgetShareOfVoice, pos: Position{X: 0, Y: 4}},
		{typ: WidgetTopTopics, pos: Position{X: 6, Y: 4}},
	},
	TemplateExecutive: {
		{typ: WidgetBrandHealthHeart, pos: Position{X: 0, Y: 0}},
		{typ: WidgetBrandSentiment, pos: Position{X: 0, Y: 4}},
		{typ: WidgetNPSScore, pos: Position{X: 6, Y: 4}},
	},
	TemplateAnalyst: {
		{typ: WidgetMentionsTrend, pos: Position{X: 0, Y: 0}},
		{typ: WidgetTopTopics, pos: Position{X: 6, Y: 0}},
		{typ: WidgetCompetitorComparison, pos: Position{X: 0, Y: 4}},
		{typ: WidgetAlertsFeed, pos: Position{X: 6, Y: 4}},
	},
}

// TemplateNames lists the available starter templates.
func TemplateNames() []TemplateName {
	return []TemplateName{TemplateMarketing, TemplateExecutive, TemplateAnalyst}
}

// TemplateLayout instantiates the named template from the catalog. Each
// call mints fresh widget ids.
func TemplateLayout(catalog *Catalog, name TemplateName) ([]Widget, error) {
	slots, ok := defaultTemplates[name]
	if !ok {
		return nil, fmt.Errorf("dashboard: unknown template %q", name)
	}
	layout := make([]Widget, 0, len(slots))
	for _, slot := range slots {
		entry, ok := catalog.GetByType(slot.typ)
		if !ok {
			return nil, fmt.Errorf("dashboard: template %s references unknown widget type %s", name, slot.typ)
		}
		w := NewWidget(entry, slot.pos)
		// Guard against UnixNano collisions when minting ids in a loop.
		w.WidgetID = uniqueWidgetID(layout, w.Type)
		layout = append(layout, w)
	}
	return layout, nil
}

// NewDashboard builds a fresh dashboard around the named template.
func NewDashboard(catalog *Catalog, name TemplateName) (DashboardLayout, error) {
	layout, err := TemplateLayout(catalog, name)
	if err != nil {
		return DashboardLayout{}, err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	return DashboardLayout{
		DashboardID: uuid.NewString(),
		Name:        fmt.Sprintf("%s dashboard", name),
		Layout:      layout,
		Metadata: LayoutMetadata{
			Theme:     ThemeSystem,
			TimeRange: Range30d,
			CreatedAt: now,
		},
	}, nil
}
