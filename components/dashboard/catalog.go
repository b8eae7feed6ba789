package dashboard

import (
	"fmt"
	"sync"
	"time"
)

// Catalog is the static registry of widget kinds available to add. Entries
// keep registration order so the picker UI groups deterministically. The
// catalog is safe for concurrent readers; registration happens up front.
type Catalog struct {
	mu      sync.RWMutex
	entries []CatalogEntry
	byType  map[WidgetType]int
}

// NewCatalog builds an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byType: map[WidgetType]int{}}
}

// DefaultCatalog returns the brand-health catalog shipped with the module.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	for _, entry := range defaultCatalogEntries {
		_ = c.Register(entry)
	}
	return c
}

// Register adds an entry. Re-registering a type replaces the previous entry
// in place, preserving its position in the picker order.
func (c *Catalog) Register(entry CatalogEntry) error {
	if entry.Type == "" {
		return fmt.Errorf("catalog: entry type is required")
	}
	if entry.DefaultSize.W < 1 || entry.DefaultSize.H < 1 {
		return fmt.Errorf("catalog: entry %s needs a default size of at least 1x1", entry.Type)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx, ok := c.byType[entry.Type]; ok {
		c.entries[idx] = entry
		return nil
	}
	c.byType[entry.Type] = len(c.entries)
	c.entries = append(c.entries, entry)
	return nil
}

// GetByType fetches an entry by exact type match.
func (c *Catalog) GetByType(t WidgetType) (CatalogEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.byType[t]
	if !ok {
		return CatalogEntry{}, false
	}
	return c.entries[idx], true
}

// ListByCategory returns entries in registration order for one category.
func (c *Catalog) ListByCategory(category Category) []CatalogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []CatalogEntry
	for _, entry := range c.entries {
		if entry.Category == category {
			out = append(out, entry)
		}
	}
	return out
}

// Entries returns all entries in registration order.
func (c *Catalog) Entries() []CatalogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]CatalogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// NewWidgetID derives a session-unique widget identifier. The ID space is
// session-scoped and non-distributed, so type plus a high-resolution
// timestamp is sufficient; the store still enforces uniqueness on insert.
func NewWidgetID(t WidgetType) string {
	return fmt.Sprintf("%s-%d", t, time.Now().UnixNano())
}

// NewWidget instantiates a widget from a catalog entry at the given
// position with default settings.
func NewWidget(entry CatalogEntry, pos Position) Widget {
	return Widget{
		WidgetID:    NewWidgetID(entry.Type),
		Type:        entry.Type,
		Title:       entry.Name,
		Description: entry.Description,
		X:           pos.X,
		Y:           pos.Y,
		W:           entry.DefaultSize.W,
		H:           entry.DefaultSize.H,
		MinW:        entry.MinSize.W,
		MinH:        entry.MinSize.H,
		Settings: WidgetSettings{
			TimeRange:       Range30d,
			AutoRefresh:     true,
			RefreshInterval: 300,
		},
	}
}

var defaultCatalogEntries = []CatalogEntry{
	{
		Type:        WidgetBrandHealthHeart,
		Name:        "Brand Health",
		Description: "At-a-glance brand health score with contributing factors",
		Icon:        "HeartPulse",
		Category:    CategoryHero,
		DefaultSize: Size{W: 12, H: 4},
		MinSize:     Size{W: 6, H: 3},
	},
	{
		Type:        WidgetBrandSentiment,
		Name:        "Brand Sentiment",
		Description: "Track overall brand sentiment score and trends over time",
		Icon:        "Heart",
		Category:    CategoryMetrics,
		DefaultSize: Size{W: 6, H: 4},
		MinSize:     Size{W: 4, H: 3},
	},
	{
		Type:        WidgetMentionsTrend,
		Name:        "Mentions Trend",
		Description: "Monitor brand mentions across different platforms",
		Icon:        "TrendingUp",
		Category:    CategoryAnalytics,
		DefaultSize: Size{W: 6, H: 4},
		MinSize:     Size{W: 4, H: 3},
	},
	{
		Type:        WidgetShareOfVoice,
		Name:        "Share of Voice",
		Description: "Compare your brand's visibility against competitors",
		Icon:        "PieChart",
		Category:    CategoryComparison,
		DefaultSize: Size{W: 6, H: 4},
		MinSize:     Size{W: 4, H: 3},
	},
	{
		Type:        WidgetTopTopics,
		Name:        "Top Topics",
		Description: "Discover trending topics and themes in conversations",
		Icon:        "Hash",
		Category:    CategoryAnalytics,
		DefaultSize: Size{W: 6, H: 4},
		MinSize:     Size{W: 4, H: 3},
	},
	{
		Type:        WidgetNPSScore,
		Name:        "NPS Score",
		Description: "Track Net Promoter Score and customer satisfaction",
		Icon:        "Star",
		Category:    CategoryMetrics,
		DefaultSize: Size{W: 6, H: 4},
		MinSize:     Size{W: 4, H: 3},
	},
	{
		Type:        WidgetCompetitorComparison,
		Name:        "Competitor Comparison",
		Description: "Benchmark key metrics against competitor brands",
		Icon:        "BarChart3",
		Category:    CategoryComparison,
		DefaultSize: Size{W: 6, H: 4},
		MinSize:     Size{W: 4, H: 3},
	},
	{
		Type:        WidgetAlertsFeed,
		Name:        "Alerts & Mentions",
		Description: "Real-time feed of critical mentions and alerts",
		Icon:        "Bell",
		Category:    CategoryAlerts,
		DefaultSize: Size{W: 6, H: 6},
		MinSize:     Size{W: 4, H: 4},
	},
}
