package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"

	dashboard "github.com/goliatone/go-brandboard/components/dashboard"
)

type catalogSource interface {
	Entries() []dashboard.CatalogEntry
	ListByCategory(category dashboard.Category) []dashboard.CatalogEntry
}

// CatalogInput optionally narrows the listing to one category.
type CatalogInput struct {
	Category dashboard.Category `json:"category,omitempty"`
}

// CatalogQuery lists catalog entries for the widget picker.
type CatalogQuery struct {
	source catalogSource
}

// NewCatalogQuery builds the query.
func NewCatalogQuery(source catalogSource) *CatalogQuery {
	return &CatalogQuery{source: source}
}

var _ gocommand.Querier[CatalogInput, []dashboard.CatalogEntry] = (*CatalogQuery)(nil)

// Query lists entries, filtered when a category is given.
func (q *CatalogQuery) Query(ctx context.Context, msg CatalogInput) ([]dashboard.CatalogEntry, error) {
	if msg.Category != "" {
		return q.source.ListByCategory(msg.Category), nil
	}
	return q.source.Entries(), nil
}
