package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"

	dashboard "github.com/goliatone/go-brandboard/components/dashboard"
)

type snapshotSource interface {
	Snapshot() dashboard.Snapshot
}

// SnapshotInput carries no parameters; the store holds exactly one dashboard.
type SnapshotInput struct{}

// SnapshotQuery executes a read-only state snapshot.
type SnapshotQuery struct {
	source snapshotSource
}

// NewSnapshotQuery builds the query.
func NewSnapshotQuery(source snapshotSource) *SnapshotQuery {
	return &SnapshotQuery{source: source}
}

var _ gocommand.Querier[SnapshotInput, dashboard.Snapshot] = (*SnapshotQuery)(nil)

// Query resolves the current dashboard snapshot.
func (q *SnapshotQuery) Query(ctx context.Context, _ SnapshotInput) (dashboard.Snapshot, error) {
	return q.source.Snapshot(), nil
}
