package dashboard

import "context"

// Telemetry records dashboard intent events (widget moved, layout saved)
// for observability. Implementations must be fire-and-forget: they run on
// the mutation path and must never block or return failure to it.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}
