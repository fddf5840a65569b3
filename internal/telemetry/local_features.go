package telemetry

import (
	"context"

	"github.com/petasbytes/olier/internal/metrics"
)

// EmitLocalFeatures records size features of a submitted user text.
func EmitLocalFeatures(ctx context.Context, user string) {
	if !Enabled() {
		return
	}
	f := metrics.TextFeatures(user)
	EmitCycle(ctx, "local_features", map[string]any{
		"features_version": "1",
		"user": map[string]any{
			"bytes": f.Bytes,
			"runes": f.Runes,
			"words": f.Words,
			"lines": f.Lines,
		},
	})
}
