package port

import (
	"context"
	"time"
)

type MetricsRecorder interface {
	// Observe records the outcome of one named invocation
	Observe(ctx context.Context, function string, outcome string, duration time.Duration)
}
