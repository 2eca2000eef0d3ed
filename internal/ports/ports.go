package ports

import (
	"context"
	"time"
)

// Evaluator enqueues and tracks portfolio evaluations.
type Evaluator interface {
	Enqueue(ctx context.Context, referenceDate time.Time) (evaluationID string, err error)
	Status(ctx context.Context, evaluationID string) (status string, progress float64, err error)
}
