package evaluations

import (
	"context"
	"time"

	"github.com/nea-data/nexuscontable-agenda-operativa/internal/ports"
)

// Service enqueues portfolio evaluations and reports their progress.
type Service struct {
	evals ports.EvaluationRepository
}

func New(evals ports.EvaluationRepository) *Service {
	return &Service{evals: evals}
}

// Enqueue records a queued evaluation for the given reference date. A zero
// reference date means "today".
func (s *Service) Enqueue(ctx context.Context, referenceDate time.Time) (string, error) {
	if referenceDate.IsZero() {
		referenceDate = time.Now().UTC()
	}
	referenceDate = time.Date(referenceDate.Year(), referenceDate.Month(), referenceDate.Day(), 0, 0, 0, 0, time.UTC)
	return s.evals.Create(ctx, referenceDate)
}

func (s *Service) Status(ctx context.Context, evaluationID string) (string, float64, error) {
	return s.evals.Status(ctx, evaluationID)
}
