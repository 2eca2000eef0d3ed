package ports

import "context"

type EvalJob struct {
	ID           string
	EvaluationID string
}

// JobRepository supports claiming and updating evaluation jobs.
type JobRepository interface {
	ClaimNext(ctx context.Context) (job EvalJob, found bool, err error)
	MarkRunning(ctx context.Context, jobID string) error
	UpdateProgress(ctx context.Context, evaluationID string, progress float64) error
	MarkCompleted(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID string, reason string) error
	StartJobForEvaluation(ctx context.Context, evaluationID string) (jobID string, err error)
}
