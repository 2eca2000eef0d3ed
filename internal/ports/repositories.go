package ports

import (
	"context"
	"time"

	"github.com/nea-data/nexuscontable-agenda-operativa/internal/domain"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/tabular"
)

// TableRepository loads the externally maintained source tables. Rows come
// back with lower-cased column names so the tolerant core contract holds.
type TableRepository interface {
	Clients(ctx context.Context) (tabular.Table, error)
	ClientByCUIT(ctx context.Context, cuit string) (row tabular.Row, found bool, err error)
	DeadlineRules(ctx context.Context) (tabular.Table, error)
	MonotributoSchedule(ctx context.Context) (tabular.Table, error)
	DebtsForClient(ctx context.Context, cuit string) (tabular.Table, error)
	ActiveDebtCount(ctx context.Context) (int, error)
}

// EvaluationRepository manages evaluation records and their derived snapshots.
type EvaluationRepository interface {
	Create(ctx context.Context, referenceDate time.Time) (evaluationID string, err error)
	Status(ctx context.Context, evaluationID string) (status string, progress float64, err error)
	ReferenceDate(ctx context.Context, evaluationID string) (time.Time, error)
	SaveAgenda(ctx context.Context, evaluationID string, entries []domain.AgendaEntry) error
	SaveAssessment(ctx context.Context, evaluationID, cuit, cliente string, a domain.RiskAssessment) error

	// Latest* read from the most recent completed evaluation.
	LatestAgenda(ctx context.Context) (entries []domain.AgendaEntry, referenceDate time.Time, found bool, err error)
	LatestAgendaForClient(ctx context.Context, cuit string) (entries []domain.AgendaEntry, referenceDate time.Time, found bool, err error)
	LatestAssessment(ctx context.Context, cuit string) (a domain.RiskAssessment, found bool, err error)
}

// CommRepository persists the append-only communication log.
type CommRepository interface {
	Append(ctx context.Context, ev domain.CommEvent) error
	HistoryForClient(ctx context.Context, cuit string) ([]domain.CommEvent, error)
	LastForClient(ctx context.Context, cuit string) (ev domain.CommEvent, found bool, err error)
}
