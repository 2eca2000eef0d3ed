package clients

import (
	"context"
	"sort"

	"github.com/nea-data/nexuscontable-agenda-operativa/internal/domain"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/ports"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/services/agenda"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/tabular"
)

// Service exposes the client roster and the latest per-client risk profile.
type Service struct {
	tables ports.TableRepository
	evals  ports.EvaluationRepository
}

func New(tables ports.TableRepository, evals ports.EvaluationRepository) *Service {
	return &Service{tables: tables, evals: evals}
}

// Summary is one roster line.
type Summary struct {
	CUIT        string `json:"cuit"`
	RazonSocial string `json:"razon_social"`
	Monotributo bool   `json:"monotributo"`
	Registradas int    `json:"responsabilidades"`
}

// List returns the roster sorted by display name. Rows without a CUIT or
// name are skipped, mirroring the matcher.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.tables.Clients(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(rows))
	for _, r := range rows {
		cuit, nombre := r.Get("cuit"), r.Get("razon_social")
		if cuit == "" || nombre == "" {
			continue
		}
		out = append(out, Summary{
			CUIT:        cuit,
			RazonSocial: nombre,
			Monotributo: agenda.EsMonotributista(r),
			Registradas: len(agenda.Responsibilities(r)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RazonSocial < out[j].RazonSocial })
	return out, nil
}

// Get returns the raw client row.
func (s *Service) Get(ctx context.Context, cuit string) (tabular.Row, error) {
	row, found, err := s.tables.ClientByCUIT(ctx, cuit)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return row, nil
}

// LatestRisk returns the stored assessment from the most recent completed
// evaluation.
func (s *Service) LatestRisk(ctx context.Context, cuit string) (domain.RiskAssessment, error) {
	a, found, err := s.evals.LatestAssessment(ctx, cuit)
	if err != nil {
		return domain.RiskAssessment{}, err
	}
	if !found {
		return domain.RiskAssessment{}, ErrNotFound
	}
	return a, nil
}

var ErrNotFound = errString("not found")

type errString string

func (e errString) Error() string { return string(e) }
