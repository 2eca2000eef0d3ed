package evalrunner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nea-data/nexuscontable-agenda-operativa/internal/domain"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/ports"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/tabular"
)

var hoy = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

type memTables struct {
	clientes tabular.Table
	reglas   tabular.Table
	deudas   map[string]tabular.Table
}

func (m *memTables) Clients(context.Context) (tabular.Table, error) { return m.clientes, nil }
func (m *memTables) ClientByCUIT(_ context.Context, cuit string) (tabular.Row, bool, error) {
	for _, r := range m.clientes {
		if r.Get("cuit") == cuit {
			return r, true, nil
		}
	}
	return nil, false, nil
}
func (m *memTables) DeadlineRules(context.Context) (tabular.Table, error)       { return m.reglas, nil }
func (m *memTables) MonotributoSchedule(context.Context) (tabular.Table, error) { return nil, nil }
func (m *memTables) DebtsForClient(_ context.Context, cuit string) (tabular.Table, error) {
	return m.deudas[cuit], nil
}
func (m *memTables) ActiveDebtCount(context.Context) (int, error) { return 0, nil }

type memEvals struct {
	refDate     time.Time
	agenda      []domain.AgendaEntry
	assessments map[string]domain.RiskAssessment
}

func (m *memEvals) Create(context.Context, time.Time) (string, error) { return "ev-1", nil }
func (m *memEvals) Status(context.Context, string) (string, float64, error) {
	return "completed", 1, nil
}
func (m *memEvals) ReferenceDate(context.Context, string) (time.Time, error) {
	return m.refDate, nil
}
func (m *memEvals) SaveAgenda(_ context.Context, _ string, entries []domain.AgendaEntry) error {
	m.agenda = entries
	return nil
}
func (m *memEvals) SaveAssessment(_ context.Context, _, cuit, _ string, a domain.RiskAssessment) error {
	if m.assessments == nil {
		m.assessments = make(map[string]domain.RiskAssessment)
	}
	m.assessments[cuit] = a
	return nil
}
func (m *memEvals) LatestAgenda(context.Context) ([]domain.AgendaEntry, time.Time, bool, error) {
	return m.agenda, m.refDate, m.agenda != nil, nil
}
func (m *memEvals) LatestAgendaForClient(context.Context, string) ([]domain.AgendaEntry, time.Time, bool, error) {
	return nil, time.Time{}, false, nil
}
func (m *memEvals) LatestAssessment(context.Context, string) (domain.RiskAssessment, bool, error) {
	return domain.RiskAssessment{}, false, nil
}

type memComms struct {
	events []domain.CommEvent
}

func (m *memComms) Append(_ context.Context, ev domain.CommEvent) error {
	m.events = append(m.events, ev)
	return nil
}
func (m *memComms) HistoryForClient(_ context.Context, cuit string) ([]domain.CommEvent, error) {
	var out []domain.CommEvent
	for _, ev := range m.events {
		if ev.CUIT == cuit {
			out = append(out, ev)
		}
	}
	return out, nil
}
func (m *memComms) LastForClient(context.Context, string) (domain.CommEvent, bool, error) {
	return domain.CommEvent{}, false, nil
}

type memJobs struct {
	progress  []float64
	started   bool
	completed bool
	failed    string
}

func (m *memJobs) ClaimNext(context.Context) (ports.EvalJob, bool, error) {
	return ports.EvalJob{}, false, nil
}
func (m *memJobs) MarkRunning(context.Context, string) error { return nil }
func (m *memJobs) UpdateProgress(_ context.Context, _ string, p float64) error {
	m.progress = append(m.progress, p)
	return nil
}
func (m *memJobs) MarkCompleted(context.Context, string) error {
	m.completed = true
	return nil
}
func (m *memJobs) MarkFailed(_ context.Context, _ string, reason string) error {
	m.failed = reason
	return nil
}
func (m *memJobs) StartJobForEvaluation(context.Context, string) (string, error) {
	m.started = true
	return "job-1", nil
}

func fixture() (*memTables, *memEvals, *memComms, *memJobs) {
	tables := &memTables{
		clientes: tabular.Table{
			{"cuit": "20111111117", "razon_social": "ACME SA", "iva": "SI"},
			{"cuit": "20222222224", "razon_social": "BETA SRL", "iva": "SI"},
		},
		reglas: tabular.Table{
			{"impuesto": "IVA", "organismo": "ARCA", "mes": "5", "dia": "20", "terminacion": "7"},
			{"impuesto": "IVA", "organismo": "ARCA", "mes": "6", "dia": "20", "terminacion": "4"},
		},
		deudas: map[string]tabular.Table{
			"20111111117": {{"total_deuda": "600000", "organismo": "ARCA", "estado_deuda": "EXIGIBLE"}},
		},
	}
	return tables, &memEvals{refDate: hoy}, &memComms{}, &memJobs{}
}

func TestProcess(t *testing.T) {
	tables, evals, coms, jobs := fixture()
	p := PortfolioProcessor{Tables: tables, Evals: evals, Comms: coms, Jobs: jobs}

	require.NoError(t, p.Process(context.Background(), "ev-1"))

	// Agenda snapshot is tagged before persisting.
	require.Len(t, evals.agenda, 2)
	overdue := evals.agenda[0]
	assert.Equal(t, "20111111117", overdue.CUIT)
	assert.Equal(t, domain.EstadoVencido, overdue.Estado)
	assert.Equal(t, domain.EstadoOK, evals.agenda[1].Estado)

	// Every client gets an assessment; debt drives ACME, BETA scores low.
	require.Len(t, evals.assessments, 2)
	acme := evals.assessments["20111111117"]
	assert.Equal(t, 45, acme.Score) // 15 overdue filing + 30 debt tier
	assert.Equal(t, domain.NivelAlto, acme.Nivel)
	beta := evals.assessments["20222222224"]
	assert.Equal(t, domain.NivelBajo, beta.Nivel)

	// Progress: 0.5 after the agenda, then a step per client ending at 1.
	require.NotEmpty(t, jobs.progress)
	assert.Equal(t, 0.5, jobs.progress[0])
	assert.Equal(t, 1.0, jobs.progress[len(jobs.progress)-1])
}

func TestProcessInline(t *testing.T) {
	tables, evals, coms, jobs := fixture()
	p := PortfolioProcessor{Tables: tables, Evals: evals, Comms: coms, Jobs: jobs}

	require.NoError(t, ProcessInline(context.Background(), jobs, p, "ev-1"))
	assert.True(t, jobs.started)
	assert.True(t, jobs.completed)
	assert.Empty(t, jobs.failed)
}

func TestProcessInline_FailureMarksJob(t *testing.T) {
	_, _, _, jobs := fixture()
	failing := processorFunc(func(context.Context, string) error { return errors.New("boom") })

	err := ProcessInline(context.Background(), jobs, failing, "ev-1")
	require.Error(t, err)
	assert.Equal(t, "boom", jobs.failed)
	assert.False(t, jobs.completed)
}

type processorFunc func(ctx context.Context, evaluationID string) error

func (f processorFunc) Process(ctx context.Context, evaluationID string) error {
	return f(ctx, evaluationID)
}
