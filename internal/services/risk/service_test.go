package risk

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nea-data/nexuscontable-agenda-operativa/internal/domain"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/tabular"
)

var hoy = time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC)

func venc(dias int) domain.AgendaEntry {
	return domain.AgendaEntry{
		CUIT:          "20111111117",
		Cliente:       "ACME SA",
		Impuesto:      "IVA",
		Organismo:     "ARCA",
		Periodo:       "2024-06",
		FechaVto:      hoy.AddDate(0, 0, dias),
		DiasRestantes: dias,
	}
}

func TestAssess_CleanClient(t *testing.T) {
	got := Assess(nil, nil, nil, hoy)

	assert.Zero(t, got.Score)
	assert.Equal(t, domain.NivelBajo, got.Nivel)
	assert.Equal(t, "🟢", got.Color)
	assert.Equal(t, AccionOperacionNormal, got.AccionSugerida)
	assert.Empty(t, got.Chips)
	assert.Equal(t, domain.ComSinHistorial, got.Comunicacion.Estado)
	assert.Equal(t, "WhatsApp", got.Comunicacion.CanalRecomendado)
	assert.True(t, got.Deuda.TotalDeuda.IsZero())
	assert.Empty(t, got.Deuda.Organismos)
}

func TestAssess_CompositeScenario(t *testing.T) {
	// One critical filing, an aged mid-size debt, and one pending message
	// that has gone 20 days without an answer.
	vencimientos := []domain.AgendaEntry{venc(3)}
	deudas := tabular.Table{
		{"total_deuda": "600000", "organismo": "ARCA", "fecha_actualizacion": "2023-11-20"},
	}
	coms := tabular.Table{
		{"fecha": "2024-05-31", "estado": "PENDIENTE", "canal": "Email"},
	}

	got := Assess(vencimientos, deudas, coms, hoy)

	assert.Equal(t, 15, got.Composicion.Vencimientos)
	assert.Equal(t, 40, got.Composicion.Deudas)       // 30 amount + 10 age
	assert.Equal(t, 13, got.Composicion.Comunicacion) // 8 pending + 5 staleness
	assert.Equal(t, 68, got.Score)
	assert.Equal(t, domain.NivelCritico, got.Nivel)
	assert.Equal(t, "🔴", got.Color)
	assert.Equal(t, AccionEvaluarPago, got.AccionSugerida)
	assert.Equal(t, []string{"Deuda exigible", "Vencimientos críticos", "Comunicación: PENDIENTE"}, got.Chips)

	assert.True(t, got.Deuda.TotalDeuda.Equal(decimal.NewFromInt(600000)))
	assert.Equal(t, []string{"ARCA"}, got.Deuda.Organismos)
	assert.Equal(t, 7, got.Deuda.AntiguedadMaxMeses)
	assert.Equal(t, "Evaluar plan de pagos", got.Deuda.AccionSugerida)

	require.NotNil(t, got.Comunicacion.DiasSinRespuesta)
	assert.Equal(t, 20, *got.Comunicacion.DiasSinRespuesta)
	assert.Equal(t, "Email", got.Comunicacion.CanalRecomendado)
	assert.Equal(t, "Recontactar / solicitar respuesta", got.Comunicacion.AccionSugerida)
}

func TestBucketVencimientos(t *testing.T) {
	got := bucketVencimientos([]domain.AgendaEntry{
		venc(45), venc(7), venc(-3), venc(8), venc(30),
	})

	require.Len(t, got.Criticos, 2)
	assert.Equal(t, -3, got.Criticos[0].DiasRestantes) // overdue counts as critical
	assert.Equal(t, 7, got.Criticos[1].DiasRestantes)  // day seven still critical
	require.Len(t, got.Proximos, 2)
	assert.Equal(t, 8, got.Proximos[0].DiasRestantes)
	require.Len(t, got.Futuros, 1)
	assert.Equal(t, 45, got.Futuros[0].DiasRestantes)
}

func TestScoreVencimientos_Saturates(t *testing.T) {
	assert.Equal(t, 0, scoreVencimientos(0, 0))
	assert.Equal(t, 15, scoreVencimientos(1, 0))
	assert.Equal(t, 30, scoreVencimientos(2, 0))
	assert.Equal(t, 30, scoreVencimientos(5, 0)) // critical cap
	assert.Equal(t, 9, scoreVencimientos(0, 3))
	assert.Equal(t, 10, scoreVencimientos(0, 4)) // near-term cap
	assert.Equal(t, 40, scoreVencimientos(3, 6))
}

func TestScoreDeuda_Tiers(t *testing.T) {
	d := decimal.NewFromInt
	assert.Equal(t, 0, scoreDeuda(decimal.Zero, 0))
	assert.Equal(t, 10, scoreDeuda(decimal.Zero, 12)) // age bonus applies even at zero total
	assert.Equal(t, 10, scoreDeuda(d(100_000), 0))    // boundary inclusive
	assert.Equal(t, 20, scoreDeuda(d(100_001), 0))
	assert.Equal(t, 20, scoreDeuda(d(500_000), 0))
	assert.Equal(t, 30, scoreDeuda(d(500_001), 0))
	assert.Equal(t, 35, scoreDeuda(d(600_000), 3))
	assert.Equal(t, 40, scoreDeuda(d(600_000), 6))
}

func TestAntiguedad_PeriodoFallback(t *testing.T) {
	deudas := tabular.Table{
		{"monto": "50000", "periodo": "2023-12"},
		{"monto": "10000", "periodo": "2024-05"},
	}
	got := Assess(nil, deudas, nil, hoy)
	// Dec 1 2023 to Jun 20 2024 is 202 days, 6 whole months.
	assert.Equal(t, 6, got.Deuda.AntiguedadMaxMeses)
	assert.Equal(t, 20, got.Composicion.Deudas) // 10 amount + 10 age
}

func TestScoreComunicacion_PendingCap(t *testing.T) {
	coms := tabular.Table{
		{"fecha": "2024-06-19", "estado": "PENDIENTE"},
		{"fecha": "2024-06-18", "estado": "PENDIENTE"},
		{"fecha": "2024-06-17", "estado": "PENDIENTE"},
	}
	score, info := scoreComunicacion(coms, hoy)
	assert.Equal(t, 15, score) // pending component saturates
	assert.Equal(t, domain.ComPendiente, info.Estado)
}

func TestScoreComunicacion_SentWithoutResponse(t *testing.T) {
	coms := tabular.Table{
		{"fecha": "2024-06-10", "estado": "ENVIADO", "canal": "WhatsApp"},
	}
	score, info := scoreComunicacion(coms, hoy)
	assert.Equal(t, 9, score) // 6 unanswered + 3 for 10 days quiet
	assert.Equal(t, domain.ComSinRespuesta, info.Estado)
	assert.Equal(t, "Confirmar recepción", info.AccionSugerida)
}

func TestScoreComunicacion_RespondedRecently(t *testing.T) {
	coms := tabular.Table{
		{"fecha": "2024-06-18", "estado": "RESPONDIDO", "canal": "Email"},
	}
	score, info := scoreComunicacion(coms, hoy)
	assert.Zero(t, score)
	assert.Equal(t, domain.ComOK, info.Estado)
	assert.Equal(t, "Email", info.CanalRecomendado)
}

func TestFilterActive(t *testing.T) {
	deudas := tabular.Table{
		{"monto": "100", "estado_deuda": "EXIGIBLE"},
		{"monto": "200", "estado_deuda": "regularizada"},
		{"monto": "300", "estado_deuda": "vencida"},
	}
	got := FilterActive(deudas)
	require.Len(t, got, 2)
	assert.Equal(t, "100", got[0].Get("monto"))
	assert.Equal(t, "300", got[1].Get("monto"))

	// Without a status column everything is assumed owed.
	sinCol := tabular.Table{{"monto": "500"}}
	assert.Len(t, FilterActive(sinCol), 1)
}

func TestNivelColor(t *testing.T) {
	cases := []struct {
		score int
		nivel string
		color string
	}{
		{0, domain.NivelBajo, "🟢"},
		{19, domain.NivelBajo, "🟢"},
		{20, domain.NivelMedio, "🟠"},
		{34, domain.NivelMedio, "🟠"},
		{35, domain.NivelAlto, "🔴"},
		{59, domain.NivelAlto, "🔴"},
		{60, domain.NivelCritico, "🔴"},
		{90, domain.NivelCritico, "🔴"},
	}
	for _, c := range cases {
		nivel, color := nivelColor(c.score)
		assert.Equal(t, c.nivel, nivel, "score %d", c.score)
		assert.Equal(t, c.color, color, "score %d", c.score)
	}
}
