package monotributo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nea-data/nexuscontable-agenda-operativa/internal/domain"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/tabular"
)

var hoy = time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)

func TestSemaforo(t *testing.T) {
	assert.Equal(t, "🔴", Semaforo(-1))
	assert.Equal(t, "🟠", Semaforo(0))
	assert.Equal(t, "🟠", Semaforo(30))
	assert.Equal(t, "🟡", Semaforo(31))
	assert.Equal(t, "🟡", Semaforo(60))
	assert.Equal(t, "🟢", Semaforo(61))
}

func TestPagos(t *testing.T) {
	schedule := tabular.Table{
		{"mes": "5", "dia": "20"},
		{"mes": "6", "dia": "20"},
		{"mes": "7", "dia": "20"},
		{"mes": "0", "dia": "20"},  // malformed month skipped
		{"mes": "8", "dia": "xx"},  // malformed day skipped
	}
	deudas := tabular.Table{
		{"cuit": "20111111117", "impuesto": "MONOTRIBUTO", "periodo": "2024-05", "total_deuda": "15000"},
		{"cuit": "20999999999", "impuesto": "MONOTRIBUTO", "periodo": "2024-06", "total_deuda": "9999"},
		{"cuit": "20111111117", "impuesto": "IVA", "periodo": "2024-06", "total_deuda": "5000"},
	}

	pagos := Pagos("20111111117", schedule, deudas, hoy)
	require.Len(t, pagos, 3)

	// May slot is past-due and carries the client's own monotributo debt.
	assert.Equal(t, "2024-05", pagos[0].Periodo)
	assert.Equal(t, domain.PagoConDeuda, pagos[0].EstadoPago)
	assert.True(t, pagos[0].DeudaDetectada.Equal(decimal.NewFromInt(15000)))
	assert.Equal(t, "🔴", pagos[0].Semaforo)

	// June slot: another client's debt and a non-monotributo debt don't count.
	assert.Equal(t, "2024-06", pagos[1].Periodo)
	assert.Equal(t, domain.PagoPendiente, pagos[1].EstadoPago)
	assert.True(t, pagos[1].DeudaDetectada.IsZero())
	assert.Equal(t, "🟠", pagos[1].Semaforo)

	assert.Equal(t, "2024-07", pagos[2].Periodo)
	assert.Equal(t, domain.PagoPendiente, pagos[2].EstadoPago)
	assert.Equal(t, 35, pagos[2].DiasRestantes)
	assert.Equal(t, "🟡", pagos[2].Semaforo)
}

func TestRecategorizaciones(t *testing.T) {
	got := Recategorizaciones(hoy)
	require.Len(t, got, 2)

	assert.Equal(t, time.Date(2024, time.February, 5, 0, 0, 0, 0, time.UTC), got[0].Fecha)
	assert.Equal(t, "🔴", got[0].Semaforo) // already past

	assert.Equal(t, time.Date(2024, time.July, 20, 0, 0, 0, 0, time.UTC), got[1].Fecha)
	assert.Equal(t, 35, got[1].DiasRestantes)
	assert.Equal(t, "🟡", got[1].Semaforo)
}

func TestFacturacion_DeterministicPerCUIT(t *testing.T) {
	a := Facturacion("20-11111111-7", 2024)
	b := Facturacion("20-11111111-7", 2024)
	c := Facturacion("20-22222222-4", 2024)

	require.Len(t, a, 12)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	acumulado := decimal.Zero
	for i, m := range a {
		assert.True(t, m.Facturacion.GreaterThanOrEqual(decimal.NewFromInt(25_000)), "month %d", i+1)
		acumulado = acumulado.Add(m.Facturacion)
		assert.True(t, m.Acumulado.Equal(acumulado), "month %d", i+1)
	}
	assert.Equal(t, "2024-01", a[0].Periodo)
	assert.Equal(t, "2024-12", a[11].Periodo)
}

func TestControlFacturacion(t *testing.T) {
	got := ControlFacturacion("20111111117", "b", 2024)

	assert.Equal(t, "B", got.Categoria)
	assert.True(t, got.Tope.Equal(decimal.NewFromInt(1_050_000)))
	assert.Len(t, got.Meses, 12)
	assert.True(t, got.Acumulado.Equal(got.Meses[11].Acumulado))
	assert.InDelta(t, 100*mustFloat(got.Acumulado)/1_050_000, got.PorcentajeTope, 0.01)
	assert.NotEmpty(t, got.Riesgo)
}

func TestControlFacturacion_UnknownCategoryDefaultsToC(t *testing.T) {
	got := ControlFacturacion("20111111117", "Z", 2024)
	assert.Equal(t, "C", got.Categoria)
	assert.True(t, got.Tope.Equal(decimal.NewFromInt(1_500_000)))
}

func mustFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
