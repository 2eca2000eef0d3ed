// Package monotributo simulates the simplified-regime side of the portfolio:
// monthly payment schedule, per-period debt detection, recategorization
// events and the billing-cap check. Clients in this regime never reach the
// general obligation matcher.
package monotributo

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nea-data/nexuscontable-agenda-operativa/internal/domain"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/ports"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/services/agenda"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/tabular"
)

// Semaforo uses a wider scale than the general agenda: monthly payments are
// routine, so only the far-out ones read green.
func Semaforo(dias int) string {
	switch {
	case dias < 0:
		return "🔴"
	case dias <= 30:
		return "🟠"
	case dias <= 60:
		return "🟡"
	default:
		return "🟢"
	}
}

// Topes returns the annual billing cap per category. Placeholder values the
// firm edits until the official table is loaded.
func Topes() map[string]decimal.Decimal {
	caps := map[string]int64{
		"A": 700_000, "B": 1_050_000, "C": 1_500_000, "D": 2_100_000,
		"E": 3_000_000, "F": 4_200_000, "G": 6_000_000, "H": 8_500_000,
	}
	out := make(map[string]decimal.Decimal, len(caps))
	for k, v := range caps {
		out[k] = decimal.NewFromInt(v)
	}
	return out
}

// Pagos builds the client's payment slots for the reference year from the
// monotributo calendar, marking periods with detected debt.
func Pagos(cuit string, schedule, deudas tabular.Table, hoy time.Time) []domain.MonoPago {
	hoy = truncate(hoy)
	anio := hoy.Year()

	deudaPorPeriodo := deudaMono(cuit, deudas)

	var pagos []domain.MonoPago
	for _, v := range schedule {
		mes, okM := tabular.Int(v.Get("mes"))
		dia, okD := tabular.Int(v.Get("dia"))
		if !okM || !okD || mes < 1 || mes > 12 {
			continue
		}
		fecha := time.Date(anio, time.Month(mes), dia, 0, 0, 0, 0, time.UTC)
		periodo := fmt.Sprintf("%d-%02d", anio, mes)

		deuda := deudaPorPeriodo[periodo]
		estado := domain.PagoPendiente
		if fecha.Before(hoy) {
			estado = domain.PagoVencido
		}
		if deuda.IsPositive() {
			estado = domain.PagoConDeuda
		}
		dias := int(fecha.Sub(hoy).Hours() / 24)

		pagos = append(pagos, domain.MonoPago{
			Periodo:        periodo,
			FechaPago:      fecha,
			DeudaDetectada: deuda,
			EstadoPago:     estado,
			DiasRestantes:  dias,
			Semaforo:       Semaforo(dias),
		})
	}
	sort.SliceStable(pagos, func(i, j int) bool { return pagos[i].FechaPago.Before(pagos[j].FechaPago) })
	return pagos
}

// deudaMono maps periodo -> debt amount for the client's MONOTRIBUTO rows.
func deudaMono(cuit string, deudas tabular.Table) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, r := range deudas {
		if c := r.Get("cuit"); c != "" && c != cuit {
			continue
		}
		if imp := strings.ToUpper(r.Get("impuesto")); imp != "" && imp != "MONOTRIBUTO" {
			continue
		}
		periodo := r.Get("periodo")
		if periodo == "" {
			continue
		}
		if d, ok := tabular.Decimal(r.Get("total_deuda")); ok {
			out[periodo] = out[periodo].Add(d)
		}
	}
	return out
}

// Recategorizaciones returns the semiannual events for the reference year.
// Dates are the customary ones; configurable later if the calendar moves.
func Recategorizaciones(hoy time.Time) []domain.Recategorizacion {
	hoy = truncate(hoy)
	anio := hoy.Year()
	eventos := []struct {
		nombre string
		fecha  time.Time
	}{
		{"Recategorización 1° semestre", time.Date(anio, time.February, 5, 0, 0, 0, 0, time.UTC)},
		{"Recategorización 2° semestre", time.Date(anio, time.July, 20, 0, 0, 0, 0, time.UTC)},
	}
	out := make([]domain.Recategorizacion, 0, len(eventos))
	for _, e := range eventos {
		dias := int(e.fecha.Sub(hoy).Hours() / 24)
		out = append(out, domain.Recategorizacion{
			Evento:        e.nombre,
			Fecha:         e.fecha,
			DiasRestantes: dias,
			Semaforo:      Semaforo(dias),
		})
	}
	return out
}

// Facturacion simulates twelve months of billing, deterministic per CUIT so
// refreshes don't repaint the chart.
func Facturacion(cuit string, anio int) []domain.FacturacionMes {
	seed := int64(123456)
	digits := onlyDigits(cuit)
	if len(digits) >= 6 {
		if n, err := strconv.ParseInt(digits[len(digits)-6:], 10, 64); err == nil {
			seed = n
		}
	}
	rng := rand.New(rand.NewSource(seed))

	out := make([]domain.FacturacionMes, 0, 12)
	acumulado := decimal.Zero
	for mes := 1; mes <= 12; mes++ {
		val := int64(rng.NormFloat64()*45_000 + 130_000)
		if val < 25_000 {
			val = 25_000
		}
		monto := decimal.NewFromInt(val)
		acumulado = acumulado.Add(monto)
		out = append(out, domain.FacturacionMes{
			Periodo:     fmt.Sprintf("%d-%02d", anio, mes),
			Facturacion: monto,
			Acumulado:   acumulado,
		})
	}
	return out
}

// ControlFacturacion checks the simulated billing against the category cap.
func ControlFacturacion(cuit, categoria string, anio int) domain.ControlFacturacion {
	topes := Topes()
	tope, ok := topes[strings.ToUpper(categoria)]
	if !ok {
		categoria = "C"
		tope = topes[categoria]
	}
	meses := Facturacion(cuit, anio)

	acumulado := decimal.Zero
	if len(meses) > 0 {
		acumulado = meses[len(meses)-1].Acumulado
	}
	pct := 0.0
	if tope.IsPositive() {
		pct, _ = acumulado.Div(tope).Mul(decimal.NewFromInt(100)).Float64()
	}

	var riesgo string
	switch {
	case pct >= 100:
		riesgo = "🔴 Supera el tope"
	case pct >= 85:
		riesgo = "🟠 Muy cerca del tope"
	case pct >= 70:
		riesgo = "🟡 Cerca del tope"
	default:
		riesgo = "🟢 En rango"
	}

	return domain.ControlFacturacion{
		Categoria:      strings.ToUpper(categoria),
		Tope:           tope,
		Acumulado:      acumulado,
		PorcentajeTope: pct,
		Riesgo:         riesgo,
		Meses:          meses,
	}
}

// Resumen is the full monotributo panel for one client.
type Resumen struct {
	CUIT               string                    `json:"cuit"`
	Cliente            string                    `json:"cliente"`
	Pagos              []domain.MonoPago         `json:"pagos"`
	ProximoPago        *domain.MonoPago          `json:"proximo_pago,omitempty"`
	CuotasConDeuda     int                       `json:"cuotas_con_deuda"`
	DeudaDetectada     decimal.Decimal           `json:"deuda_detectada"`
	Recategorizaciones []domain.Recategorizacion `json:"recategorizaciones"`
	Facturacion        domain.ControlFacturacion `json:"facturacion"`
}

// Service assembles the panel from the stored tables.
type Service struct {
	tables ports.TableRepository
}

func New(tables ports.TableRepository) *Service { return &Service{tables: tables} }

// Resumen builds the panel. ErrNoMonotributista when the client is not under
// the simplified regime.
func (s *Service) Resumen(ctx context.Context, cuit, categoria string, hoy time.Time) (Resumen, error) {
	cli, found, err := s.tables.ClientByCUIT(ctx, cuit)
	if err != nil {
		return Resumen{}, err
	}
	if !found {
		return Resumen{}, ErrNotFound
	}
	if !agenda.EsMonotributista(cli) {
		return Resumen{}, ErrNoMonotributista
	}

	schedule, err := s.tables.MonotributoSchedule(ctx)
	if err != nil {
		return Resumen{}, err
	}
	deudas, err := s.tables.DebtsForClient(ctx, cuit)
	if err != nil {
		return Resumen{}, err
	}

	pagos := Pagos(cuit, schedule, deudas, hoy)

	res := Resumen{
		CUIT:               cuit,
		Cliente:            cli.Get("razon_social"),
		Pagos:              pagos,
		Recategorizaciones: Recategorizaciones(hoy),
		Facturacion:        ControlFacturacion(cuit, categoria, hoy.Year()),
		DeudaDetectada:     decimal.Zero,
	}
	for i, p := range pagos {
		res.DeudaDetectada = res.DeudaDetectada.Add(p.DeudaDetectada)
		if p.EstadoPago == domain.PagoConDeuda {
			res.CuotasConDeuda++
		}
		if res.ProximoPago == nil && !p.FechaPago.Before(truncate(hoy)) {
			res.ProximoPago = &pagos[i]
		}
	}
	return res, nil
}

var (
	ErrNotFound         = errString("client not found")
	ErrNoMonotributista = errString("client is not monotributista")
)

type errString string

func (e errString) Error() string { return string(e) }

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
