// Package risk fuses a client's due dates, outstanding debt and
// communication history into a single assessment.
//
// Component caps are 40 (vencimientos, practical ceiling 30+10), 40 (deuda)
// and 20 (comunicación); the composite ceiling is therefore 90, not 100.
// That arithmetic is part of the acceptance behavior — do not rebalance it.
package risk

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nea-data/nexuscontable-agenda-operativa/internal/domain"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/tabular"
)

// Suggested actions, in priority order.
const (
	AccionEvaluarPago       = "Evaluar pago o plan de pagos"
	AccionPriorizarCriticos = "Priorizar presentaciones críticas"
	AccionOrganizarProximos = "Organizar presentaciones próximas"
	AccionRevisarIntegral   = "Revisar situación fiscal integral"
	AccionOperacionNormal   = "Operación normal"
)

const canalDefault = "WhatsApp"

var (
	tierBaja  = decimal.NewFromInt(100_000)
	tierMedia = decimal.NewFromInt(500_000)
)

// FilterActive keeps debts whose estado marks them as still owed. Callers
// pass the result to Assess; a table without the column passes through whole.
func FilterActive(deudas tabular.Table) tabular.Table {
	col, ok := deudas.Pick("estado_deuda", "estado")
	if !ok {
		return deudas
	}
	out := tabular.Table{}
	for _, r := range deudas {
		switch strings.ToUpper(r.Get(col)) {
		case "EXIGIBLE", "ACTIVA", "VENCIDA":
			out = append(out, r)
		}
	}
	return out
}

// Assess scores one client. Every input may be empty or nil; each component
// degrades to its zero case instead of failing.
func Assess(vencimientos []domain.AgendaEntry, deudas, comunicaciones tabular.Table, hoy time.Time) domain.RiskAssessment {
	hoy = truncate(hoy)

	buckets := bucketVencimientos(vencimientos)
	ncrit := len(buckets.Criticos)
	nprox := len(buckets.Proximos)
	scoreV := scoreVencimientos(ncrit, nprox)

	totalDeuda := deudaTotal(deudas)
	antMeses := antiguedadMaxMeses(deudas, hoy)
	scoreD := scoreDeuda(totalDeuda, antMeses)

	scoreC, infoC := scoreComunicacion(comunicaciones, hoy)

	total := scoreV + scoreD + scoreC
	nivel, color := nivelColor(total)

	deuda := domain.RiesgoDeuda{
		TotalDeuda:         totalDeuda,
		Organismos:         organismos(deudas),
		AntiguedadMaxMeses: antMeses,
	}
	if totalDeuda.IsPositive() {
		deuda.AccionSugerida = "Evaluar plan de pagos"
	}

	return domain.RiskAssessment{
		Score:          total,
		Nivel:          nivel,
		Color:          color,
		AccionSugerida: accionPrincipal(nivel, totalDeuda, ncrit, nprox),
		Chips:          chips(totalDeuda, ncrit, nprox, infoC.Estado),
		Composicion: domain.Composicion{
			Vencimientos: scoreV,
			Deudas:       scoreD,
			Comunicacion: scoreC,
			Total:        total,
		},
		Vencimientos: buckets,
		Deuda:        deuda,
		Comunicacion: infoC,
	}
}

// bucketVencimientos splits by days remaining: críticos <=7 (overdue
// included), próximos 8..30, futuros >30. Buckets keep a closest-first order.
func bucketVencimientos(entries []domain.AgendaEntry) domain.VencimientoBuckets {
	sorted := make([]domain.AgendaEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DiasRestantes < sorted[j].DiasRestantes
	})

	out := domain.VencimientoBuckets{
		Criticos: []domain.AgendaEntry{},
		Proximos: []domain.AgendaEntry{},
		Futuros:  []domain.AgendaEntry{},
	}
	for _, e := range sorted {
		switch {
		case e.DiasRestantes <= 7:
			out.Criticos = append(out.Criticos, e)
		case e.DiasRestantes <= 30:
			out.Proximos = append(out.Proximos, e)
		default:
			out.Futuros = append(out.Futuros, e)
		}
	}
	return out
}

// scoreVencimientos: one critical filing already dominates; near-term items
// add smaller, saturating increments. Cap 30+10.
func scoreVencimientos(ncrit, nprox int) int {
	return min(30, ncrit*15) + min(10, nprox*3)
}

// deudaTotal sums the first amount-like column found. Malformed cells count
// as zero.
func deudaTotal(deudas tabular.Table) decimal.Decimal {
	col, ok := deudas.Pick("total_deuda", "monto", "importe", "saldo")
	if !ok {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, r := range deudas {
		if d, ok := tabular.Decimal(r.Get(col)); ok {
			total = total.Add(d)
		}
	}
	return total
}

// organismos lists the distinct authorities behind the client's debts.
func organismos(deudas tabular.Table) []string {
	col, ok := deudas.Pick("organismo", "ente", "jurisdiccion")
	if !ok {
		return []string{}
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range deudas {
		v := r.Get(col)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	if out == nil {
		out = []string{}
	}
	return out
}

// antiguedadMaxMeses estimates the oldest debt age in months (days/30).
// Prefers an explicit date column; falls back to a "YYYY-MM"-shaped period.
// Missing or unparseable columns yield 0.
func antiguedadMaxMeses(deudas tabular.Table, hoy time.Time) int {
	if col, ok := deudas.Pick("fecha_actualizacion", "fecha", "actualizado", "updated_at"); ok {
		if meses, any := maxMonths(deudas, col, tabular.Date, hoy); any {
			return meses
		}
	}
	if col, ok := deudas.Pick("periodo", "periodo_fiscal"); ok {
		if meses, any := maxMonths(deudas, col, tabular.Period, hoy); any {
			return meses
		}
	}
	return 0
}

func maxMonths(deudas tabular.Table, col string, parse func(string) (time.Time, bool), hoy time.Time) (int, bool) {
	max, any := 0, false
	for _, r := range deudas {
		t, ok := parse(r.Get(col))
		if !ok {
			continue
		}
		any = true
		meses := int(hoy.Sub(t).Hours() / 24 / 30)
		if meses > max {
			max = meses
		}
	}
	return max, any
}

// scoreDeuda tiers by amount then adds an age bonus. Cap 40.
func scoreDeuda(total decimal.Decimal, antiguedadMeses int) int {
	score := 0
	switch {
	case !total.IsPositive():
	case total.LessThanOrEqual(tierBaja):
		score += 10
	case total.LessThanOrEqual(tierMedia):
		score += 20
	default:
		score += 30
	}
	switch {
	case antiguedadMeses >= 6:
		score += 10
	case antiguedadMeses >= 3:
		score += 5
	}
	return min(40, score)
}

// scoreComunicacion inspects the client's contact log. Cap 20.
func scoreComunicacion(coms tabular.Table, hoy time.Time) (int, domain.EstadoComunicacion) {
	info := domain.EstadoComunicacion{Estado: "—", CanalRecomendado: "—"}

	if coms.Empty() {
		info.Estado = domain.ComSinHistorial
		info.CanalRecomendado = canalDefault
		return 0, info
	}

	colFecha, hasFecha := coms.Pick("fecha", "created_at", "timestamp")
	colEstado, hasEstado := coms.Pick("estado", "status")
	colCanal, hasCanal := coms.Pick("canal", "channel")

	// Freshest contact drives the recommended channel and staleness.
	var diasSinRespuesta *int
	if hasFecha {
		var last time.Time
		var lastRow tabular.Row
		for _, r := range coms {
			if t, ok := tabular.Date(r.Get(colFecha)); ok && (lastRow == nil || t.After(last)) {
				last, lastRow = t, r
			}
		}
		if lastRow != nil {
			dias := int(hoy.Sub(truncate(last)).Hours() / 24)
			diasSinRespuesta = &dias
			info.DiasSinRespuesta = diasSinRespuesta
			if hasCanal {
				if c := lastRow.Get(colCanal); c != "" {
					info.CanalRecomendado = c
				} else {
					info.CanalRecomendado = canalDefault
				}
			}
		}
	}

	score := 0
	if hasEstado {
		var pend, env, resp int
		for _, r := range coms {
			switch strings.ToUpper(r.Get(colEstado)) {
			case domain.ComPendiente:
				pend++
			case domain.ComEnviado:
				env++
			case domain.ComRespondido:
				resp++
			}
		}
		switch {
		case pend > 0:
			score += min(15, pend*8)
			info.Estado = domain.ComPendiente
			info.AccionSugerida = "Recontactar / solicitar respuesta"
		case env > 0 && resp == 0:
			score += 6
			info.Estado = domain.ComSinRespuesta
			info.AccionSugerida = "Confirmar recepción"
		default:
			info.Estado = domain.ComOK
		}
	} else {
		info.Estado = domain.ComOK
	}

	if diasSinRespuesta != nil {
		switch dias := *diasSinRespuesta; {
		case dias >= 15:
			score += 5
			if info.AccionSugerida == "" {
				info.AccionSugerida = "Recontactar (15+ días)"
			}
		case dias >= 7:
			score += 3
		}
	}

	return min(20, score), info
}

// nivelColor maps the composite score to a level and its display color.
func nivelColor(score int) (string, string) {
	switch {
	case score >= 60:
		return domain.NivelCritico, "🔴"
	case score >= 35:
		return domain.NivelAlto, "🔴"
	case score >= 20:
		return domain.NivelMedio, "🟠"
	default:
		return domain.NivelBajo, "🟢"
	}
}

// accionPrincipal: first match wins.
func accionPrincipal(nivel string, deudaTotal decimal.Decimal, ncrit, nprox int) string {
	switch {
	case deudaTotal.IsPositive():
		return AccionEvaluarPago
	case ncrit > 0:
		return AccionPriorizarCriticos
	case nprox > 0:
		return AccionOrganizarProximos
	case nivel == domain.NivelCritico || nivel == domain.NivelAlto:
		return AccionRevisarIntegral
	default:
		return AccionOperacionNormal
	}
}

func chips(deudaTotal decimal.Decimal, ncrit, nprox int, estadoCom string) []string {
	out := []string{}
	if deudaTotal.IsPositive() {
		out = append(out, "Deuda exigible")
	}
	if ncrit > 0 {
		out = append(out, "Vencimientos críticos")
	} else if nprox > 0 {
		out = append(out, "Vencimientos próximos")
	}
	if estadoCom != domain.ComSinHistorial && estadoCom != domain.ComOK && estadoCom != "—" {
		out = append(out, "Comunicación: "+estadoCom)
	}
	return out
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
