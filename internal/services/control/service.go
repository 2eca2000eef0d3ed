// Package control derives operational views over an agenda snapshot:
// overdue and upcoming subsets, KPI aggregates, and the portfolio status
// banner. Everything here is a pure, non-mutating derivation.
package control

import (
	"sort"
	"time"

	"github.com/nea-data/nexuscontable-agenda-operativa/internal/domain"
)

// Portfolio status banner values.
const (
	OperacionCritica = "🔴 Operación crítica"
	OperacionAlerta  = "🟠 Atención"
	OperacionNormal  = "🟢 Operación normal"
)

// Vencidos returns entries whose due date is strictly before the reference
// date, closest-to-due first.
func Vencidos(agenda []domain.AgendaEntry, hoy time.Time) []domain.AgendaEntry {
	hoy = truncate(hoy)
	out := filter(agenda, func(e domain.AgendaEntry) bool {
		return e.FechaVto.Before(hoy)
	})
	sortEntries(out)
	return out
}

// Proximos returns entries due within [hoy, hoy+dias], inclusive on both
// ends. The weekly control uses dias=7, the monthly view dias=30.
func Proximos(agenda []domain.AgendaEntry, hoy time.Time, dias int) []domain.AgendaEntry {
	hoy = truncate(hoy)
	hasta := hoy.AddDate(0, 0, dias)
	out := filter(agenda, func(e domain.AgendaEntry) bool {
		return !e.FechaVto.Before(hoy) && !e.FechaVto.After(hasta)
	})
	sortEntries(out)
	return out
}

// KPIs aggregates the snapshot. Vencidas and OK count entries tagged by the
// pipeline's Estado field; untagged snapshots report zero for both.
func KPIs(agenda []domain.AgendaEntry) domain.KPIs {
	var k domain.KPIs
	clientes := make(map[string]bool)
	for _, e := range agenda {
		k.Obligaciones++
		switch e.Estado {
		case domain.EstadoVencido:
			k.Vencidas++
		case domain.EstadoOK:
			k.OK++
		}
		clientes[e.Cliente] = true
	}
	k.Clientes = len(clientes)
	return k
}

// Estado reduces the portfolio to the dashboard banner: overdue filings or
// active debts mean critical, anything due this week means attention.
func Estado(vencidos, proximosSemana, deudasActivas int) string {
	switch {
	case vencidos > 0 || deudasActivas > 0:
		return OperacionCritica
	case proximosSemana > 0:
		return OperacionAlerta
	default:
		return OperacionNormal
	}
}

func filter(in []domain.AgendaEntry, keep func(domain.AgendaEntry) bool) []domain.AgendaEntry {
	out := make([]domain.AgendaEntry, 0, len(in))
	for _, e := range in {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// sortEntries orders by days remaining, then client, then tax, so output is
// stable across runs with identical inputs.
func sortEntries(out []domain.AgendaEntry) {
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.DiasRestantes != b.DiasRestantes {
			return a.DiasRestantes < b.DiasRestantes
		}
		if a.Cliente != b.Cliente {
			return a.Cliente < b.Cliente
		}
		return a.Impuesto < b.Impuesto
	})
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
