// Package agenda derives the personalized filing agenda: a cross-reference of
// every registered client against the nationwide deadline calendar, routed by
// the final digit of the client's CUIT.
package agenda

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nea-data/nexuscontable-agenda-operativa/internal/domain"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/tabular"
)

// LastDigit returns the final character of a CUIT as a digit.
// ok is false for empty or non-digit-terminated identifiers.
func LastDigit(cuit string) (int, bool) {
	cuit = strings.TrimSpace(cuit)
	if cuit == "" {
		return 0, false
	}
	c := cuit[len(cuit)-1]
	if c < '0' || c > '9' {
		return 0, false
	}
	return int(c - '0'), true
}

// ParseCohort expands a cohort specifier like "5-6-7" into its digit set.
// Non-digit fragments are dropped.
func ParseCohort(s string) []int {
	var out []int
	for _, part := range strings.Split(s, "-") {
		part = strings.TrimSpace(part)
		if len(part) == 1 && part[0] >= '0' && part[0] <= '9' {
			out = append(out, int(part[0]-'0'))
		}
	}
	return out
}

// Responsibility is one (tax, authority) pair that applies to a client.
type Responsibility struct {
	Impuesto  string
	Organismo string
}

// flag column -> activated responsibility, per the clients sheet layout.
var flagResponsibilities = []struct {
	col  string
	resp Responsibility
}{
	{"iva", Responsibility{"IVA", "ARCA"}},
	{"iibb_corr", Responsibility{"IIBB", "DGR"}},
	{"iibb_chaco", Responsibility{"IIBB", "ATP(CHACO)"}},
	{"ts_corr", Responsibility{"TS", "ACOR"}},
}

// Responsibilities resolves which (tax, authority) pairs legally apply to a
// client row. An empty result is a valid terminal state: the client simply
// has no tracked registrations.
func Responsibilities(cli tabular.Row) map[Responsibility]bool {
	resp := make(map[Responsibility]bool)
	for _, fr := range flagResponsibilities {
		if strings.ToUpper(cli.Get(fr.col)) == "SI" {
			resp[fr.resp] = true
		}
	}
	return resp
}

// EsMonotributista reports whether a client row belongs to the simplified
// regime. The source sheet carries both "tipo_contibuyente" (sic) and a
// "monotributo" flag; either marks the client.
func EsMonotributista(cli tabular.Row) bool {
	tipo := strings.ToUpper(cli.Get("tipo_contibuyente"))
	if tipo == "" {
		tipo = strings.ToUpper(cli.Get("tipo_contribuyente"))
	}
	return tipo == "MONO" || strings.ToUpper(cli.Get("monotributo")) == "SI"
}

// Semaforo maps days remaining to the agenda urgency indicator.
func Semaforo(dias int) string {
	switch {
	case dias < 0:
		return domain.SemaforoVencido
	case dias <= 7:
		return domain.SemaforoUrgente
	default:
		return domain.SemaforoNormal
	}
}

// Match cross-references clients against the deadline calendar and returns
// the deduplicated agenda for the given reference date.
//
// Skipped without error: monotributo clients, rows missing cuit or name,
// clients whose CUIT yields no routing digit, clients with no active
// responsibilities, and malformed rule rows (bad month/day or an invalid
// calendar date).
//
// The due date is always anchored to the reference year's calendar even when
// the estimated period resolves to the prior year (a December rule evaluated
// in January). The firm's calendar sheet only ever describes the current
// year, so this matches how the data is actually maintained.
func Match(clientes, vencimientos tabular.Table, hoy time.Time) []domain.AgendaEntry {
	hoy = normalize(hoy)

	var registros []domain.AgendaEntry
	for _, cli := range clientes {
		cuit := cli.Get("cuit")
		cliente := cli.Get("razon_social")
		if cuit == "" || cliente == "" {
			continue
		}
		// Monotributo is handled by its own module.
		if EsMonotributista(cli) {
			continue
		}
		dig, ok := LastDigit(cuit)
		if !ok {
			continue
		}
		resp := Responsibilities(cli)
		if len(resp) == 0 {
			continue
		}

		for _, vto := range vencimientos {
			impuesto := strings.ToUpper(vto.Get("impuesto"))
			organismo := strings.ToUpper(vto.Get("organismo"))
			if !resp[Responsibility{impuesto, organismo}] {
				continue
			}
			if !containsDigit(ParseCohort(vto.Get("terminacion")), dig) {
				continue
			}
			mes, okM := tabular.Int(vto.Get("mes"))
			dia, okD := tabular.Int(vto.Get("dia"))
			if !okM || !okD || !validDate(hoy.Year(), mes, dia) {
				continue
			}

			// Estimated period: a deadline earlier in the calendar than the
			// reference month settles this year's period; a later one settles
			// the previous year's.
			anio := hoy.Year()
			if mes > int(hoy.Month()) {
				anio--
			}
			fechaVto := time.Date(hoy.Year(), time.Month(mes), dia, 0, 0, 0, 0, time.UTC)
			dias := daysBetween(hoy, fechaVto)

			registros = append(registros, domain.AgendaEntry{
				CUIT:          cuit,
				Cliente:       cliente,
				Impuesto:      impuesto,
				Organismo:     organismo,
				Periodo:       fmt.Sprintf("%d-%02d", anio, mes),
				FechaVto:      fechaVto,
				DiasRestantes: dias,
				Semaforo:      Semaforo(dias),
			})
		}
	}

	registros = dedupe(registros)
	sort.SliceStable(registros, func(i, j int) bool {
		a, b := registros[i], registros[j]
		if !a.FechaVto.Equal(b.FechaVto) {
			return a.FechaVto.Before(b.FechaVto)
		}
		if a.Cliente != b.Cliente {
			return a.Cliente < b.Cliente
		}
		return a.Impuesto < b.Impuesto
	})
	return registros
}

// dedupe keeps the first entry per (cuit, impuesto, organismo, periodo).
func dedupe(in []domain.AgendaEntry) []domain.AgendaEntry {
	type key struct{ cuit, imp, org, per string }
	seen := make(map[key]bool, len(in))
	out := in[:0]
	for _, e := range in {
		k := key{e.CUIT, e.Impuesto, e.Organismo, e.Periodo}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}

func containsDigit(ds []int, d int) bool {
	for _, x := range ds {
		if x == d {
			return true
		}
	}
	return false
}

func validDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return int(t.Month()) == month && t.Day() == day
}

func normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
