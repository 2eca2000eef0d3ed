// Package comms manages the append-only communication log and the message
// template catalog used to draft client contacts.
package comms

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nea-data/nexuscontable-agenda-operativa/internal/domain"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/ports"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/tabular"
)

// Template is one pre-drafted message. Mensaje may contain "{cliente}".
type Template struct {
	Canal   string `json:"canal"`
	Motivo  string `json:"motivo"`
	Asunto  string `json:"asunto"`
	Mensaje string `json:"mensaje"`
}

// Motivos with a fixed meaning across channels.
const (
	MotivoRecordatorio  = "Recordatorio vencimientos"
	MotivoAvisoDeuda    = "Aviso de deuda"
	MotivoDocumentacion = "Solicitud de documentación"
)

var catalog = []Template{
	{"WhatsApp", MotivoRecordatorio, "Recordatorio vencimientos",
		"Hola {cliente}, te recordamos vencimientos próximos. Avisanos si necesitás algo."},
	{"WhatsApp", MotivoAvisoDeuda, "Aviso de deuda",
		"Hola {cliente}, detectamos una deuda pendiente. Podemos evaluar opciones."},
	{"WhatsApp", MotivoDocumentacion, "Solicitud de documentación",
		"Hola {cliente}, necesitamos documentación para continuar con presentaciones."},
	{"Email", "Recordatorio mensual", "Recordatorio mensual de obligaciones",
		"Estimado/a {cliente},\n\nLe recordamos vencimientos fiscales próximos.\n\nSaludos."},
	{"Email", MotivoAvisoDeuda, "Aviso de deuda pendiente",
		"Estimado/a {cliente},\n\nSe registra deuda pendiente. Podemos evaluar plan de pagos.\n\nSaludos."},
	{"Email", MotivoDocumentacion, "Solicitud de documentación",
		"Estimado/a {cliente},\n\nPara continuar con la gestión necesitamos documentación.\n\nSaludos."},
}

// Templates returns the catalog, optionally filtered by channel.
func Templates(canal string) []Template {
	if canal == "" {
		return catalog
	}
	out := []Template{}
	for _, t := range catalog {
		if strings.EqualFold(t.Canal, canal) {
			out = append(out, t)
		}
	}
	return out
}

// Suggested picks a motivo from the client's situation: debts beat upcoming
// vencimientos; a quiet client suggests nothing.
func Suggested(hasDebts, hasVencimientos bool) string {
	switch {
	case hasDebts:
		return MotivoAvisoDeuda
	case hasVencimientos:
		return MotivoRecordatorio
	default:
		return ""
	}
}

// Render interpolates the client name into a template body.
func Render(mensaje, cliente string) string {
	return strings.ReplaceAll(mensaje, "{cliente}", cliente)
}

// LastContact is the badge shown next to a client.
type LastContact struct {
	Canal  string    `json:"canal"`
	Fecha  time.Time `json:"fecha"`
	Dias   int       `json:"dias"`
	Motivo string    `json:"motivo"`
}

// Service persists and reads the log.
type Service struct {
	repo ports.CommRepository
}

func New(repo ports.CommRepository) *Service { return &Service{repo: repo} }

// Register appends one event. Estado defaults to ENVIADO; Fecha and ID are
// assigned here when absent.
func (s *Service) Register(ctx context.Context, ev domain.CommEvent) (domain.CommEvent, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Fecha.IsZero() {
		ev.Fecha = time.Now().UTC()
	}
	if ev.Estado == "" {
		ev.Estado = domain.ComEnviado
	}
	ev.Estado = strings.ToUpper(ev.Estado)
	if err := s.repo.Append(ctx, ev); err != nil {
		return domain.CommEvent{}, err
	}
	return ev, nil
}

// History returns the client's events, newest first.
func (s *Service) History(ctx context.Context, cuit string) ([]domain.CommEvent, error) {
	evs, err := s.repo.HistoryForClient(ctx, cuit)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(evs, func(i, j int) bool { return evs[i].Fecha.After(evs[j].Fecha) })
	return evs, nil
}

// Last returns the badge for the client's most recent contact.
func (s *Service) Last(ctx context.Context, cuit string, hoy time.Time) (LastContact, bool, error) {
	ev, found, err := s.repo.LastForClient(ctx, cuit)
	if err != nil || !found {
		return LastContact{}, false, err
	}
	dias := int(hoy.Sub(ev.Fecha).Hours() / 24)
	return LastContact{Canal: ev.Canal, Fecha: ev.Fecha, Dias: dias, Motivo: ev.Motivo}, true, nil
}

// Rows converts events into the loose tabular shape the risk engine scores.
func Rows(evs []domain.CommEvent) tabular.Table {
	out := make(tabular.Table, 0, len(evs))
	for _, ev := range evs {
		out = append(out, tabular.Row{
			"fecha":  ev.Fecha.Format("2006-01-02 15:04:05"),
			"cuit":   ev.CUIT,
			"canal":  ev.Canal,
			"motivo": ev.Motivo,
			"estado": ev.Estado,
			"asunto": ev.Asunto,
		})
	}
	return out
}
