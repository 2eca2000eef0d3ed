package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nea-data/nexuscontable-agenda-operativa/internal/domain"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/ports"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/services/clients"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/services/comms"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/services/control"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/services/monotributo"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/services/risk"
	"github.com/nea-data/nexuscontable-agenda-operativa/internal/workers/evalrunner"
)

// Server wires the service layer to the JSON API.
type Server struct {
	evaluator ports.Evaluator
	evals     ports.EvaluationRepository
	tables    ports.TableRepository
	jobs      ports.JobRepository
	clients   *clients.Service
	comms     *comms.Service
	mono      *monotributo.Service
	processor evalrunner.Processor
}

func New(evaluator ports.Evaluator, evals ports.EvaluationRepository, tables ports.TableRepository,
	jobs ports.JobRepository, cl *clients.Service, cm *comms.Service, mono *monotributo.Service,
	processor evalrunner.Processor) *Server {
	return &Server{
		evaluator: evaluator, evals: evals, tables: tables, jobs: jobs,
		clients: cl, comms: cm, mono: mono, processor: processor,
	}
}

// Routes returns the chi router for the whole API.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.getHealthz)

	r.Post("/evaluations", s.postEvaluation)
	r.Get("/evaluations/{id}", s.getEvaluation)

	r.Get("/agenda", s.getAgenda)
	r.Get("/agenda/kpis", s.getKPIs)

	r.Get("/communications/templates", s.getTemplates)

	r.Route("/clients", func(r chi.Router) {
		r.Get("/", s.getClients)
		r.Route("/{cuit}", func(r chi.Router) {
			r.Get("/agenda", s.getClientAgenda)
			r.Get("/risk", s.getClientRisk)
			r.Get("/debts", s.getClientDebts)
			r.Get("/monotributo", s.getClientMonotributo)
			r.Get("/communications", s.getClientComms)
			r.Post("/communications", s.postClientComm)
			r.Get("/communications/last", s.getClientLastContact)
			r.Get("/communications/suggested", s.getClientSuggested)
		})
	})
	return r
}

func (s *Server) getHealthz(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

type evaluationRequest struct {
	ReferenceDate string `json:"reference_date,omitempty"`
}

type evaluationResponse struct {
	ID       string  `json:"id"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
}

func (s *Server) postEvaluation(w http.ResponseWriter, r *http.Request) {
	var req evaluationRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid body")
			return
		}
	}
	var refDate time.Time
	if req.ReferenceDate != "" {
		var err error
		refDate, err = time.Parse("2006-01-02", req.ReferenceDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "reference_date must be YYYY-MM-DD")
			return
		}
	}

	id, err := s.evaluator.Enqueue(r.Context(), refDate)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Blocking path for small portfolios and tests
	if r.URL.Query().Get("wait") == "true" {
		timeout := 30
		if t, err := strconv.Atoi(r.URL.Query().Get("timeout")); err == nil && t > 0 {
			timeout = t
		}
		ctx, cancel := context.WithTimeout(r.Context(), time.Duration(timeout)*time.Second)
		defer cancel()
		// Use the same processor the workers use to keep logic DRY
		if err := evalrunner.ProcessInline(ctx, s.jobs, s.processor, id); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		status, progress, err := s.evaluator.Status(ctx, id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respond(w, http.StatusOK, evaluationResponse{ID: id, Status: status, Progress: progress})
		return
	}
	respond(w, http.StatusAccepted, map[string]string{"evaluation_id": id})
}

func (s *Server) getEvaluation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	status, progress, err := s.evaluator.Status(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "evaluation not found")
		return
	}
	respond(w, http.StatusOK, evaluationResponse{ID: id, Status: status, Progress: progress})
}

type agendaResponse struct {
	ReferenceDate string        `json:"reference_date"`
	Window        string        `json:"window,omitempty"`
	Entries       []agendaEntry `json:"entries"`
}

func (s *Server) getAgenda(w http.ResponseWriter, r *http.Request) {
	entries, refDate, found, err := s.evals.LatestAgenda(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "no completed evaluation yet")
		return
	}

	window := r.URL.Query().Get("window")
	switch window {
	case "overdue":
		entries = control.Vencidos(entries, refDate)
	case "week":
		entries = control.Proximos(entries, refDate, 7)
	case "month":
		entries = control.Proximos(entries, refDate, 30)
	case "":
	default:
		respondError(w, http.StatusBadRequest, "window must be overdue, week or month")
		return
	}
	respond(w, http.StatusOK, agendaResponse{
		ReferenceDate: refDate.Format("2006-01-02"),
		Window:        window,
		Entries:       toAgendaEntries(entries),
	})
}

type kpisResponse struct {
	domain.KPIs
	EnRiesgo int    `json:"en_riesgo"`
	Estado   string `json:"estado"`
}

func (s *Server) getKPIs(w http.ResponseWriter, r *http.Request) {
	entries, refDate, found, err := s.evals.LatestAgenda(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "no completed evaluation yet")
		return
	}
	deudasActivas, err := s.tables.ActiveDebtCount(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	vencidos := control.Vencidos(entries, refDate)
	semana := control.Proximos(entries, refDate, 7)
	respond(w, http.StatusOK, kpisResponse{
		KPIs:     control.KPIs(entries),
		EnRiesgo: len(semana),
		Estado:   control.Estado(len(vencidos), len(semana), deudasActivas),
	})
}

func (s *Server) getClients(w http.ResponseWriter, r *http.Request) {
	list, err := s.clients.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, list)
}

func (s *Server) getClientAgenda(w http.ResponseWriter, r *http.Request) {
	cuit := chi.URLParam(r, "cuit")
	entries, refDate, found, err := s.evals.LatestAgendaForClient(r.Context(), cuit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "no completed evaluation yet")
		return
	}
	respond(w, http.StatusOK, agendaResponse{
		ReferenceDate: refDate.Format("2006-01-02"),
		Entries:       toAgendaEntries(entries),
	})
}

func (s *Server) getClientRisk(w http.ResponseWriter, r *http.Request) {
	cuit := chi.URLParam(r, "cuit")
	a, err := s.clients.LatestRisk(r.Context(), cuit)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			respondError(w, http.StatusNotFound, "no assessment for client")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, a)
}

func (s *Server) getClientDebts(w http.ResponseWriter, r *http.Request) {
	cuit := chi.URLParam(r, "cuit")
	deudas, err := s.tables.DebtsForClient(r.Context(), cuit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, risk.FilterActive(deudas))
}

func (s *Server) getClientMonotributo(w http.ResponseWriter, r *http.Request) {
	cuit := chi.URLParam(r, "cuit")
	res, err := s.mono.Resumen(r.Context(), cuit, r.URL.Query().Get("categoria"), time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, monotributo.ErrNotFound):
			respondError(w, http.StatusNotFound, "client not found")
		case errors.Is(err, monotributo.ErrNoMonotributista):
			respondError(w, http.StatusNotFound, "client is not monotributista")
		default:
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	respond(w, http.StatusOK, res)
}

func (s *Server) getClientComms(w http.ResponseWriter, r *http.Request) {
	cuit := chi.URLParam(r, "cuit")
	evs, err := s.comms.History(r.Context(), cuit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, evs)
}

type commRequest struct {
	Canal   string `json:"canal"`
	Motivo  string `json:"motivo"`
	Estado  string `json:"estado,omitempty"`
	Asunto  string `json:"asunto"`
	Mensaje string `json:"mensaje"`
}

func (s *Server) postClientComm(w http.ResponseWriter, r *http.Request) {
	cuit := chi.URLParam(r, "cuit")
	var req commRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Canal == "" || req.Mensaje == "" {
		respondError(w, http.StatusBadRequest, "canal and mensaje are required")
		return
	}

	cli, err := s.clients.Get(r.Context(), cuit)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			respondError(w, http.StatusNotFound, "client not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	nombre := cli.Get("razon_social")

	ev, err := s.comms.Register(r.Context(), domain.CommEvent{
		CUIT:    cuit,
		Cliente: nombre,
		Canal:   req.Canal,
		Motivo:  req.Motivo,
		Estado:  req.Estado,
		Asunto:  req.Asunto,
		Mensaje: comms.Render(req.Mensaje, nombre),
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusCreated, ev)
}

func (s *Server) getClientLastContact(w http.ResponseWriter, r *http.Request) {
	cuit := chi.URLParam(r, "cuit")
	lc, found, err := s.comms.Last(r.Context(), cuit, time.Now().UTC())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "no communications for client")
		return
	}
	respond(w, http.StatusOK, lc)
}

func (s *Server) getClientSuggested(w http.ResponseWriter, r *http.Request) {
	cuit := chi.URLParam(r, "cuit")
	deudas, err := s.tables.DebtsForClient(r.Context(), cuit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	entries, _, _, err := s.evals.LatestAgendaForClient(r.Context(), cuit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	motivo := comms.Suggested(!risk.FilterActive(deudas).Empty(), len(entries) > 0)
	respond(w, http.StatusOK, map[string]string{"motivo": motivo})
}

func (s *Server) getTemplates(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, comms.Templates(r.URL.Query().Get("canal")))
}

// agendaEntry is the wire shape of one agenda row.
type agendaEntry struct {
	CUIT          string `json:"cuit"`
	Cliente       string `json:"cliente"`
	Impuesto      string `json:"impuesto"`
	Organismo     string `json:"organismo"`
	Periodo       string `json:"periodo_estimado"`
	FechaVto      string `json:"fecha_vto"`
	DiasRestantes int    `json:"dias_restantes"`
	Semaforo      string `json:"semaforo"`
	Estado        string `json:"estado_agenda,omitempty"`
}

func toAgendaEntries(in []domain.AgendaEntry) []agendaEntry {
	out := make([]agendaEntry, 0, len(in))
	for _, e := range in {
		out = append(out, agendaEntry{
			CUIT:          e.CUIT,
			Cliente:       e.Cliente,
			Impuesto:      e.Impuesto,
			Organismo:     e.Organismo,
			Periodo:       e.Periodo,
			FechaVto:      e.FechaVto.Format("2006-01-02"),
			DiasRestantes: e.DiasRestantes,
			Semaforo:      e.Semaforo,
			Estado:        e.Estado,
		})
	}
	return out
}

func respond(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, code int, msg string) {
	respond(w, code, map[string]string{"error": msg})
}
