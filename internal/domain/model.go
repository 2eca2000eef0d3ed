package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Core domain models used internally. HTTP payload shapes live in the HTTP
// adapter; keep these decoupled where helpful.

// Urgency indicator per agenda entry (semáforo). Values mirror the sheets
// the firm is used to reading.
const (
	SemaforoVencido = "🔴"
	SemaforoUrgente = "🟠"
	SemaforoNormal  = "🟢"
)

// Agenda statuses optionally tagged by the evaluation pipeline.
const (
	EstadoVencido = "VENCIDO"
	EstadoOK      = "OK"
)

// AgendaEntry is one derived filing obligation for one client. Recomputed in
// full on every evaluation; never mutated in place.
// Uniqueness key: (CUIT, Impuesto, Organismo, Periodo).
type AgendaEntry struct {
	CUIT          string
	Cliente       string
	Impuesto      string
	Organismo     string
	Periodo       string // estimated fiscal period, "YYYY-MM"
	FechaVto      time.Time
	DiasRestantes int
	Semaforo      string
	Estado        string // optional: VENCIDO / OK, tagged upstream
}

// KPIs aggregates an agenda snapshot.
type KPIs struct {
	Obligaciones int `json:"obligaciones"`
	Vencidas     int `json:"vencidas"`
	OK           int `json:"ok"`
	Clientes     int `json:"clientes"`
}

// Risk levels. Composite ceiling is 90 (30+10 vencimientos, 40 deuda,
// 20 comunicación); the caps intentionally do not normalize to 100.
const (
	NivelCritico = "CRÍTICO"
	NivelAlto    = "ALTO"
	NivelMedio   = "MEDIO"
	NivelBajo    = "BAJO"
)

// Communication status values as stored in the log.
const (
	ComEnviado      = "ENVIADO"
	ComPendiente    = "PENDIENTE"
	ComRespondido   = "RESPONDIDO"
	ComSinHistorial = "SIN HISTORIAL"
	ComSinRespuesta = "ENVIADO SIN RESPUESTA"
	ComOK           = "OK"
)

// VencimientoBuckets splits a client's agenda by days remaining:
// críticos <=7, próximos 8..30, futuros >30.
type VencimientoBuckets struct {
	Criticos []AgendaEntry `json:"criticos"`
	Proximos []AgendaEntry `json:"proximos"`
	Futuros  []AgendaEntry `json:"futuros"`
}

// Composicion carries the capped component scores and their sum.
type Composicion struct {
	Vencimientos int `json:"vencimientos"`
	Deudas       int `json:"deudas"`
	Comunicacion int `json:"comunicacion"`
	Total        int `json:"total"`
}

// RiesgoDeuda is the debt side of an assessment.
type RiesgoDeuda struct {
	TotalDeuda         decimal.Decimal `json:"total_deuda"`
	Organismos         []string        `json:"organismos"`
	AntiguedadMaxMeses int             `json:"antiguedad_max_meses"`
	AccionSugerida     string          `json:"accion_sugerida,omitempty"`
}

// EstadoComunicacion is the communication side of an assessment.
type EstadoComunicacion struct {
	Estado           string `json:"estado"`
	CanalRecomendado string `json:"canal_recomendado,omitempty"`
	DiasSinRespuesta *int   `json:"dias_sin_respuesta,omitempty"`
	AccionSugerida   string `json:"accion_sugerida,omitempty"`
}

// RiskAssessment is the full per-client result of the risk engine.
type RiskAssessment struct {
	Score          int                `json:"score"`
	Nivel          string             `json:"nivel"`
	Color          string             `json:"color"`
	AccionSugerida string             `json:"accion_sugerida"`
	Chips          []string           `json:"chips"`
	Composicion    Composicion        `json:"composicion"`
	Vencimientos   VencimientoBuckets `json:"riesgo_vencimientos"`
	Deuda          RiesgoDeuda        `json:"riesgo_deuda"`
	Comunicacion   EstadoComunicacion `json:"estado_comunicacion"`
}

// CommEvent is one entry of the append-only communication log.
type CommEvent struct {
	ID      string    `json:"id"`
	Fecha   time.Time `json:"fecha"`
	CUIT    string    `json:"cuit"`
	Cliente string    `json:"cliente"`
	Canal   string    `json:"canal"`
	Motivo  string    `json:"motivo"`
	Estado  string    `json:"estado"`
	Asunto  string    `json:"asunto"`
	Mensaje string    `json:"mensaje"`
}

// Evaluation is one portfolio evaluation run.
type Evaluation struct {
	ID            string
	ReferenceDate time.Time
	Status        string // queued|running|completed|failed
	Progress      float64
	StartedAt     *time.Time
	FinishedAt    *time.Time
}

// Monotributo payment states.
const (
	PagoVencido   = "VENCIDO"
	PagoPendiente = "PENDIENTE"
	PagoConDeuda  = "CON_DEUDA"
)

// MonoPago is one monthly monotributo payment slot for a client.
type MonoPago struct {
	Periodo        string          `json:"periodo"`
	FechaPago      time.Time       `json:"fecha_pago"`
	DeudaDetectada decimal.Decimal `json:"deuda_detectada"`
	EstadoPago     string          `json:"estado_pago"`
	DiasRestantes  int             `json:"dias_restantes"`
	Semaforo       string          `json:"semaforo"`
}

// Recategorizacion is a semiannual recategorization event.
type Recategorizacion struct {
	Evento        string    `json:"evento"`
	Fecha         time.Time `json:"fecha"`
	DiasRestantes int       `json:"dias_restantes"`
	Semaforo      string    `json:"semaforo"`
}

// FacturacionMes is one simulated monthly billing figure.
type FacturacionMes struct {
	Periodo     string          `json:"periodo"`
	Facturacion decimal.Decimal `json:"facturacion"`
	Acumulado   decimal.Decimal `json:"acumulado"`
}

// ControlFacturacion is the billing-cap check against the category ceiling.
type ControlFacturacion struct {
	Categoria      string           `json:"categoria"`
	Tope           decimal.Decimal  `json:"tope"`
	Acumulado      decimal.Decimal  `json:"acumulado"`
	PorcentajeTope float64          `json:"porcentaje_tope"`
	Riesgo         string           `json:"riesgo"`
	Meses          []FacturacionMes `json:"meses"`
}
