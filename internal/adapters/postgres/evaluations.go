package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nea-data/nexuscontable-agenda-operativa/internal/domain"
)

// EvaluationRepository

func (db *DB) Create(ctx context.Context, referenceDate time.Time) (string, error) {
	var evalID string
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO evaluations (reference_date, status, progress)
		VALUES ($1, 'queued', 0)
		RETURNING id
	`, referenceDate).Scan(&evalID)
	if err != nil {
		return "", err
	}
	// create job row
	_, err = db.Pool.Exec(ctx, `INSERT INTO evaluation_jobs (evaluation_id) VALUES ($1)`, evalID)
	return evalID, err
}

func (db *DB) Status(ctx context.Context, evaluationID string) (string, float64, error) {
	var status string
	var progress float64
	err := db.Pool.QueryRow(ctx, `SELECT status, progress FROM evaluations WHERE id = $1`, evaluationID).
		Scan(&status, &progress)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", 0, ErrNotFound
	}
	return status, progress, err
}

func (db *DB) ReferenceDate(ctx context.Context, evaluationID string) (time.Time, error) {
	var d time.Time
	err := db.Pool.QueryRow(ctx, `SELECT reference_date FROM evaluations WHERE id = $1`, evaluationID).Scan(&d)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	return d.UTC(), err
}

// SaveAgenda replaces the evaluation's snapshot atomically.
func (db *DB) SaveAgenda(ctx context.Context, evaluationID string, entries []domain.AgendaEntry) error {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM agenda_entries WHERE evaluation_id = $1`, evaluationID); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err = tx.Exec(ctx, `
			INSERT INTO agenda_entries
				(evaluation_id, cuit, cliente, impuesto, organismo, periodo,
				 fecha_vto, dias_restantes, semaforo, estado)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, evaluationID, e.CUIT, e.Cliente, e.Impuesto, e.Organismo, e.Periodo,
			e.FechaVto, e.DiasRestantes, e.Semaforo, e.Estado); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) SaveAssessment(ctx context.Context, evaluationID, cuit, cliente string, a domain.RiskAssessment) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return err
	}
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO risk_assessments (evaluation_id, cuit, cliente, score, nivel, accion_sugerida, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (evaluation_id, cuit) DO UPDATE
		SET score = EXCLUDED.score, nivel = EXCLUDED.nivel,
		    accion_sugerida = EXCLUDED.accion_sugerida, payload = EXCLUDED.payload
	`, evaluationID, cuit, cliente, a.Score, a.Nivel, a.AccionSugerida, payload)
	return err
}

func (db *DB) LatestAgenda(ctx context.Context) ([]domain.AgendaEntry, time.Time, bool, error) {
	evalID, refDate, found, err := db.latestCompleted(ctx)
	if err != nil || !found {
		return nil, time.Time{}, false, err
	}
	entries, err := db.agendaEntries(ctx, `WHERE evaluation_id = $1`, evalID)
	return entries, refDate, true, err
}

func (db *DB) LatestAgendaForClient(ctx context.Context, cuit string) ([]domain.AgendaEntry, time.Time, bool, error) {
	evalID, refDate, found, err := db.latestCompleted(ctx)
	if err != nil || !found {
		return nil, time.Time{}, false, err
	}
	entries, err := db.agendaEntries(ctx, `WHERE evaluation_id = $1 AND cuit = $2`, evalID, cuit)
	return entries, refDate, true, err
}

func (db *DB) LatestAssessment(ctx context.Context, cuit string) (domain.RiskAssessment, bool, error) {
	var payload []byte
	err := db.Pool.QueryRow(ctx, `
		SELECT r.payload
		FROM risk_assessments r
		JOIN evaluations e ON e.id = r.evaluation_id
		WHERE r.cuit = $1 AND e.status = 'completed'
		ORDER BY e.finished_at DESC
		LIMIT 1
	`, cuit).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RiskAssessment{}, false, nil
	}
	if err != nil {
		return domain.RiskAssessment{}, false, err
	}
	var a domain.RiskAssessment
	if err := json.Unmarshal(payload, &a); err != nil {
		return domain.RiskAssessment{}, false, err
	}
	return a, true, nil
}

func (db *DB) latestCompleted(ctx context.Context) (string, time.Time, bool, error) {
	var evalID string
	var refDate time.Time
	err := db.Pool.QueryRow(ctx, `
		SELECT id, reference_date FROM evaluations
		WHERE status = 'completed'
		ORDER BY finished_at DESC
		LIMIT 1
	`).Scan(&evalID, &refDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", time.Time{}, false, nil
	}
	if err != nil {
		return "", time.Time{}, false, err
	}
	return evalID, refDate.UTC(), true, nil
}

func (db *DB) agendaEntries(ctx context.Context, where string, args ...any) ([]domain.AgendaEntry, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT cuit, cliente, impuesto, organismo, periodo,
		       fecha_vto, dias_restantes, semaforo, estado
		FROM agenda_entries
		`+where+`
		ORDER BY fecha_vto, cliente, impuesto
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.AgendaEntry{}
	for rows.Next() {
		var e domain.AgendaEntry
		if err := rows.Scan(&e.CUIT, &e.Cliente, &e.Impuesto, &e.Organismo, &e.Periodo,
			&e.FechaVto, &e.DiasRestantes, &e.Semaforo, &e.Estado); err != nil {
			return nil, err
		}
		e.FechaVto = e.FechaVto.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
