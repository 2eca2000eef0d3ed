package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/nea-data/nexuscontable-agenda-operativa/internal/domain"
)

// CommRepository

func (db *DB) Append(ctx context.Context, ev domain.CommEvent) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO communications (id, fecha, cuit, cliente, canal, motivo, estado, asunto, mensaje)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, ev.ID, ev.Fecha, ev.CUIT, ev.Cliente, ev.Canal, ev.Motivo, ev.Estado, ev.Asunto, ev.Mensaje)
	return err
}

func (db *DB) HistoryForClient(ctx context.Context, cuit string) ([]domain.CommEvent, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, fecha, cuit, cliente, canal, motivo, estado, asunto, mensaje
		FROM communications
		WHERE cuit = $1
		ORDER BY fecha DESC
	`, cuit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.CommEvent{}
	for rows.Next() {
		var ev domain.CommEvent
		if err := rows.Scan(&ev.ID, &ev.Fecha, &ev.CUIT, &ev.Cliente, &ev.Canal,
			&ev.Motivo, &ev.Estado, &ev.Asunto, &ev.Mensaje); err != nil {
			return nil, err
		}
		ev.Fecha = ev.Fecha.UTC()
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (db *DB) LastForClient(ctx context.Context, cuit string) (domain.CommEvent, bool, error) {
	var ev domain.CommEvent
	err := db.Pool.QueryRow(ctx, `
		SELECT id, fecha, cuit, cliente, canal, motivo, estado, asunto, mensaje
		FROM communications
		WHERE cuit = $1
		ORDER BY fecha DESC
		LIMIT 1
	`, cuit).Scan(&ev.ID, &ev.Fecha, &ev.CUIT, &ev.Cliente, &ev.Canal,
		&ev.Motivo, &ev.Estado, &ev.Asunto, &ev.Mensaje)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CommEvent{}, false, nil
	}
	if err != nil {
		return domain.CommEvent{}, false, err
	}
	ev.Fecha = ev.Fecha.UTC()
	return ev, true, nil
}
