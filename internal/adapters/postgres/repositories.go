package postgres

import (
	"context"

	"github.com/nea-data/nexuscontable-agenda-operativa/internal/tabular"
)

// TableRepository. Every column is cast to text so the loose tabular shape
// reaches the core exactly as a spreadsheet import would: lower-cased column
// names, "" for NULL, values parsed (or skipped) downstream.

const clientColumns = `
	cuit::text, razon_social::text, tipo_contibuyente::text, monotributo::text,
	iva::text, iibb_corr::text, iibb_chaco::text, ts_corr::text
`

func (db *DB) Clients(ctx context.Context) (tabular.Table, error) {
	return db.queryTable(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY razon_social`)
}

func (db *DB) ClientByCUIT(ctx context.Context, cuit string) (tabular.Row, bool, error) {
	t, err := db.queryTable(ctx, `SELECT `+clientColumns+` FROM clients WHERE cuit = $1`, cuit)
	if err != nil {
		return nil, false, err
	}
	if t.Empty() {
		return nil, false, nil
	}
	return t[0], true, nil
}

func (db *DB) DeadlineRules(ctx context.Context) (tabular.Table, error) {
	return db.queryTable(ctx, `
		SELECT impuesto::text, organismo::text, mes::text, dia::text, terminacion::text
		FROM deadline_rules
		ORDER BY mes, dia, impuesto
	`)
}

func (db *DB) MonotributoSchedule(ctx context.Context) (tabular.Table, error) {
	return db.queryTable(ctx, `SELECT mes::text, dia::text FROM monotributo_schedule ORDER BY mes`)
}

func (db *DB) DebtsForClient(ctx context.Context, cuit string) (tabular.Table, error) {
	return db.queryTable(ctx, `
		SELECT cuit::text, impuesto::text, organismo::text, periodo::text,
		       total_deuda::text, estado_deuda::text, fecha_actualizacion::text
		FROM debts
		WHERE cuit = $1
		ORDER BY total_deuda DESC NULLS LAST
	`, cuit)
}

func (db *DB) ActiveDebtCount(ctx context.Context) (int, error) {
	var n int
	err := db.Pool.QueryRow(ctx, `
		SELECT count(*) FROM debts
		WHERE upper(coalesce(estado_deuda, '')) IN ('EXIGIBLE', 'ACTIVA', 'VENCIDA')
	`).Scan(&n)
	return n, err
}

// queryTable scans any all-text projection into rows keyed by column name.
func (db *DB) queryTable(ctx context.Context, sql string, args ...any) (tabular.Table, error) {
	rows, err := db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	out := tabular.Table{}
	for rows.Next() {
		vals := make([]*string, len(fds))
		dest := make([]any, len(fds))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		r := make(tabular.Row, len(fds))
		for i, fd := range fds {
			if vals[i] != nil {
				r[string(fd.Name)] = *vals[i]
			} else {
				r[string(fd.Name)] = ""
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
