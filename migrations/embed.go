// Package migrations embeds the SQL migration files.
package migrations

import "embed"

//go:embed postgres/*.sql
var FS embed.FS

// Dir is the directory within FS where the postgres migrations live.
const Dir = "postgres"
