// Package migrations embeds SQL migration files.
package migrations

import "embed"

// FS contains the Postgres schema migrations (NNNN_name_up.sql / NNNN_name_down.sql).
//
//go:embed *.sql
var FS embed.FS
