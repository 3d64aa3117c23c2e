// Package migrations embeds the schema migration scripts.
package migrations

import "embed"

// FS holds every NNNN_name.sql script in this directory.
//
//go:embed *.sql
var FS embed.FS
