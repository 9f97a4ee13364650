// Package migrations embeds the repository's versioned SQL schema,
// applied in order at startup with the applied version recorded in
// schema_meta — a direct, database/sql-only rendition of the teacher's
// upgrade-table idea (pkg/memory/migrations) without pulling in the
// Matrix-specific upgrades package it builds on.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS

// Ordered lists the migration files in application order.
var Ordered = []string{
	"0001_init.sql",
}
