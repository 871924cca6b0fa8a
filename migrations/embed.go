// Package migrations embeds the SQL schema so the server and integration
// tests can apply it through goose without a filesystem path.
package migrations

import "embed"

// FS holds all *.sql migration files.
//
//go:embed *.sql
var FS embed.FS
