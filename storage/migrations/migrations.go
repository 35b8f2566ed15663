// Package migrations embeds the SQL migrations of the postgres store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Dir is the migrations directory within FS.
const Dir = "."
