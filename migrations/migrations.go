// Package migrations holds the goose SQL migrations, embedded so the server
// binary can apply them without a copy of the source tree on disk.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
