// Package migrations carries the schema migration files in the binary so
// startup and tests apply them regardless of working directory.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
