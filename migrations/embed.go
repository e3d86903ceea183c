package migrations

import "embed"

// Files holds the versioned schema migrations applied by `migrate up`.
//
//go:embed *.sql
var Files embed.FS
