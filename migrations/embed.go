package migrations

import "embed"

// Files holds the numbered SQL migrations applied by `physio-server migrate up`.
//
//go:embed *.sql
var Files embed.FS
