// Package migrations embeds the SQL schema so the migrate tool and the test
// containers apply the same files.
package migrations

import "embed"

// FS holds every NNNNNN_name.{up,down}.sql file.
//
//go:embed *.sql
var FS embed.FS
