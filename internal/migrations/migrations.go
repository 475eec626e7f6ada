// Package migrations embeds the versioned SQL schema scripts.
//
// Files are named <timestamp>_<name>.sql and applied in ascending timestamp
// order. Scripts carry only an Up section: rollback is not supported.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
