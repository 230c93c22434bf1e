// Package migrations embeds the goose SQL migrations so binaries migrate
// themselves on startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
