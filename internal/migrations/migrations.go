// Package migrations embeds the goose SQL migrations shared by the sqlite and
// postgres stores. Statements stay within the common subset of both dialects.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
