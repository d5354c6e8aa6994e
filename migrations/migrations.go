// Package migrations embeds the SQL migrations for the inventory read model.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
