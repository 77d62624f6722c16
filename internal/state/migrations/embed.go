// Package migrations embeds the SQL migrations for the app-owned state DB.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
