// Package migrations embeds the goose SQL migrations for the address store.
package migrations

import "embed"

//go:embed *.sql
var MigrationsFS embed.FS
