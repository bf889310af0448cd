// Package migrations embeds the goose SQL migration files for the world
// server's Postgres schema.
package migrations

import "embed"

// FS holds every *.sql migration, embedded for goose.SetBaseFS.
//
//go:embed *.sql
var FS embed.FS
