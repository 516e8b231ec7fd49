// Package migrations embeds the versioned postgres schema.
package migrations

import "embed"

//go:embed postgres/*.sql
var Postgres embed.FS

// PostgresDir is the directory inside Postgres holding the files
const PostgresDir = "postgres"
