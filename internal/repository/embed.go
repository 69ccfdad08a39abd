// Package repository implements sqlite persistence for templates,
// submissions, approvals and roster catalogs.
package repository

import "embed"

// MigrationsFS holds the schema migrations applied at startup.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
