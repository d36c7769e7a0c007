package database

import _ "embed"

// Schema is the full schema produced by applying every migration.
// Tests use it to set up in-memory stores without running migrations.
//
//go:embed sqlc/schema.sql
var Schema string

// Regenerate sqlc/schema.sql from the migrations, then the sqlc bindings.
//go:generate sh -c "cd ../.. && go run internal/database/tools/generate_schema.go"
//go:generate sh -c "cd ../.. && sqlc generate -f internal/database/sqlc/sqlc.yaml"
