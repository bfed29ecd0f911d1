package sql

import _ "embed"

// Schema - DDL таблицы счёта паттернов, применяется на старте.
//
//go:embed schema.sql
var Schema string
