// Package migrations holds the loan engine's PostgreSQL schema and applies it.
//
// Migrations are embedded SQL files applied in filename order under an advisory lock.
// Applied files are recorded in schema_migrations, so Apply is safe to call on every start.
package migrations
