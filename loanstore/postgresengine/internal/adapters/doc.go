// Package adapters provide database adapter implementations for the PostgreSQL loan store.
//
// This package implements the adapter pattern to support multiple PostgreSQL database libraries:
// pgxpool.Pool, sql.DB, and sqlx.DB. All adapters provide equivalent functionality through
// a common DBAdapter interface, including transactions, so the loan store can apply a loan
// transition and its asset write atomically with any supported connection type.
package adapters
