// Package config loads the daemon configuration.
//
// Values are layered: built-in defaults, then the YAML file named by --config or LOANENGINE_CONFIG,
// then LOANENGINE_* environment variables, then command-line flags. Every flag has an environment
// twin: --postgres-dsn is LOANENGINE_POSTGRES_DSN.
//
// The package also holds the PostgreSQL pool factories for the three supported adapters.
package config
