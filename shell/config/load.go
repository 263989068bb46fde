package config

import (
	"errors"
	"strings"

	"github.com/spf13/pflag"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "LOANENGINE_"

	// EnvConfigFile names the YAML file when --config is not given.
	EnvConfigFile = EnvPrefix + "CONFIG"

	flagConfig = "config"
)

// LookupEnv reads an environment variable, like os.LookupEnv.
type LookupEnv func(key string) (string, bool)

// Load builds the configuration from defaults, the YAML file, the environment and args (without the program name).
// The result is validated.
func Load(name string, args []string, lookupEnv LookupEnv) (*Config, error) {
	cfg := Default()

	path, err := configPath(name, args, lookupEnv)
	if err != nil {
		return nil, err
	}

	if path != "" {
		if err = cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String(flagConfig, path, "path to the YAML configuration file")
	cfg.bindFlags(fs)

	if err = applyEnv(fs, lookupEnv); err != nil {
		return nil, err
	}

	if err = fs.Parse(args); err != nil {
		return nil, err
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// configPath finds --config before the other flags are known.
func configPath(name string, args []string, lookupEnv LookupEnv) (string, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}

	path := fs.String(flagConfig, "", "")
	if err := fs.Parse(args); err != nil && !errors.Is(err, pflag.ErrHelp) {
		return "", err
	}

	if *path == "" {
		if fromEnv, ok := lookupEnv(EnvConfigFile); ok {
			return fromEnv, nil
		}
	}

	return *path, nil
}

// bindFlags registers one flag per setting, defaulting to the value loaded so far.
func (c *Config) bindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.HTTP.Addr, "http-addr", c.HTTP.Addr, "listen address of the HTTP API")
	fs.DurationVar(&c.HTTP.ReadTimeout, "http-read-timeout", c.HTTP.ReadTimeout, "HTTP read timeout")
	fs.DurationVar(&c.HTTP.WriteTimeout, "http-write-timeout", c.HTTP.WriteTimeout, "HTTP write timeout")
	fs.DurationVar(&c.HTTP.ShutdownTimeout, "http-shutdown-timeout", c.HTTP.ShutdownTimeout, "graceful shutdown timeout")

	fs.StringVar(&c.Store, "store", c.Store, "loan store: postgres or memory")
	fs.StringVar(&c.Postgres.DSN, "postgres-dsn", c.Postgres.DSN, "PostgreSQL primary DSN")
	fs.StringVar(&c.Postgres.ReplicaDSN, "postgres-replica-dsn", c.Postgres.ReplicaDSN, "PostgreSQL replica DSN for eventually consistent reads")
	fs.StringVar(&c.Postgres.Adapter, "postgres-adapter", c.Postgres.Adapter, "database adapter: pgx, sqldb or sqlx")
	fs.IntVar(&c.Postgres.MaxConns, "postgres-max-conns", c.Postgres.MaxConns, "maximum open connections")
	fs.IntVar(&c.Postgres.MinConns, "postgres-min-conns", c.Postgres.MinConns, "minimum idle connections")
	fs.DurationVar(&c.Postgres.MaxConnLifetime, "postgres-max-conn-lifetime", c.Postgres.MaxConnLifetime, "maximum connection lifetime")
	fs.DurationVar(&c.Postgres.MaxConnIdleTime, "postgres-max-conn-idle-time", c.Postgres.MaxConnIdleTime, "maximum connection idle time")
	fs.DurationVar(&c.Postgres.ConnectTimeout, "postgres-connect-timeout", c.Postgres.ConnectTimeout, "connect timeout")
	fs.BoolVar(&c.Postgres.Migrate, "postgres-migrate", c.Postgres.Migrate, "apply schema migrations on start")

	fs.BoolVar(&c.ChangeFeed.Enabled, "change-feed", c.ChangeFeed.Enabled, "follow loan_overdue notifications")
	fs.StringVar(&c.ChangeFeed.Listener, "change-feed-listener", c.ChangeFeed.Listener, "change feed listener: pgx or pq")

	fs.StringToStringVar(&c.Schedule.Closing, "schedule-closing", c.Schedule.Closing, "closing time per weekday, e.g. monday=16:00")

	fs.DurationVar(&c.Sweep.OverdueInterval, "overdue-sweep-interval", c.Sweep.OverdueInterval, "interval of the overdue sweep")
	fs.DurationVar(&c.Sweep.NotificationInterval, "notification-sweep-interval", c.Sweep.NotificationInterval, "interval of the notification sweep")
	fs.IntVar(&c.Sweep.Concurrency, "notification-concurrency", c.Sweep.Concurrency, "parallel notice deliveries per sweep")

	fs.DurationVar(&c.Notice.ClaimLease, "notice-claim-lease", c.Notice.ClaimLease, "how long a dispatcher owns a late notice")
	fs.DurationVar(&c.Notice.SendTimeout, "notice-send-timeout", c.Notice.SendTimeout, "timeout of one mail delivery")
	fs.StringVar(&c.Notice.Facility, "notice-facility", c.Notice.Facility, "facility name printed in notices")
	fs.StringVar(&c.Notice.ContactEmail, "notice-contact-email", c.Notice.ContactEmail, "contact address printed in notices")

	fs.StringVar(&c.Mail.Provider, "mail-provider", c.Mail.Provider, "mail provider: resend or log")
	fs.StringVar(&c.Mail.APIKey, "mail-api-key", c.Mail.APIKey, "mail provider API key")
	fs.StringVar(&c.Mail.From, "mail-from", c.Mail.From, "sender address")
	fs.StringVar(&c.Mail.BaseURL, "mail-base-url", c.Mail.BaseURL, "mail provider API base URL")

	fs.StringVar(&c.Auth.JWTSecret, "jwt-secret", c.Auth.JWTSecret, "HS256 secret of bearer tokens")
	fs.StringVar(&c.Auth.Issuer, "jwt-issuer", c.Auth.Issuer, "required token issuer")
	fs.StringVar(&c.Auth.CronSecret, "cron-secret", c.Auth.CronSecret, "bearer secret of the cron endpoints")

	fs.StringVar(&c.ReturnToken.Key, "return-token-key", c.ReturnToken.Key, "return token key")
	fs.StringVar(&c.Attachments.Root, "attachments-root", c.Attachments.Root, "directory holding loan attachments")

	fs.StringVar(&c.Seed.File, "seed-file", c.Seed.File, "YAML file with assets and borrowers to upsert at startup")

	fs.StringVar(&c.Telemetry.ServiceName, "service-name", c.Telemetry.ServiceName, "service name for telemetry")
	fs.StringVar(&c.Telemetry.LogLevel, "log-level", c.Telemetry.LogLevel, "debug, info, warn or error")
	fs.StringVar(&c.Telemetry.LogFormat, "log-format", c.Telemetry.LogFormat, "json or text")
	fs.BoolVar(&c.Telemetry.OTel, "otel", c.Telemetry.OTel, "record metrics and traces with OpenTelemetry")
	fs.StringVar(&c.Telemetry.OTLPEndpoint, "otlp-endpoint", c.Telemetry.OTLPEndpoint, "OTLP gRPC collector address")
	fs.BoolVar(&c.Telemetry.OTLPInsecure, "otlp-insecure", c.Telemetry.OTLPInsecure, "connect to the collector without TLS")
	fs.DurationVar(&c.Telemetry.MetricPeriod, "otel-metric-period", c.Telemetry.MetricPeriod, "interval between metric exports")
}

// applyEnv sets every flag that has an environment twin.
func applyEnv(fs *pflag.FlagSet, lookupEnv LookupEnv) error {
	var errs []error

	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == flagConfig {
			return
		}

		if value, ok := lookupEnv(EnvName(f.Name)); ok {
			if err := fs.Set(f.Name, value); err != nil {
				errs = append(errs, errors.Join(ErrInvalidConfig, err))
			}
		}
	})

	return errors.Join(errs...)
}

// EnvName returns the environment variable that overrides a flag.
func EnvName(flagName string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}
