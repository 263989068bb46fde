package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
)

// Store types.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Postgres adapters.
const (
	AdapterPGX   = "pgx"
	AdapterSQLDB = "sqldb"
	AdapterSQLX  = "sqlx"
)

// Change feed listeners.
const (
	ListenerPGX = "pgx"
	ListenerPQ  = "pq"
)

// Mail providers.
const (
	MailResend = "resend"
	MailLog    = "log"
)

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrReadingConfigFile is returned when the YAML file cannot be read or parsed.
	ErrReadingConfigFile = errors.New("reading config file failed")
)

// Config is the complete daemon configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Store       string            `yaml:"store"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	ChangeFeed  ChangeFeedConfig  `yaml:"change_feed"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
	Sweep       SweepConfig       `yaml:"sweep"`
	Notice      NoticeConfig      `yaml:"notice"`
	Mail        MailConfig        `yaml:"mail"`
	Auth        AuthConfig        `yaml:"auth"`
	ReturnToken ReturnTokenConfig `yaml:"return_token"`
	Attachments AttachmentsConfig `yaml:"attachments"`
	Seed        SeedConfig        `yaml:"seed"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// PostgresConfig configures the database pools.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	ReplicaDSN      string        `yaml:"replica_dsn"`
	Adapter         string        `yaml:"adapter"`
	MaxConns        int           `yaml:"max_conns"`
	MinConns        int           `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	Migrate         bool          `yaml:"migrate"`
}

// ChangeFeedConfig configures the LISTEN/NOTIFY follower.
type ChangeFeedConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Listener string `yaml:"listener"`
}

// ScheduleConfig holds closing times per weekday, e.g. monday: "16:00". Missing days are closed.
type ScheduleConfig struct {
	Closing map[string]string `yaml:"closing"`
}

// SweepConfig configures the periodic triggers.
type SweepConfig struct {
	OverdueInterval      time.Duration `yaml:"overdue_interval"`
	NotificationInterval time.Duration `yaml:"notification_interval"`
	Concurrency          int           `yaml:"concurrency"`
}

// NoticeConfig configures the late notice dispatcher.
type NoticeConfig struct {
	ClaimLease   time.Duration `yaml:"claim_lease"`
	SendTimeout  time.Duration `yaml:"send_timeout"`
	Facility     string        `yaml:"facility"`
	ContactEmail string        `yaml:"contact_email"`
}

// MailConfig configures the mail provider.
type MailConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	From     string `yaml:"from"`
	BaseURL  string `yaml:"base_url"`
}

// AuthConfig holds the bearer token secrets.
type AuthConfig struct {
	JWTSecret  string `yaml:"jwt_secret"`
	Issuer     string `yaml:"issuer"`
	CronSecret string `yaml:"cron_secret"`
}

// ReturnTokenConfig configures the return token codec.
type ReturnTokenConfig struct {
	Key string `yaml:"key"`
}

// AttachmentsConfig locates stored attachments.
type AttachmentsConfig struct {
	Root string `yaml:"root"`
}

// SeedConfig points to a YAML fleet file loaded into the store at startup.
type SeedConfig struct {
	File string `yaml:"file"`
}

// TelemetryConfig configures logging and OpenTelemetry.
type TelemetryConfig struct {
	ServiceName string `yaml:"service_name"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	OTel        bool   `yaml:"otel"`

	// OTLPEndpoint is the gRPC collector receiving traces and metrics.
	OTLPEndpoint string        `yaml:"otlp_endpoint"`
	OTLPInsecure bool          `yaml:"otlp_insecure"`
	MetricPeriod time.Duration `yaml:"metric_period"`
}

// Default returns the configuration used before any file, environment variable or flag applies.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Store: StorePostgres,
		Postgres: PostgresConfig{
			Adapter:         AdapterPGX,
			MaxConns:        20,
			MinConns:        2,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 5 * time.Minute,
			ConnectTimeout:  5 * time.Second,
			Migrate:         true,
		},
		ChangeFeed: ChangeFeedConfig{
			Enabled:  true,
			Listener: ListenerPGX,
		},
		Schedule: ScheduleConfig{
			Closing: map[string]string{
				"monday":    "16:00",
				"tuesday":   "16:00",
				"wednesday": "16:00",
				"thursday":  "16:00",
				"friday":    "16:00",
				"saturday":  "12:00",
			},
		},
		Sweep: SweepConfig{
			OverdueInterval:      15 * time.Minute,
			NotificationInterval: 30 * time.Minute,
			Concurrency:          4,
		},
		Notice: NoticeConfig{
			ClaimLease:  5 * time.Minute,
			SendTimeout: 30 * time.Second,
			Facility:    "IPB Bike Center",
		},
		Mail: MailConfig{
			Provider: MailLog,
		},
		Attachments: AttachmentsConfig{
			Root: "./attachments",
		},
		Telemetry: TelemetryConfig{
			ServiceName:  "loan-engine",
			LogLevel:     "info",
			LogFormat:    LogFormatJSON,
			OTLPEndpoint: "localhost:4317",
			MetricPeriod: 15 * time.Second,
		},
	}
}

// loadFile merges a YAML file into c.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Join(ErrReadingConfigFile, err)
	}

	// yaml merges into existing maps, a file listing closing times replaces the defaults
	defaultClosing := c.Schedule.Closing
	c.Schedule.Closing = nil

	if err = yaml.Unmarshal(data, c); err != nil {
		return errors.Join(ErrReadingConfigFile, err)
	}

	if c.Schedule.Closing == nil {
		c.Schedule.Closing = defaultClosing
	}

	return nil
}

// FacilitySchedule builds the weekly schedule from the closing times.
func (c *Config) FacilitySchedule() (core.Schedule, error) {
	closing := make(map[time.Weekday]core.ClosingTime, len(c.Schedule.Closing))

	for name, value := range c.Schedule.Closing {
		day, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return core.Schedule{}, fmt.Errorf("%w: unknown weekday %q", ErrInvalidConfig, name)
		}

		closingTime, err := core.ParseClosingTime(value)
		if err != nil {
			return core.Schedule{}, errors.Join(ErrInvalidConfig, err)
		}

		closing[day] = closingTime
	}

	return core.NewSchedule(core.FacilityLocation(), closing)
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// LogLevel parses telemetry.log_level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Telemetry.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: telemetry.log_level: %w", ErrInvalidConfig, err)
	}

	return level, nil
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.Postgres.DSN == "" {
			fail("postgres.dsn is required for the postgres store")
		}

		switch c.Postgres.Adapter {
		case AdapterPGX, AdapterSQLDB, AdapterSQLX:
		default:
			fail("unknown postgres.adapter %q", c.Postgres.Adapter)
		}

		if c.Postgres.ReplicaDSN != "" && c.Postgres.Adapter != AdapterPGX {
			fail("postgres.replica_dsn needs the pgx adapter")
		}

		if c.Postgres.MaxConns < 1 || c.Postgres.MinConns < 0 || c.Postgres.MinConns > c.Postgres.MaxConns {
			fail("postgres connection limits are inconsistent")
		}
	default:
		fail("unknown store %q", c.Store)
	}

	if c.ChangeFeed.Enabled && c.Store == StorePostgres {
		switch c.ChangeFeed.Listener {
		case ListenerPGX:
			if c.Postgres.Adapter != AdapterPGX {
				fail("change_feed.listener pgx needs the pgx adapter")
			}
		case ListenerPQ:
		default:
			fail("unknown change_feed.listener %q", c.ChangeFeed.Listener)
		}
	}

	if _, err := c.FacilitySchedule(); err != nil {
		fail("schedule: %v", err)
	}

	if c.Sweep.OverdueInterval <= 0 || c.Sweep.NotificationInterval <= 0 {
		fail("sweep intervals must be positive")
	}

	if c.Notice.ClaimLease <= 0 {
		fail("notice.claim_lease must be positive")
	}

	if c.Notice.SendTimeout <= 0 || c.Notice.SendTimeout >= c.Notice.ClaimLease {
		fail("notice.send_timeout must be positive and shorter than notice.claim_lease")
	}

	switch c.Mail.Provider {
	case MailLog:
	case MailResend:
		if c.Mail.APIKey == "" || c.Mail.From == "" {
			fail("mail.api_key and mail.from are required for resend")
		}
	default:
		fail("unknown mail.provider %q", c.Mail.Provider)
	}

	if c.Auth.JWTSecret == "" {
		fail("auth.jwt_secret is required")
	}

	if c.Auth.CronSecret == "" {
		fail("auth.cron_secret is required")
	}

	switch c.Telemetry.LogFormat {
	case LogFormatJSON, LogFormatText:
	default:
		fail("unknown telemetry.log_format %q", c.Telemetry.LogFormat)
	}

	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}

	if c.Telemetry.OTel && (c.Telemetry.OTLPEndpoint == "" || c.Telemetry.MetricPeriod <= 0) {
		fail("telemetry.otlp_endpoint and a positive telemetry.metric_period are required with otel")
	}

	return errors.Join(errs...)
}
