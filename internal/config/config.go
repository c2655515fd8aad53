package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "ENTRYPASS"

type Config struct {
	Env string // "dev" | "prod"

	HTTPAddr string
	GRPCAddr string // empty disables gRPC

	DB     DBConfig
	Ledger LedgerConfig
	Audit  AuditConfig
	Redis  RedisConfig
	Limit  RateLimitConfig
	Events EventsConfig
}

type DBConfig struct {
	Driver string // "sqlite" | "memory"
	Path   string // e.g. "./data/entrypass.db"
}

type LedgerConfig struct {
	AllowDeposits  bool
	FaucetAccounts []string // hex addresses topped up at start-up in dev
	FaucetAmount   uint64
}

// AuditConfig controls verification log retention.
type AuditConfig struct {
	RetentionDays      int // 0 = keep forever
	PruneIntervalHours int
}

type RedisConfig struct {
	Addr     string // empty = no redis
	Password string
	DB       int
}

// RateLimitConfig is a per-client token bucket applied to the mutating
// and verify routes. Requires Redis.
type RateLimitConfig struct {
	Enabled  bool
	Capacity int     // bucket size
	Rate     float64 // tokens per second
}

type EventsConfig struct {
	Driver       string // "none" | "log" | "amqp" | "kafka"
	AMQPURL      string
	AMQPExchange string
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from, in increasing precedence: defaults, an
// optional config file (--config), a .env file, ENTRYPASS_* environment
// variables, and command-line flags.
func Load(args []string) (Config, error) {
	fs := pflag.NewFlagSet("entrypass-server", pflag.ContinueOnError)
	configFile := fs.String("config", "", "path to a YAML/TOML/JSON config file")
	envFile := fs.String("env-file", ".env", "dotenv file loaded into the environment if present")
	fs.String("http-addr", "", "HTTP listen address")
	fs.String("grpc-addr", "", "gRPC listen address")
	fs.String("db-path", "", "SQLite database path")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *envFile != "" {
		// Existing environment variables win over the file.
		if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", *envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", *configFile, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, flag := range map[string]string{
		"http.addr": "http-addr",
		"grpc.addr": "grpc-addr",
		"db.path":   "db-path",
	} {
		if f := fs.Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	cfg := bindConfig(v)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("grpc.addr", ":9090")

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.path", "./data/entrypass.db")

	v.SetDefault("ledger.allow_deposits", false)
	v.SetDefault("ledger.faucet_accounts", "")
	v.SetDefault("ledger.faucet_amount", 0)

	v.SetDefault("audit.retention_days", 30)
	v.SetDefault("audit.prune_interval_hours", 6)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.capacity", 20)
	v.SetDefault("ratelimit.rate", 10.0)

	v.SetDefault("events.driver", "none")
	v.SetDefault("events.amqp_url", "")
	v.SetDefault("events.amqp_exchange", "entrypass.events")
	v.SetDefault("events.kafka_brokers", "")
	v.SetDefault("events.kafka_topic", "entrypass-events")
}

func bindConfig(v *viper.Viper) Config {
	env := strings.ToLower(strings.TrimSpace(v.GetString("env")))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	return Config{
		Env:      env,
		HTTPAddr: v.GetString("http.addr"),
		GRPCAddr: v.GetString("grpc.addr"),
		DB: DBConfig{
			Driver: strings.ToLower(v.GetString("db.driver")),
			Path:   v.GetString("db.path"),
		},
		Ledger: LedgerConfig{
			AllowDeposits:  v.GetBool("ledger.allow_deposits"),
			FaucetAccounts: stringList(v, "ledger.faucet_accounts"),
			FaucetAmount:   v.GetUint64("ledger.faucet_amount"),
		},
		Audit: AuditConfig{
			RetentionDays:      nonNegative(v.GetInt("audit.retention_days")),
			PruneIntervalHours: nonNegative(v.GetInt("audit.prune_interval_hours")),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Limit: RateLimitConfig{
			Enabled:  v.GetBool("ratelimit.enabled"),
			Capacity: v.GetInt("ratelimit.capacity"),
			Rate:     v.GetFloat64("ratelimit.rate"),
		},
		Events: EventsConfig{
			Driver:       strings.ToLower(v.GetString("events.driver")),
			AMQPURL:      v.GetString("events.amqp_url"),
			AMQPExchange: v.GetString("events.amqp_exchange"),
			KafkaBrokers: stringList(v, "events.kafka_brokers"),
			KafkaTopic:   v.GetString("events.kafka_topic"),
		},
	}
}

func (c Config) Validate() error {
	switch c.DB.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unknown db.driver %q", c.DB.Driver)
	}
	if c.DB.Driver == "sqlite" && c.DB.Path == "" {
		return errors.New("db.path is required for the sqlite driver")
	}

	if c.Env == "prod" && c.Ledger.AllowDeposits {
		return errors.New("ledger.allow_deposits must be off in prod")
	}
	if c.Ledger.FaucetAmount > 1<<63-1 {
		return fmt.Errorf("ledger.faucet_amount %d out of range", c.Ledger.FaucetAmount)
	}

	if c.Limit.Enabled {
		if c.Redis.Addr == "" {
			return errors.New("ratelimit.enabled requires redis.addr")
		}
		if c.Limit.Capacity <= 0 || c.Limit.Rate <= 0 {
			return errors.New("ratelimit.capacity and ratelimit.rate must be positive")
		}
	}

	switch c.Events.Driver {
	case "none", "log":
	case "amqp":
		if c.Events.AMQPURL == "" {
			return errors.New("events.amqp_url is required for the amqp driver")
		}
	case "kafka":
		if len(c.Events.KafkaBrokers) == 0 {
			return errors.New("events.kafka_brokers is required for the kafka driver")
		}
	default:
		return fmt.Errorf("unknown events.driver %q", c.Events.Driver)
	}

	return nil
}

// stringList accepts either a list (config file) or a comma-separated
// string (environment).
func stringList(v *viper.Viper, key string) []string {
	if s, ok := v.Get(key).(string); ok {
		return splitCSV(s)
	}
	var out []string
	for _, s := range v.GetStringSlice(key) {
		out = append(out, splitCSV(s)...)
	}
	return out
}

func splitCSV(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
