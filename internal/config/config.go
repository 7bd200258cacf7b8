package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default API hosts selected by environment
const (
	ProductionBaseURL  = "https://api.edcenter.uz/api"
	DevelopmentBaseURL = "http://localhost:5000/api"
)

// Config holds all front desk configuration
type Config struct {
	App     AppConfig
	API     APIConfig
	Storage StorageConfig
	Wallet  WalletConfig
	Log       LogConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name     string
	Env      string
	Language string // en, ru, uz
}

// APIConfig holds settings for the backend REST API
type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// StorageConfig selects where session-scoped and durable client state lives
type StorageConfig struct {
	SessionDriver string // memory, file, redis
	SessionPath   string
	DurableDriver string // file, sqlite
	DurablePath   string
	Redis         RedisConfig
}

// RedisConfig holds Redis connection settings for shared kiosk sessions
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// WalletConfig holds client-side top-up bounds, in major currency units.
// The server remains authoritative; these only mirror its limits.
type WalletConfig struct {
	MinTopUp     int64
	MaxTopUp     int64
	QuickAmounts []int64
	ReasonMaxLen int
}

// TelemetryConfig selects where request spans are exported. An empty
// OTLPEndpoint keeps spans in-process, where they only supply log trace ids.
type TelemetryConfig struct {
	OTLPEndpoint  string // host:port of an OTLP/gRPC collector
	Insecure      bool
	SamplingRatio float64
	ServiceName   string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// Load loads configuration from a TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with FRONTDESK_ prefix (e.g., FRONTDESK_API_BASE_URL)
// 2. frontdesk.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("frontdesk")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/frontdesk")
	v.AddConfigPath("/etc/frontdesk")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return fromViper(v)
}

// LoadFile loads configuration from an explicit file path, still honouring env overrides
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("FRONTDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:     v.GetString("app.name"),
			Env:      v.GetString("app.env"),
			Language: v.GetString("app.language"),
		},
		API: APIConfig{
			BaseURL:   v.GetString("api.base_url"),
			Timeout:   v.GetDuration("api.timeout"),
			UserAgent: v.GetString("api.user_agent"),
		},
		Storage: StorageConfig{
			SessionDriver: v.GetString("storage.session_driver"),
			SessionPath:   v.GetString("storage.session_path"),
			DurableDriver: v.GetString("storage.durable_driver"),
			DurablePath:   v.GetString("storage.durable_path"),
			Redis: RedisConfig{
				Addr:     v.GetString("storage.redis.addr"),
				Password: v.GetString("storage.redis.password"),
				DB:       v.GetInt("storage.redis.db"),
				Prefix:   v.GetString("storage.redis.prefix"),
				TTL:      v.GetDuration("storage.redis.ttl"),
			},
		},
		Wallet: WalletConfig{
			MinTopUp:     v.GetInt64("wallet.min_top_up"),
			MaxTopUp:     v.GetInt64("wallet.max_top_up"),
			QuickAmounts: toInt64s(v.GetIntSlice("wallet.quick_amounts")),
			ReasonMaxLen: v.GetInt("wallet.reason_max_len"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint:  v.GetString("telemetry.otlp_endpoint"),
			Insecure:      v.GetBool("telemetry.insecure"),
			SamplingRatio: 1,
			ServiceName:   v.GetString("telemetry.service_name"),
		},
	}
	if v.IsSet("telemetry.sampling_ratio") {
		cfg.Telemetry.SamplingRatio = v.GetFloat64("telemetry.sampling_ratio")
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func toInt64s(in []int) []int64 {
	if len(in) == 0 {
		return nil
	}
	out := make([]int64, len(in))
	for i, n := range in {
		out[i] = int64(n)
	}
	return out
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "frontdesk"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "production"
	}
	if cfg.App.Language == "" {
		cfg.App.Language = "uz"
	}
	if cfg.API.BaseURL == "" {
		if cfg.IsDevelopment() {
			cfg.API.BaseURL = DevelopmentBaseURL
		} else {
			cfg.API.BaseURL = ProductionBaseURL
		}
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}
	if cfg.API.UserAgent == "" {
		cfg.API.UserAgent = "frontdesk/1.0"
	}
	if cfg.Storage.SessionDriver == "" {
		cfg.Storage.SessionDriver = "file"
	}
	if cfg.Storage.SessionPath == "" {
		cfg.Storage.SessionPath = "frontdesk-session.json"
	}
	if cfg.Storage.DurableDriver == "" {
		cfg.Storage.DurableDriver = "sqlite"
	}
	if cfg.Storage.DurablePath == "" {
		cfg.Storage.DurablePath = "frontdesk-device.db"
	}
	if cfg.Storage.Redis.Addr == "" {
		cfg.Storage.Redis.Addr = "localhost:6379"
	}
	if cfg.Storage.Redis.Prefix == "" {
		cfg.Storage.Redis.Prefix = "frontdesk:session:"
	}
	if cfg.Storage.Redis.TTL == 0 {
		cfg.Storage.Redis.TTL = 12 * time.Hour
	}
	if cfg.Wallet.MinTopUp == 0 {
		cfg.Wallet.MinTopUp = 1000
	}
	if cfg.Wallet.MaxTopUp == 0 {
		cfg.Wallet.MaxTopUp = 10000000
	}
	if len(cfg.Wallet.QuickAmounts) == 0 {
		cfg.Wallet.QuickAmounts = []int64{50000, 100000, 200000, 500000, 1000000}
	}
	if cfg.Wallet.ReasonMaxLen == 0 {
		cfg.Wallet.ReasonMaxLen = 200
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
}

// validate checks that the configuration is coherent
func (c *Config) validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api.base_url %q", c.API.BaseURL)
	}

	switch c.App.Language {
	case "en", "ru", "uz":
	default:
		return fmt.Errorf("unsupported app.language %q (en, ru, uz)", c.App.Language)
	}

	switch c.Storage.SessionDriver {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("unsupported storage.session_driver %q", c.Storage.SessionDriver)
	}

	switch c.Storage.DurableDriver {
	case "file", "sqlite":
	default:
		return fmt.Errorf("unsupported storage.durable_driver %q", c.Storage.DurableDriver)
	}

	if c.Wallet.MinTopUp <= 0 {
		return fmt.Errorf("wallet.min_top_up must be positive")
	}
	if c.Wallet.MaxTopUp < c.Wallet.MinTopUp {
		return fmt.Errorf("wallet.max_top_up (%d) is below wallet.min_top_up (%d)", c.Wallet.MaxTopUp, c.Wallet.MinTopUp)
	}

	if r := c.Telemetry.SamplingRatio; r < 0 || r > 1 {
		return fmt.Errorf("telemetry.sampling_ratio %v must be between 0 and 1", r)
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
