package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabasesConfig `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Profile   ProfileConfig   `mapstructure:"aspsp_profile"`
	Connector ConnectorConfig `mapstructure:"connector"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Hostname     string        `mapstructure:"hostname"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`
	Mode         string        `mapstructure:"mode"`
}

// DatabasesConfig holds all database configurations
type DatabasesConfig struct {
	Xs2a DatabaseConfig `mapstructure:"xs2a"`
}

// DatabaseConfig holds individual database configuration
type DatabaseConfig struct {
	Type            string        `mapstructure:"type"`
	Hostname        string        `mapstructure:"hostname"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ProfileConfig holds the ASPSP profile source and the per-instance settings.
// Instance ids are matched case-insensitively.
type ProfileConfig struct {
	DefaultInstance string                         `mapstructure:"default_instance"`
	CacheTTL        time.Duration                  `mapstructure:"cache_ttl"`
	RemoteURL       string                         `mapstructure:"remote_url"`
	RemoteTimeout   time.Duration                  `mapstructure:"remote_timeout"`
	Instances       map[string]AspspSettingsConfig `mapstructure:"instances"`
}

// AspspSettingsConfig is the static ASPSP profile of one instance.
type AspspSettingsConfig struct {
	SupportedScaApproaches                   []string `mapstructure:"supported_sca_approaches"`
	AisRedirectURL                           string   `mapstructure:"ais_redirect_url"`
	PiisRedirectURL                          string   `mapstructure:"piis_redirect_url"`
	PisRedirectURL                           string   `mapstructure:"pis_redirect_url"`
	PisCancellationRedirectURL               string   `mapstructure:"pis_cancellation_redirect_url"`
	AuthorisationConfirmationRequestMandated bool     `mapstructure:"authorisation_confirmation_request_mandated"`
}

// ConnectorConfig holds the bank connector endpoint configuration
type ConnectorConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AuditConfig selects the audit sinks and their endpoints
type AuditConfig struct {
	Sinks   []string         `mapstructure:"sinks"`
	HTTPURL string           `mapstructure:"http_url"`
	Redis   RedisAuditConfig `mapstructure:"redis"`
}

// RedisAuditConfig holds the redis stream the audit sink appends to
type RedisAuditConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Stream   string `mapstructure:"stream"`
	MaxLen   int64  `mapstructure:"max_len"`
}

// MetricsConfig holds prometheus exposure settings
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

var globalConfig *Config

var validApproaches = map[string]bool{
	"REDIRECT":  true,
	"EMBEDDED":  true,
	"DECOUPLED": true,
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// ./repository/conf is the layout next to a packaged binary,
		// ./cmd/server/repository/conf is the source tree.
		v.SetConfigName("deployment")
		v.SetConfigType("yaml")
		v.AddConfigPath("./repository/conf")
		v.AddConfigPath("./cmd/server/repository/conf")
		v.AddConfigPath("../repository/conf")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix("XS2A_SCA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	globalConfig = &config
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.hostname", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.xs2a.type", "mysql")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("aspsp_profile.cache_ttl", "5m")
	v.SetDefault("aspsp_profile.remote_timeout", "5s")
	v.SetDefault("connector.timeout", "10s")
	v.SetDefault("audit.sinks", []string{"log"})
	v.SetDefault("audit.redis.stream", "xs2a:audit")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Database.Xs2a.Hostname == "" {
		return fmt.Errorf("database hostname is required")
	}

	if config.Database.Xs2a.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if config.Connector.BaseURL == "" {
		return fmt.Errorf("connector base URL is required")
	}

	if config.Profile.RemoteURL == "" {
		if config.Profile.DefaultInstance == "" {
			return fmt.Errorf("aspsp profile default instance is required")
		}
		if _, ok := config.Profile.Instance(config.Profile.DefaultInstance); !ok {
			return fmt.Errorf("aspsp profile default instance %q is not configured", config.Profile.DefaultInstance)
		}
	}

	for id, instance := range config.Profile.Instances {
		if len(instance.SupportedScaApproaches) == 0 {
			return fmt.Errorf("aspsp profile instance %q has no supported SCA approaches", id)
		}
		for _, approach := range instance.SupportedScaApproaches {
			if !validApproaches[strings.ToUpper(approach)] {
				return fmt.Errorf("aspsp profile instance %q has unknown SCA approach %q", id, approach)
			}
		}
	}

	for _, sink := range config.Audit.Sinks {
		switch strings.ToLower(sink) {
		case "log":
		case "http":
			if config.Audit.HTTPURL == "" {
				return fmt.Errorf("audit http_url is required when the http sink is enabled")
			}
		case "redis":
			if config.Audit.Redis.Address == "" {
				return fmt.Errorf("audit redis address is required when the redis sink is enabled")
			}
		default:
			return fmt.Errorf("unknown audit sink %q", sink)
		}
	}

	return nil
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// SetGlobal sets the global configuration (for testing purposes)
func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

// GetDSN returns the database connection string
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
		d.User,
		d.Password,
		d.Hostname,
		d.Port,
		d.Database,
	)
}

// GetServerAddress returns the server address in host:port format
func (s *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", s.Hostname, s.Port)
}

// Instance returns the settings of the given instance, falling back to the default instance
// when instanceID is empty.
func (p *ProfileConfig) Instance(instanceID string) (AspspSettingsConfig, bool) {
	if instanceID == "" {
		instanceID = p.DefaultInstance
	}
	settings, ok := p.Instances[strings.ToLower(instanceID)]
	return settings, ok
}
