package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names the environment variable pointing at a YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are tried in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{"config.yaml", "/etc/trackheat/config.yaml"}

// Config 应用配置
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Auth      AuthConfig      `koanf:"auth"`
	Tracking  TrackingConfig  `koanf:"tracking"`
	Density   DensityConfig   `koanf:"density"`
	Location  LocationConfig  `koanf:"location"`
	Simulator SimulatorConfig `koanf:"simulator"`
	MQTT      MQTTConfig      `koanf:"mqtt"`
	Serial    SerialConfig    `koanf:"serial"`
	Log       LogConfig       `koanf:"log"`
}

type ServerConfig struct {
	Port            string        `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RateLimitRPS    float64       `koanf:"rate_limit_rps"`   // per client IP; 0 disables
	RateLimitBurst  int           `koanf:"rate_limit_burst"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// AuthConfig guards the mutating API routes with HS256 bearer tokens
type AuthConfig struct {
	Enabled   bool          `koanf:"enabled"`
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

type TrackingConfig struct {
	Interval              time.Duration `koanf:"interval"`
	FixTimeout            time.Duration `koanf:"fix_timeout"`
	FirstFixTimeout       time.Duration `koanf:"first_fix_timeout"`
	InsertTimeout         time.Duration `koanf:"insert_timeout"`
	Accuracy              string        `koanf:"accuracy"` // lowest, low, medium, high, best
	Autostart             bool          `koanf:"autostart"`
	FailureAlertThreshold int64         `koanf:"failure_alert_threshold"` // 0 disables
}

// DensityConfig tunes the neighbor counter. The 100 m neighbor radius is fixed.
type DensityConfig struct {
	IndexMinPoints int `koanf:"index_min_points"` // <0 disables the s2 index
}

// LocationConfig selects the fix provider: simulator, mqtt or serial
type LocationConfig struct {
	Provider        string        `koanf:"provider"`
	BreakerFailures uint32        `koanf:"breaker_failures"` // 0 disables the circuit breaker
	BreakerCooldown time.Duration `koanf:"breaker_cooldown"`
}

type SimulatorConfig struct {
	HomeLatitude     float64       `koanf:"home_latitude"`
	HomeLongitude    float64       `koanf:"home_longitude"`
	StepMeters       float64       `koanf:"step_meters"`
	RadiusMeters     float64       `koanf:"radius_meters"`
	FailureRate      float64       `koanf:"failure_rate"`
	Latency          time.Duration `koanf:"latency"`
	Seed             int64         `koanf:"seed"`
	PermissionDenied bool          `koanf:"permission_denied"`
}

type MQTTConfig struct {
	Broker         string        `koanf:"broker"`
	ClientID       string        `koanf:"client_id"`
	Topic          string        `koanf:"topic"`
	QoS            int           `koanf:"qos"`
	MaxFixAge      time.Duration `koanf:"max_fix_age"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

type SerialConfig struct {
	Port      string        `koanf:"port"`
	BaudRate  int           `koanf:"baud_rate"`
	MaxFixAge time.Duration `koanf:"max_fix_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimitRPS:    10,
			RateLimitBurst:  20,
		},
		Database: DatabaseConfig{Path: "./data/tracks/locations.db"},
		Auth: AuthConfig{
			JWTSecret: "your-secret-key-change-in-production",
			TokenTTL:  24 * time.Hour,
		},
		Tracking: TrackingConfig{
			Interval:        30 * time.Second,
			FixTimeout:      10 * time.Second,
			FirstFixTimeout: 5 * time.Second,
			InsertTimeout:   5 * time.Second,
			Accuracy:        "medium",
		},
		Density:  DensityConfig{IndexMinPoints: 512},
		Location: LocationConfig{Provider: "simulator", BreakerCooldown: time.Minute},
		Simulator: SimulatorConfig{
			HomeLatitude:  22.5431,
			HomeLongitude: 114.0579,
			StepMeters:    40,
			RadiusMeters:  2000,
			FailureRate:   0.05,
		},
		MQTT: MQTTConfig{
			Broker:         "tcp://localhost:1883",
			ClientID:       "trackheat",
			Topic:          "trackheat/device/fix",
			QoS:            1,
			MaxFixAge:      time.Minute,
			ConnectTimeout: 10 * time.Second,
		},
		Serial: SerialConfig{BaudRate: 9600, MaxFixAge: 5 * time.Second},
		Log:    LogConfig{Level: "info", Format: "console"},
	}
}

// Load 加载配置: defaults, then the optional YAML file, then environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
		return ""
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envMappings maps environment variables (lower-cased) to config keys.
var envMappings = map[string]string{
	"port":                             "server.port",
	"read_timeout":                     "server.read_timeout",
	"write_timeout":                    "server.write_timeout",
	"shutdown_timeout":                 "server.shutdown_timeout",
	"rate_limit_rps":                   "server.rate_limit_rps",
	"rate_limit_burst":                 "server.rate_limit_burst",
	"db_path":                          "database.path",
	"auth_enabled":                     "auth.enabled",
	"jwt_secret":                       "auth.jwt_secret",
	"jwt_token_ttl":                    "auth.token_ttl",
	"tracking_interval":                "tracking.interval",
	"tracking_fix_timeout":             "tracking.fix_timeout",
	"tracking_first_fix_timeout":       "tracking.first_fix_timeout",
	"tracking_insert_timeout":          "tracking.insert_timeout",
	"tracking_accuracy":                "tracking.accuracy",
	"tracking_autostart":               "tracking.autostart",
	"tracking_failure_alert_threshold": "tracking.failure_alert_threshold",
	"density_index_min_points":         "density.index_min_points",
	"location_provider":                "location.provider",
	"location_breaker_failures":        "location.breaker_failures",
	"location_breaker_cooldown":        "location.breaker_cooldown",
	"simulator_home_latitude":          "simulator.home_latitude",
	"simulator_home_longitude":         "simulator.home_longitude",
	"simulator_failure_rate":           "simulator.failure_rate",
	"simulator_seed":                   "simulator.seed",
	"mqtt_broker":                      "mqtt.broker",
	"mqtt_client_id":                   "mqtt.client_id",
	"mqtt_topic":                       "mqtt.topic",
	"mqtt_qos":                         "mqtt.qos",
	"serial_port":                      "serial.port",
	"serial_baud_rate":                 "serial.baud_rate",
	"log_level":                        "log.level",
	"log_format":                       "log.format",
	"log_caller":                       "log.caller",
}

// envTransform returns "" for unmapped variables so unrelated environment
// does not leak into the config.
func envTransform(key string) string {
	return envMappings[strings.ToLower(key)]
}

var validProviders = map[string]bool{"simulator": true, "mqtt": true, "serial": true}

var validAccuracies = map[string]bool{"lowest": true, "low": true, "medium": true, "high": true, "best": true}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.Server.RateLimitRPS < 0 || (c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst < 1) {
		errs = append(errs, errors.New("server.rate_limit_burst must be >= 1 when rate limiting is enabled"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required when auth is enabled"))
	}
	if c.Tracking.Interval <= 0 || c.Tracking.FixTimeout <= 0 || c.Tracking.FirstFixTimeout <= 0 || c.Tracking.InsertTimeout <= 0 {
		errs = append(errs, errors.New("tracking interval and timeouts must be positive"))
	}
	if !validAccuracies[strings.ToLower(c.Tracking.Accuracy)] {
		errs = append(errs, fmt.Errorf("tracking.accuracy %q is not one of lowest, low, medium, high, best", c.Tracking.Accuracy))
	}
	if c.Tracking.FailureAlertThreshold < 0 {
		errs = append(errs, errors.New("tracking.failure_alert_threshold must not be negative"))
	}
	if !validProviders[c.Location.Provider] {
		errs = append(errs, fmt.Errorf("location.provider %q is not one of simulator, mqtt, serial", c.Location.Provider))
	}
	if c.Simulator.FailureRate < 0 || c.Simulator.FailureRate > 1 {
		errs = append(errs, errors.New("simulator.failure_rate must be within [0,1]"))
	}
	if c.Location.Provider == "mqtt" && (c.MQTT.Broker == "" || c.MQTT.Topic == "") {
		errs = append(errs, errors.New("mqtt.broker and mqtt.topic are required for the mqtt provider"))
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, errors.New("mqtt.qos must be 0, 1 or 2"))
	}
	if c.Location.Provider == "serial" && c.Serial.Port == "" {
		errs = append(errs, errors.New("serial.port is required for the serial provider"))
	}

	return errors.Join(errs...)
}
