package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points CONFIG_PATH at a missing file so no real config is picked up.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Tracking.Interval)
	assert.Equal(t, 10*time.Second, cfg.Tracking.FixTimeout)
	assert.Equal(t, 5*time.Second, cfg.Tracking.FirstFixTimeout)
	assert.Equal(t, "medium", cfg.Tracking.Accuracy)
	assert.Equal(t, 5*time.Second, cfg.Tracking.InsertTimeout)
	assert.Equal(t, 512, cfg.Density.IndexMinPoints)
	assert.Equal(t, "simulator", cfg.Location.Provider)
	assert.False(t, cfg.Auth.Enabled)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("PORT", ":9090")
	t.Setenv("DB_PATH", "/tmp/points.db")
	t.Setenv("JWT_SECRET", "s3cr3t")
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("TRACKING_INTERVAL", "5s")
	t.Setenv("TRACKING_ACCURACY", "high")
	t.Setenv("TRACKING_FAILURE_ALERT_THRESHOLD", "4")
	t.Setenv("MQTT_QOS", "2")
	t.Setenv("LOCATION_BREAKER_FAILURES", "3")
	t.Setenv("TRACKING_INSERT_TIMEOUT", "750ms")
	t.Setenv("DENSITY_THRESHOLD_KM", "5")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, "/tmp/points.db", cfg.Database.Path)
	assert.Equal(t, "s3cr3t", cfg.Auth.JWTSecret)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Tracking.Interval)
	assert.Equal(t, "high", cfg.Tracking.Accuracy)
	assert.EqualValues(t, 4, cfg.Tracking.FailureAlertThreshold)
	assert.Equal(t, 750*time.Millisecond, cfg.Tracking.InsertTimeout)
	assert.Equal(t, Default().Density, cfg.Density, "the neighbor radius is not configurable")
	assert.Equal(t, 2, cfg.MQTT.QoS)
	assert.EqualValues(t, 3, cfg.Location.BreakerFailures)
	assert.Equal(t, time.Minute, cfg.Location.BreakerCooldown)
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: ":7000"
tracking:
  interval: 1m
  autostart: true
location:
  provider: serial
serial:
  port: /dev/ttyUSB0
  baud_rate: 4800
`), 0o600))
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("PORT", ":7001")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7001", cfg.Server.Port, "env wins over file")
	assert.Equal(t, time.Minute, cfg.Tracking.Interval)
	assert.True(t, cfg.Tracking.Autostart)
	assert.Equal(t, "serial", cfg.Location.Provider)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, 4800, cfg.Serial.BaudRate)
	assert.Equal(t, 10*time.Second, cfg.Tracking.FixTimeout, "untouched keys keep defaults")
}

func TestLoad_InvalidFails(t *testing.T) {
	isolate(t)
	t.Setenv("LOCATION_PROVIDER", "carrier-pigeon")

	_, err := Load()
	assert.ErrorContains(t, err, "location.provider")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"ok", func(*Config) {}, ""},
		{"empty port", func(c *Config) { c.Server.Port = "" }, "server.port"},
		{"auth without secret", func(c *Config) { c.Auth.Enabled = true; c.Auth.JWTSecret = "" }, "jwt_secret"},
		{"zero interval", func(c *Config) { c.Tracking.Interval = 0 }, "tracking interval"},
		{"bad accuracy", func(c *Config) { c.Tracking.Accuracy = "perfect" }, "tracking.accuracy"},
		{"negative threshold", func(c *Config) { c.Tracking.FailureAlertThreshold = -1 }, "failure_alert_threshold"},
		{"zero insert timeout", func(c *Config) { c.Tracking.InsertTimeout = 0 }, "tracking interval"},
		{"failure rate", func(c *Config) { c.Simulator.FailureRate = 1.5 }, "failure_rate"},
		{"mqtt without topic", func(c *Config) { c.Location.Provider = "mqtt"; c.MQTT.Topic = "" }, "mqtt.broker"},
		{"serial without port", func(c *Config) { c.Location.Provider = "serial" }, "serial.port"},
		{"qos", func(c *Config) { c.MQTT.QoS = 3 }, "mqtt.qos"},
		{"burst", func(c *Config) { c.Server.RateLimitBurst = 0 }, "rate_limit_burst"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
