package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the NeuroBot client.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Backend   BackendConfig   `yaml:"backend"`
	Window    WindowConfig    `yaml:"window"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Chat      ChatConfig      `yaml:"chat"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Chart     ChartConfig     `yaml:"chart"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// BackendConfig describes where the NeuroBot backend lives.
type BackendConfig struct {
	// Origin is the page origin the channel address is derived from,
	// e.g. "https://neurobot.example.com". An https origin selects wss.
	Origin string `yaml:"origin"`

	// Path is the channel path on the origin host.
	Path string `yaml:"path"`
}

// WindowConfig contains rolling sample window settings.
type WindowConfig struct {
	Capacity int `yaml:"capacity"`

	// Prefill starts the window with Capacity zeros, matching a chart
	// that begins as a flat line.
	Prefill bool `yaml:"prefill"`
}

// ReconnectConfig contains channel reconnection settings.
type ReconnectConfig struct {
	// BaseDelay is the per-attempt delay in milliseconds (delay = base × attempt).
	BaseDelay int `yaml:"base_delay"`

	// MaxAttempts is the number of consecutive retries before giving up.
	MaxAttempts int `yaml:"max_attempts"`

	// HandshakeTimeout bounds the WebSocket opening handshake (seconds).
	HandshakeTimeout int `yaml:"handshake_timeout"`
}

// ChatConfig contains transcript settings.
type ChatConfig struct {
	// History is the number of entries kept in memory.
	History int `yaml:"history"`

	// Console echoes transcript entries to stdout and reads chat input from stdin.
	Console bool `yaml:"console"`
}

// DatabaseConfig contains SQLite transcript store settings.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool             `yaml:"enabled"`
	Broker      MQTTBrokerConfig `yaml:"broker"`
	Auth        MQTTAuthConfig   `yaml:"auth"`
	QoS         int              `yaml:"qos"`
	TopicPrefix string           `yaml:"topic_prefix"`
	Reconnect   MQTTReconnect    `yaml:"reconnect"`

	// AcceptChat subscribes to {prefix}/chat/submit and feeds each payload
	// into chat submission.
	AcceptChat bool `yaml:"accept_chat"`
}

// MQTTReconnect contains broker reconnection settings (seconds).
// Paho backs off exponentially between the two bounds.
type MQTTReconnect struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains local HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains settings for the local event relay.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// ChartConfig contains PNG snapshot dimensions.
type ChartConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// When allowMissing is true a non-existent file is not an error and the
// defaults are used as the base for the environment overrides.
//
// Environment variables follow the pattern: NEUROBOT_SECTION_KEY
// For example: NEUROBOT_BACKEND_ORIGIN, NEUROBOT_API_PORT
func Load(path string, allowMissing bool) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case allowMissing && errors.Is(err, fs.ErrNotExist):
		// defaults only
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration without reading any file.
func Default() *Config {
	return defaultConfig()
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			Origin: "http://localhost:8000",
			Path:   "/ws/neuro/",
		},
		Window: WindowConfig{
			Capacity: 50,
			Prefill:  true,
		},
		Reconnect: ReconnectConfig{
			BaseDelay:        2000,
			MaxAttempts:      5,
			HandshakeTimeout: 10,
		},
		Chat: ChatConfig{
			History: 200,
			Console: true,
		},
		Database: DatabaseConfig{
			Path:        "./data/neurobot.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "neurobot-client",
			},
			QoS:         1,
			TopicPrefix: "neurobot",
			Reconnect: MQTTReconnect{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Chart: ChartConfig{
			Width:  800,
			Height: 300,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: NEUROBOT_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Backend
	if v := os.Getenv("NEUROBOT_BACKEND_ORIGIN"); v != "" {
		cfg.Backend.Origin = v
	}

	// Database
	if v := os.Getenv("NEUROBOT_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("NEUROBOT_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("NEUROBOT_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("NEUROBOT_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("NEUROBOT_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("NEUROBOT_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// InfluxDB
	if v := os.Getenv("NEUROBOT_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("NEUROBOT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// All problems are collected and reported together.
func (c *Config) Validate() error {
	var errs []string

	// Backend validation
	if u, err := url.Parse(c.Backend.Origin); err != nil || u.Host == "" {
		errs = append(errs, "backend.origin must be an absolute URL with a host")
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, "backend.origin scheme must be http or https")
	}
	if !strings.HasPrefix(c.Backend.Path, "/") {
		errs = append(errs, "backend.path must start with /")
	}

	// Window validation
	if c.Window.Capacity < 1 {
		errs = append(errs, "window.capacity must be at least 1")
	}

	// Reconnect validation
	if c.Reconnect.BaseDelay < 0 {
		errs = append(errs, "reconnect.base_delay must not be negative")
	}
	if c.Reconnect.MaxAttempts < 0 {
		errs = append(errs, "reconnect.max_attempts must not be negative")
	}

	// Chat validation
	if c.Chat.History < 1 {
		errs = append(errs, "chat.history must be at least 1")
	}

	// Database validation
	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when the database is enabled")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
	}
	if c.MQTT.Enabled && strings.Trim(c.MQTT.TopicPrefix, "/") == "" {
		errs = append(errs, "mqtt.topic_prefix is required when mqtt is enabled")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetBaseDelay returns the reconnect base delay as a Duration.
func (c *Config) GetBaseDelay() time.Duration {
	return time.Duration(c.Reconnect.BaseDelay) * time.Millisecond
}

// GetHandshakeTimeout returns the WebSocket handshake timeout as a Duration.
func (c *Config) GetHandshakeTimeout() time.Duration {
	return time.Duration(c.Reconnect.HandshakeTimeout) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
