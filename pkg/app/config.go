package app

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/harunnryd/voicedays/pkg/agents"
	"github.com/harunnryd/voicedays/pkg/bridge"
	"github.com/harunnryd/voicedays/pkg/configutil"
	"github.com/harunnryd/voicedays/pkg/grocery"
	"github.com/harunnryd/voicedays/pkg/jsonstore"
	"github.com/harunnryd/voicedays/pkg/transports/twilio"
	"github.com/spf13/viper"
)

const (
	EventsNone  = "none"
	EventsLog   = "log"
	EventsKafka = "kafka"
)

type Config struct {
	LogLevel  string        `mapstructure:"log_level"`
	LogFormat string        `mapstructure:"log_format"`
	Agent     AgentConfig   `mapstructure:"agent"`
	Server    bridge.Config `mapstructure:"server"`
	Data      DataConfig    `mapstructure:"data"`
	Grocery   GroceryConfig `mapstructure:"grocery"`
	Storage   StorageConfig `mapstructure:"storage"`
	Events    EventsConfig  `mapstructure:"events"`
	Tools     ToolsConfig   `mapstructure:"tools"`
	Metrics   MetricsConfig `mapstructure:"metrics"`
	Privacy   PrivacyConfig `mapstructure:"privacy"`
	Twilio    twilio.Config `mapstructure:"twilio"`
}

type AgentConfig struct {
	Day   string `mapstructure:"day"`
	Style string `mapstructure:"style"`
}

type DataConfig struct {
	Dir              string `mapstructure:"dir"`
	CatalogPath      string `mapstructure:"catalog_path"`
	TutorContentPath string `mapstructure:"tutor_content_path"`
	SeedFraudCases   bool   `mapstructure:"seed_fraud_cases"`
}

type GroceryConfig struct {
	Delivery          grocery.DeliveryPolicy `mapstructure:",squash"`
	RefreshIntervalMS int                    `mapstructure:"refresh_interval_ms"`
}

type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

type EventsConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

type ToolsConfig struct {
	TimeoutMS int `mapstructure:"timeout_ms"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// AuditFile, relative to data.dir, receives every metrics event as a
	// JSON line.
	AuditFile string `mapstructure:"audit_file"`
}

type PrivacyConfig struct {
	RedactPII bool `mapstructure:"redact_pii"`
}

var kafkaSettingsSchema = configutil.Schema{
	Required: []string{"brokers", "topic"},
	Optional: []string{"retries", "retry_backoff_ms"},
}

// LoadConfig reads path (YAML) over the defaults. An empty path yields the
// defaults alone. ${VAR} references in string values are expanded from the
// environment.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("agent.day", string(agents.DayGrocery))
	v.SetDefault("agent.style", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.ws_path", "/ws")
	v.SetDefault("server.allow_any_origin", true)
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.catalog_path", "")
	v.SetDefault("data.tutor_content_path", "")
	v.SetDefault("data.seed_fraud_cases", true)
	v.SetDefault("grocery.free_delivery_threshold", grocery.DefaultFreeDeliveryThreshold)
	v.SetDefault("grocery.delivery_fee", grocery.DefaultDeliveryFee)
	v.SetDefault("grocery.currency", grocery.DefaultCurrency)
	v.SetDefault("grocery.refresh_interval_ms", 0)
	v.SetDefault("storage.backend", jsonstore.BackendFile)
	v.SetDefault("events.provider", EventsLog)
	v.SetDefault("tools.timeout_ms", 5000)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.audit_file", "")
	v.SetDefault("privacy.redact_pii", true)
	v.SetDefault("twilio.voice_path", "/voice")
	v.SetDefault("twilio.max_retries", 1)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if cfg.Twilio.ServerAddr == "" {
		cfg.Twilio.ServerAddr = cfg.Server.Addr
	}
	if cfg.Twilio.WebsocketPath == "" {
		cfg.Twilio.WebsocketPath = cfg.Server.WebsocketPath
	}

	expandEnvStrings(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := agents.ParseDay(c.Agent.Day); err != nil {
		return fmt.Errorf("agent.day: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(c.Storage.Backend)) {
	case jsonstore.BackendFile, jsonstore.BackendPebble:
	default:
		return fmt.Errorf("storage.backend must be file or pebble, got %q", c.Storage.Backend)
	}
	switch strings.ToLower(strings.TrimSpace(c.Events.Provider)) {
	case "", EventsNone, EventsLog:
	case EventsKafka:
		if err := configutil.ValidateSettings(c.Events.Settings, kafkaSettingsSchema); err != nil {
			return fmt.Errorf("events.settings: %w", err)
		}
	default:
		return fmt.Errorf("events.provider must be none, log or kafka, got %q", c.Events.Provider)
	}
	if err := configutil.RequireString(c.Data.Dir, "data.dir"); err != nil {
		return err
	}
	if c.Tools.TimeoutMS < 0 {
		return fmt.Errorf("tools.timeout_ms must not be negative")
	}
	return nil
}

// Day is the configured agent day. Validate has already accepted it.
func (c Config) Day() agents.Day {
	day, _ := agents.ParseDay(c.Agent.Day)
	return day
}

func expandEnvStrings(cfg *Config) {
	expandValue(reflect.ValueOf(cfg))
	cfg.Events.Settings = expandSettings(cfg.Events.Settings)
}

func expandSettings(settings map[string]any) map[string]any {
	for k, v := range settings {
		if s, ok := v.(string); ok {
			settings[k] = os.ExpandEnv(s)
		}
	}
	return settings
}

func expandValue(v reflect.Value) {
	if !v.IsValid() {
		return
	}
	switch v.Kind() {
	case reflect.Pointer:
		if !v.IsNil() {
			expandValue(v.Elem())
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			expandValue(v.Field(i))
		}
	case reflect.String:
		if v.CanSet() {
			v.SetString(os.ExpandEnv(v.String()))
		}
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			expandValue(v.Index(i))
		}
	}
}
