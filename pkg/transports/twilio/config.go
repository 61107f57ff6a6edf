package twilio

import "strings"

type Config struct {
	ServerAddr    string `mapstructure:"server_addr"`
	PublicURL     string `mapstructure:"public_url"`
	AccountSID    string `mapstructure:"account_sid"`
	AuthToken     string `mapstructure:"auth_token"`
	FromNumber    string `mapstructure:"from_number"`
	VoicePath     string `mapstructure:"voice_path"`
	WebsocketPath string `mapstructure:"ws_path"`
	VoiceGreeting string `mapstructure:"voice_greeting"`
	MaxRetries    int    `mapstructure:"max_retries"`
}

func (c Config) withDefaults() Config {
	if c.ServerAddr == "" {
		c.ServerAddr = ":8080"
	}
	if c.VoicePath == "" {
		c.VoicePath = "/voice"
	}
	if c.WebsocketPath == "" {
		c.WebsocketPath = "/ws"
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	return c
}

// Enabled reports whether credentials are present.
func (c Config) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != ""
}

func normalizePublicURL(v string) string {
	v = strings.TrimPrefix(strings.TrimPrefix(v, "https://"), "http://")
	return strings.TrimRight(v, "/")
}

func (c Config) localHost() string {
	addr := c.ServerAddr
	if addr == "" || addr[0] == ':' {
		addr = "localhost" + addr
	}
	return addr
}

// VoiceWebhookURL is where Twilio fetches call instructions.
func (c Config) VoiceWebhookURL() string {
	c = c.withDefaults()
	if c.PublicURL != "" {
		return "https://" + normalizePublicURL(c.PublicURL) + c.VoicePath
	}
	return "http://" + c.localHost() + c.VoicePath
}
