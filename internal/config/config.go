// Package config loads client configuration from YAML with environment
// variable overrides for credentials.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Transport kinds accepted in the server section.
const (
	TransportTCP       = "tcp"
	TransportWebSocket = "websocket"
)

// Default endpoints for the public chat service.
const (
	DefaultTCPAddress       = "irc.chat.twitch.tv:6697"
	DefaultWebSocketAddress = "wss://irc-ws.chat.twitch.tv:443"
)

// Config holds the full client configuration.
type Config struct {
	Server       ServerConfig   `yaml:"server"`
	Identity     IdentityConfig `yaml:"identity"`
	Channels     []string       `yaml:"channels"`
	Capabilities []string       `yaml:"capabilities"`
	Archive      ArchiveConfig  `yaml:"archive"`
}

// ServerConfig describes the chat endpoint to connect to.
type ServerConfig struct {
	// Address is a host:port pair for the tcp transport, or a ws:// / wss://
	// URL for the websocket transport.
	Address string `yaml:"address"`

	// Transport selects the connection primitive: "tcp" or "websocket".
	Transport string `yaml:"transport"`

	// TLS wraps the tcp transport in TLS. Ignored for websocket, where the
	// URL scheme decides.
	TLS bool `yaml:"tls"`
}

// IdentityConfig carries the login identity. An empty Nick means an
// anonymous (read-only) login.
type IdentityConfig struct {
	Nick string `yaml:"nick"`

	// Token is the OAuth token sent as PASS. The "oauth:" prefix is added
	// when missing. Prefer the TMI_TOKEN environment variable over putting
	// tokens in config files.
	Token string `yaml:"token"`
}

// ArchiveConfig controls optional persistence of delivered chat lines.
type ArchiveConfig struct {
	Enabled bool `yaml:"enabled"`

	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver"`

	// DSN is the database path for sqlite or a connection string for
	// postgres.
	DSN string `yaml:"dsn"`
}

// DefaultConfig returns a Config pointed at the public TLS chat endpoint
// with an anonymous identity and archiving off.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:   DefaultTCPAddress,
			Transport: TransportTCP,
			TLS:       true,
		},
		Capabilities: []string{"twitch.tv/tags", "twitch.tv/commands"},
		Archive: ArchiveConfig{
			Enabled: false,
			Driver:  "sqlite",
			DSN:     "data/chat.db",
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults when
// the file does not exist, then applies environment overrides and validates
// the result.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if nick := os.Getenv("TMI_NICK"); nick != "" {
		config.Identity.Nick = nick
	}
	if token := os.Getenv("TMI_TOKEN"); token != "" {
		config.Identity.Token = token
	}
	if addr := os.Getenv("TMI_SERVER"); addr != "" {
		config.Server.Address = addr
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the fields that would otherwise fail deep inside the
// client at connect time.
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case TransportTCP, TransportWebSocket:
	default:
		return fmt.Errorf("unknown transport %q (want %q or %q)",
			c.Server.Transport, TransportTCP, TransportWebSocket)
	}
	if c.Server.Address == "" {
		return fmt.Errorf("server address is required")
	}
	if c.Archive.Enabled {
		switch c.Archive.Driver {
		case "sqlite", "postgres":
		default:
			return fmt.Errorf("unknown archive driver %q (want sqlite or postgres)", c.Archive.Driver)
		}
		if c.Archive.DSN == "" {
			return fmt.Errorf("archive dsn is required when archiving is enabled")
		}
	}
	return nil
}

// Anonymous reports whether the identity is an anonymous read-only login.
func (c *IdentityConfig) Anonymous() bool {
	return c.Nick == "" || c.Token == ""
}

// NormalizedToken returns the token with the "oauth:" prefix the server
// expects, or an empty string when no token is configured.
func (c *IdentityConfig) NormalizedToken() string {
	if c.Token == "" {
		return ""
	}
	if strings.HasPrefix(c.Token, "oauth:") {
		return c.Token
	}
	return "oauth:" + c.Token
}
