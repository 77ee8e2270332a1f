// Package config defines the service configuration: the HTTP surface, the
// static agent fleet, logging, and observability. Config is loaded once at
// startup; the agent registry built from it never changes at runtime.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentbridge/agentbridge/pkg/a2a"
	"github.com/agentbridge/agentbridge/pkg/discovery"
)

// Config is the root configuration document.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Logging       LoggingConfig       `yaml:"logging"`
	Client        ClientConfig        `yaml:"client"`
	Bridge        BridgeConfig        `yaml:"bridge"`
	Agents        []AgentConfig       `yaml:"agents"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // simple, verbose
	Output string `yaml:"output"` // file path; empty means stderr
}

// ClientConfig tunes the agent clients.
type ClientConfig struct {
	SendTimeout time.Duration `yaml:"send_timeout"`
}

// BridgeConfig tunes the streaming bridge.
type BridgeConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

// AgentConfig declares one remote agent to register at startup.
type AgentConfig struct {
	// Name is the registry key, unique across the fleet.
	Name string `yaml:"name"`

	// URL is the agent's base URL. When CardURL is empty the card is
	// expected at the well-known path under this URL.
	URL string `yaml:"url"`

	// CardURL overrides the agent card location.
	CardURL string `yaml:"card_url"`

	// Transport selects the protocol implementation: jsonrpc (default)
	// or sdk.
	Transport string `yaml:"transport"`
}

// ObservabilityConfig configures metrics and tracing.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// TracingConfig configures the OTel tracer.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ExporterType string  `yaml:"exporter_type"` // otlp-grpc, stdout
	EndpointURL  string  `yaml:"endpoint_url"`
	SamplingRate float64 `yaml:"sampling_rate"`
	ServiceName  string  `yaml:"service_name"`
}

// SetDefaults fills unset fields with working defaults.
func (c *Config) SetDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "simple"
	}
	if c.Bridge.BufferSize == 0 {
		c.Bridge.BufferSize = 32
	}
	if c.Observability.Tracing.SamplingRate == 0 {
		c.Observability.Tracing.SamplingRate = 1.0
	}
	if c.Observability.Tracing.ServiceName == "" {
		c.Observability.Tracing.ServiceName = "agentbridge"
	}
	if c.Observability.Tracing.ExporterType == "" {
		c.Observability.Tracing.ExporterType = "otlp-grpc"
	}
}

// Validate rejects configurations the registry could not be built from.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	seen := make(map[string]bool)
	for i, agent := range c.Agents {
		if agent.Name == "" {
			return fmt.Errorf("agents[%d]: name is required", i)
		}
		if seen[agent.Name] {
			return fmt.Errorf("agents[%d]: duplicate agent name %q", i, agent.Name)
		}
		seen[agent.Name] = true

		if agent.URL == "" && agent.CardURL == "" {
			return fmt.Errorf("agent %q: one of url or card_url is required", agent.Name)
		}
		switch agent.Transport {
		case "", "jsonrpc", "sdk":
		default:
			return fmt.Errorf("agent %q: unknown transport %q", agent.Name, agent.Transport)
		}
	}
	return nil
}

// Endpoints converts the configured agents into discovery endpoints, deriving
// the card URL from the base URL when not set explicitly.
func (c *Config) Endpoints() []discovery.Endpoint {
	endpoints := make([]discovery.Endpoint, 0, len(c.Agents))
	for _, agent := range c.Agents {
		cardURL := agent.CardURL
		if cardURL == "" {
			cardURL = strings.TrimSuffix(agent.URL, "/") + a2a.WellKnownCardPath
		}
		endpoints = append(endpoints, discovery.Endpoint{
			ServiceName:  agent.Name,
			AgentCardURL: cardURL,
			Transport:    agent.Transport,
		})
	}
	return endpoints
}
