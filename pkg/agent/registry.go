package agent

import (
	"context"
	"log/slog"

	"github.com/agentbridge/agentbridge/pkg/discovery"
	"github.com/agentbridge/agentbridge/pkg/registry"
	"github.com/agentbridge/agentbridge/pkg/transport"
)

// Registry holds the agent clients built at startup. It is populated once
// from a discovery source and immutable afterwards: health reflects startup
// reachability only, and no entries are added or removed at runtime.
type Registry struct {
	base   *registry.BaseRegistry[*Client]
	logger *slog.Logger
}

// RegistryOption configures registry construction.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	logger     *slog.Logger
	clientOpts []ClientOption
}

// WithRegistryLogger sets the registry logger.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(cfg *registryConfig) { cfg.logger = logger }
}

// WithClientOptions passes options through to every constructed client.
func WithClientOptions(opts ...ClientOption) RegistryOption {
	return func(cfg *registryConfig) { cfg.clientOpts = append(cfg.clientOpts, opts...) }
}

// NewRegistry probes every discovered endpoint sequentially and registers a
// client for each, healthy or not. One agent's failure never affects
// another's entry: a bad endpoint is logged and registered unhealthy. The
// only fatal errors are a discovery source that cannot enumerate at all and
// duplicate service names.
func NewRegistry(ctx context.Context, source discovery.Source, opts ...RegistryOption) (*Registry, error) {
	cfg := &registryConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	endpoints, err := source.Endpoints(ctx)
	if err != nil {
		return nil, newRegistryError("NewRegistry", "discovery source failed", err)
	}

	r := &Registry{
		base:   registry.NewBaseRegistry[*Client](),
		logger: cfg.logger,
	}

	clientOpts := append([]ClientOption{WithClientLogger(cfg.logger)}, cfg.clientOpts...)

	for _, ep := range endpoints {
		var client *Client

		tr, err := transport.New(ep.Transport)
		if err != nil {
			// Misconfigured transport: register the agent unhealthy so the
			// rest of the fleet is unaffected.
			cfg.logger.Error("invalid transport for agent, registering as unhealthy",
				"agent", ep.ServiceName, "transport", ep.Transport, "error", err)
			client = &Client{
				name:        ep.ServiceName,
				cardURL:     ep.AgentCardURL,
				sendTimeout: DefaultSendTimeout,
				logger:      cfg.logger,
				errMsg:      err.Error(),
			}
		} else {
			client = NewClient(ctx, ep.ServiceName, ep.AgentCardURL, tr, clientOpts...)
		}

		if err := r.base.Register(ep.ServiceName, client); err != nil {
			return nil, newRegistryError("NewRegistry", "duplicate agent name "+ep.ServiceName, err)
		}
	}

	cfg.logger.Info("agent registry built",
		"agents", r.base.Count(), "healthy", r.HealthyCount())
	return r, nil
}

// Get looks up a client by agent name.
func (r *Registry) Get(name string) (*Client, bool) {
	return r.base.Get(name)
}

// All returns every client in registration order.
func (r *Registry) All() []*Client {
	return r.base.Items()
}

// Count returns the number of registered agents, healthy or not.
func (r *Registry) Count() int {
	return r.base.Count()
}

// HealthyCount returns how many registered agents passed their startup probe.
func (r *Registry) HealthyCount() int {
	n := 0
	for _, c := range r.base.Items() {
		if c.Healthy() {
			n++
		}
	}
	return n
}
