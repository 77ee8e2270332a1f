// Package discovery defines the boundary through which the registry learns
// about remote agents. A Source yields endpoints; how they were found
// (static config, a mesh catalog, DNS) is the source's business.
package discovery

import "context"

// Endpoint identifies one discoverable remote agent.
type Endpoint struct {
	// ServiceName is the registry key for the agent. Unique per source.
	ServiceName string

	// AgentCardURL is the absolute URL of the agent's card document.
	AgentCardURL string

	// Transport selects the protocol implementation: "jsonrpc" (default)
	// or "sdk".
	Transport string
}

// Source produces the set of agent endpoints to register. Called once at
// startup; the registry does not re-discover at runtime.
type Source interface {
	Endpoints(ctx context.Context) ([]Endpoint, error)
}

// StaticSource is a Source over a fixed endpoint list, typically built from
// configuration.
type StaticSource struct {
	endpoints []Endpoint
}

// NewStaticSource builds a Source from a fixed list.
func NewStaticSource(endpoints []Endpoint) *StaticSource {
	return &StaticSource{endpoints: endpoints}
}

// Endpoints returns the configured endpoints.
func (s *StaticSource) Endpoints(ctx context.Context) ([]Endpoint, error) {
	out := make([]Endpoint, len(s.endpoints))
	copy(out, s.endpoints)
	return out, nil
}
