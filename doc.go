// Package agentbridge is an HTTP and SSE gateway for A2A (Agent-to-Agent)
// protocol agents.
//
// The bridge registers a static fleet of remote agents at startup, probing
// each one by fetching its agent card, and then exposes the fleet behind a
// plain HTTP API: blocking message exchanges, SSE streaming subscriptions,
// and fleet discovery. Agents that fail the startup probe stay registered as
// permanently unhealthy so that callers get an immediate, descriptive error
// instead of a timeout.
//
// # Quick Start
//
// Install the CLI:
//
//	go install github.com/agentbridge/agentbridge/cmd/agentbridge@latest
//
// Declare the fleet in YAML:
//
//	agents:
//	  - name: researcher
//	    url: http://localhost:9000
//	  - name: archivist
//	    url: http://localhost:9001
//	    transport: sdk
//
// Start the server:
//
//	agentbridge serve --config config.yaml
//
// Then exchange messages over HTTP:
//
//	curl -X POST localhost:8080/v1/agents/researcher/message \
//	  -d '{"message":"What changed in the last release?"}'
//
// or subscribe to live status updates:
//
//	curl -N -X POST localhost:8080/v1/agents/researcher/stream \
//	  -d '{"message":"Summarize the design doc"}'
//
// # Packages
//
//   - pkg/a2a: the A2A wire model and JSON-RPC envelope
//   - pkg/transport: protocol transports (hand-rolled JSON-RPC and the
//     a2a-go SDK) behind one interface
//   - pkg/agent: per-agent clients with startup health semantics and the
//     fleet registry
//   - pkg/bridge: projection of task streams into flat status updates
//   - pkg/server: the HTTP and SSE surface
package agentbridge
