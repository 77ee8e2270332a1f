// Package bridge projects task updates from remote agents into the flat
// status-update shape consumed by UI subscribers, fanning each subscription
// out on its own buffered channel.
package bridge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agentbridge/agentbridge/pkg/a2a"
	"github.com/agentbridge/agentbridge/pkg/agent"
)

// defaultBufferSize is the per-subscription backlog. A consumer that falls
// further behind blocks only its own subscription.
const defaultBufferSize = 32

// UpdateType classifies a status update for the subscriber.
type UpdateType string

const (
	// UpdateTypeStatus is an intermediate, non-terminal progress update.
	UpdateTypeStatus UpdateType = "status"
	// UpdateTypeResult carries the final response of a finished task.
	UpdateTypeResult UpdateType = "result"
	// UpdateTypeError reports a broken stream.
	UpdateTypeError UpdateType = "error"
)

// StatusUpdate is the wire shape delivered to subscribers. StatusMessage and
// ResponseText are mutually exclusive: progress updates carry a status
// message, results carry the response text.
type StatusUpdate struct {
	Type          UpdateType    `json:"type"`
	State         a2a.TaskState `json:"state"`
	StatusMessage string        `json:"statusMessage,omitempty"`
	ResponseText  string        `json:"responseText,omitempty"`
	AgentName     string        `json:"agentName"`
}

// UnknownAgentError reports a subscription against a name the registry does
// not hold.
type UnknownAgentError struct {
	Name string
}

func (e *UnknownAgentError) Error() string {
	return fmt.Sprintf("unknown agent %q", e.Name)
}

// Bridge subscribes to agent task streams and republishes them as status
// updates.
type Bridge struct {
	registry   *agent.Registry
	bufferSize int
	logger     *slog.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithBufferSize overrides the per-subscription buffer.
func WithBufferSize(n int) Option {
	return func(b *Bridge) { b.bufferSize = n }
}

// WithLogger sets the bridge logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) { b.logger = logger }
}

// New builds a Bridge over the agent registry.
func New(registry *agent.Registry, opts ...Option) *Bridge {
	b := &Bridge{
		registry:   registry,
		bufferSize: defaultBufferSize,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe opens a streaming exchange with the named agent and returns the
// subscriber's channel. The channel closes after the final update: the
// terminal result on success, or a single error update if the stream breaks.
// Cancelling ctx abandons the subscription and releases the agent transport.
func (b *Bridge) Subscribe(ctx context.Context, agentName, text string) (<-chan StatusUpdate, error) {
	client, ok := b.registry.Get(agentName)
	if !ok {
		return nil, &UnknownAgentError{Name: agentName}
	}

	updates, err := client.SendStreaming(ctx, text)
	if err != nil {
		return nil, err
	}

	// Updates carry the agent's self-declared card name, which may differ
	// from the registry key used to address it.
	out := make(chan StatusUpdate, b.bufferSize)
	go b.pump(ctx, client.Card().Name, updates, out)
	return out, nil
}

func (b *Bridge) pump(ctx context.Context, agentName string, updates <-chan agent.TaskUpdate, out chan<- StatusUpdate) {
	defer close(out)

	for u := range updates {
		su := b.project(agentName, u)

		select {
		case out <- su:
		case <-ctx.Done():
			return
		}

		if su.Type == UpdateTypeError {
			return
		}
	}
}

// project maps one task update onto the subscriber shape: terminal states
// become results carrying the response text, transient states become status
// updates carrying the progress message, and stream failures become a single
// error update.
func (b *Bridge) project(agentName string, u agent.TaskUpdate) StatusUpdate {
	if u.Err != nil {
		b.logger.Warn("agent stream failed", "agent", agentName, "error", u.Err)
		return StatusUpdate{
			Type:         UpdateTypeError,
			State:        a2a.TaskStateFailed,
			ResponseText: u.Err.Error(),
			AgentName:    agentName,
		}
	}

	text := a2a.TaskText(u.Task)
	if u.Task.Terminal() {
		return StatusUpdate{
			Type:         UpdateTypeResult,
			State:        u.Task.Status.State,
			ResponseText: text,
			AgentName:    agentName,
		}
	}
	return StatusUpdate{
		Type:          UpdateTypeStatus,
		State:         u.Task.Status.State,
		StatusMessage: text,
		AgentName:     agentName,
	}
}
