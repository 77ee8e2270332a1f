// Package agent wraps one remote A2A agent behind a client with startup
// health semantics: the agent card is fetched exactly once at construction,
// and a failed fetch marks the client permanently unhealthy. Send failures
// afterwards never mutate health.
package agent

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/agentbridge/agentbridge/pkg/a2a"
	"github.com/agentbridge/agentbridge/pkg/transport"
)

// DefaultSendTimeout bounds a blocking message exchange. Remote agents run
// long reasoning chains, so this is deliberately generous.
const DefaultSendTimeout = 120 * time.Second

// TaskUpdate is one delivery on a streaming subscription: the task snapshot
// as of that protocol event. Final marks the last update of the stream.
// When Err is set it is the only populated field and the channel closes
// right after.
type TaskUpdate struct {
	Task  *a2a.Task
	Final bool
	Err   error
}

// Client is the stateful wrapper around one remote agent.
type Client struct {
	name        string
	cardURL     string
	transport   transport.Transport
	sendTimeout time.Duration
	logger      *slog.Logger

	// Written once at construction, read-only afterwards.
	card    *a2a.AgentCard
	healthy bool
	errMsg  string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithSendTimeout overrides the blocking exchange timeout.
func WithSendTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.sendTimeout = d }
}

// WithClientLogger sets the client logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient builds a client and probes the agent by fetching its card. A
// fetch failure does not return an error: the client is registered unhealthy
// with the failure stored, and every later Send fails fast against it.
func NewClient(ctx context.Context, name, cardURL string, tr transport.Transport, opts ...ClientOption) *Client {
	c := &Client{
		name:        name,
		cardURL:     cardURL,
		transport:   tr,
		sendTimeout: DefaultSendTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	card, err := tr.FetchCard(ctx, cardURL)
	if err != nil {
		c.errMsg = err.Error()
		c.logger.Warn("agent card fetch failed, registering as unhealthy",
			"agent", name, "cardURL", cardURL, "error", err)
		return c
	}

	c.card = card
	c.healthy = true
	c.logger.Info("agent discovered",
		"agent", name, "endpoint", card.URL, "streaming", card.Capabilities.Streaming)
	return c
}

// Name returns the registry name of the agent.
func (c *Client) Name() string { return c.name }

// Healthy reports whether the construction-time card fetch succeeded. It
// never changes afterwards.
func (c *Client) Healthy() bool { return c.healthy }

// Card returns the agent card, or nil for an unhealthy client.
func (c *Client) Card() *a2a.AgentCard { return c.card }

// ErrorMessage returns the stored card fetch failure, empty when healthy.
func (c *Client) ErrorMessage() string { return c.errMsg }

// Send performs a blocking exchange of one user text message. The result
// keeps the protocol's payload polymorphism: agents reply with either a bare
// message or a task. There is no retry; a failure surfaces immediately and
// leaves health untouched.
func (c *Client) Send(ctx context.Context, text string) (*transport.SendResult, error) {
	if !c.healthy {
		return nil, &AgentUnhealthyError{Name: c.name, Reason: c.errMsg}
	}

	ctx, cancel := context.WithTimeout(ctx, c.sendTimeout)
	defer cancel()

	result, err := c.transport.Send(ctx, c.card.URL, a2a.NewUserMessage(text))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, &ResponseTimeoutError{Name: c.name, Timeout: c.sendTimeout}
		}
		return nil, &SendError{Name: c.name, Err: err}
	}
	return result, nil
}

// SendStreaming opens a streaming exchange and returns a finite sequence of
// task updates, one per protocol event. Bare message events are synthesized
// into completed single-entry tasks. Updates arriving after a task already
// reached a terminal state violate the protocol: they are logged and dropped.
// Cancelling ctx abandons the subscription and releases the transport.
func (c *Client) SendStreaming(ctx context.Context, text string) (<-chan TaskUpdate, error) {
	if !c.healthy {
		return nil, &AgentUnhealthyError{Name: c.name, Reason: c.errMsg}
	}

	items, err := c.transport.Stream(ctx, c.card.URL, a2a.NewUserMessage(text))
	if err != nil {
		return nil, &SendError{Name: c.name, Err: err}
	}

	updates := make(chan TaskUpdate)
	go c.pumpUpdates(ctx, items, updates)
	return updates, nil
}

func (c *Client) pumpUpdates(ctx context.Context, items <-chan transport.StreamItem, updates chan<- TaskUpdate) {
	defer close(updates)

	finished := make(map[string]bool)

	for item := range items {
		if item.Err != nil {
			c.deliver(ctx, updates, TaskUpdate{Err: &SendError{Name: c.name, Err: item.Err}})
			return
		}

		update, ok := c.projectEvent(item.Event)
		if !ok {
			continue
		}

		if finished[update.Task.ID] {
			c.logger.Warn("dropping event for already-terminal task",
				"agent", c.name, "task", update.Task.ID, "state", update.Task.Status.State)
			continue
		}
		if update.Task.Terminal() {
			finished[update.Task.ID] = true
			update.Final = true
		}

		if !c.deliver(ctx, updates, update) {
			return
		}
	}
}

func (c *Client) deliver(ctx context.Context, updates chan<- TaskUpdate, update TaskUpdate) bool {
	select {
	case updates <- update:
		return true
	case <-ctx.Done():
		return false
	}
}

// projectEvent turns a protocol event into a task update.
func (c *Client) projectEvent(event a2a.StreamEvent) (TaskUpdate, bool) {
	switch {
	case event.Task != nil:
		return TaskUpdate{Task: event.Task, Final: event.Task.Terminal()}, true
	case event.StatusUpdate != nil:
		u := event.StatusUpdate
		task := &a2a.Task{
			ID:        u.TaskID,
			ContextID: u.ContextID,
			Status:    u.Status,
			Kind:      "task",
		}
		return TaskUpdate{Task: task, Final: u.Final || u.Status.State.IsTerminal()}, true
	case event.Message != nil:
		return TaskUpdate{Task: SynthesizeTask(event.Message), Final: true}, true
	default:
		// Artifact updates carry no state transition; nothing to project.
		return TaskUpdate{}, false
	}
}

// SynthesizeTask wraps a bare agent message in a completed task so that
// downstream consumers deal with a single payload shape.
func SynthesizeTask(msg *a2a.Message) *a2a.Task {
	id := msg.TaskID
	if id == "" {
		id = uuid.NewString()
	}
	return &a2a.Task{
		ID:        id,
		ContextID: msg.ContextID,
		Status: a2a.TaskStatus{
			State:     a2a.TaskStateCompleted,
			Message:   msg,
			Timestamp: time.Now(),
		},
		History: []a2a.Message{*msg},
		Kind:    "task",
	}
}
