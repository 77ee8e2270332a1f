// Package a2a holds the wire-level data contracts of the Agent-to-Agent (A2A)
// protocol: agent cards, messages with their part union, tasks and their state
// machine, and the JSON-RPC 2.0 envelope used by the HTTP transport.
// Specification: https://a2a-protocol.org/latest/specification/
package a2a

import "time"

// ============================================================================
// AGENT CARD - Agent Discovery & Capability Advertisement
// ============================================================================

// WellKnownCardPath is the conventional location of an agent's card,
// relative to its base URL.
const WellKnownCardPath = "/.well-known/agent-card.json"

// AgentCard advertises an agent's identity, endpoint, and capabilities.
// It is fetched once at discovery time and treated as immutable afterwards.
type AgentCard struct {
	// Core identity
	Name            string `json:"name"`
	Description     string `json:"description"`
	URL             string `json:"url"` // Base URL where the agent accepts requests
	Version         string `json:"version"`
	ProtocolVersion string `json:"protocolVersion,omitempty"`

	// Provider information (optional)
	Provider *AgentProvider `json:"provider,omitempty"`

	// Transport negotiation
	PreferredTransport string `json:"preferredTransport,omitempty"` // "JSONRPC", "GRPC", "HTTP+JSON"

	// Capabilities
	Capabilities AgentCapabilities `json:"capabilities"`

	// Declared content types
	DefaultInputModes  []string `json:"defaultInputModes,omitempty"`
	DefaultOutputModes []string `json:"defaultOutputModes,omitempty"`

	// Skills (optional)
	Skills []AgentSkill `json:"skills,omitempty"`
}

// AgentProvider identifies the organization behind an agent.
type AgentProvider struct {
	Organization string `json:"organization"`
	URL          string `json:"url,omitempty"`
}

// AgentCapabilities declares the optional protocol features an agent supports.
type AgentCapabilities struct {
	Streaming              bool `json:"streaming"`
	PushNotifications      bool `json:"pushNotifications"`
	StateTransitionHistory bool `json:"stateTransitionHistory"`
}

// AgentSkill describes one capability an agent advertises on its card.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

// ============================================================================
// MESSAGE - Conversation Turns
// ============================================================================

// Message is a single conversation turn exchanged with an agent.
type Message struct {
	Role      MessageRole `json:"role"`
	Parts     []Part      `json:"parts"`
	MessageID string      `json:"messageId"`
	TaskID    string      `json:"taskId,omitempty"`
	ContextID string      `json:"contextId,omitempty"`
	Kind      string      `json:"kind,omitempty"` // "message" on the wire
}

// MessageRole identifies the sender of a message.
type MessageRole string

const (
	MessageRoleUser  MessageRole = "user"
	MessageRoleAgent MessageRole = "agent"
)

// ============================================================================
// TASK - Unit of Work
// ============================================================================

// Task is the unit of work a remote agent executes on our behalf.
type Task struct {
	ID        string     `json:"id"`
	ContextID string     `json:"contextId,omitempty"`
	Status    TaskStatus `json:"status"`
	History   []Message  `json:"history,omitempty"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
	Kind      string     `json:"kind,omitempty"` // "task" on the wire
}

// TaskStatus carries the current state of a task plus the agent message
// that accompanied the transition, if any.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// TaskState enumerates the task lifecycle states.
type TaskState string

const (
	TaskStateSubmitted     TaskState = "submitted"
	TaskStateWorking       TaskState = "working"
	TaskStateInputRequired TaskState = "input-required"
	TaskStateCompleted     TaskState = "completed"
	TaskStateFailed        TaskState = "failed"
	TaskStateRejected      TaskState = "rejected"
	TaskStateCanceled      TaskState = "canceled"
)

// IsTerminal reports whether the state ends the task lifecycle. A task that
// has reached a terminal state never transitions again; any later update for
// the same task is a protocol violation on the remote side.
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateFailed, TaskStateRejected, TaskStateCanceled:
		return true
	}
	return false
}

// Terminal reports whether the task has reached a final state.
func (t *Task) Terminal() bool {
	return t.Status.State.IsTerminal()
}

// Artifact is a named output produced by a task.
type Artifact struct {
	ArtifactID  string `json:"artifactId"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Parts       []Part `json:"parts"`
}

// ============================================================================
// STREAMING - message/stream Event Payloads
// ============================================================================

// TaskStatusUpdateEvent is the incremental payload emitted on a
// message/stream subscription when a task changes state.
type TaskStatusUpdateEvent struct {
	TaskID    string     `json:"taskId"`
	ContextID string     `json:"contextId,omitempty"`
	Status    TaskStatus `json:"status"`
	Final     bool       `json:"final"`
	Kind      string     `json:"kind,omitempty"` // "status-update" on the wire
}

// TaskArtifactUpdateEvent is the incremental payload emitted when a task
// produces or extends an artifact.
type TaskArtifactUpdateEvent struct {
	TaskID    string   `json:"taskId"`
	ContextID string   `json:"contextId,omitempty"`
	Artifact  Artifact `json:"artifact"`
	Append    bool     `json:"append,omitempty"`
	LastChunk bool     `json:"lastChunk,omitempty"`
	Kind      string   `json:"kind,omitempty"` // "artifact-update" on the wire
}

// StreamEvent is one decoded payload from a message/stream subscription.
// Exactly one of the fields is set, matching the "kind" discriminant of the
// wire object.
type StreamEvent struct {
	Message        *Message
	Task           *Task
	StatusUpdate   *TaskStatusUpdateEvent
	ArtifactUpdate *TaskArtifactUpdateEvent
}

// ============================================================================
// RPC METHOD PARAMETERS
// ============================================================================

// MessageSendParams carries the message for message/send and message/stream.
type MessageSendParams struct {
	Message       *Message                  `json:"message"`
	Configuration *MessageSendConfiguration `json:"configuration,omitempty"`
}

// MessageSendConfiguration tunes a single message exchange.
type MessageSendConfiguration struct {
	AcceptedOutputModes []string `json:"acceptedOutputModes,omitempty"`
	Blocking            bool     `json:"blocking,omitempty"`
	HistoryLength       *int     `json:"historyLength,omitempty"`
}
