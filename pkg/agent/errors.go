package agent

import (
	"fmt"
	"time"
)

// AgentUnhealthyError reports a send attempted against an agent whose card
// fetch failed at construction. The stored reason is the original failure.
type AgentUnhealthyError struct {
	Name   string
	Reason string
}

func (e *AgentUnhealthyError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("agent %q is unhealthy: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("agent %q is unhealthy", e.Name)
}

// ResponseTimeoutError reports a blocking exchange that outlived the send
// timeout.
type ResponseTimeoutError struct {
	Name    string
	Timeout time.Duration
}

func (e *ResponseTimeoutError) Error() string {
	return fmt.Sprintf("agent %q did not respond within %v", e.Name, e.Timeout)
}

// SendError wraps any non-timeout failure of a message exchange.
type SendError struct {
	Name string
	Err  error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send to agent %q failed: %v", e.Name, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// RegistryError carries component context for registry construction
// failures.
type RegistryError struct {
	Component string
	Action    string
	Message   string
	Err       error
}

func (e *RegistryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Component, e.Action, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Component, e.Action, e.Message)
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}

func newRegistryError(action, message string, err error) *RegistryError {
	return &RegistryError{Component: "AgentRegistry", Action: action, Message: message, Err: err}
}
