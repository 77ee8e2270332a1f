// Package transport carries A2A messages to remote agents. The agent client
// depends only on the Transport interface; the concrete protocol (hand-rolled
// JSON-RPC 2.0 over HTTP+SSE, or the official a2a-go SDK) is chosen per agent
// at configuration time.
package transport

import (
	"context"
	"fmt"

	"github.com/agentbridge/agentbridge/pkg/a2a"
)

// Transport kinds selectable in configuration.
const (
	KindJSONRPC = "jsonrpc"
	KindSDK     = "sdk"
)

// SendResult is the polymorphic outcome of a blocking message exchange.
// Exactly one of Message and Task is set; the distinction is preserved all
// the way to the caller.
type SendResult struct {
	Message *a2a.Message
	Task    *a2a.Task
}

// StreamItem is one delivery on a streaming subscription. Either Event is
// populated or Err reports why the stream broke; an Err item is always the
// last item before the channel closes.
type StreamItem struct {
	Event a2a.StreamEvent
	Err   error
}

// Transport exchanges messages with one class of remote agent endpoint.
// Implementations must be safe for concurrent use.
type Transport interface {
	// FetchCard retrieves the agent card document at cardURL.
	FetchCard(ctx context.Context, cardURL string) (*a2a.AgentCard, error)

	// Send performs a blocking message/send exchange against the agent's
	// base URL. Cancellation of ctx aborts the exchange.
	Send(ctx context.Context, url string, msg *a2a.Message) (*SendResult, error)

	// Stream performs a message/stream exchange. The returned channel is
	// finite: the transport closes it after the terminal event, after an
	// error item, or once ctx is canceled. Cancelling ctx always releases
	// the underlying connection.
	Stream(ctx context.Context, url string, msg *a2a.Message) (<-chan StreamItem, error)
}

// New builds a transport of the given kind. An empty kind defaults to
// jsonrpc.
func New(kind string) (Transport, error) {
	switch kind {
	case KindJSONRPC, "":
		return NewJSONRPC(), nil
	case KindSDK:
		return NewSDK(), nil
	default:
		return nil, fmt.Errorf("unknown transport kind %q", kind)
	}
}
