package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	a2asdk "github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2aclient"
	"github.com/a2aproject/a2a-go/a2aclient/agentcard"

	"github.com/agentbridge/agentbridge/pkg/a2a"
)

// SDKTransport delegates the protocol to the official a2a-go client and
// converts between SDK types and the wire model. One instance serves one
// agent: FetchCard resolves and caches the SDK card, and later exchanges
// reuse the client built from it.
type SDKTransport struct {
	httpClient *http.Client

	mu     sync.Mutex
	card   *a2asdk.AgentCard
	client *a2aclient.Client
}

// SDKOption configures an SDKTransport.
type SDKOption func(*SDKTransport)

// WithSDKHTTPClient replaces the HTTP client handed to the card resolver.
func WithSDKHTTPClient(c *http.Client) SDKOption {
	return func(t *SDKTransport) { t.httpClient = c }
}

// NewSDK builds the a2a-go backed transport.
func NewSDK(opts ...SDKOption) *SDKTransport {
	t := &SDKTransport{}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// FetchCard resolves the agent card through the SDK resolver and caches it
// for later exchanges.
func (t *SDKTransport) FetchCard(ctx context.Context, cardURL string) (*a2a.AgentCard, error) {
	resolver := agentcard.DefaultResolver
	if t.httpClient != nil {
		resolver = agentcard.NewResolver(t.httpClient)
	}

	card, err := resolver.Resolve(ctx, cardURL)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve agent card: %w", err)
	}

	t.mu.Lock()
	t.card = card
	t.mu.Unlock()

	return fromSDKCard(card), nil
}

// agentClient returns the cached a2a-go client, building it from the resolved
// card on first use. FetchCard must have succeeded beforehand; the agent
// client guarantees that by never sending through an unhealthy agent.
func (t *SDKTransport) agentClient(ctx context.Context) (*a2aclient.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client != nil {
		return t.client, nil
	}
	if t.card == nil {
		return nil, fmt.Errorf("no agent card resolved yet")
	}

	client, err := a2aclient.NewFromCard(ctx, t.card)
	if err != nil {
		return nil, fmt.Errorf("failed to create a2a client: %w", err)
	}
	t.client = client
	return client, nil
}

// Send performs a blocking message/send exchange through the SDK. The url
// argument is ignored: the SDK routes by the resolved card.
func (t *SDKTransport) Send(ctx context.Context, url string, msg *a2a.Message) (*SendResult, error) {
	client, err := t.agentClient(ctx)
	if err != nil {
		return nil, err
	}

	result, err := client.SendMessage(ctx, &a2asdk.MessageSendParams{Message: toSDKMessage(msg)})
	if err != nil {
		return nil, err
	}

	switch v := result.(type) {
	case *a2asdk.Message:
		return &SendResult{Message: fromSDKMessage(v)}, nil
	case *a2asdk.Task:
		return &SendResult{Task: fromSDKTask(v)}, nil
	default:
		return nil, fmt.Errorf("unexpected send result type %T", result)
	}
}

// Stream subscribes through the SDK's streaming iterator and republishes
// events on a channel, closing it on the terminal event or stream error.
func (t *SDKTransport) Stream(ctx context.Context, url string, msg *a2a.Message) (<-chan StreamItem, error) {
	client, err := t.agentClient(ctx)
	if err != nil {
		return nil, err
	}

	seq := client.SendStreamingMessage(ctx, &a2asdk.MessageSendParams{Message: toSDKMessage(msg)})

	items := make(chan StreamItem, streamBufferSize)
	go func() {
		defer close(items)
		for sdkEvent, err := range seq {
			if err != nil {
				if ctx.Err() == nil {
					items <- StreamItem{Err: fmt.Errorf("stream read failed: %w", err)}
				}
				return
			}

			event, ok := fromSDKEvent(sdkEvent)
			if !ok {
				continue
			}

			select {
			case items <- StreamItem{Event: event}:
			case <-ctx.Done():
				return
			}
			if isTerminalEvent(event) {
				return
			}
		}
	}()
	return items, nil
}
