package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/agentbridge/agentbridge/pkg/a2a"
	"github.com/agentbridge/agentbridge/pkg/httpclient"
)

// streamBufferSize bounds in-flight events per subscription before the
// reader goroutine blocks on the consumer.
const streamBufferSize = 10

// JSONRPCTransport speaks A2A JSON-RPC 2.0 over HTTP POST, with Server-Sent
// Events for message/stream responses.
type JSONRPCTransport struct {
	// cardClient retries conservatively: the card fetch happens once per
	// agent at startup and a transient blip should not poison the registry
	// entry.
	cardClient *httpclient.Client

	// httpClient carries message exchanges. No client-level timeout: the
	// per-call context governs blocking sends, and streams are long-lived.
	httpClient *http.Client

	logger *slog.Logger
}

// JSONRPCOption configures a JSONRPCTransport.
type JSONRPCOption func(*JSONRPCTransport)

// WithHTTPClient replaces the message-exchange HTTP client.
func WithHTTPClient(c *http.Client) JSONRPCOption {
	return func(t *JSONRPCTransport) { t.httpClient = c }
}

// WithCardClient replaces the retrying client used for card fetches.
func WithCardClient(c *httpclient.Client) JSONRPCOption {
	return func(t *JSONRPCTransport) { t.cardClient = c }
}

// WithLogger sets the transport logger.
func WithLogger(logger *slog.Logger) JSONRPCOption {
	return func(t *JSONRPCTransport) { t.logger = logger }
}

// NewJSONRPC builds the hand-rolled JSON-RPC transport.
func NewJSONRPC(opts ...JSONRPCOption) *JSONRPCTransport {
	t := &JSONRPCTransport{
		cardClient: httpclient.New(httpclient.WithRetryStrategy(func(status int) httpclient.RetryStrategy {
			if s := httpclient.DefaultRetryStrategy(status); s != httpclient.NoRetry {
				return httpclient.ConservativeRetry
			}
			return httpclient.NoRetry
		})),
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// FetchCard retrieves and decodes the agent card.
func (t *JSONRPCTransport) FetchCard(ctx context.Context, cardURL string) (*a2a.AgentCard, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cardURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := t.cardClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agent card: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to get agent card: %s - %s", resp.Status, string(body))
	}

	var card a2a.AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, fmt.Errorf("failed to decode agent card: %w", err)
	}
	return &card, nil
}

// Send performs a blocking message/send exchange.
func (t *JSONRPCTransport) Send(ctx context.Context, url string, msg *a2a.Message) (*SendResult, error) {
	rpcResp, err := t.post(ctx, url, a2a.NewRequest(a2a.MethodMessageSend, a2a.MessageSendParams{Message: msg}), "application/json")
	if err != nil {
		return nil, err
	}
	defer rpcResp.Body.Close()

	if rpcResp.StatusCode != http.StatusOK && rpcResp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(rpcResp.Body)
		return nil, fmt.Errorf("message send failed: %s - %s", rpcResp.Status, string(body))
	}

	var envelope a2a.JSONRPCResponse
	if err := json.NewDecoder(rpcResp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if envelope.Error != nil {
		return nil, fmt.Errorf("agent rejected message: %w", envelope.Error)
	}

	message, task, err := a2a.DecodeResult(envelope.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return &SendResult{Message: message, Task: task}, nil
}

// Stream performs a message/stream exchange and parses the SSE response in a
// background goroutine. The connection dies with ctx: the request carries the
// context, so cancellation aborts the body read and the goroutine exits.
func (t *JSONRPCTransport) Stream(ctx context.Context, url string, msg *a2a.Message) (<-chan StreamItem, error) {
	resp, err := t.post(ctx, url, a2a.NewRequest(a2a.MethodMessageStream, a2a.MessageSendParams{Message: msg}), "text/event-stream")
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("streaming failed: %s - %s", resp.Status, string(body))
	}

	items := make(chan StreamItem, streamBufferSize)
	go t.parseSSEStream(ctx, resp, items)
	return items, nil
}

func (t *JSONRPCTransport) post(ctx context.Context, url string, rpcReq *a2a.JSONRPCRequest, accept string) (*http.Response, error) {
	body, err := json.Marshal(rpcReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach agent: %w", err)
	}
	return resp, nil
}

// parseSSEStream reads "event:"/"data:" lines, decodes each data payload as a
// JSON-RPC envelope carrying a stream event, and forwards it. The stream ends
// on the first terminal event, on read error, or when ctx is canceled.
func (t *JSONRPCTransport) parseSSEStream(ctx context.Context, resp *http.Response, items chan<- StreamItem) {
	defer close(items)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var eventData string
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "data:"):
			eventData = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case strings.HasPrefix(line, "event:"), strings.HasPrefix(line, "id:"), strings.HasPrefix(line, ":"):
			// Event names are advisory here; the payload carries its own
			// kind discriminant.
		case line == "" && eventData != "":
			event, terminal, err := decodeSSEData(eventData)
			eventData = ""
			if err != nil {
				// A payload that cannot be decoded breaks the protocol; end
				// the stream with the error instead of guessing past it.
				t.logger.Warn("undecodable stream payload", "error", err)
				select {
				case items <- StreamItem{Err: fmt.Errorf("undecodable stream payload: %w", err)}:
				case <-ctx.Done():
				}
				return
			}

			select {
			case items <- StreamItem{Event: event}:
			case <-ctx.Done():
				return
			}
			if terminal {
				return
			}
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		items <- StreamItem{Err: fmt.Errorf("stream read failed: %w", err)}
	}
}

// decodeSSEData decodes one SSE data payload. The payload is a JSON-RPC
// response envelope; some servers send the bare result object instead, so
// fall back to that shape when no envelope is present.
func decodeSSEData(data string) (a2a.StreamEvent, bool, error) {
	raw := json.RawMessage(data)

	var envelope a2a.JSONRPCResponse
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Error != nil {
			return a2a.StreamEvent{}, false, envelope.Error
		}
		if len(envelope.Result) > 0 {
			raw = envelope.Result
		}
	}

	event, err := a2a.DecodeStreamEvent(raw)
	if err != nil {
		return a2a.StreamEvent{}, false, err
	}
	return event, isTerminalEvent(event), nil
}

// isTerminalEvent reports whether an event ends the subscription: a final
// status update, a task in a terminal state, or a bare message result.
func isTerminalEvent(event a2a.StreamEvent) bool {
	switch {
	case event.StatusUpdate != nil:
		return event.StatusUpdate.Final || event.StatusUpdate.Status.State.IsTerminal()
	case event.Task != nil:
		return event.Task.Terminal()
	case event.Message != nil:
		return true
	}
	return false
}
