package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentbridge/agentbridge/pkg/a2a"
)

func writeSSE(w http.ResponseWriter, flusher http.Flusher, payload string) {
	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}

func rpcResult(t *testing.T, result string) string {
	t.Helper()
	return fmt.Sprintf(`{"jsonrpc":"2.0","id":"1","result":%s}`, result)
}

func TestJSONRPCTransport_FetchCard(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		if calls.Add(1) == 1 {
			// First attempt fails; the conservative strategy retries.
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"name":"ledger","description":"bookkeeping","url":"http://ledger:9100","version":"1.0.0","capabilities":{"streaming":true}}`)
	}))
	defer srv.Close()

	tr := NewJSONRPC()
	card, err := tr.FetchCard(context.Background(), srv.URL+a2a.WellKnownCardPath)
	require.NoError(t, err)
	assert.Equal(t, "ledger", card.Name)
	assert.True(t, card.Capabilities.Streaming)
	assert.Equal(t, int32(2), calls.Load())
}

func TestJSONRPCTransport_SendTaskResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req a2a.JSONRPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, a2a.MethodMessageSend, req.Method)
		assert.Equal(t, a2a.JSONRPCVersion, req.JSONRPC)
		assert.NotEmpty(t, req.ID)

		fmt.Fprint(w, rpcResult(t, `{"kind":"task","id":"t-1","status":{"state":"completed","message":{"role":"agent","messageId":"m-9","parts":[{"kind":"text","text":"done"}]}}}`))
	}))
	defer srv.Close()

	tr := NewJSONRPC()
	result, err := tr.Send(context.Background(), srv.URL, a2a.NewUserMessage("hello"))
	require.NoError(t, err)
	require.NotNil(t, result.Task)
	assert.Nil(t, result.Message)
	assert.Equal(t, "t-1", result.Task.ID)
	assert.Equal(t, "done", a2a.TaskText(result.Task))
}

func TestJSONRPCTransport_SendMessageResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rpcResult(t, `{"kind":"message","role":"agent","messageId":"m-1","parts":[{"kind":"text","text":"quick answer"}]}`))
	}))
	defer srv.Close()

	tr := NewJSONRPC()
	result, err := tr.Send(context.Background(), srv.URL, a2a.NewUserMessage("hello"))
	require.NoError(t, err)
	require.NotNil(t, result.Message)
	assert.Nil(t, result.Task)
	assert.Equal(t, "quick answer", a2a.TextContent(result.Message))
}

func TestJSONRPCTransport_SendRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":"1","error":{"code":-32602,"message":"bad params"}}`)
	}))
	defer srv.Close()

	tr := NewJSONRPC()
	_, err := tr.Send(context.Background(), srv.URL, a2a.NewUserMessage("hello"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad params")
}

func TestJSONRPCTransport_StreamOrderAndTermination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req a2a.JSONRPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, a2a.MethodMessageStream, req.Method)

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		writeSSE(w, flusher, rpcResult(t, `{"kind":"task","id":"t-1","status":{"state":"submitted"}}`))
		writeSSE(w, flusher, rpcResult(t, `{"kind":"status-update","taskId":"t-1","final":false,"status":{"state":"working","message":{"role":"agent","messageId":"m-1","parts":[{"kind":"text","text":"thinking"}]}}}`))
		writeSSE(w, flusher, rpcResult(t, `{"kind":"status-update","taskId":"t-1","final":true,"status":{"state":"completed","message":{"role":"agent","messageId":"m-2","parts":[{"kind":"text","text":"answer"}]}}}`))
		// Anything after the final event must never be delivered.
		writeSSE(w, flusher, rpcResult(t, `{"kind":"status-update","taskId":"t-1","final":false,"status":{"state":"working"}}`))
	}))
	defer srv.Close()

	tr := NewJSONRPC()
	items, err := tr.Stream(context.Background(), srv.URL, a2a.NewUserMessage("go"))
	require.NoError(t, err)

	var events []a2a.StreamEvent
	for item := range items {
		require.NoError(t, item.Err)
		events = append(events, item.Event)
	}

	require.Len(t, events, 3)
	assert.NotNil(t, events[0].Task)
	assert.Equal(t, a2a.TaskStateWorking, events[1].StatusUpdate.Status.State)
	assert.True(t, events[2].StatusUpdate.Final)
	assert.Equal(t, a2a.TaskStateCompleted, events[2].StatusUpdate.Status.State)
}

func TestJSONRPCTransport_StreamAbandonReleasesConnection(t *testing.T) {
	serverSawCancel := make(chan struct{})
	firstEventSent := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		writeSSE(w, flusher, rpcResult(t, `{"kind":"status-update","taskId":"t-1","final":false,"status":{"state":"working"}}`))
		close(firstEventSent)
		<-r.Context().Done()
		close(serverSawCancel)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	tr := NewJSONRPC()
	items, err := tr.Stream(ctx, srv.URL, a2a.NewUserMessage("go"))
	require.NoError(t, err)

	<-firstEventSent
	item := <-items
	require.NoError(t, item.Err)
	require.NotNil(t, item.Event.StatusUpdate)

	// Abandon the subscription.
	cancel()

	select {
	case <-serverSawCancel:
	case <-time.After(5 * time.Second):
		t.Fatal("server never observed the connection being released")
	}

	// The channel must close without surfacing a cancellation error.
	for item := range items {
		require.NoError(t, item.Err)
	}
}

func TestJSONRPCTransport_StreamUndecodablePayloadEndsStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		writeSSE(w, flusher, rpcResult(t, `{"kind":"status-update","taskId":"t-1","final":false,"status":{"state":"working"}}`))
		writeSSE(w, flusher, `{"kind":"status-update","taskId":"t-1","status":{"state":"working","message":{"role":"agent","messageId":"m-1","parts":[{"kind":"hologram"}]}}}`)
		// Nothing after a broken payload may be delivered.
		writeSSE(w, flusher, rpcResult(t, `{"kind":"status-update","taskId":"t-1","final":true,"status":{"state":"completed"}}`))
	}))
	defer srv.Close()

	tr := NewJSONRPC()
	items, err := tr.Stream(context.Background(), srv.URL, a2a.NewUserMessage("go"))
	require.NoError(t, err)

	first, ok := <-items
	require.True(t, ok)
	require.NoError(t, first.Err)
	require.NotNil(t, first.Event.StatusUpdate)

	second, ok := <-items
	require.True(t, ok)
	require.Error(t, second.Err, "a broken payload must surface, not be skipped")
	assert.Contains(t, second.Err.Error(), "undecodable stream payload")

	_, ok = <-items
	assert.False(t, ok, "channel must close after the error")
}

func TestJSONRPCTransport_StreamMessageEventTerminates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		writeSSE(w, flusher, rpcResult(t, `{"kind":"message","role":"agent","messageId":"m-1","parts":[{"kind":"text","text":"direct reply"}]}`))
	}))
	defer srv.Close()

	tr := NewJSONRPC()
	items, err := tr.Stream(context.Background(), srv.URL, a2a.NewUserMessage("hi"))
	require.NoError(t, err)

	item, ok := <-items
	require.True(t, ok)
	require.NotNil(t, item.Event.Message)
	assert.Equal(t, "direct reply", a2a.TextContent(item.Event.Message))

	_, ok = <-items
	assert.False(t, ok, "channel must close after a bare message event")
}
