package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentbridge/agentbridge/pkg/a2a"
	"github.com/agentbridge/agentbridge/pkg/transport"
)

// fakeTransport is a scriptable transport double that counts stream opens
// and closes so tests can assert resource release.
type fakeTransport struct {
	card    *a2a.AgentCard
	cardErr error

	sendErr   error
	sendDelay time.Duration
	sendFn    func(msg *a2a.Message) *transport.SendResult

	events    []a2a.StreamEvent
	streamErr error

	cardFetches atomic.Int32
	opens       atomic.Int32
	closes      atomic.Int32
}

func (f *fakeTransport) FetchCard(ctx context.Context, cardURL string) (*a2a.AgentCard, error) {
	f.cardFetches.Add(1)
	if f.cardErr != nil {
		return nil, f.cardErr
	}
	return f.card, nil
}

func (f *fakeTransport) Send(ctx context.Context, url string, msg *a2a.Message) (*transport.SendResult, error) {
	if f.sendDelay > 0 {
		select {
		case <-time.After(f.sendDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	if f.sendFn != nil {
		return f.sendFn(msg), nil
	}
	return &transport.SendResult{Task: &a2a.Task{
		ID:     "t-fake",
		Status: a2a.TaskStatus{State: a2a.TaskStateCompleted},
	}}, nil
}

func (f *fakeTransport) Stream(ctx context.Context, url string, msg *a2a.Message) (<-chan transport.StreamItem, error) {
	f.opens.Add(1)
	items := make(chan transport.StreamItem)
	go func() {
		defer f.closes.Add(1)
		defer close(items)
		for _, ev := range f.events {
			select {
			case items <- transport.StreamItem{Event: ev}:
			case <-ctx.Done():
				return
			}
		}
		if f.streamErr != nil {
			select {
			case items <- transport.StreamItem{Err: f.streamErr}:
			case <-ctx.Done():
			}
		}
	}()
	return items, nil
}

func healthyCard() *a2a.AgentCard {
	return &a2a.AgentCard{
		Name:         "researcher",
		URL:          "http://researcher.internal:9100",
		Version:      "1.0.0",
		Capabilities: a2a.AgentCapabilities{Streaming: true},
	}
}

func statusEvent(taskID string, state a2a.TaskState, final bool, text string) a2a.StreamEvent {
	var msg *a2a.Message
	if text != "" {
		msg = &a2a.Message{
			Role:      a2a.MessageRoleAgent,
			Parts:     []a2a.Part{a2a.NewTextPart(text)},
			MessageID: "m-" + taskID,
		}
	}
	return a2a.StreamEvent{StatusUpdate: &a2a.TaskStatusUpdateEvent{
		TaskID: taskID,
		Status: a2a.TaskStatus{State: state, Message: msg, Timestamp: time.Now()},
		Final:  final,
	}}
}

func TestNewClient_CardFetchedExactlyOnce(t *testing.T) {
	tr := &fakeTransport{card: healthyCard()}
	c := NewClient(context.Background(), "researcher", "http://researcher.internal:9100/.well-known/agent-card.json", tr)

	require.True(t, c.Healthy())
	assert.Empty(t, c.ErrorMessage())
	assert.Equal(t, "researcher", c.Name())
	require.NotNil(t, c.Card())

	// Sends never re-probe.
	_, err := c.Send(context.Background(), "hello")
	require.NoError(t, err)
	_, err = c.Send(context.Background(), "again")
	require.NoError(t, err)
	assert.Equal(t, int32(1), tr.cardFetches.Load())
}

func TestClient_UnhealthyFailsFast(t *testing.T) {
	tr := &fakeTransport{cardErr: errors.New("connection refused")}
	c := NewClient(context.Background(), "researcher", "http://nowhere/.well-known/agent-card.json", tr)

	require.False(t, c.Healthy())
	assert.Contains(t, c.ErrorMessage(), "connection refused")
	assert.Nil(t, c.Card())

	_, err := c.Send(context.Background(), "hello")
	var unhealthy *AgentUnhealthyError
	require.ErrorAs(t, err, &unhealthy)
	assert.Equal(t, "researcher", unhealthy.Name)

	_, err = c.SendStreaming(context.Background(), "hello")
	require.ErrorAs(t, err, &unhealthy)
}

func TestClient_SendFailureDoesNotMutateHealth(t *testing.T) {
	tr := &fakeTransport{card: healthyCard(), sendErr: errors.New("boom")}
	c := NewClient(context.Background(), "researcher", "url", tr)
	require.True(t, c.Healthy())

	_, err := c.Send(context.Background(), "hello")
	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.ErrorContains(t, sendErr, "boom")

	assert.True(t, c.Healthy(), "send failures must not flip health")
	assert.Empty(t, c.ErrorMessage())
}

func TestClient_SendTimeout(t *testing.T) {
	tr := &fakeTransport{card: healthyCard(), sendDelay: time.Second}
	c := NewClient(context.Background(), "researcher", "url", tr, WithSendTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := c.Send(context.Background(), "hello")
	var timeout *ResponseTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 20*time.Millisecond, timeout.Timeout)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.True(t, c.Healthy())
}

func TestClient_SendPreservesPayloadPolymorphism(t *testing.T) {
	msgResult := &transport.SendResult{Message: &a2a.Message{
		Role:      a2a.MessageRoleAgent,
		Parts:     []a2a.Part{a2a.NewTextPart("bare reply")},
		MessageID: "m-1",
	}}
	tr := &fakeTransport{card: healthyCard(), sendFn: func(*a2a.Message) *transport.SendResult { return msgResult }}
	c := NewClient(context.Background(), "researcher", "url", tr)

	result, err := c.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Nil(t, result.Task)
	require.NotNil(t, result.Message)
	assert.Equal(t, "bare reply", a2a.TextContent(result.Message))
}

func TestClient_SendStreamingOrderAndTerminalLast(t *testing.T) {
	tr := &fakeTransport{card: healthyCard(), events: []a2a.StreamEvent{
		statusEvent("t-1", a2a.TaskStateSubmitted, false, ""),
		statusEvent("t-1", a2a.TaskStateWorking, false, "step one"),
		statusEvent("t-1", a2a.TaskStateWorking, false, "step two"),
		statusEvent("t-1", a2a.TaskStateCompleted, true, "all done"),
	}}
	c := NewClient(context.Background(), "researcher", "url", tr)

	updates, err := c.SendStreaming(context.Background(), "go")
	require.NoError(t, err)

	var got []TaskUpdate
	for u := range updates {
		require.NoError(t, u.Err)
		got = append(got, u)
	}

	require.Len(t, got, 4)
	states := []a2a.TaskState{a2a.TaskStateSubmitted, a2a.TaskStateWorking, a2a.TaskStateWorking, a2a.TaskStateCompleted}
	for i, want := range states {
		assert.Equal(t, want, got[i].Task.Status.State)
		assert.Equal(t, i == 3, got[i].Final, "only the terminal update is final")
	}
}

func TestClient_SendStreamingDropsPostTerminalEvents(t *testing.T) {
	tr := &fakeTransport{card: healthyCard(), events: []a2a.StreamEvent{
		statusEvent("t-1", a2a.TaskStateWorking, false, ""),
		statusEvent("t-1", a2a.TaskStateCompleted, false, "done"),
		// Protocol violation: the task already completed.
		statusEvent("t-1", a2a.TaskStateWorking, false, "zombie"),
		statusEvent("t-1", a2a.TaskStateFailed, true, ""),
	}}
	c := NewClient(context.Background(), "researcher", "url", tr)

	updates, err := c.SendStreaming(context.Background(), "go")
	require.NoError(t, err)

	var got []TaskUpdate
	for u := range updates {
		require.NoError(t, u.Err)
		got = append(got, u)
	}

	require.Len(t, got, 2, "post-terminal events must be dropped")
	assert.Equal(t, a2a.TaskStateCompleted, got[1].Task.Status.State)
	assert.True(t, got[1].Final)
}

func TestClient_SendStreamingSynthesizesTaskFromMessage(t *testing.T) {
	tr := &fakeTransport{card: healthyCard(), events: []a2a.StreamEvent{
		{Message: &a2a.Message{
			Role:      a2a.MessageRoleAgent,
			Parts:     []a2a.Part{a2a.NewTextPart("immediate answer")},
			MessageID: "m-1",
			TaskID:    "t-77",
		}},
	}}
	c := NewClient(context.Background(), "researcher", "url", tr)

	updates, err := c.SendStreaming(context.Background(), "go")
	require.NoError(t, err)

	u := <-updates
	require.NoError(t, u.Err)
	require.NotNil(t, u.Task)
	assert.True(t, u.Final)
	assert.Equal(t, "t-77", u.Task.ID, "taskId of the message is adopted")
	assert.Equal(t, a2a.TaskStateCompleted, u.Task.Status.State)
	assert.False(t, u.Task.Status.Timestamp.IsZero())
	require.Len(t, u.Task.History, 1)
	assert.Equal(t, "immediate answer", a2a.TaskText(u.Task))

	_, ok := <-updates
	assert.False(t, ok)
}

func TestSynthesizeTask_FreshIDWhenMessageHasNone(t *testing.T) {
	task := SynthesizeTask(&a2a.Message{
		Role:      a2a.MessageRoleAgent,
		Parts:     []a2a.Part{a2a.NewTextPart("hi")},
		MessageID: "m-1",
	})
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, a2a.TaskStateCompleted, task.Status.State)
}

func TestClient_SendStreamingSurfacesStreamError(t *testing.T) {
	tr := &fakeTransport{card: healthyCard(),
		events:    []a2a.StreamEvent{statusEvent("t-1", a2a.TaskStateWorking, false, "")},
		streamErr: errors.New("connection reset"),
	}
	c := NewClient(context.Background(), "researcher", "url", tr)

	updates, err := c.SendStreaming(context.Background(), "go")
	require.NoError(t, err)

	first := <-updates
	require.NoError(t, first.Err)

	second := <-updates
	var sendErr *SendError
	require.ErrorAs(t, second.Err, &sendErr)
	assert.Nil(t, second.Task)

	_, ok := <-updates
	assert.False(t, ok, "channel closes after the error update")
	assert.True(t, c.Healthy(), "stream failures must not flip health")
}

func TestClient_AbandonedStreamReleasesTransport(t *testing.T) {
	// Enough events that the producer would outlive an impatient consumer.
	events := make([]a2a.StreamEvent, 100)
	for i := range events {
		events[i] = statusEvent("t-1", a2a.TaskStateWorking, false, fmt.Sprintf("step %d", i))
	}
	tr := &fakeTransport{card: healthyCard(), events: events}
	c := NewClient(context.Background(), "researcher", "url", tr)

	ctx, cancel := context.WithCancel(context.Background())
	updates, err := c.SendStreaming(ctx, "go")
	require.NoError(t, err)

	// Consume one update, then walk away.
	<-updates
	cancel()

	require.Eventually(t, func() bool {
		return tr.closes.Load() == tr.opens.Load() && tr.opens.Load() == 1
	}, 5*time.Second, 10*time.Millisecond, "abandoned stream must release the transport")
}

func TestClient_ConcurrentSendsCorrelate(t *testing.T) {
	tr := &fakeTransport{card: healthyCard(), sendFn: func(msg *a2a.Message) *transport.SendResult {
		// Echo the request text so each caller can verify its own reply.
		return &transport.SendResult{Message: &a2a.Message{
			Role:      a2a.MessageRoleAgent,
			Parts:     []a2a.Part{a2a.NewTextPart("echo: " + a2a.TextContent(msg))},
			MessageID: "m-" + msg.MessageID,
		}}
	}}
	c := NewClient(context.Background(), "researcher", "url", tr)

	const n = 32
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := fmt.Sprintf("request-%d", i)
			result, err := c.Send(context.Background(), text)
			if err != nil {
				errs <- err
				return
			}
			if got := a2a.TextContent(result.Message); got != "echo: "+text {
				errs <- fmt.Errorf("response %q does not correlate with request %q", got, text)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
