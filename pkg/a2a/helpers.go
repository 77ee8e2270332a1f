package a2a

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// NewUserMessage wraps plain text in a user-role message with a fresh id.
func NewUserMessage(text string) *Message {
	return &Message{
		Role:      MessageRoleUser,
		Parts:     []Part{NewTextPart(text)},
		MessageID: uuid.NewString(),
		Kind:      "message",
	}
}

// TextContent joins the text parts of a message with newlines, in part order.
// Non-text parts are skipped.
func TextContent(msg *Message) string {
	if msg == nil {
		return ""
	}
	var texts []string
	for _, p := range msg.Parts {
		if p.Kind == PartKindText {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// TaskText extracts the text carried by a task's current status message.
func TaskText(task *Task) string {
	if task == nil {
		return ""
	}
	return TextContent(task.Status.Message)
}

// kindProbe reads just the discriminant of a wire object.
type kindProbe struct {
	Kind string `json:"kind"`
}

// DecodeResult decodes the polymorphic result of message/send, which is
// either a Message or a Task, discriminated by "kind".
func DecodeResult(raw json.RawMessage) (*Message, *Task, error) {
	var probe kindProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, nil, err
	}
	switch probe.Kind {
	case "task":
		var task Task
		if err := json.Unmarshal(raw, &task); err != nil {
			return nil, nil, err
		}
		return nil, &task, nil
	case "message", "":
		// Some agents omit the discriminant on bare messages.
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, nil, err
		}
		return &msg, nil, nil
	default:
		return nil, nil, &MalformedPartError{Kind: probe.Kind, Reason: "unknown result kind"}
	}
}

// DecodeStreamEvent decodes one message/stream payload into its event union.
func DecodeStreamEvent(raw json.RawMessage) (StreamEvent, error) {
	var probe kindProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return StreamEvent{}, err
	}
	switch probe.Kind {
	case "status-update":
		var ev TaskStatusUpdateEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return StreamEvent{}, err
		}
		return StreamEvent{StatusUpdate: &ev}, nil
	case "artifact-update":
		var ev TaskArtifactUpdateEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return StreamEvent{}, err
		}
		return StreamEvent{ArtifactUpdate: &ev}, nil
	case "task":
		var task Task
		if err := json.Unmarshal(raw, &task); err != nil {
			return StreamEvent{}, err
		}
		return StreamEvent{Task: &task}, nil
	case "message", "":
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			return StreamEvent{}, err
		}
		return StreamEvent{Message: &msg}, nil
	default:
		return StreamEvent{}, &MalformedPartError{Kind: probe.Kind, Reason: "unknown event kind"}
	}
}
