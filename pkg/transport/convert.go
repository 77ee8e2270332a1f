package transport

import (
	"encoding/base64"
	"time"

	a2asdk "github.com/a2aproject/a2a-go/a2a"
	"github.com/google/uuid"

	"github.com/agentbridge/agentbridge/pkg/a2a"
)

// Conversions between the a2a-go SDK types and the wire model. State and
// role values are shared strings on both sides, so those convert by cast.

func fromSDKCard(card *a2asdk.AgentCard) *a2a.AgentCard {
	out := &a2a.AgentCard{
		Name:               card.Name,
		Description:        card.Description,
		URL:                card.URL,
		Version:            card.Version,
		ProtocolVersion:    card.ProtocolVersion,
		PreferredTransport: string(card.PreferredTransport),
		Capabilities: a2a.AgentCapabilities{
			Streaming:              card.Capabilities.Streaming,
			PushNotifications:      card.Capabilities.PushNotifications,
			StateTransitionHistory: card.Capabilities.StateTransitionHistory,
		},
		DefaultInputModes:  card.DefaultInputModes,
		DefaultOutputModes: card.DefaultOutputModes,
	}
	if card.Provider != nil {
		out.Provider = &a2a.AgentProvider{
			Organization: card.Provider.Org,
			URL:          card.Provider.URL,
		}
	}
	for _, skill := range card.Skills {
		out.Skills = append(out.Skills, a2a.AgentSkill{
			ID:          skill.ID,
			Name:        skill.Name,
			Description: skill.Description,
			Tags:        skill.Tags,
			Examples:    skill.Examples,
		})
	}
	return out
}

func toSDKMessage(msg *a2a.Message) *a2asdk.Message {
	sdkMsg := a2asdk.NewMessage(a2asdk.MessageRole(msg.Role), toSDKParts(msg.Parts)...)
	sdkMsg.TaskID = a2asdk.TaskID(msg.TaskID)
	sdkMsg.ContextID = msg.ContextID
	return sdkMsg
}

func toSDKParts(parts []a2a.Part) []a2asdk.Part {
	out := make([]a2asdk.Part, 0, len(parts))
	for _, p := range parts {
		switch p.Kind {
		case a2a.PartKindText:
			out = append(out, a2asdk.TextPart{Text: p.Text})
		case a2a.PartKindData:
			out = append(out, a2asdk.DataPart{Data: p.Data})
		case a2a.PartKindFile:
			if p.File == nil {
				continue
			}
			meta := a2asdk.FileMeta{MimeType: p.File.MimeType}
			if p.File.URI != "" {
				out = append(out, a2asdk.FilePart{File: a2asdk.FileURI{
					FileMeta: meta,
					URI:      p.File.URI,
				}})
				continue
			}
			raw, err := base64.StdEncoding.DecodeString(p.File.Bytes)
			if err != nil {
				// Not valid base64; forward the payload untouched.
				raw = []byte(p.File.Bytes)
			}
			out = append(out, a2asdk.FilePart{File: a2asdk.FileBytes{
				FileMeta: meta,
				Bytes:    string(raw),
			}})
		}
	}
	return out
}

func fromSDKMessage(msg *a2asdk.Message) *a2a.Message {
	if msg == nil {
		return nil
	}
	return &a2a.Message{
		Role:      a2a.MessageRole(msg.Role),
		Parts:     fromSDKParts(msg.Parts),
		MessageID: uuid.NewString(),
		TaskID:    string(msg.TaskID),
		ContextID: msg.ContextID,
		Kind:      "message",
	}
}

func fromSDKParts(parts []a2asdk.Part) []a2a.Part {
	out := make([]a2a.Part, 0, len(parts))
	for _, part := range parts {
		switch p := part.(type) {
		case a2asdk.TextPart:
			out = append(out, a2a.NewTextPart(p.Text))
		case a2asdk.DataPart:
			out = append(out, a2a.NewDataPart(p.Data))
		case a2asdk.FilePart:
			switch f := p.File.(type) {
			case a2asdk.FileBytes:
				out = append(out, a2a.NewFilePartBytes("", f.MimeType,
					base64.StdEncoding.EncodeToString([]byte(f.Bytes))))
			case a2asdk.FileURI:
				out = append(out, a2a.NewFilePartURI("", f.MimeType, f.URI))
			}
		}
	}
	return out
}

func fromSDKTask(task *a2asdk.Task) *a2a.Task {
	if task == nil {
		return nil
	}
	out := &a2a.Task{
		ID:        string(task.ID),
		ContextID: task.ContextID,
		Status:    fromSDKStatus(task.Status),
		Kind:      "task",
	}
	for _, msg := range task.History {
		if converted := fromSDKMessage(msg); converted != nil {
			out.History = append(out.History, *converted)
		}
	}
	for _, artifact := range task.Artifacts {
		if artifact == nil {
			continue
		}
		out.Artifacts = append(out.Artifacts, a2a.Artifact{Parts: fromSDKParts(artifact.Parts)})
	}
	return out
}

func fromSDKStatus(status a2asdk.TaskStatus) a2a.TaskStatus {
	return a2a.TaskStatus{
		State:   a2a.TaskState(status.State),
		Message: fromSDKMessage(status.Message),
		// The SDK does not surface the wire timestamp; record receipt time.
		Timestamp: time.Now(),
	}
}

// fromSDKEvent converts a streaming event. Unknown event types are skipped.
func fromSDKEvent(event a2asdk.Event) (a2a.StreamEvent, bool) {
	switch e := event.(type) {
	case *a2asdk.Message:
		return a2a.StreamEvent{Message: fromSDKMessage(e)}, true
	case *a2asdk.Task:
		return a2a.StreamEvent{Task: fromSDKTask(e)}, true
	case *a2asdk.TaskStatusUpdateEvent:
		return a2a.StreamEvent{StatusUpdate: &a2a.TaskStatusUpdateEvent{
			TaskID:    string(e.TaskID),
			ContextID: e.ContextID,
			Status:    fromSDKStatus(e.Status),
			Final:     e.Final,
			Kind:      "status-update",
		}}, true
	case *a2asdk.TaskArtifactUpdateEvent:
		return a2a.StreamEvent{ArtifactUpdate: &a2a.TaskArtifactUpdateEvent{
			TaskID:    string(e.TaskID),
			ContextID: e.ContextID,
			Artifact:  a2a.Artifact{Parts: fromSDKParts(e.Artifact.Parts)},
			LastChunk: e.LastChunk,
			Kind:      "artifact-update",
		}}, true
	default:
		return a2a.StreamEvent{}, false
	}
}
