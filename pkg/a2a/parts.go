package a2a

import (
	"encoding/json"
	"fmt"
)

// ============================================================================
// PART - Message Content Union
// ============================================================================

// PartKind is the "kind" discriminant of the part union.
type PartKind string

const (
	PartKindText PartKind = "text"
	PartKindFile PartKind = "file"
	PartKindData PartKind = "data"
)

// Part is one element of a message's content. The union is closed: a part is
// a text part, a file part, or a data part, discriminated by Kind. Unknown
// fields on a part are tolerated; an unknown or missing kind is not.
type Part struct {
	Kind PartKind `json:"kind"`

	// Text part
	Text string `json:"text,omitempty"`

	// File part
	File *FileContent `json:"file,omitempty"`

	// Data part
	Data map[string]any `json:"data,omitempty"`
}

// FileContent carries a file either inline (base64 bytes) or by reference.
type FileContent struct {
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Bytes    string `json:"bytes,omitempty"` // base64-encoded content
	URI      string `json:"uri,omitempty"`
}

// MalformedPartError reports a part that could not be decoded because its
// kind discriminant is missing, unknown, or inconsistent with its payload.
type MalformedPartError struct {
	Kind   string
	Reason string
}

func (e *MalformedPartError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("malformed part: %s", e.Reason)
	}
	return fmt.Sprintf("malformed part (kind %q): %s", e.Kind, e.Reason)
}

// UnmarshalJSON decodes a part and validates its discriminant. Decoding is
// strict on the union shape only: extra fields pass through untouched.
func (p *Part) UnmarshalJSON(data []byte) error {
	type alias Part
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch raw.Kind {
	case PartKindText:
		// Empty text is legal; agents emit it for keepalive turns.
	case PartKindFile:
		if raw.File == nil {
			return &MalformedPartError{Kind: string(raw.Kind), Reason: "file part has no file object"}
		}
		if raw.File.Bytes == "" && raw.File.URI == "" {
			return &MalformedPartError{Kind: string(raw.Kind), Reason: "file part carries neither bytes nor uri"}
		}
	case PartKindData:
		if raw.Data == nil {
			return &MalformedPartError{Kind: string(raw.Kind), Reason: "data part has no data object"}
		}
	case "":
		return &MalformedPartError{Reason: "missing kind discriminant"}
	default:
		return &MalformedPartError{Kind: string(raw.Kind), Reason: "unknown part kind"}
	}

	*p = Part(raw)
	return nil
}

// NewTextPart builds a text part.
func NewTextPart(text string) Part {
	return Part{Kind: PartKindText, Text: text}
}

// NewDataPart builds a data part from a structured payload.
func NewDataPart(data map[string]any) Part {
	return Part{Kind: PartKindData, Data: data}
}

// NewFilePartBytes builds a file part with inline base64 content.
func NewFilePartBytes(name, mimeType, b64 string) Part {
	return Part{Kind: PartKindFile, File: &FileContent{Name: name, MimeType: mimeType, Bytes: b64}}
}

// NewFilePartURI builds a file part referencing external content.
func NewFilePartURI(name, mimeType, uri string) Part {
	return Part{Kind: PartKindFile, File: &FileContent{Name: name, MimeType: mimeType, URI: uri}}
}
