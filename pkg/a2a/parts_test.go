package a2a

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestPart_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Part
		wantErr bool
	}{
		{
			name:  "text part",
			input: `{"kind":"text","text":"hello"}`,
			want:  Part{Kind: PartKindText, Text: "hello"},
		},
		{
			name:  "empty text part",
			input: `{"kind":"text","text":""}`,
			want:  Part{Kind: PartKindText},
		},
		{
			name:  "data part",
			input: `{"kind":"data","data":{"answer":42}}`,
			want:  Part{Kind: PartKindData, Data: map[string]any{"answer": float64(42)}},
		},
		{
			name:  "file part with uri",
			input: `{"kind":"file","file":{"name":"report.pdf","mimeType":"application/pdf","uri":"https://files.example.com/report.pdf"}}`,
			want: Part{Kind: PartKindFile, File: &FileContent{
				Name: "report.pdf", MimeType: "application/pdf", URI: "https://files.example.com/report.pdf",
			}},
		},
		{
			name:  "unknown fields tolerated",
			input: `{"kind":"text","text":"hi","metadata":{"x":1},"futureField":true}`,
			want:  Part{Kind: PartKindText, Text: "hi"},
		},
		{
			name:    "unknown kind rejected",
			input:   `{"kind":"video","uri":"rtsp://cam"}`,
			wantErr: true,
		},
		{
			name:    "missing kind rejected",
			input:   `{"text":"hello"}`,
			wantErr: true,
		},
		{
			name:    "file part without content rejected",
			input:   `{"kind":"file","file":{"name":"empty.bin"}}`,
			wantErr: true,
		},
		{
			name:    "data part without payload rejected",
			input:   `{"kind":"data"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Part
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got part %+v", got)
				}
				var malformed *MalformedPartError
				if !errors.As(err, &malformed) {
					t.Fatalf("expected MalformedPartError, got %T: %v", err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Kind != tt.want.Kind || got.Text != tt.want.Text {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPart_MalformedInsideMessage(t *testing.T) {
	input := `{"role":"agent","messageId":"m1","parts":[{"kind":"text","text":"ok"},{"kind":"hologram"}]}`
	var msg Message
	err := json.Unmarshal([]byte(input), &msg)
	if err == nil {
		t.Fatal("expected decode failure for message containing unknown part kind")
	}
	var malformed *MalformedPartError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedPartError, got %T: %v", err, err)
	}
}

func TestPart_RoundTrip(t *testing.T) {
	orig := NewFilePartBytes("notes.txt", "text/plain", "aGVsbG8=")
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Part
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.File == nil || back.File.Bytes != "aGVsbG8=" || back.File.Name != "notes.txt" {
		t.Errorf("round trip lost file content: %+v", back.File)
	}
}

func TestTextContent(t *testing.T) {
	msg := &Message{
		Role: MessageRoleAgent,
		Parts: []Part{
			NewTextPart("first"),
			NewDataPart(map[string]any{"k": "v"}),
			NewTextPart("second"),
		},
	}
	if got := TextContent(msg); got != "first\nsecond" {
		t.Errorf("TextContent = %q, want %q", got, "first\nsecond")
	}
	if got := TextContent(nil); got != "" {
		t.Errorf("TextContent(nil) = %q, want empty", got)
	}
}
