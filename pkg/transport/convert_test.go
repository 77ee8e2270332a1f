package transport

import (
	"encoding/base64"
	"testing"

	a2asdk "github.com/a2aproject/a2a-go/a2a"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentbridge/agentbridge/pkg/a2a"
)

func TestFromSDKCardMapsProvider(t *testing.T) {
	card := fromSDKCard(&a2asdk.AgentCard{
		Name:    "researcher",
		URL:     "http://localhost:9000",
		Version: "1.2.0",
		Provider: &a2asdk.AgentProvider{
			Org: "Example Labs",
			URL: "https://example.test",
		},
		Capabilities: a2asdk.AgentCapabilities{Streaming: true},
	})

	require.NotNil(t, card.Provider)
	assert.Equal(t, "Example Labs", card.Provider.Organization)
	assert.Equal(t, "https://example.test", card.Provider.URL)
	assert.True(t, card.Capabilities.Streaming)
}

func TestToSDKPartsFileConversion(t *testing.T) {
	payload := []byte("report body")
	parts := toSDKParts([]a2a.Part{
		a2a.NewFilePartBytes("report.txt", "text/plain", base64.StdEncoding.EncodeToString(payload)),
		a2a.NewFilePartURI("remote.pdf", "application/pdf", "https://example.test/remote.pdf"),
	})
	require.Len(t, parts, 2)

	inline, ok := parts[0].(a2asdk.FilePart)
	require.True(t, ok)
	bytesFile, ok := inline.File.(a2asdk.FileBytes)
	require.True(t, ok)
	assert.Equal(t, "report body", bytesFile.Bytes, "inline content crosses the boundary decoded")
	assert.Equal(t, "text/plain", bytesFile.MimeType)

	ref, ok := parts[1].(a2asdk.FilePart)
	require.True(t, ok)
	uriFile, ok := ref.File.(a2asdk.FileURI)
	require.True(t, ok)
	assert.Equal(t, "https://example.test/remote.pdf", uriFile.URI)
	assert.Equal(t, "application/pdf", uriFile.MimeType)
}

func TestFromSDKPartsEncodesFileBytes(t *testing.T) {
	parts := fromSDKParts([]a2asdk.Part{
		a2asdk.FilePart{File: a2asdk.FileBytes{Bytes: "raw content"}},
	})
	require.Len(t, parts, 1)
	require.Equal(t, a2a.PartKindFile, parts[0].Kind)
	require.NotNil(t, parts[0].File)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("raw content")), parts[0].File.Bytes)
}
