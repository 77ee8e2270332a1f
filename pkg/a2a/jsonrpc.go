package a2a

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ============================================================================
// JSON-RPC 2.0 ENVELOPE
// ============================================================================

// JSONRPCVersion is the fixed "jsonrpc" field of every envelope.
const JSONRPCVersion = "2.0"

// RPC method names.
const (
	MethodMessageSend   = "message/send"
	MethodMessageStream = "message/stream"
	MethodTasksGet      = "tasks/get"
	MethodTasksCancel   = "tasks/cancel"
)

// JSONRPCRequest is an outbound JSON-RPC 2.0 call.
type JSONRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// JSONRPCResponse is an inbound JSON-RPC 2.0 reply. Exactly one of Result and
// Error is set on a well-formed response.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError is the error member of a JSON-RPC 2.0 response.
type JSONRPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *JSONRPCError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Standard JSON-RPC 2.0 error codes.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// NewRequest builds a request with a fresh correlation id. Each call owns its
// id, so concurrent exchanges over the same client never collide.
func NewRequest(method string, params any) *JSONRPCRequest {
	return &JSONRPCRequest{
		JSONRPC: JSONRPCVersion,
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	}
}
