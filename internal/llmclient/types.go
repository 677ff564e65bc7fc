// Package llmclient wraps an OpenAI-compatible chat completions endpoint,
// used by the Plan, Coverage and Draft stages to get structured output
// back from a model via function calling.
package llmclient

import "encoding/json"

// Role constants for Message.Role.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single chat turn.
type Message struct {
	Role       string
	Content    string
	ToolCallID string     // set on RoleTool messages, correlates with ToolCall.ID
	Name       string     // tool name, set on RoleTool messages
	ToolCalls  []ToolCall // set on RoleAssistant messages carrying FC output
}

// ToolCall is one function call the model asked to make.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// FunctionSpec describes a single callable function offered to the model
// via the tools parameter of a chat completion request.
type FunctionSpec struct {
	Name        string
	Description string
	Parameters  json.RawMessage // JSON Schema object
}
