package stage

import (
	"encoding/json"
	"fmt"

	"github.com/pocketomega/support-agent/internal/llmclient"
)

// extractFunctionArgs returns the raw JSON arguments of the named
// function call from resp, or an error if the model didn't call it.
// Plan, Coverage and Draft each offer the model a single named function
// (without forcing it via tool_choice) and parse its arguments as their
// structured output.
func extractFunctionArgs(resp llmclient.Message, functionName string) (json.RawMessage, error) {
	for _, tc := range resp.ToolCalls {
		if tc.Name == functionName {
			return tc.Arguments, nil
		}
	}
	return nil, fmt.Errorf("model did not call %q (got %d tool call(s))", functionName, len(resp.ToolCalls))
}
