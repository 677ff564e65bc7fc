package toolserver

import "github.com/pocketomega/support-agent/internal/state"

// actionTools names the tools the catalog tags as action tools rather
// than gather tools. Every other tool the server advertises is a gather
// tool. match_and_link_conversation_to_ticket is the one internal action
// this deployment's tool server exposes today.
var actionTools = map[string]state.ToolType{
	"match_and_link_conversation_to_ticket": state.ToolTypeInternalAction,
}

// Catalog converts the raw tool list returned by ListTools into the
// ToolDescriptor map RunState carries, tagging each entry with its
// ToolType so Plan can partition proposed calls into gather vs. action.
func Catalog(tools []ToolInfo) map[string]state.ToolDescriptor {
	catalog := make(map[string]state.ToolDescriptor, len(tools))
	for _, t := range tools {
		toolType, ok := actionTools[t.Name]
		if !ok {
			toolType = state.ToolTypeGather
		}
		catalog[t.Name] = state.ToolDescriptor{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
			ToolType:    toolType,
		}
	}
	return catalog
}
