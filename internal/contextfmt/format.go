// Package contextfmt builds the text blocks substituted into prompt
// templates pulled from internal/promptregistry: conversation history,
// user details, tool catalogs and per-hop gather summaries.
package contextfmt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pocketomega/support-agent/internal/state"
)

// truncate trims s to maxLen runes, appending "..." when trimmed.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// ConversationHistory renders the subject (if any) and the numbered
// message history, each message's attachments rendered on indented
// lines beneath it: name, content type, URL, and optional size/
// dimensions. Matches
// original_source/src/utils/prompts.py:format_conversation_history.
func ConversationHistory(messages []state.Message, subject string) string {
	var parts []string

	if subject != "" {
		parts = append(parts, fmt.Sprintf("Subject: %s\n", subject))
	}

	if len(messages) == 0 {
		parts = append(parts, "Conversation: No messages available")
		return strings.Join(parts, "\n")
	}

	parts = append(parts, "Conversation:")
	for i, m := range messages {
		parts = append(parts, fmt.Sprintf("%d. %s: %s", i+1, titleCaseRole(m.Role), m.Content))
		for j, att := range m.Attachments {
			parts = append(parts, formatAttachment(j+1, att))
		}
	}
	return strings.Join(parts, "\n")
}

// titleCaseRole renders a message role the way the Python helper's
// str.title() does: "user" -> "User", "assistant" -> "Assistant".
func titleCaseRole(role string) string {
	if role == "" {
		return "Unknown"
	}
	return strings.ToUpper(role[:1]) + role[1:]
}

// formatAttachment renders one attachment block under its message,
// index-numbered within that message's attachment list.
func formatAttachment(index int, att state.Attachment) string {
	name := att.Name
	if name == "" {
		name = "Unknown file"
	}
	contentType := att.ContentType
	if contentType == "" {
		contentType = "unknown"
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("   📎 Attachment %d: %s (Type: %s)", index, name, contentType))
	if att.URL != "" {
		lines = append(lines, fmt.Sprintf("      URL: %s", att.URL))
	}
	if att.Filesize > 0 {
		lines = append(lines, fmt.Sprintf("      Size: %.1f KB", float64(att.Filesize)/1024))
	}
	if att.Width > 0 && att.Height > 0 {
		lines = append(lines, fmt.Sprintf("      Dimensions: %dx%d", att.Width, att.Height))
	}
	return strings.Join(lines, "\n")
}

// UserDetails renders the known contact info, or a placeholder if absent.
func UserDetails(u state.UserDetails) string {
	if u.Email == "" && u.Name == "" {
		return "(no user details available)"
	}
	var sb strings.Builder
	if u.Name != "" {
		fmt.Fprintf(&sb, "Name: %s\n", u.Name)
	}
	if u.Email != "" {
		fmt.Fprintf(&sb, "Email: %s\n", u.Email)
	}
	return sb.String()
}

// ToolCatalog renders each tool's name, type, description and schema so
// the planner can see exactly what it's allowed to call.
func ToolCatalog(tools map[string]state.ToolDescriptor) string {
	if len(tools) == 0 {
		return "(no tools available)"
	}
	var sb strings.Builder
	for _, t := range tools {
		fmt.Fprintf(&sb, "Tool: %s\nType: %s\nDescription: %s\nInput Schema:\n%s\n\n",
			t.Name, t.ToolType, t.Description, prettyJSON(t.InputSchema))
	}
	return sb.String()
}

func prettyJSON(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(out)
}

// HopContext renders the prior hops' plan/gather/coverage outcomes as
// context for the current hop's Plan call.
func HopContext(hops []state.HopRecord) string {
	if len(hops) == 0 {
		return "(first hop, no prior context)"
	}
	var sb strings.Builder
	for _, h := range hops {
		fmt.Fprintf(&sb, "Hop %d:\n  Plan reasoning: %s\n", h.HopNumber, truncate(h.Plan.Reasoning, 300))
		for _, r := range h.Gather.ToolResults {
			status := "ok"
			if !r.Success {
				status = "failed: " + r.Error
			}
			fmt.Fprintf(&sb, "  Gathered %s: %s\n", r.ToolName, status)
		}
		fmt.Fprintf(&sb, "  Coverage: sufficient=%v next_action=%s\n", h.Coverage.CoverageResponse.DataSufficient, h.Coverage.CoverageResponse.NextAction)
	}
	return sb.String()
}

// CurrentHopPlanSummary renders just the current hop's plan for Coverage.
func CurrentHopPlanSummary(hop state.HopRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Reasoning: %s\n", hop.Plan.Reasoning)
	for _, tc := range hop.Plan.ToolCalls {
		fmt.Fprintf(&sb, "- %s: %s\n", tc.ToolName, tc.Reasoning)
	}
	return sb.String()
}

// CurrentHopGatherSummary renders just the current hop's gather results
// for Coverage.
func CurrentHopGatherSummary(hop state.HopRecord) string {
	if len(hop.Gather.ToolResults) == 0 {
		return "(no tools were called this hop)"
	}
	var sb strings.Builder
	for _, r := range hop.Gather.ToolResults {
		if r.Success {
			fmt.Fprintf(&sb, "%s succeeded:\n%s\n", r.ToolName, indent(prettyAny(r.Data), 1))
		} else {
			fmt.Fprintf(&sb, "%s failed: %s\n", r.ToolName, r.Error)
		}
	}
	return sb.String()
}

// GatheredData renders every successful gather result across all hops,
// the pool Draft writes its reply from.
func GatheredData(hops []state.HopRecord) string {
	var sb strings.Builder
	for _, h := range hops {
		for _, r := range h.Gather.ToolResults {
			if !r.Success {
				continue
			}
			fmt.Fprintf(&sb, "%s (hop %d):\n%s\n\n", r.ToolName, h.HopNumber, indent(prettyAny(r.Data), 1))
		}
	}
	if sb.Len() == 0 {
		return "(no data was gathered)"
	}
	return sb.String()
}

// AccumulatedToolData renders the point-in-time tool_data projection
// (last successful result per tool name), for Coverage's "available data"
// summary and Draft's gathered-data block.
func AccumulatedToolData(toolData map[string]any) string {
	if len(toolData) == 0 {
		return "(no tool data gathered yet)"
	}
	var sb strings.Builder
	for name, data := range toolData {
		fmt.Fprintf(&sb, "%s:\n%s\n\n", name, indent(prettyAny(data), 1))
	}
	return sb.String()
}

// AccumulatedDocsData renders every accumulated documentation-search
// result, keyed "<query> (hop N)" as stored in RunState.DocsData.
func AccumulatedDocsData(docsData map[string]any) string {
	if len(docsData) == 0 {
		return "(no documentation searches performed yet)"
	}
	var sb strings.Builder
	for key, data := range docsData {
		fmt.Fprintf(&sb, "%s:\n%s\n\n", key, indent(prettyAny(data), 1))
	}
	return sb.String()
}

// PreviousActions renders every action executed so far, with name,
// success/failure, and an excerpt of its audit note, for Coverage's
// "available data" summary.
func PreviousActions(actions []state.ActionRecord) string {
	if len(actions) == 0 {
		return "(no actions executed yet)"
	}
	var sb strings.Builder
	for _, a := range actions {
		status := "succeeded"
		if !a.Success {
			status = "failed: " + a.Error
		}
		fmt.Fprintf(&sb, "%s (hop %d): %s\n  %s\n", a.ToolName, a.HopNumber, status, truncate(a.AuditNotes, 300))
	}
	return sb.String()
}

// ActionProposals renders the current hop's proposed action-tool calls
// with their already-sanitized parameters, exactly as Coverage sees
// them — Coverage may choose one of these but never alter the
// parameters Plan produced.
func ActionProposals(calls []state.ToolCall) string {
	if len(calls) == 0 {
		return "(no action tool proposed this hop)"
	}
	var sb strings.Builder
	for _, tc := range calls {
		fmt.Fprintf(&sb, "%s: %s\n  parameters: %s\n", tc.ToolName, tc.Reasoning, prettyAny(tc.Parameters))
	}
	return sb.String()
}

func prettyAny(v any) string {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(out)
}

func indent(s string, level int) string {
	prefix := strings.Repeat("  ", level)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
