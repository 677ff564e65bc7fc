// Package audit renders human-readable audit notes for the internal
// Intercom notes the orchestrator posts — never user-visible replies —
// so admins can review what an automated action or validation did.
package audit

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pocketomega/support-agent/internal/validation"
)

// FormatNestedData recursively renders a value (map/slice/scalar) into
// indented, human-readable text for audit trails.
func FormatNestedData(data any, indent int) string {
	return formatNested(data, indent, 10)
}

func formatNested(data any, indent, maxDepth int) string {
	if maxDepth <= 0 {
		return "... (max depth reached)"
	}
	prefix := strings.Repeat("  ", indent)

	switch v := data.(type) {
	case nil:
		return "None"
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case string:
		if len(v) > 500 {
			return v[:500] + "... (truncated)"
		}
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case []any:
		if len(v) == 0 {
			return "(empty list)"
		}
		var lines []string
		for i, item := range v {
			switch item.(type) {
			case map[string]any, []any:
				lines = append(lines, fmt.Sprintf("%s%d.", prefix, i+1))
				lines = append(lines, formatNested(item, indent+1, maxDepth-1))
			default:
				lines = append(lines, fmt.Sprintf("%s%d. %s", prefix, i+1, formatNested(item, 0, maxDepth-1)))
			}
		}
		return strings.Join(lines, "\n")
	case map[string]any:
		if len(v) == 0 {
			return "(empty)"
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var lines []string
		for _, k := range keys {
			label := titleCase(k)
			value := v[k]
			switch value.(type) {
			case map[string]any, []any:
				lines = append(lines, fmt.Sprintf("%s%s:", prefix, label))
				lines = append(lines, formatNested(value, indent+1, maxDepth-1))
			default:
				lines = append(lines, fmt.Sprintf("%s%s: %s", prefix, label, formatNested(value, 0, maxDepth-1)))
			}
		}
		return strings.Join(lines, "\n")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func titleCase(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// FormatActionAuditNote renders one action-tool execution into a note
// posted to the conversation, visible only to admins. noteID is the
// ActionRecord's UUID, printed so the in-conversation note can be
// matched back to the in-state record it came from.
func FormatActionAuditNote(noteID, actionName string, parameters map[string]any, result any, executionTimeMs int64, success bool, errMsg string) string {
	var b strings.Builder

	status := "SUCCESS"
	statusMark := "PASSED"
	if !success {
		status = "FAILED"
		statusMark = "FAILED"
	}
	_ = statusMark

	fmt.Fprintf(&b, "Melvin Action Executed\n\n")
	fmt.Fprintf(&b, "Note ID: %s\n", noteID)
	fmt.Fprintf(&b, "Status: %s\n", status)
	fmt.Fprintf(&b, "Action: %s\n", actionName)
	fmt.Fprintf(&b, "Execution Time: %dms\n\n", executionTimeMs)

	if len(parameters) > 0 {
		b.WriteString("Parameters:\n")
		b.WriteString(FormatNestedData(parameters, 1))
		b.WriteString("\n\n")
	}

	if !success && errMsg != "" {
		b.WriteString("Error:\n")
		fmt.Fprintf(&b, "  %s\n\n", errMsg)
	}

	if success && result != nil {
		b.WriteString("Result:\n")
		b.WriteString(FormatNestedData(result, 1))
		b.WriteString("\n\n")
	}

	b.WriteString("---\n")
	b.WriteString("This action was executed automatically and logged for audit purposes.")

	return b.String()
}

// FormatValidationNote renders a policy-validation verdict (intent hits,
// policy result, violations, blocked intents) as readable text. The
// Validate stage does not call it: its note is a status line followed by
// the pretty-printed verdict JSON.
func FormatValidationNote(resp validation.Response) string {
	var b strings.Builder

	b.WriteString("Response Validation Results\n\n")
	status := "FAILED"
	if resp.OverallPassed {
		status = "PASSED"
	}
	fmt.Fprintf(&b, "Overall Status: %s\n", status)
	fmt.Fprintf(&b, "Processing Time: %.2fms\n\n", resp.ProcessingTimeMs)

	if len(resp.Classification.Hits) > 0 {
		b.WriteString("Intent Classification:\n")
		for _, hit := range resp.Classification.Hits {
			mark := "unconfirmed"
			if hit.Confirmed {
				mark = "confirmed"
			}
			fmt.Fprintf(&b, "- %s %s (confidence: %.2f) - %q\n", mark, hit.IntentID, hit.Confidence, hit.Evidence)
		}
		b.WriteString("\n")
	}

	policyStatus := "FAILED"
	if resp.PolicyValidation.Passed {
		policyStatus = "PASSED"
	}
	fmt.Fprintf(&b, "Policy Validation: %s\n", policyStatus)

	if len(resp.PolicyValidation.Violations) > 0 {
		b.WriteString("Violations:\n")
		for _, v := range resp.PolicyValidation.Violations {
			fmt.Fprintf(&b, "- %s\n", v)
		}
		b.WriteString("\n")
	}

	if len(resp.PolicyValidation.BlockedIntents) > 0 {
		b.WriteString("Blocked Intents:\n")
		for _, intent := range resp.PolicyValidation.BlockedIntents {
			fmt.Fprintf(&b, "- %s\n", intent)
		}
		b.WriteString("\n")
	}

	b.WriteString("Response Text:\n")
	b.WriteString(resp.ResponseText)

	return b.String()
}
