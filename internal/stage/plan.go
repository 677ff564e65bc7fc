package stage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pocketomega/support-agent/internal/contextfmt"
	"github.com/pocketomega/support-agent/internal/core"
	"github.com/pocketomega/support-agent/internal/llmclient"
	"github.com/pocketomega/support-agent/internal/procedure"
	"github.com/pocketomega/support-agent/internal/promptregistry"
	"github.com/pocketomega/support-agent/internal/schema"
	"github.com/pocketomega/support-agent/internal/state"
)

// PlanNode generates the tool-call plan for the current hop, then
// validates and sanitizes it: every proposed tool call has its trusted
// fields (user_email, conversation_id, dry_run) unconditionally
// overwritten with state/environment values, regardless of what the
// model proposed, before schema validation runs. Tool calls that fail
// validation are dropped with a warning rather than failing the hop.
type PlanNode struct {
	deps *Deps
}

func NewPlanNode(deps *Deps) *PlanNode {
	return &PlanNode{deps: deps}
}

type planPrep struct {
	hopNumber int
}

func (n *PlanNode) Prep(s *state.RunState) []planPrep {
	if len(s.Hops) >= s.MaxHops {
		// Coverage's post-processing override should have routed to
		// escalate before a hop count this high is reached; treat it as
		// an escalation trigger rather than silently planning forever.
		return nil
	}
	s.Hops = append(s.Hops, state.NewHopRecord(len(s.Hops)+1))
	return []planPrep{{hopNumber: len(s.Hops)}}
}

func (n *PlanNode) Exec(ctx context.Context, prep planPrep) (llmclient.Message, error) {
	return llmclient.Message{}, nil // the real call happens in Post, where we have full state access
}

func (n *PlanNode) ExecFallback(err error) llmclient.Message {
	return llmclient.Message{}
}

var planFunctionSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"reasoning": {"type": "string"},
		"tool_calls": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"tool_name": {"type": "string"},
					"parameters": {"type": "object"},
					"reasoning": {"type": "string"}
				},
				"required": ["tool_name", "parameters", "reasoning"]
			}
		}
	},
	"required": ["reasoning", "tool_calls"]
}`)

func (n *PlanNode) Post(s *state.RunState, prep []planPrep, _ ...llmclient.Message) core.Action {
	if len(prep) == 0 {
		s.EscalationReason = fmt.Sprintf("max_hops (%d) reached before plan could run", s.MaxHops)
		s.NextNode = "escalate"
		s.EscalationSource = "plan"
		return core.ActionEscalate
	}

	hop := s.CurrentHop()

	procResult, procOK, _ := n.deps.Procedures.Lookup(context.Background(), s.Subject)
	s.SelectedProcedure = procedure.FormatForPrompt(procResult, procOK)

	sysPrompt := n.deps.Prompts.Pull("plan_system.md")
	rendered := fillPlanTemplate(sysPrompt, s, n.deps)

	resp, err := n.deps.LLM.Planner.CallWithFunctions(context.Background(), []llmclient.Message{
		{Role: llmclient.RoleSystem, Content: rendered},
		{Role: llmclient.RoleUser, Content: "Generate the plan for this hop."},
	}, []llmclient.FunctionSpec{{
		Name:        "submit_plan",
		Description: "Submit the tool-call plan for this hop",
		Parameters:  planFunctionSchema,
	}})
	if err != nil {
		s.Error = fmt.Sprintf("plan generation failed: %v", err)
		s.EscalationReason = s.Error
		s.NextNode = "escalate"
		log.Printf("[Plan] %s", s.Error)
		s.EscalationSource = "plan"
		return core.ActionEscalate
	}

	raw, err := extractFunctionArgs(resp, "submit_plan")
	if err != nil {
		s.Error = fmt.Sprintf("plan generation failed: %v", err)
		s.EscalationReason = s.Error
		s.NextNode = "escalate"
		log.Printf("[Plan] %s", s.Error)
		s.EscalationSource = "plan"
		return core.ActionEscalate
	}

	var parsed struct {
		Reasoning string             `json:"reasoning"`
		ToolCalls []state.ToolCall   `json:"tool_calls"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		s.Error = fmt.Sprintf("plan generation returned malformed output: %v", err)
		s.EscalationReason = s.Error
		s.NextNode = "escalate"
		log.Printf("[Plan] %s", s.Error)
		s.EscalationSource = "plan"
		return core.ActionEscalate
	}

	validated := sanitizeAndValidatePlan(parsed.ToolCalls, s)

	var gatherCalls, actionCalls []state.ToolCall
	for _, tc := range validated {
		td := s.AvailableTools[tc.ToolName]
		if td.ToolType == state.ToolTypeInternalAction || td.ToolType == state.ToolTypeExternalAction {
			actionCalls = append(actionCalls, tc)
		} else {
			gatherCalls = append(gatherCalls, tc)
		}
	}

	hop.Plan = state.PlanOutcome{
		Reasoning:       parsed.Reasoning,
		ToolCalls:       validated,
		GatherToolCalls: gatherCalls,
		ActionToolCalls: actionCalls,
	}

	log.Printf("[Plan] hop %d: %d tool call(s) total (%d gather, %d action)", hop.HopNumber, len(validated), len(gatherCalls), len(actionCalls))
	return core.ActionGather
}

func fillPlanTemplate(tpl string, s *state.RunState, deps *Deps) string {
	return promptregistry.Format(tpl, map[string]string{
		"conversation_history": contextfmt.ConversationHistory(s.Messages, s.Subject),
		"user_details":         contextfmt.UserDetails(s.UserDetails),
		"procedure":            s.SelectedProcedure,
		"context_info":         contextfmt.HopContext(s.Hops[:len(s.Hops)-1]),
		"available_tools":      contextfmt.ToolCatalog(s.AvailableTools),
	})
}

// sanitizeAndValidatePlan is the security-critical step: every tool call
// the model proposed is checked against the real tool catalog, has its
// trusted fields forcibly overwritten (never merely defaulted), and is
// then validated against the tool's declared JSON Schema. A call that
// fails any of these steps is dropped with a warning; the hop proceeds
// with whatever calls remain.
func sanitizeAndValidatePlan(calls []state.ToolCall, s *state.RunState) []state.ToolCall {
	verifiedEmail := s.UserDetails.Email
	conversationID := s.ConversationID
	dryRun := strings.EqualFold(os.Getenv("DRY_RUN"), "true")

	trusted := map[string]any{
		"user_email":     verifiedEmail,
		"conversation_id": conversationID,
		"dry_run":        dryRun,
	}

	var validated []state.ToolCall
	skipped := 0
	for _, call := range calls {
		td, ok := s.AvailableTools[call.ToolName]
		if !ok {
			log.Printf("[Plan] skipping unknown tool %q", call.ToolName)
			skipped++
			continue
		}

		sanitized, err := sanitizeToolParams(call.Parameters, td.InputSchema, trusted)
		if err != nil {
			log.Printf("[Plan] skipping tool %q: %v", call.ToolName, err)
			skipped++
			continue
		}

		if len(td.InputSchema) > 0 {
			if err := schema.ValidateParams(call.ToolName, td.InputSchema, sanitized); err != nil {
				log.Printf("[Plan] skipping tool %q: %v", call.ToolName, err)
				skipped++
				continue
			}
		}

		validated = append(validated, state.ToolCall{
			ToolName:   call.ToolName,
			Parameters: sanitized,
			Reasoning:  call.Reasoning,
		})
	}

	if skipped > 0 {
		log.Printf("[Plan] validation complete: %d valid, %d skipped", len(validated), skipped)
	}
	return validated
}

// sanitizeToolParams overwrites any property in the tool's schema that
// names a trusted field, regardless of what the model supplied, then
// checks every schema-required property is present. This unconditional
// overwrite — not a fallback-if-missing — is what prevents a model from
// ever substituting its own value for user_email, conversation_id or
// dry_run.
func sanitizeToolParams(params map[string]any, inputSchema json.RawMessage, trusted map[string]any) (map[string]any, error) {
	sanitized := make(map[string]any, len(params))
	for k, v := range params {
		sanitized[k] = v
	}

	var schemaDoc struct {
		Properties map[string]any `json:"properties"`
		Required   []string       `json:"required"`
	}
	if len(inputSchema) > 0 {
		if err := json.Unmarshal(inputSchema, &schemaDoc); err != nil {
			return nil, fmt.Errorf("invalid input schema: %w", err)
		}
	}

	for propName := range schemaDoc.Properties {
		if trustedValue, ok := trusted[propName]; ok {
			before, existed := params[propName]
			sanitized[propName] = trustedValue
			if !existed || before != trustedValue {
				log.Printf("[Plan] injected %s=%v (was: %v)", propName, trustedValue, before)
			}
		}
	}

	var missing []string
	for _, req := range schemaDoc.Required {
		v, ok := sanitized[req]
		if !ok || v == nil {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required parameters: %s", strings.Join(missing, ", "))
	}
	return sanitized, nil
}
