package stage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/pocketomega/support-agent/internal/contextfmt"
	"github.com/pocketomega/support-agent/internal/core"
	"github.com/pocketomega/support-agent/internal/llmclient"
	"github.com/pocketomega/support-agent/internal/promptregistry"
	"github.com/pocketomega/support-agent/internal/state"
)

// CoverageNode asks the model whether the current hop gathered enough
// data to draft a response, then applies deterministic overrides the
// model's judgement isn't trusted to enforce on its own: hop-budget
// exhaustion always forces escalate, and an execute_action verdict is
// only honored if the hop's Plan actually proposed that action tool.
type CoverageNode struct {
	deps *Deps
}

func NewCoverageNode(deps *Deps) *CoverageNode {
	return &CoverageNode{deps: deps}
}

func (n *CoverageNode) Prep(s *state.RunState) []struct{} {
	if s.CurrentHop() == nil {
		return nil
	}
	return []struct{}{{}}
}

func (n *CoverageNode) Exec(ctx context.Context, _ struct{}) (llmclient.Message, error) {
	return llmclient.Message{}, nil
}

func (n *CoverageNode) ExecFallback(err error) llmclient.Message {
	return llmclient.Message{}
}

var coverageFunctionSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"data_sufficient": {"type": "boolean"},
		"missing_data": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"gap_type": {"type": "string"},
					"description": {"type": "string"}
				},
				"required": ["gap_type", "description"]
			}
		},
		"reasoning": {"type": "string"},
		"confidence": {"type": "number"},
		"next_action": {"type": "string", "enum": ["continue", "gather_more", "execute_action", "escalate"]},
		"escalation_reason": {"type": "string"},
		"action_decision": {
			"type": "object",
			"properties": {
				"action_tool_name": {"type": "string"},
				"reasoning": {"type": "string"}
			}
		}
	},
	"required": ["data_sufficient", "reasoning", "confidence", "next_action"]
}`)

func (n *CoverageNode) Post(s *state.RunState, prep []struct{}, _ ...llmclient.Message) core.Action {
	if len(prep) == 0 {
		s.Error = "coverage ran with no active hop"
		s.EscalationReason = s.Error
		s.EscalationSource = "coverage"
		return core.ActionEscalate
	}
	hop := s.CurrentHop()

	sysPrompt := n.deps.Prompts.Pull("coverage_system.md")
	rendered := promptregistry.Format(sysPrompt, map[string]string{
		"conversation_history": contextfmt.ConversationHistory(s.Messages, s.Subject),
		"user_details":         contextfmt.UserDetails(s.UserDetails),
		"hop_context":          contextfmt.HopContext(s.Hops[:len(s.Hops)-1]),
		"current_plan":         contextfmt.CurrentHopPlanSummary(*hop),
		"current_gather":       contextfmt.CurrentHopGatherSummary(*hop),
		"accumulated_tool_data": contextfmt.AccumulatedToolData(s.ToolData),
		"accumulated_docs_data": contextfmt.AccumulatedDocsData(s.DocsData),
		"previous_actions":      contextfmt.PreviousActions(s.Actions),
		"action_proposals":      contextfmt.ActionProposals(hop.Plan.ActionToolCalls),
		"hop_number":           fmt.Sprintf("%d", hop.HopNumber),
		"max_hops":             fmt.Sprintf("%d", s.MaxHops),
	})

	resp, err := n.deps.LLM.Planner.CallWithFunctions(context.Background(), []llmclient.Message{
		{Role: llmclient.RoleSystem, Content: rendered},
		{Role: llmclient.RoleUser, Content: "Assess whether enough data was gathered this hop."},
	}, []llmclient.FunctionSpec{{
		Name:        "submit_coverage_assessment",
		Description: "Submit the coverage assessment for this hop",
		Parameters:  coverageFunctionSchema,
	}})
	if err != nil {
		s.Error = fmt.Sprintf("coverage assessment failed: %v", err)
		s.EscalationReason = s.Error
		log.Printf("[Coverage] %s", s.Error)
		s.EscalationSource = "coverage"
		return core.ActionEscalate
	}

	raw, err := extractFunctionArgs(resp, "submit_coverage_assessment")
	if err != nil {
		s.Error = fmt.Sprintf("coverage assessment failed: %v", err)
		s.EscalationReason = s.Error
		log.Printf("[Coverage] %s", s.Error)
		s.EscalationSource = "coverage"
		return core.ActionEscalate
	}

	var coverage state.CoverageResponse
	if err := json.Unmarshal(raw, &coverage); err != nil {
		s.Error = fmt.Sprintf("coverage assessment returned malformed output: %v", err)
		s.EscalationReason = s.Error
		log.Printf("[Coverage] %s", s.Error)
		s.EscalationSource = "coverage"
		return core.ActionEscalate
	}

	nextAction := applyCoverageOverrides(&coverage, s, hop)

	hop.Coverage = state.CoverageOutcome{
		CoverageResponse: coverage,
		NextNode:         nextAction,
	}

	log.Printf("[Coverage] hop %d: sufficient=%v next_action=%s", hop.HopNumber, coverage.DataSufficient, nextAction)

	switch nextAction {
	case "continue":
		return core.ActionDraft
	case "gather_more":
		return core.ActionGatherMore
	case "execute_action":
		return core.ActionExecuteAction
	default:
		s.EscalationReason = coverage.EscalationReason
		if s.EscalationReason == "" {
			s.EscalationReason = coverage.Reasoning
		}
		s.EscalationSource = "coverage"
		return core.ActionEscalate
	}
}

// applyCoverageOverrides applies the four deterministic post-processing
// rules of the coverage decision policy, in order. The LLM's verdict is
// honored only once none of the rules override it.
func applyCoverageOverrides(coverage *state.CoverageResponse, s *state.RunState, hop *state.HopRecord) string {
	if coverage.NextAction == "gather_more" && len(s.Hops) >= s.MaxHops {
		coverage.NextAction = "escalate"
		coverage.EscalationReason = "Exceeded maximum hops"
		return "escalate"
	}

	if coverage.NextAction == "execute_action" && s.ActionsTaken >= s.MaxActions {
		log.Printf("[Coverage] hop %d: actions_taken (%d) at max_actions, overriding execute_action to continue", hop.HopNumber, s.ActionsTaken)
		coverage.NextAction = "continue"
		return "continue"
	}

	if coverage.NextAction == "execute_action" &&
		(coverage.ActionDecision == nil || !hopProposedAction(hop, coverage.ActionDecision.ActionToolName)) {
		log.Printf("[Coverage] hop %d: execute_action named a tool not in this hop's action_tool_calls, overriding to continue", hop.HopNumber)
		coverage.NextAction = "continue"
		return "continue"
	}

	return coverage.NextAction
}

func hopProposedAction(hop *state.HopRecord, toolName string) bool {
	for _, tc := range hop.Plan.ActionToolCalls {
		if tc.ToolName == toolName {
			return true
		}
	}
	return false
}
