package stage

import (
	"testing"

	"github.com/pocketomega/support-agent/internal/state"
)

func TestApplyCoverageOverrides_GatherMoreAtMaxHopsEscalates(t *testing.T) {
	s := state.NewRunState("conv-1")
	s.MaxHops = 2
	s.Hops = []state.HopRecord{{HopNumber: 1}, {HopNumber: 2}}
	hop := &s.Hops[1]

	coverage := &state.CoverageResponse{NextAction: "gather_more"}
	got := applyCoverageOverrides(coverage, s, hop)

	if got != "escalate" {
		t.Errorf("expected escalate when max_hops reached, got %q", got)
	}
	if coverage.EscalationReason == "" {
		t.Error("expected an escalation reason naming the hop limit")
	}
}

func TestApplyCoverageOverrides_GatherMoreUnderMaxHopsHonored(t *testing.T) {
	s := state.NewRunState("conv-1")
	s.MaxHops = 3
	s.Hops = []state.HopRecord{{HopNumber: 1}}
	hop := &s.Hops[0]

	coverage := &state.CoverageResponse{NextAction: "gather_more"}
	got := applyCoverageOverrides(coverage, s, hop)

	if got != "gather_more" {
		t.Errorf("expected gather_more honored under the hop budget, got %q", got)
	}
}

func TestApplyCoverageOverrides_ExecuteActionAtMaxActionsOverridesToContinue(t *testing.T) {
	s := state.NewRunState("conv-1")
	s.MaxActions = 1
	s.ActionsTaken = 1
	s.Hops = []state.HopRecord{{HopNumber: 1}}
	hop := &s.Hops[0]

	coverage := &state.CoverageResponse{
		NextAction:     "execute_action",
		ActionDecision: &state.ActionDecision{ActionToolName: "match_and_link_conversation_to_ticket"},
	}
	got := applyCoverageOverrides(coverage, s, hop)

	if got != "continue" {
		t.Errorf("expected continue when actions_taken == max_actions, got %q", got)
	}
}

func TestApplyCoverageOverrides_ExecuteActionNotInHopPlanOverridesToContinue(t *testing.T) {
	s := state.NewRunState("conv-1")
	s.MaxActions = 1
	s.Hops = []state.HopRecord{{
		HopNumber: 1,
		Plan: state.PlanOutcome{
			ActionToolCalls: []state.ToolCall{{ToolName: "other_action_tool"}},
		},
	}}
	hop := &s.Hops[0]

	coverage := &state.CoverageResponse{
		NextAction:     "execute_action",
		ActionDecision: &state.ActionDecision{ActionToolName: "match_and_link_conversation_to_ticket"},
	}
	got := applyCoverageOverrides(coverage, s, hop)

	if got != "continue" {
		t.Errorf("expected continue when the named action wasn't proposed this hop, got %q", got)
	}
}

func TestApplyCoverageOverrides_ExecuteActionWithNoDecisionOverridesToContinue(t *testing.T) {
	s := state.NewRunState("conv-1")
	s.Hops = []state.HopRecord{{HopNumber: 1}}
	hop := &s.Hops[0]

	coverage := &state.CoverageResponse{NextAction: "execute_action"}
	got := applyCoverageOverrides(coverage, s, hop)

	if got != "continue" {
		t.Errorf("expected continue when action_decision is missing, got %q", got)
	}
}

func TestApplyCoverageOverrides_ExecuteActionMatchingHopPlanHonored(t *testing.T) {
	s := state.NewRunState("conv-1")
	s.MaxActions = 1
	s.Hops = []state.HopRecord{{
		HopNumber: 1,
		Plan: state.PlanOutcome{
			ActionToolCalls: []state.ToolCall{{ToolName: "match_and_link_conversation_to_ticket"}},
		},
	}}
	hop := &s.Hops[0]

	coverage := &state.CoverageResponse{
		NextAction:     "execute_action",
		ActionDecision: &state.ActionDecision{ActionToolName: "match_and_link_conversation_to_ticket"},
	}
	got := applyCoverageOverrides(coverage, s, hop)

	if got != "execute_action" {
		t.Errorf("expected execute_action honored when it matches the hop's proposal, got %q", got)
	}
}

func TestApplyCoverageOverrides_ContinueAndEscalatePassThrough(t *testing.T) {
	s := state.NewRunState("conv-1")
	s.Hops = []state.HopRecord{{HopNumber: 1}}
	hop := &s.Hops[0]

	for _, action := range []string{"continue", "escalate"} {
		coverage := &state.CoverageResponse{NextAction: action}
		if got := applyCoverageOverrides(coverage, s, hop); got != action {
			t.Errorf("expected %q to pass through unmodified, got %q", action, got)
		}
	}
}
