package stage

import (
	"context"

	"github.com/pocketomega/support-agent/internal/core"
	"github.com/pocketomega/support-agent/internal/llmclient"
	"github.com/pocketomega/support-agent/internal/state"
	"github.com/pocketomega/support-agent/internal/validation"
)

// BuildFlow assembles the full bounded conversation run:
//
//	Initialize ──→ Plan ──→ Gather ──→ Coverage ──┬── continue       → Draft
//	                ▲                              ├── gather_more    → Plan
//	                │                              ├── execute_action → Action ──→ Coverage
//	                │                              └── escalate       → Escalate
//	                └──────────────────────────────────────────────────────┘
//
//	Draft ──→ Validate ──┬── respond  → Response ──┬── finalize → Finalize → End
//	                      └── escalate → Escalate   └── escalate → Escalate
//
//	Escalate ──→ Finalize ──→ End
//
// Every routing edge is a core.Action the Python state machine's
// next_node values translate to 1:1; see internal/core/types.go.
func BuildFlow(deps *Deps) core.Workflow[state.RunState] {
	initNode := core.NewNode[state.RunState, struct{}, error](
		NewInitializeNode(deps), 0,
	)
	planNode := core.NewNode[state.RunState, planPrep, llmclient.Message](
		NewPlanNode(deps), 1,
	)
	gatherNode := core.NewNode[state.RunState, state.ToolCall, state.ToolResult](
		NewGatherNode(deps), 0,
	)
	coverageNode := core.NewNode[state.RunState, struct{}, llmclient.Message](
		NewCoverageNode(deps), 1,
	)
	actionNode := core.NewNode[state.RunState, state.ToolCall, state.ActionRecord](
		NewActionNode(deps), 0,
	)
	draftNode := core.NewNode[state.RunState, struct{}, llmclient.Message](
		NewDraftNode(deps), 1,
	)
	validateNode := core.NewNode[state.RunState, struct{}, validation.Response](
		NewValidateNode(deps), 0,
	)
	responseNode := core.NewNode[state.RunState, struct{}, error](
		NewResponseNode(deps), 0,
	)
	escalateNode := core.NewNode[state.RunState, struct{}, error](
		NewEscalateNode(deps), 0,
	)
	finalizeNode := core.NewNode[state.RunState, struct{}, error](
		NewFinalizeNode(deps), 0,
	)

	initNode.AddSuccessor(planNode, core.ActionPlan)
	initNode.AddSuccessor(escalateNode, core.ActionEscalate)

	planNode.AddSuccessor(gatherNode, core.ActionGather)
	planNode.AddSuccessor(escalateNode, core.ActionEscalate)

	gatherNode.AddSuccessor(coverageNode, core.ActionCoverage)
	gatherNode.AddSuccessor(escalateNode, core.ActionEscalate)

	coverageNode.AddSuccessor(draftNode, core.ActionDraft)
	coverageNode.AddSuccessor(planNode, core.ActionGatherMore)
	coverageNode.AddSuccessor(actionNode, core.ActionExecuteAction)
	coverageNode.AddSuccessor(escalateNode, core.ActionEscalate)

	actionNode.AddSuccessor(coverageNode, core.ActionCoverage)
	actionNode.AddSuccessor(escalateNode, core.ActionEscalate)

	draftNode.AddSuccessor(validateNode, core.ActionValidate)
	draftNode.AddSuccessor(escalateNode, core.ActionEscalate)

	validateNode.AddSuccessor(responseNode, core.ActionRespond)
	validateNode.AddSuccessor(escalateNode, core.ActionEscalate)

	responseNode.AddSuccessor(finalizeNode, core.ActionFinalize)
	responseNode.AddSuccessor(escalateNode, core.ActionEscalate)

	escalateNode.AddSuccessor(finalizeNode, core.ActionFinalize)

	// finalizeNode returns core.ActionEnd, which has no successor.

	return core.NewFlow[state.RunState](initNode)
}

// Run executes one conversation end to end on a fresh RunState, seeded
// with the configured hop/action budgets before the flow starts.
func Run(ctx context.Context, deps *Deps, conversationID string) *state.RunState {
	s := state.NewRunState(conversationID)
	s.MaxHops = deps.Settings.MaxHops
	s.MaxActions = deps.Settings.MaxActions
	flow := BuildFlow(deps)
	flow.Run(ctx, s)
	return s
}
