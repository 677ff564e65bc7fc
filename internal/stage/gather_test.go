package stage

import (
	"testing"

	"github.com/pocketomega/support-agent/internal/core"
	"github.com/pocketomega/support-agent/internal/state"
)

func TestGatherNode_Post_RoutesDocSearchToDocsData(t *testing.T) {
	s := state.NewRunState("conv-1")
	s.Hops = []state.HopRecord{{
		HopNumber: 2,
		Plan: state.PlanOutcome{
			GatherToolCalls: []state.ToolCall{
				{ToolName: docSearchTool, Parameters: map[string]any{"query": "pto policy"}},
			},
		},
	}}

	n := NewGatherNode(nil)
	prep := s.Hops[0].Plan.GatherToolCalls
	results := []state.ToolResult{
		{ToolName: docSearchTool, Success: true, Data: map[string]any{"results": []any{}}},
	}

	action := n.Post(s, prep, results...)
	if action != core.ActionCoverage {
		t.Fatalf("expected routing to coverage, got %v", action)
	}

	const wantKey = "pto policy (hop 2)"
	if _, ok := s.DocsData[wantKey]; !ok {
		t.Errorf("expected DocsData key %q, got keys %v", wantKey, keysOf(s.DocsData))
	}
	if _, ok := s.ToolData[docSearchTool]; ok {
		t.Error("doc-search results must not also land in ToolData")
	}
}

func TestGatherNode_Post_NonDocToolRoutesToToolData(t *testing.T) {
	s := state.NewRunState("conv-1")
	s.Hops = []state.HopRecord{{
		HopNumber: 1,
		Plan: state.PlanOutcome{
			GatherToolCalls: []state.ToolCall{{ToolName: "lookup_applications"}},
		},
	}}

	n := NewGatherNode(nil)
	prep := s.Hops[0].Plan.GatherToolCalls
	results := []state.ToolResult{
		{ToolName: "lookup_applications", Success: true, Data: map[string]any{"applications": []any{}}},
	}

	n.Post(s, prep, results...)
	if _, ok := s.ToolData["lookup_applications"]; !ok {
		t.Error("expected non-doc-search result stored in ToolData")
	}
}

// A later failed invocation of a tool must never clobber an earlier
// successful result: tool_data/docs_data are point-in-time projections of
// the last *successful* call (spec.md §3).
func TestGatherNode_Post_FailedCallDoesNotOverwritePriorSuccess(t *testing.T) {
	s := state.NewRunState("conv-1")
	s.ToolData["lookup_applications"] = map[string]any{"applications": []any{"existing"}}
	s.Hops = []state.HopRecord{{
		HopNumber: 1,
		Plan: state.PlanOutcome{
			GatherToolCalls: []state.ToolCall{{ToolName: "lookup_applications"}},
		},
	}}

	n := NewGatherNode(nil)
	prep := s.Hops[0].Plan.GatherToolCalls
	results := []state.ToolResult{
		{ToolName: "lookup_applications", Success: false, Error: "timeout"},
	}

	n.Post(s, prep, results...)
	data, ok := s.ToolData["lookup_applications"].(map[string]any)
	if !ok {
		t.Fatal("expected prior ToolData entry to remain")
	}
	apps, _ := data["applications"].([]any)
	if len(apps) != 1 || apps[0] != "existing" {
		t.Errorf("expected prior successful result preserved, got %v", data)
	}
}

func TestGatherNode_Post_EmptyGatherCallsSucceedTrivially(t *testing.T) {
	s := state.NewRunState("conv-1")
	s.Hops = []state.HopRecord{{HopNumber: 1}}

	n := NewGatherNode(nil)
	n.Post(s, nil)

	hop := s.Hops[0]
	if hop.Gather.SuccessRate != 1.0 {
		t.Errorf("expected success_rate 1.0 with no gather calls, got %v", hop.Gather.SuccessRate)
	}
	if len(hop.Gather.ToolResults) != 0 {
		t.Errorf("expected empty tool_results, got %v", hop.Gather.ToolResults)
	}
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
