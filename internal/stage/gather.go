package stage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/pocketomega/support-agent/internal/core"
	"github.com/pocketomega/support-agent/internal/state"
)

// docSearchTool is the one gather tool whose results route to DocsData
// instead of ToolData, keyed by query + hop so successive searches never
// collide (spec.md §3, §4.3, §9's resolved Open Question).
const docSearchTool = "search_talent_docs"

// GatherNode executes every gather tool call the current hop's Plan
// produced. Each call is its own Prep item, executed one after another in
// plan order (the BaseNode Prep->[]PrepResult->per-item Exec pattern); a
// failing tool is recorded in its own result and never stops the rest.
type GatherNode struct {
	deps *Deps
}

func NewGatherNode(deps *Deps) *GatherNode {
	return &GatherNode{deps: deps}
}

func (n *GatherNode) Prep(s *state.RunState) []state.ToolCall {
	hop := s.CurrentHop()
	if hop == nil {
		return nil
	}
	return hop.Plan.GatherToolCalls
}

func (n *GatherNode) Exec(ctx context.Context, call state.ToolCall) (state.ToolResult, error) {
	start := time.Now()
	data, err := n.deps.Tools.CallTool(ctx, call.ToolName, call.Parameters)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		return state.ToolResult{
			ToolName:        call.ToolName,
			Success:         false,
			Error:           err.Error(),
			ExecutionTimeMs: elapsed,
		}, nil // the error is captured in the result, not propagated for retry
	}

	var parsed any
	if len(data) > 0 {
		_ = json.Unmarshal(data, &parsed)
	}

	return state.ToolResult{
		ToolName:        call.ToolName,
		Success:         true,
		Data:            parsed,
		ExecutionTimeMs: elapsed,
	}, nil
}

func (n *GatherNode) ExecFallback(err error) state.ToolResult {
	return state.ToolResult{Success: false, Error: fmt.Sprintf("tool call failed: %v", err)}
}

func (n *GatherNode) Post(s *state.RunState, prep []state.ToolCall, results ...state.ToolResult) core.Action {
	hop := s.CurrentHop()
	if hop == nil {
		s.Error = "gather ran with no active hop"
		s.EscalationReason = s.Error
		s.EscalationSource = "gather"
		return core.ActionEscalate
	}

	var totalMs int64
	succeeded := 0
	for i, r := range results {
		totalMs += r.ExecutionTimeMs
		if !r.Success {
			// A failed invocation never overwrites a prior successful
			// result: tool_data/docs_data are point-in-time projections
			// of the last *successful* call, not the last attempt.
			continue
		}
		succeeded++
		if r.ToolName == docSearchTool {
			query := "unknown_query"
			if i < len(prep) {
				if q, ok := prep[i].Parameters["query"].(string); ok && q != "" {
					query = q
				}
			}
			key := fmt.Sprintf("%s (hop %d)", query, hop.HopNumber)
			s.DocsData[key] = r.Data
		} else {
			s.ToolData[r.ToolName] = r.Data
		}
	}

	successRate := 1.0
	if len(results) > 0 {
		successRate = float64(succeeded) / float64(len(results))
	}

	// Individual tool failures never change the overall execution_status:
	// only a pipeline-level exception (handled above, before this point)
	// would route to Escalate instead of reaching here at all.
	hop.Gather = state.GatherOutcome{
		ToolResults:      results,
		TotalExecutionMs: totalMs,
		SuccessRate:      successRate,
		ExecutionStatus:  "completed",
	}

	log.Printf("[Gather] hop %d: %d/%d tool call(s) succeeded (%dms)", hop.HopNumber, succeeded, len(results), totalMs)
	return core.ActionCoverage
}
