package stage

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/pocketomega/support-agent/internal/audit"
	"github.com/pocketomega/support-agent/internal/core"
	"github.com/pocketomega/support-agent/internal/state"
)

// ActionNode executes the single action tool call Coverage approved for
// this hop, posts an audit note so admins can see what an automated
// action did, and routes back to Coverage to re-assess with the
// action's result folded in.
type ActionNode struct {
	deps *Deps
}

func NewActionNode(deps *Deps) *ActionNode {
	return &ActionNode{deps: deps}
}

func (n *ActionNode) Prep(s *state.RunState) []state.ToolCall {
	hop := s.CurrentHop()
	if hop == nil || hop.Coverage.CoverageResponse.ActionDecision == nil {
		return nil
	}
	toolName := hop.Coverage.CoverageResponse.ActionDecision.ActionToolName
	for _, tc := range hop.Plan.ActionToolCalls {
		if tc.ToolName == toolName {
			return []state.ToolCall{tc}
		}
	}
	return nil
}

func (n *ActionNode) Exec(ctx context.Context, call state.ToolCall) (state.ActionRecord, error) {
	start := time.Now()
	data, err := n.deps.Tools.CallTool(ctx, call.ToolName, call.Parameters)
	elapsed := time.Since(start).Milliseconds()

	record := state.ActionRecord{
		ID:              uuid.NewString(),
		ToolName:        call.ToolName,
		Parameters:      call.Parameters,
		ExecutionTimeMs: elapsed,
		Timestamp:       time.Now(),
	}
	if err != nil {
		record.Success = false
		record.Error = err.Error()
	} else {
		record.Success = true
		record.ToolResult = string(data)
	}
	return record, nil
}

func (n *ActionNode) ExecFallback(err error) state.ActionRecord {
	return state.ActionRecord{Success: false, Error: fmt.Sprintf("action execution failed: %v", err)}
}

func (n *ActionNode) Post(s *state.RunState, prep []state.ToolCall, results ...state.ActionRecord) core.Action {
	hop := s.CurrentHop()
	if hop == nil {
		s.Error = "action ran with no active hop"
		s.EscalationReason = s.Error
		s.EscalationSource = "action"
		return core.ActionEscalate
	}
	if len(prep) == 0 || len(results) == 0 {
		log.Printf("[Action] hop %d: coverage proposed an action but it wasn't found in this hop's plan", hop.HopNumber)
		return core.ActionCoverage
	}

	record := results[0]
	record.HopNumber = hop.HopNumber
	record.AuditNotes = audit.FormatActionAuditNote(record.ID, record.ToolName, record.Parameters, record.ToolResult, record.ExecutionTimeMs, record.Success, record.Error)

	if err := n.deps.Platform.AddNote(context.Background(), s.ConversationID, record.AuditNotes, s.MelvinAdminID); err != nil {
		log.Printf("[Action] failed to post audit note: %v", err)
	}

	s.Actions = append(s.Actions, record)
	s.ActionsTaken++

	log.Printf("[Action] hop %d: executed %s, success=%v (%dms)", hop.HopNumber, record.ToolName, record.Success, record.ExecutionTimeMs)

	if !record.Success {
		s.EscalationReason = fmt.Sprintf("action %s failed: %s", record.ToolName, record.Error)
		s.Error = s.EscalationReason
		s.EscalationSource = "action"
		return core.ActionEscalate
	}

	return core.ActionCoverage
}
