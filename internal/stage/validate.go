package stage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/pocketomega/support-agent/internal/core"
	"github.com/pocketomega/support-agent/internal/state"
	"github.com/pocketomega/support-agent/internal/validation"
)

// ValidateNode submits the drafted reply to the policy validation
// service and always records the raw verdict as an internal note,
// regardless of outcome, before routing on overall_passed.
type ValidateNode struct {
	deps *Deps
}

func NewValidateNode(deps *Deps) *ValidateNode {
	return &ValidateNode{deps: deps}
}

func (n *ValidateNode) Prep(s *state.RunState) []struct{} {
	if s.Draft == nil {
		return nil
	}
	return []struct{}{{}}
}

func (n *ValidateNode) Exec(ctx context.Context, _ struct{}) (validation.Response, error) {
	return validation.Response{}, nil
}

func (n *ValidateNode) ExecFallback(err error) validation.Response {
	return validation.Response{}
}

func (n *ValidateNode) Post(s *state.RunState, prep []struct{}, _ ...validation.Response) core.Action {
	if len(prep) == 0 {
		s.Error = "validate ran with no draft"
		s.EscalationReason = s.Error
		s.EscalationSource = "validate"
		return core.ActionEscalate
	}

	resp, err := n.deps.Validation.Validate(context.Background(), s.Draft.Response)
	if err != nil {
		s.Error = fmt.Sprintf("validation request failed: %v", err)
		s.EscalationReason = s.Error
		log.Printf("[Validate] %s", s.Error)
		s.EscalationSource = "validate"
		return core.ActionEscalate
	}

	rawVerdict, _ := json.Marshal(resp)
	noteAdded := true

	status := "FAILED"
	if resp.OverallPassed {
		status = "PASSED"
	}
	prettyJSON, _ := json.MarshalIndent(resp, "", "  ")
	note := fmt.Sprintf("Validation Status: %s\n\n%s", status, string(prettyJSON))

	if err := n.deps.Platform.AddNote(context.Background(), s.ConversationID, note, s.MelvinAdminID); err != nil {
		log.Printf("[Validate] failed to post verdict note: %v", err)
		noteAdded = false
	}

	s.Validate = &state.ValidateRecord{
		OverallPassed:    resp.OverallPassed,
		RawVerdict:       rawVerdict,
		ProcessingTimeMs: resp.ProcessingTimeMs,
		NoteAdded:        noteAdded,
	}

	log.Printf("[Validate] overall_passed=%v", resp.OverallPassed)

	if !resp.OverallPassed {
		s.EscalationReason = "Response failed policy validation; see the validation note on this conversation"
		s.EscalationSource = "validate"
		return core.ActionEscalate
	}
	return core.ActionRespond
}
