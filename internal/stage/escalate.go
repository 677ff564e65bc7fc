package stage

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pocketomega/support-agent/internal/core"
	"github.com/pocketomega/support-agent/internal/state"
)

// EscalateNode posts a short internal note naming the escalation reason
// and always proceeds to Finalize. It never fails the run: a note-post
// failure is logged, not routed anywhere else.
type EscalateNode struct {
	deps *Deps
}

func NewEscalateNode(deps *Deps) *EscalateNode {
	return &EscalateNode{deps: deps}
}

func (n *EscalateNode) Prep(s *state.RunState) []struct{} {
	return []struct{}{{}}
}

func (n *EscalateNode) Exec(ctx context.Context, _ struct{}) (error, error) {
	return nil, nil
}

func (n *EscalateNode) ExecFallback(err error) error {
	return err
}

func (n *EscalateNode) Post(s *state.RunState, prep []struct{}, _ ...error) core.Action {
	reason := s.EscalationReason
	if reason == "" {
		reason = s.Error
	}
	if reason == "" {
		reason = "unspecified"
	}

	note := fmt.Sprintf("🚨 Escalation: %s", reason)
	noteAdded := true
	if err := n.deps.Platform.AddNote(context.Background(), s.ConversationID, note, s.MelvinAdminID); err != nil {
		log.Printf("[Escalate] failed to post escalation note: %v", err)
		noteAdded = false
	}

	s.Escalate = &state.EscalateRecord{
		Source:    s.EscalationSource,
		Reason:    reason,
		NoteAdded: noteAdded,
		Timestamp: time.Now(),
	}

	log.Printf("[Escalate] source=%s reason=%q", s.EscalationSource, reason)
	return core.ActionFinalize
}
