package stage

import (
	"context"
	"log"
	"time"

	"github.com/pocketomega/support-agent/internal/core"
	"github.com/pocketomega/support-agent/internal/state"
)

// ResponseNode delivers the validated draft to the user. Delivery
// failure is recorded, never escalated here: Finalize maps an
// undelivered response straight to message_failed (spec.md §7). Only a
// successfully delivered ROUTE_TO_TEAM draft routes to Escalate
// afterward, to leave the human-facing note — never the reverse.
type ResponseNode struct {
	deps *Deps
}

func NewResponseNode(deps *Deps) *ResponseNode {
	return &ResponseNode{deps: deps}
}

func (n *ResponseNode) Prep(s *state.RunState) []struct{} {
	if s.Draft == nil {
		return nil
	}
	return []struct{}{{}}
}

func (n *ResponseNode) Exec(ctx context.Context, _ struct{}) (error, error) {
	return nil, nil
}

func (n *ResponseNode) ExecFallback(err error) error {
	return err
}

func (n *ResponseNode) Post(s *state.RunState, prep []struct{}, _ ...error) core.Action {
	if len(prep) == 0 {
		s.Error = "response ran with no draft"
		s.EscalationReason = s.Error
		s.EscalationSource = "response"
		return core.ActionEscalate
	}

	err := n.deps.Platform.SendMessage(context.Background(), s.ConversationID, s.Draft.Response, s.MelvinAdminID)
	record := &state.ResponseDeliveryRecord{Timestamp: time.Now()}
	if err != nil {
		record.Delivered = false
		record.Error = err.Error()
		s.ResponseDelivery = record
		log.Printf("[Response] failed to deliver response: %v", err)
		return core.ActionFinalize
	}

	record.Delivered = true
	s.ResponseDelivery = record
	log.Printf("[Response] delivered reply to conversation %s", s.ConversationID)

	if s.Draft.ResponseType == state.ResponseTypeRouteToTeam {
		s.EscalationReason = s.Draft.EscalationReason
		if s.EscalationReason == "" {
			s.EscalationReason = "Draft routed to team"
		}
		s.EscalationSource = "response"
		return core.ActionEscalate
	}
	return core.ActionFinalize
}
