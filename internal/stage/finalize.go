package stage

import (
	"context"
	"log"
	"time"

	"github.com/pocketomega/support-agent/internal/core"
	"github.com/pocketomega/support-agent/internal/state"
)

const snoozeDurationSeconds = 300

// FinalizeNode determines the terminal "Melvin Status" label and writes
// it to the conversation, then snoozes it. Attribute-update and snooze
// failures are logged, never fatal: Finalize is the last stage and the
// run is already over by the time it runs.
type FinalizeNode struct {
	deps *Deps
}

func NewFinalizeNode(deps *Deps) *FinalizeNode {
	return &FinalizeNode{deps: deps}
}

func (n *FinalizeNode) Prep(s *state.RunState) []struct{} {
	return []struct{}{{}}
}

func (n *FinalizeNode) Exec(ctx context.Context, _ struct{}) (error, error) {
	return nil, nil
}

func (n *FinalizeNode) ExecFallback(err error) error {
	return err
}

func (n *FinalizeNode) Post(s *state.RunState, prep []struct{}, _ ...error) core.Action {
	status := determineMelvinStatus(s)

	record := &state.FinalizeRecord{MelvinStatus: status}

	if err := n.deps.Platform.UpdateCustomAttribute(context.Background(), s.ConversationID, "Melvin Status", string(status)); err != nil {
		log.Printf("[Finalize] failed to update Melvin Status: %v", err)
		record.Error = err.Error()
	} else {
		record.StatusUpdated = true
	}

	snoozeUntil := time.Now().Add(snoozeDurationSeconds * time.Second).Unix()
	if err := n.deps.Platform.SnoozeConversation(context.Background(), s.ConversationID, snoozeUntil, s.MelvinAdminID); err != nil {
		log.Printf("[Finalize] failed to snooze conversation: %v", err)
	} else {
		record.ConversationSnoozed = true
		record.SnoozeDurationSeconds = snoozeDurationSeconds
	}

	s.Finalize = record
	log.Printf("[Finalize] conversation %s: status=%s", s.ConversationID, status)
	return core.ActionEnd
}

// determineMelvinStatus implements the status-mapping precedence of
// spec.md §7: ROUTE_TO_TEAM draft type first, then escalate-record
// source, then response-delivery outcome, then error.
func determineMelvinStatus(s *state.RunState) state.MelvinStatus {
	if s.Draft != nil && s.Draft.ResponseType == state.ResponseTypeRouteToTeam {
		return state.StatusRouteToTeam
	}

	if s.Escalate != nil {
		switch s.Escalate.Source {
		case "validate":
			return state.StatusValidationFailed
		case "draft":
			return state.StatusResponseFailed
		case "coverage":
			return state.StatusRouteToTeam
		case "initialization":
			return state.StatusError
		default:
			return state.StatusError
		}
	}

	if s.ResponseDelivery != nil {
		if s.ResponseDelivery.Delivered {
			return state.StatusSuccess
		}
		return state.StatusMessageFailed
	}

	return state.StatusError
}
