package stage

import (
	"testing"

	"github.com/pocketomega/support-agent/internal/state"
)

func TestDetermineMelvinStatus_RouteToTeamDraftTakesPrecedence(t *testing.T) {
	s := state.NewRunState("conv-1")
	s.Draft = &state.DraftRecord{ResponseType: state.ResponseTypeRouteToTeam}
	s.Escalate = &state.EscalateRecord{Source: "validate"}

	if got := determineMelvinStatus(s); got != state.StatusRouteToTeam {
		t.Errorf("expected route_to_team to win over escalate source, got %q", got)
	}
}

func TestDetermineMelvinStatus_EscalateSourceMapping(t *testing.T) {
	cases := []struct {
		source string
		want   state.MelvinStatus
	}{
		{"validate", state.StatusValidationFailed},
		{"draft", state.StatusResponseFailed},
		{"coverage", state.StatusRouteToTeam},
		{"initialization", state.StatusError},
		{"gather", state.StatusError},
	}
	for _, c := range cases {
		s := state.NewRunState("conv-1")
		s.Escalate = &state.EscalateRecord{Source: c.source}
		if got := determineMelvinStatus(s); got != c.want {
			t.Errorf("source %q: expected %q, got %q", c.source, c.want, got)
		}
	}
}

func TestDetermineMelvinStatus_ResponseDeliveryOutcome(t *testing.T) {
	delivered := state.NewRunState("conv-1")
	delivered.ResponseDelivery = &state.ResponseDeliveryRecord{Delivered: true}
	if got := determineMelvinStatus(delivered); got != state.StatusSuccess {
		t.Errorf("expected success on delivered response, got %q", got)
	}

	notDelivered := state.NewRunState("conv-1")
	notDelivered.ResponseDelivery = &state.ResponseDeliveryRecord{Delivered: false}
	if got := determineMelvinStatus(notDelivered); got != state.StatusMessageFailed {
		t.Errorf("expected message_failed on undelivered response, got %q", got)
	}
}

func TestDetermineMelvinStatus_NoRecordsIsError(t *testing.T) {
	s := state.NewRunState("conv-1")
	if got := determineMelvinStatus(s); got != state.StatusError {
		t.Errorf("expected error with no terminal records, got %q", got)
	}
}

// Idempotence law (spec.md §8): computing the status twice on the same
// terminal state yields the same label, since status derivation is pure.
func TestDetermineMelvinStatus_Idempotent(t *testing.T) {
	s := state.NewRunState("conv-1")
	s.Escalate = &state.EscalateRecord{Source: "validate"}

	first := determineMelvinStatus(s)
	second := determineMelvinStatus(s)
	if first != second {
		t.Errorf("expected idempotent status, got %q then %q", first, second)
	}
}
