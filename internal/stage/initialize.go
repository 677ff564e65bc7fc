package stage

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pocketomega/support-agent/internal/core"
	"github.com/pocketomega/support-agent/internal/state"
	"github.com/pocketomega/support-agent/internal/toolserver"
)

// InitializeNode fetches conversation data and the tool catalog before
// the first Plan hop. It implements core.BaseNode[state.RunState, struct{}, error].
type InitializeNode struct {
	deps *Deps
}

func NewInitializeNode(deps *Deps) *InitializeNode {
	return &InitializeNode{deps: deps}
}

func (n *InitializeNode) Prep(s *state.RunState) []struct{} {
	if s.ConversationID == "" {
		s.Error = "conversation_id is required"
		return nil
	}
	return []struct{}{{}}
}

func (n *InitializeNode) Exec(ctx context.Context, _ struct{}) (error, error) {
	return nil, nil
}

func (n *InitializeNode) ExecFallback(err error) error {
	return err
}

// Post performs the actual initialization work. A second call on a
// RunState whose tool catalog is already loaded refreshes MelvinAdminID
// and routes to Plan without fetching anything again, matching the "only
// initialize if not already done" guard in the reference implementation.
func (n *InitializeNode) Post(s *state.RunState, prep []struct{}, results ...error) core.Action {
	if len(prep) == 0 {
		log.Printf("[Initialize] missing conversation_id")
		s.EscalationSource = "initialization"
		return core.ActionEscalate
	}

	s.MelvinAdminID = os.Getenv("MELVIN_ADMIN_ID")

	if len(s.AvailableTools) > 0 {
		// Already initialized (e.g. a resumed run); nothing more to do.
		return core.ActionPlan
	}

	if n.deps.Settings.IntercomAccessToken == "" {
		s.Error = "missing messaging platform credentials"
		log.Printf("[Initialize] %s", s.Error)
		s.EscalationSource = "initialization"
		return core.ActionEscalate
	}

	convData, err := n.deps.Platform.FetchConversationData(context.Background(), s.ConversationID)
	if err != nil {
		s.Error = fmt.Sprintf("failed to fetch conversation data: %v", err)
		log.Printf("[Initialize] %s", s.Error)
		s.EscalationSource = "initialization"
		return core.ActionEscalate
	}

	hasMessages := len(convData.Messages) > 0
	hasSubject := strings.TrimSpace(convData.Subject) != ""
	if !hasMessages && !hasSubject {
		s.Error = fmt.Sprintf("no messages or subject found in conversation %s", s.ConversationID)
		log.Printf("[Initialize] %s", s.Error)
		s.EscalationSource = "initialization"
		return core.ActionEscalate
	}

	s.Messages = convData.Messages
	s.UserDetails = convData.UserDetails
	s.Subject = convData.Subject

	if err := n.deps.Tools.Connect(context.Background()); err != nil {
		s.Error = fmt.Sprintf("failed to connect to tool server: %v", err)
		log.Printf("[Initialize] %s", s.Error)
		s.EscalationSource = "initialization"
		return core.ActionEscalate
	}

	tools, err := n.deps.Tools.ListTools(context.Background())
	if err != nil {
		s.Error = fmt.Sprintf("failed to list tools: %v", err)
		log.Printf("[Initialize] %s", s.Error)
		s.EscalationSource = "initialization"
		return core.ActionEscalate
	}
	s.AvailableTools = toolserver.Catalog(tools)

	if s.MaxHops == 0 {
		s.MaxHops = n.deps.Settings.MaxHops
	}
	if s.MaxActions == 0 {
		s.MaxActions = n.deps.Settings.MaxActions
	}

	log.Printf("[Initialize] loaded %d message(s), %d tool(s) for conversation %s", len(s.Messages), len(s.AvailableTools), s.ConversationID)
	return core.ActionPlan
}
