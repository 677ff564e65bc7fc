package stage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/pocketomega/support-agent/internal/contextfmt"
	"github.com/pocketomega/support-agent/internal/core"
	"github.com/pocketomega/support-agent/internal/llmclient"
	"github.com/pocketomega/support-agent/internal/promptregistry"
	"github.com/pocketomega/support-agent/internal/state"
)

// DraftNode produces the user-visible reply from everything gathered so
// far. A ROUTE_TO_TEAM draft is not an error: both response kinds go on
// to Validate, and the "deliver then escalate" policy (Response stage)
// is what ultimately routes ROUTE_TO_TEAM drafts to Escalate, after the
// message has actually reached the user.
type DraftNode struct {
	deps *Deps
}

func NewDraftNode(deps *Deps) *DraftNode {
	return &DraftNode{deps: deps}
}

func (n *DraftNode) Prep(s *state.RunState) []struct{} {
	return []struct{}{{}}
}

func (n *DraftNode) Exec(ctx context.Context, _ struct{}) (llmclient.Message, error) {
	return llmclient.Message{}, nil
}

func (n *DraftNode) ExecFallback(err error) llmclient.Message {
	return llmclient.Message{}
}

var draftFunctionSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"response": {"type": "string"},
		"response_type": {"type": "string", "enum": ["REPLY", "ROUTE_TO_TEAM"]},
		"escalation_reason": {"type": "string"}
	},
	"required": ["response", "response_type"]
}`)

func (n *DraftNode) Post(s *state.RunState, prep []struct{}, _ ...llmclient.Message) core.Action {
	start := time.Now()

	latestReasoning := ""
	if hop := s.CurrentHop(); hop != nil {
		latestReasoning = hop.Coverage.CoverageResponse.Reasoning
	}

	sysPrompt := n.deps.Prompts.Pull("draft_system.md")
	rendered := promptregistry.Format(sysPrompt, map[string]string{
		"conversation_history": contextfmt.ConversationHistory(s.Messages, s.Subject),
		"user_details":         contextfmt.UserDetails(s.UserDetails),
		"gathered_data":        contextfmt.GatheredData(s.Hops),
		"tool_data":            contextfmt.AccumulatedToolData(s.ToolData),
		"docs_data":            contextfmt.AccumulatedDocsData(s.DocsData),
		"coverage_reasoning":   latestReasoning,
	})

	resp, err := n.deps.LLM.Drafter.CallWithFunctions(context.Background(), []llmclient.Message{
		{Role: llmclient.RoleSystem, Content: rendered},
		{Role: llmclient.RoleUser, Content: "Draft the reply for this conversation."},
	}, []llmclient.FunctionSpec{{
		Name:        "submit_draft",
		Description: "Submit the drafted reply",
		Parameters:  draftFunctionSchema,
	}})
	if err != nil {
		s.Error = fmt.Sprintf("draft generation failed: %v", err)
		s.EscalationReason = s.Error
		log.Printf("[Draft] %s", s.Error)
		s.EscalationSource = "draft"
		return core.ActionEscalate
	}

	raw, err := extractFunctionArgs(resp, "submit_draft")
	if err != nil {
		s.Error = fmt.Sprintf("draft generation failed: %v", err)
		s.EscalationReason = s.Error
		log.Printf("[Draft] %s", s.Error)
		s.EscalationSource = "draft"
		return core.ActionEscalate
	}

	var parsed struct {
		Response         string `json:"response"`
		ResponseType     string `json:"response_type"`
		EscalationReason string `json:"escalation_reason"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		s.Error = fmt.Sprintf("draft generation returned malformed output: %v", err)
		s.EscalationReason = s.Error
		log.Printf("[Draft] %s", s.Error)
		s.EscalationSource = "draft"
		return core.ActionEscalate
	}

	responseType := state.ResponseType(parsed.ResponseType)
	if responseType != state.ResponseTypeReply && responseType != state.ResponseTypeRouteToTeam {
		log.Printf("[Draft] unrecognised response_type %q, defaulting to REPLY", parsed.ResponseType)
		responseType = state.ResponseTypeReply
	}

	s.Draft = &state.DraftRecord{
		Response:         parsed.Response,
		ResponseType:     responseType,
		EscalationReason: parsed.EscalationReason,
		Timestamp:        time.Now(),
		GenerationTimeMs: time.Since(start).Milliseconds(),
	}

	log.Printf("[Draft] response_type=%s (%d chars)", responseType, len(parsed.Response))
	return core.ActionValidate
}
