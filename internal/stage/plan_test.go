package stage

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/pocketomega/support-agent/internal/state"
)

func schemaOf(props ...string) json.RawMessage {
	properties := map[string]any{}
	for _, p := range props {
		properties[p] = map[string]string{"type": "string"}
	}
	doc := map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   props,
	}
	raw, _ := json.Marshal(doc)
	return raw
}

func baseRunState() *state.RunState {
	s := state.NewRunState("conv-1")
	s.UserDetails = state.UserDetails{Email: "trusted@example.com"}
	s.AvailableTools = map[string]state.ToolDescriptor{
		"lookup_applications": {
			Name:        "lookup_applications",
			ToolType:    state.ToolTypeGather,
			InputSchema: schemaOf("user_email"),
		},
		"match_and_link_conversation_to_ticket": {
			Name:        "match_and_link_conversation_to_ticket",
			ToolType:    state.ToolTypeInternalAction,
			InputSchema: schemaOf("conversation_id"),
		},
	}
	return s
}

// The LLM never controls user_email or conversation_id: whatever value it
// proposes is unconditionally overwritten with the trusted state value.
func TestSanitizeAndValidatePlan_InjectsTrustedFields(t *testing.T) {
	s := baseRunState()
	calls := []state.ToolCall{
		{ToolName: "lookup_applications", Parameters: map[string]any{"user_email": "attacker@evil.com"}},
	}

	got := sanitizeAndValidatePlan(calls, s)
	if len(got) != 1 {
		t.Fatalf("expected 1 retained call, got %d", len(got))
	}
	if got[0].Parameters["user_email"] != "trusted@example.com" {
		t.Errorf("expected injected trusted email, got %v", got[0].Parameters["user_email"])
	}
}

func TestSanitizeAndValidatePlan_InjectsMissingTrustedField(t *testing.T) {
	s := baseRunState()
	calls := []state.ToolCall{
		{ToolName: "lookup_applications", Parameters: map[string]any{}},
	}

	got := sanitizeAndValidatePlan(calls, s)
	if len(got) != 1 {
		t.Fatalf("expected 1 retained call, got %d", len(got))
	}
	if got[0].Parameters["user_email"] != "trusted@example.com" {
		t.Errorf("expected inserted trusted email, got %v", got[0].Parameters["user_email"])
	}
}

func TestSanitizeAndValidatePlan_DropsUnknownTool(t *testing.T) {
	s := baseRunState()
	calls := []state.ToolCall{
		{ToolName: "no_such_tool", Parameters: map[string]any{}},
	}

	got := sanitizeAndValidatePlan(calls, s)
	if len(got) != 0 {
		t.Fatalf("expected unknown tool to be dropped, got %d calls", len(got))
	}
}

func TestSanitizeAndValidatePlan_DropsCallFailingSchema(t *testing.T) {
	s := baseRunState()
	// lookup_applications requires user_email (present via injection), but
	// add a second required field the LLM never supplied and that isn't
	// a trusted field, so sanitization can't fill it in.
	s.AvailableTools["lookup_applications"] = state.ToolDescriptor{
		Name:        "lookup_applications",
		ToolType:    state.ToolTypeGather,
		InputSchema: schemaOf("user_email", "application_id"),
	}
	calls := []state.ToolCall{
		{ToolName: "lookup_applications", Parameters: map[string]any{}},
	}

	got := sanitizeAndValidatePlan(calls, s)
	if len(got) != 0 {
		t.Fatalf("expected call missing a required, non-trusted field to be dropped, got %d", len(got))
	}
}

// Sanitizing an already-sanitized parameter object is a no-op (spec.md §8).
func TestSanitizeAndValidatePlan_RoundTripIsNoOp(t *testing.T) {
	s := baseRunState()
	calls := []state.ToolCall{
		{ToolName: "lookup_applications", Parameters: map[string]any{"user_email": "trusted@example.com"}},
	}

	once := sanitizeAndValidatePlan(calls, s)
	twice := sanitizeAndValidatePlan(once, s)

	if len(once) != 1 || len(twice) != 1 {
		t.Fatalf("expected both passes to retain the call")
	}
	if once[0].Parameters["user_email"] != twice[0].Parameters["user_email"] {
		t.Errorf("re-sanitizing changed the trusted field: %v -> %v", once[0].Parameters["user_email"], twice[0].Parameters["user_email"])
	}
}

func TestSanitizeAndValidatePlan_InjectsDryRunFromEnv(t *testing.T) {
	s := baseRunState()
	s.AvailableTools["lookup_applications"] = state.ToolDescriptor{
		Name:        "lookup_applications",
		ToolType:    state.ToolTypeGather,
		InputSchema: json.RawMessage(`{"type":"object","properties":{"user_email":{"type":"string"},"dry_run":{"type":"boolean"}},"required":["user_email","dry_run"]}`),
	}
	os.Setenv("DRY_RUN", "true")
	defer os.Unsetenv("DRY_RUN")

	calls := []state.ToolCall{
		{ToolName: "lookup_applications", Parameters: map[string]any{"dry_run": false}},
	}

	got := sanitizeAndValidatePlan(calls, s)
	if len(got) != 1 {
		t.Fatalf("expected 1 retained call, got %d", len(got))
	}
	if got[0].Parameters["dry_run"] != true {
		t.Errorf("expected dry_run injected from DRY_RUN env, got %v", got[0].Parameters["dry_run"])
	}
}

// Action calls are proposals only: sanitization retains an action-tool
// call like any other, with its trusted conversation_id injected, so the
// parameters Coverage later sees are the sanitized ones. The gather/action
// partition itself happens in Post and is not exercised here.
func TestSanitizeAndValidatePlan_PreservesActionToolParameters(t *testing.T) {
	s := baseRunState()
	calls := []state.ToolCall{
		{ToolName: "match_and_link_conversation_to_ticket", Parameters: map[string]any{}},
	}

	got := sanitizeAndValidatePlan(calls, s)
	if len(got) != 1 {
		t.Fatalf("expected 1 retained call, got %d", len(got))
	}
	if got[0].Parameters["conversation_id"] != "conv-1" {
		t.Errorf("expected injected conversation_id, got %v", got[0].Parameters["conversation_id"])
	}
}
