// Package state defines RunState, the single mutable run context carried
// through every stage of a conversation run (see internal/stage).
package state

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ToolType classifies a tool by side-effect visibility. Gather tools are
// freely invoked during Gather; action tools execute at most MaxActions
// times per run, only after Coverage selects one.
type ToolType string

const (
	ToolTypeGather         ToolType = "gather"
	ToolTypeInternalAction ToolType = "internal_action"
	ToolTypeExternalAction ToolType = "external_action"
)

// ResponseType is the drafted reply's delivery kind.
type ResponseType string

const (
	ResponseTypeReply       ResponseType = "REPLY"
	ResponseTypeRouteToTeam ResponseType = "ROUTE_TO_TEAM"
)

// MelvinStatus is the closed label set written to the "Melvin Status"
// custom attribute at Finalize (spec.md §4.10).
type MelvinStatus string

const (
	StatusSuccess           MelvinStatus = "success"
	StatusResponseFailed    MelvinStatus = "response_failed"
	StatusValidationFailed  MelvinStatus = "validation_failed"
	StatusMessageFailed     MelvinStatus = "message_failed"
	StatusRouteToTeam       MelvinStatus = "route_to_team"
	StatusError             MelvinStatus = "error"
)

// Message is one turn of the conversation history.
type Message struct {
	Role        string       `json:"role"` // "user" | "assistant"
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is a file or image attached to a Message.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
	Filesize    int64  `json:"filesize,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

// UserDetails carries the contact info loaded from the messaging platform.
// Email is the trusted identity anchor injected into tool calls (§4.2).
type UserDetails struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// ToolDescriptor describes one entry of the tool catalog loaded at
// Initialize, tagged with the dispatch-relevant ToolType.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
	ToolType    ToolType        `json:"tool_type"`
}

// ToolCall is one planned (or, for action tools, proposed) invocation.
type ToolCall struct {
	ToolName   string         `json:"tool_name"`
	Parameters map[string]any `json:"parameters"`
	Reasoning  string         `json:"reasoning"`
}

// ToolResult is the outcome of executing a single ToolCall in Gather.
type ToolResult struct {
	ToolName        string `json:"tool_name"`
	Success         bool   `json:"success"`
	Data            any    `json:"data,omitempty"`
	Error           string `json:"error,omitempty"`
	ExecutionTimeMs int64  `json:"execution_time_ms"`
}

// PlanOutcome is the Plan stage's contribution to a HopRecord.
type PlanOutcome struct {
	Reasoning        string     `json:"reasoning"`
	ToolCalls        []ToolCall `json:"tool_calls"`
	GatherToolCalls  []ToolCall `json:"gather_tool_calls"`
	ActionToolCalls  []ToolCall `json:"action_tool_calls"`
}

// GatherOutcome is the Gather stage's contribution to a HopRecord.
type GatherOutcome struct {
	ToolResults        []ToolResult `json:"tool_results"`
	TotalExecutionMs   int64        `json:"total_execution_time_ms"`
	SuccessRate        float64      `json:"success_rate"`
	ExecutionStatus    string       `json:"execution_status"`
}

// DataGap names one piece of missing information identified by Coverage.
type DataGap struct {
	GapType     string `json:"gap_type"`
	Description string `json:"description"`
}

// ActionDecision is Coverage's proposal to execute a specific action tool
// already proposed by Plan in the current hop.
type ActionDecision struct {
	ActionToolName string `json:"action_tool_name"`
	Reasoning      string `json:"reasoning"`
}

// CoverageResponse is the (post-processed) structured output of the
// Coverage stage.
type CoverageResponse struct {
	DataSufficient   bool            `json:"data_sufficient"`
	MissingData      []DataGap       `json:"missing_data"`
	Reasoning        string          `json:"reasoning"`
	Confidence       float64         `json:"confidence"`
	NextAction       string          `json:"next_action"` // continue | gather_more | execute_action | escalate
	EscalationReason string          `json:"escalation_reason,omitempty"`
	ActionDecision   *ActionDecision `json:"action_decision,omitempty"`
}

// CoverageOutcome is the Coverage stage's contribution to a HopRecord.
type CoverageOutcome struct {
	CoverageResponse CoverageResponse `json:"coverage_response"`
	NextNode         string           `json:"next_node"`
}

// HopRecord is one Plan → Gather → Coverage cycle. ID is a random UUID
// stamped at hop creation so hops can be correlated across logs and
// audit notes without relying on HopNumber, which resets per run.
type HopRecord struct {
	ID        string          `json:"id"`
	HopNumber int             `json:"hop_number"`
	Plan      PlanOutcome     `json:"plan"`
	Gather    GatherOutcome   `json:"gather"`
	Coverage  CoverageOutcome `json:"coverage"`
}

// ActionRecord is the audit trail of a single Action stage execution. ID
// is a random UUID stamped when the action runs; it is threaded into the
// posted audit note so the in-conversation note and the in-state record
// can be matched up later.
type ActionRecord struct {
	ID              string         `json:"id"`
	HopNumber       int            `json:"hop_number"`
	ToolName        string         `json:"tool_name"`
	Parameters      map[string]any `json:"parameters"`
	ToolResult      any            `json:"tool_result,omitempty"`
	ExecutionTimeMs int64          `json:"execution_time_ms"`
	Success         bool           `json:"success"`
	Error           string         `json:"error,omitempty"`
	AuditNotes      string         `json:"audit_notes"`
	Timestamp       time.Time      `json:"timestamp"`
}

// DraftRecord is the Draft stage's output.
type DraftRecord struct {
	Response         string       `json:"response"`
	ResponseType     ResponseType `json:"response_type"`
	EscalationReason string       `json:"escalation_reason,omitempty"`
	Timestamp        time.Time    `json:"timestamp"`
	GenerationTimeMs int64        `json:"generation_time_ms"`
}

// ValidateRecord is the Validate stage's outcome.
type ValidateRecord struct {
	OverallPassed    bool            `json:"overall_passed"`
	RawVerdict       json.RawMessage `json:"raw_verdict"`
	ProcessingTimeMs float64         `json:"processing_time_ms,omitempty"`
	NoteAdded        bool            `json:"note_added"`
}

// ResponseDeliveryRecord is the Response stage's outcome.
type ResponseDeliveryRecord struct {
	Delivered bool      `json:"delivered"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EscalateRecord is the Escalate stage's outcome.
type EscalateRecord struct {
	Source    string    `json:"source"` // which stage routed here: initialization|plan|gather|coverage|action|draft|validate|response
	Reason    string    `json:"reason"`
	NoteAdded bool      `json:"note_added"`
	Timestamp time.Time `json:"timestamp"`
}

// FinalizeRecord is the Finalize stage's outcome.
type FinalizeRecord struct {
	MelvinStatus           MelvinStatus `json:"melvin_status"`
	StatusUpdated          bool         `json:"status_updated"`
	ConversationSnoozed    bool         `json:"conversation_snoozed"`
	SnoozeDurationSeconds  int          `json:"snooze_duration_seconds"`
	Error                  string       `json:"error,omitempty"`
}

// RunState is the single mutable run context carried through every stage.
//
// NOT goroutine-safe: all fields must be accessed from a single goroutine.
// The stage Flow guarantees single-goroutine, strictly-ordered access
// within one run; internal/runner gives each concurrent conversation its
// own RunState.
type RunState struct {
	ConversationID string
	Messages       []Message
	Subject        string
	UserDetails    UserDetails
	MelvinAdminID  string

	AvailableTools map[string]ToolDescriptor
	ToolData       map[string]any // keyed by tool name
	DocsData       map[string]any // keyed by "<query> (hop <N>)"

	Hops      []HopRecord
	MaxHops   int
	Actions   []ActionRecord
	MaxActions   int
	ActionsTaken int

	Draft            *DraftRecord
	Validate         *ValidateRecord
	ResponseDelivery *ResponseDeliveryRecord
	Escalate         *EscalateRecord
	Finalize         *FinalizeRecord

	NextNode         string
	Error            string
	EscalationReason string
	// EscalationSource names the stage that routed to Escalate:
	// initialization|plan|gather|coverage|action|draft|validate|response.
	// Finalize's status-mapping precedence reads this field.
	EscalationSource string

	SelectedProcedure string
}

// NewRunState creates a RunState with empty containers, ready for
// Initialize to populate. MaxHops/MaxActions are left at zero: the
// caller (internal/stage.Run) seeds them from config.Settings before the
// flow starts, so a configured AGENT_MAX_HOPS/AGENT_MAX_ACTIONS is never
// shadowed by a value set here.
func NewRunState(conversationID string) *RunState {
	return &RunState{
		ConversationID: conversationID,
		AvailableTools: make(map[string]ToolDescriptor),
		ToolData:       make(map[string]any),
		DocsData:       make(map[string]any),
	}
}

// NewHopRecord starts a HopRecord for the given 1-based hop number,
// stamping it with a fresh UUID.
func NewHopRecord(hopNumber int) HopRecord {
	return HopRecord{ID: uuid.NewString(), HopNumber: hopNumber}
}

// CurrentHop returns a pointer to the in-progress hop (the last entry of
// Hops), or nil if no hop has been started yet.
func (s *RunState) CurrentHop() *HopRecord {
	if len(s.Hops) == 0 {
		return nil
	}
	return &s.Hops[len(s.Hops)-1]
}
