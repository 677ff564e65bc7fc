package core

// Action represents the result of a node execution that determines flow control.
type Action string

// Common actions used throughout the framework.
const (
	ActionContinue Action = "continue"
	ActionEnd      Action = "end"
	ActionSuccess  Action = "success"
	ActionFailure  Action = "failure"
	ActionDefault  Action = "default"

	// Orchestrator routing actions — one per stage-graph edge of the
	// support-conversation run (see internal/stage).
	ActionPlan          Action = "plan"
	ActionGather        Action = "gather"
	ActionCoverage      Action = "coverage"
	ActionGatherMore    Action = "gather_more"
	ActionExecuteAction Action = "execute_action"
	ActionDraft         Action = "draft"
	ActionValidate      Action = "validate"
	ActionRespond       Action = "respond"
	ActionEscalate      Action = "escalate"
	ActionFinalize      Action = "finalize"
)
