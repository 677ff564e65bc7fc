package config

import (
	"os"
	"strconv"
	"time"
)

// Settings holds every tunable the orchestrator reads from the
// environment. Each field has a validated-range default: an out-of-range
// or unparseable value is logged and replaced with the default rather than
// failing startup.
type Settings struct {
	// MaxHops bounds the Plan → Gather → Coverage loop per run.
	MaxHops int
	// MaxActions bounds how many action-tool executions a run may perform.
	MaxActions int
	// AgentTimeout bounds one full run of the stage flow.
	AgentTimeout time.Duration
	// ValidationTimeout bounds a single call to the policy validation service.
	ValidationTimeout time.Duration
	// RunnerParallelism bounds how many conversations internal/runner
	// processes concurrently.
	RunnerParallelism int

	OpenAIAPIKey  string
	PlannerModel  string
	DrafterModel  string

	MCPBaseURL string

	IntercomAccessToken string
	IntercomBaseURL     string

	ValidationServiceURL string
	ValidationAPIKey     string

	UseLocalPromptOverrides bool

	// ProceduresFilePath is the optional path to a YAML procedures
	// fixture for internal/procedure.YAMLStore. Empty disables the
	// procedure store entirely (internal/procedure.NoopStore).
	ProceduresFilePath string
}

// Load builds a Settings from the current environment. Call LoadEnv first
// if a .env file should be consulted.
func Load() Settings {
	return Settings{
		MaxHops:           loadIntRange("AGENT_MAX_HOPS", 3, 1, 10),
		MaxActions:        loadIntRange("AGENT_MAX_ACTIONS", 1, 0, 5),
		AgentTimeout:      time.Duration(loadIntRange("AGENT_TIMEOUT_SECONDS", 120, 10, 900)) * time.Second,
		ValidationTimeout: time.Duration(loadIntRange("VALIDATION_TIMEOUT_SECONDS", 120, 5, 300)) * time.Second,
		RunnerParallelism: loadIntRange("RUNNER_PARALLELISM", 3, 1, 32),

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		PlannerModel: envOrDefault("PLANNER_MODEL", "gpt-4o"),
		DrafterModel: envOrDefault("DRAFTER_MODEL", "gpt-4o"),

		MCPBaseURL: envOrDefault("MCP_BASE_URL", "http://localhost:8000"),

		IntercomAccessToken: os.Getenv("INTERCOM_ACCESS_TOKEN"),
		IntercomBaseURL:     envOrDefault("INTERCOM_BASE_URL", "https://api.intercom.io"),

		ValidationServiceURL: os.Getenv("VALIDATION_SERVICE_URL"),
		ValidationAPIKey:     os.Getenv("VALIDATION_API_KEY"),

		UseLocalPromptOverrides: os.Getenv("USE_LOCAL_COVERAGE_PROMPT") == "true",

		ProceduresFilePath: os.Getenv("PROCEDURES_FILE"),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// loadIntRange reads key as an int in [min,max]. An unparseable or
// out-of-range value is logged and replaced by def (not clamped).
func loadIntRange(key string, def, min, max int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min || n > max {
		logInvalid(key, v, def, min, max)
		return def
	}
	return n
}
