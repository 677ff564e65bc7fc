// Package stage implements the ten BaseNode stages of one conversation
// run (Initialize, Plan, Gather, Coverage, Action, Draft, Validate,
// Response, Escalate, Finalize) and wires them into the bounded
// hop/action-budget flow graph described by the orchestrator.
package stage

import (
	"github.com/pocketomega/support-agent/internal/config"
	"github.com/pocketomega/support-agent/internal/llmclient"
	"github.com/pocketomega/support-agent/internal/platform"
	"github.com/pocketomega/support-agent/internal/procedure"
	"github.com/pocketomega/support-agent/internal/promptregistry"
	"github.com/pocketomega/support-agent/internal/toolserver"
	"github.com/pocketomega/support-agent/internal/validation"
)

// Deps bundles every external collaborator the stage nodes share. Each
// stage holds a *Deps rather than its own copy of every client: the
// caller constructs these collaborators once (cmd/agent's buildDeps) and
// every node BuildFlow creates shares them, across runs as well.
type Deps struct {
	Settings   config.Settings
	LLM        *llmclient.Profiles
	Tools      *toolserver.Client
	Platform   *platform.Client
	Validation *validation.Client
	Prompts    *promptregistry.Registry
	Procedures procedure.Store
}
