// Command agent is a thin runnable entry point that wires the
// orchestrator library together and drives one conversation run. It is
// wiring, not product surface — the real deliverable is the
// internal/stage and internal/runner packages; this binary calls
// stage.Run directly and does not use internal/runner.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pocketomega/support-agent/internal/config"
	"github.com/pocketomega/support-agent/internal/llmclient"
	"github.com/pocketomega/support-agent/internal/platform"
	"github.com/pocketomega/support-agent/internal/procedure"
	"github.com/pocketomega/support-agent/internal/promptregistry"
	"github.com/pocketomega/support-agent/internal/stage"
	"github.com/pocketomega/support-agent/internal/toolserver"
	"github.com/pocketomega/support-agent/internal/validation"
)

func main() {
	config.LoadEnv()

	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <conversation_id>", os.Args[0])
	}
	conversationID := os.Args[1]

	settings := config.Load()

	deps, err := buildDeps(settings)
	if err != nil {
		log.Fatalf("❌ Failed to wire orchestrator dependencies: %v", err)
	}
	defer deps.Tools.Close()

	ctx, cancel := context.WithTimeout(context.Background(), settings.AgentTimeout)
	defer cancel()

	fmt.Printf("🤖 support-agent: running conversation %s (max_hops=%d max_actions=%d)\n",
		conversationID, settings.MaxHops, settings.MaxActions)

	result := stage.Run(ctx, deps, conversationID)

	out := struct {
		ConversationID string `json:"conversation_id"`
		ResponseType   string `json:"response_type,omitempty"`
		Status         string `json:"melvin_status,omitempty"`
		Error          string `json:"error,omitempty"`
		Hops           int    `json:"hops"`
		ActionsTaken   int    `json:"actions_taken"`
	}{
		ConversationID: result.ConversationID,
		Error:          result.Error,
		Hops:           len(result.Hops),
		ActionsTaken:   result.ActionsTaken,
	}
	if result.Draft != nil {
		out.ResponseType = string(result.Draft.ResponseType)
	}
	if result.Finalize != nil {
		out.Status = string(result.Finalize.MelvinStatus)
	}

	summary, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(summary))
}

func buildDeps(settings config.Settings) (*stage.Deps, error) {
	llmProfiles, err := llmclient.NewProfiles(
		settings.OpenAIAPIKey, "", settings.PlannerModel, settings.DrafterModel,
	)
	if err != nil {
		return nil, fmt.Errorf("llmclient: %w", err)
	}

	toolsClient, err := toolserver.NewClient(settings.MCPBaseURL)
	if err != nil {
		return nil, fmt.Errorf("toolserver: %w", err)
	}
	connectCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := toolsClient.Connect(connectCtx); err != nil {
		return nil, fmt.Errorf("toolserver connect: %w", err)
	}

	platformClient := platform.NewClient(settings.IntercomBaseURL, settings.IntercomAccessToken)
	validationClient := validation.NewClient(settings.ValidationServiceURL, settings.ValidationAPIKey, settings.ValidationTimeout)
	prompts := promptregistry.New("prompts", settings.UseLocalPromptOverrides)

	var procedures procedure.Store = procedure.NoopStore{}
	if settings.ProceduresFilePath != "" {
		yamlStore, err := procedure.LoadYAMLStore(settings.ProceduresFilePath)
		if err != nil {
			return nil, fmt.Errorf("procedure: %w", err)
		}
		procedures = yamlStore
	}

	return &stage.Deps{
		Settings:   settings,
		LLM:        llmProfiles,
		Tools:      toolsClient,
		Platform:   platformClient,
		Validation: validationClient,
		Prompts:    prompts,
		Procedures: procedures,
	}, nil
}
