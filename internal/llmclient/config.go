package llmclient

import "fmt"

// Config holds per-profile OpenAI-compatible settings. The orchestrator
// runs two profiles — planner and drafter — each with its own model
// choice and its own Client (and HTTP client).
type Config struct {
	APIKey      string
	BaseURL     string // empty uses the client library's default
	Model       string
	Temperature *float32
	MaxTokens   int
	MaxRetries  int // retries after a failed chat-completion call, whatever the error
	HTTPTimeout int // seconds
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MaxRetries cannot be negative, got %d", c.MaxRetries)
	}
	if c.Temperature != nil && (*c.Temperature < 0.0 || *c.Temperature > 2.0) {
		return fmt.Errorf("temperature must be between 0.0 and 2.0, got %f", *c.Temperature)
	}
	return nil
}

// DefaultConfig fills in the defaults this codebase uses everywhere a
// Config is built from settings rather than from explicit overrides.
func DefaultConfig(apiKey, model string) Config {
	return Config{
		APIKey:      apiKey,
		Model:       model,
		MaxRetries:  2,
		HTTPTimeout: 120,
	}
}
