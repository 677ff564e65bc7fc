package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	openailib "github.com/sashabaranov/go-openai"
)

// Client implements chat completions against any OpenAI-compatible
// endpoint (litellm, Azure, vLLM, the real OpenAI API, ...).
type Client struct {
	inner  *openailib.Client
	config Config
}

// NewClient builds a Client from config, validating it first.
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid llm config: %w", err)
	}

	clientConfig := openailib.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: time.Duration(config.HTTPTimeout) * time.Second}

	return &Client{
		inner:  openailib.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Complete sends messages and returns the model's reply, for callers that
// only need free-form text. The stages do not call it; they all use
// CallWithFunctions.
func (c *Client) Complete(ctx context.Context, messages []Message) (Message, error) {
	req := c.buildRequest(messages, nil)
	resp, err := c.createWithRetry(ctx, req, "chat")
	if err != nil {
		return Message{}, err
	}
	return toMessage(resp.Choices[0].Message), nil
}

// CallWithFunctions sends messages along with a set of callable functions
// and returns the model's reply, which may carry ToolCalls. This is the
// function-calling structured-output path used by Plan, Coverage and
// Draft to get typed JSON back from the model instead of parsing prose.
func (c *Client) CallWithFunctions(ctx context.Context, messages []Message, functions []FunctionSpec) (Message, error) {
	req := c.buildRequest(messages, functions)
	resp, err := c.createWithRetry(ctx, req, "fc")
	if err != nil {
		return Message{}, err
	}

	msg := toMessage(resp.Choices[0].Message)
	if len(msg.ToolCalls) > 0 {
		names := make([]string, len(msg.ToolCalls))
		for i, tc := range msg.ToolCalls {
			names[i] = tc.Name
		}
		log.Printf("[LLM] %q returned %d tool call(s): %v", c.config.Model, len(msg.ToolCalls), names)
	}
	return msg, nil
}

func (c *Client) buildRequest(messages []Message, functions []FunctionSpec) openailib.ChatCompletionRequest {
	openaiMsgs := make([]openailib.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		om := openailib.ChatCompletionMessage{Role: m.Role, Content: m.Content}
		if m.Role == RoleTool {
			om.ToolCallID = m.ToolCallID
			om.Name = m.Name
		}
		if m.Role == RoleAssistant && len(m.ToolCalls) > 0 {
			tcs := make([]openailib.ToolCall, len(m.ToolCalls))
			for j, tc := range m.ToolCalls {
				tcs[j] = openailib.ToolCall{
					ID:   tc.ID,
					Type: openailib.ToolTypeFunction,
					Function: openailib.FunctionCall{
						Name:      tc.Name,
						Arguments: string(tc.Arguments),
					},
				}
			}
			om.ToolCalls = tcs
		}
		openaiMsgs[i] = om
	}

	req := openailib.ChatCompletionRequest{
		Model:    c.config.Model,
		Messages: openaiMsgs,
	}
	if c.config.Temperature != nil {
		req.Temperature = *c.config.Temperature
	}
	if c.config.MaxTokens > 0 {
		req.MaxTokens = c.config.MaxTokens
	}
	if len(functions) > 0 {
		tools := make([]openailib.Tool, len(functions))
		for i, f := range functions {
			var params any
			if len(f.Parameters) > 0 {
				_ = json.Unmarshal(f.Parameters, &params)
			}
			tools[i] = openailib.Tool{
				Type: openailib.ToolTypeFunction,
				Function: &openailib.FunctionDefinition{
					Name:        f.Name,
					Description: f.Description,
					Parameters:  params,
				},
			}
		}
		req.Tools = tools
	}
	return req
}

func (c *Client) createWithRetry(ctx context.Context, req openailib.ChatCompletionRequest, label string) (openailib.ChatCompletionResponse, error) {
	var resp openailib.ChatCompletionResponse
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		resp, lastErr = c.inner.CreateChatCompletion(ctx, req)
		if lastErr == nil {
			break
		}
		if attempt < c.config.MaxRetries {
			wait := time.Duration(attempt+1) * time.Second
			log.Printf("[LLM] %s retry %d/%d after %v, error: %v", label, attempt+1, c.config.MaxRetries, wait, lastErr)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return openailib.ChatCompletionResponse{}, ctx.Err()
			}
		}
	}
	if lastErr != nil {
		return openailib.ChatCompletionResponse{}, fmt.Errorf("%s call failed after %d retries: %w", label, c.config.MaxRetries, lastErr)
	}
	if len(resp.Choices) == 0 {
		return openailib.ChatCompletionResponse{}, fmt.Errorf("no choices returned from LLM (%s)", label)
	}
	return resp, nil
}

func toMessage(m openailib.ChatCompletionMessage) Message {
	out := Message{Role: RoleAssistant, Content: m.Content}
	if len(m.ToolCalls) > 0 {
		out.ToolCalls = make([]ToolCall, len(m.ToolCalls))
		for i, tc := range m.ToolCalls {
			out.ToolCalls[i] = ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: json.RawMessage(tc.Function.Arguments),
			}
		}
	}
	return out
}
