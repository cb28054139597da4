package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/spec-kit/support-ai-service/internal/config"
)

// PlannerClient is the Runner backed by an OpenAI-compatible chat-completion
// endpoint.
type PlannerClient struct {
	client *openai.Client
	model  string
	apiKey string
}

// NewPlannerClient builds the client from AI configuration.
func NewPlannerClient(cfg config.AIConfig) *PlannerClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &PlannerClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		apiKey: cfg.APIKey,
	}
}

// Configured reports whether the client has credentials to reach the service.
func (c *PlannerClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Run submits the task and wraps the completion into a result bag.
func (c *PlannerClient) Run(ctx context.Context, task string) (*RunResult, error) {
	if !c.Configured() {
		return nil, errors.New("planning service not configured: missing API key")
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: task},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("planning service returned no choices")
	}

	planID := resp.ID
	if planID == "" {
		planID = uuid.NewString()
	}

	return &RunResult{
		PlanID: planID,
		State:  "COMPLETE",
		Bag: ResultBag{
			"final_output": resp.Choices[0].Message.Content,
		},
	}, nil
}

// ContinueRun resumes an approved plan by asking the service to execute the
// previously suggested action.
func (c *PlannerClient) ContinueRun(ctx context.Context, planID, reason string) (*RunResult, error) {
	if !c.Configured() {
		return nil, errors.New("planning service not configured: missing API key")
	}

	task := fmt.Sprintf(
		"Plan %s was approved by a human reviewer (reason: %s). Execute the approved action and summarize the outcome.",
		planID, reason)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: task},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("planning service returned no choices")
	}

	return &RunResult{
		PlanID: planID,
		State:  "COMPLETE",
		Bag: ResultBag{
			"final_output": resp.Choices[0].Message.Content,
		},
	}, nil
}
