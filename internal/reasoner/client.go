// Package reasoner calls the automated reasoning collaborator. Its output is
// duck-typed JSON and is always treated as untrusted input to the verdict
// validator downstream; nothing here is allowed to shortcut that boundary.
package reasoner

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	claimModels "factgate/internal/claims/models"
	"factgate/internal/platform/config"
	dErrors "factgate/pkg/domainerrors"
)

// Client produces a raw verdict payload for a claim. The returned bytes are
// unvalidated wire data.
type Client interface {
	Evaluate(ctx context.Context, claim *claimModels.Claim) ([]byte, error)
	ModelVersion() string
}

// OpenAIClient talks to any OpenAI-compatible chat endpoint. Outbound calls
// are paced client-side so a submission burst cannot exhaust the upstream
// quota.
type OpenAIClient struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	limiter *rate.Limiter
}

func NewOpenAIClient(cfg config.ReasonerConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("reasoner API key is required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	rps := cfg.RequestsPerS
	if rps <= 0 {
		rps = 1
	}
	return &OpenAIClient{
		api:     openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

const systemPrompt = `You are a fact-checking assistant. Assess the user's claim and respond with ONLY a JSON object, no prose, in exactly this shape:
{"verdict": "<true|false|misleading|needs_context|unverifiable>", "confidence": <0.0-1.0>, "explanation": "<2-4 sentences>", "sources": ["<url>", ...]}
Only cite sources you are confident exist. If evidence is insufficient, use "needs_context" or "unverifiable".`

// Evaluate sends the claim to the reasoning model and returns the raw JSON
// payload. Timeouts are soft failures: the caller leaves the claim pending
// and retries.
func (c *OpenAIClient) Evaluate(ctx context.Context, claim *claimModels.Claim) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "reasoner pacing interrupted")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildClaimPrompt(claim)},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "reasoning service call failed")
	}
	if len(resp.Choices) == 0 {
		return nil, dErrors.New(dErrors.CodeUpstreamUnavailable, "reasoning service returned no choices")
	}

	return []byte(extractJSON(resp.Choices[0].Message.Content)), nil
}

func (c *OpenAIClient) ModelVersion() string {
	return c.model
}

func buildClaimPrompt(claim *claimModels.Claim) string {
	var b strings.Builder
	b.WriteString("Claim: ")
	b.WriteString(claim.Title)
	if claim.Description != "" {
		b.WriteString("\nDetails: ")
		b.WriteString(claim.Description)
	}
	if claim.Category != "" {
		b.WriteString("\nCategory: ")
		b.WriteString(claim.Category)
	}
	return b.String()
}

// extractJSON strips markdown code fences some models wrap around JSON
// output. Anything else passes through untouched; malformed payloads are the
// validator's problem.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
