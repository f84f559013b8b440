package reasoner

import (
	"context"
	"encoding/json"

	claimModels "factgate/internal/claims/models"
)

// StaticClient answers every claim with an unverifiable verdict. It stands in
// for the reasoning model in local development when no API key is configured,
// and in tests that only care about pipeline mechanics.
type StaticClient struct{}

func NewStaticClient() *StaticClient {
	return &StaticClient{}
}

func (c *StaticClient) Evaluate(_ context.Context, _ *claimModels.Claim) ([]byte, error) {
	payload, _ := json.Marshal(map[string]any{
		"verdict":     "unverifiable",
		"confidence":  0.5,
		"explanation": "Automated reasoning is not configured in this environment; this claim has not been assessed.",
		"sources":     []string{},
	})
	return payload, nil
}

func (c *StaticClient) ModelVersion() string {
	return "static"
}
