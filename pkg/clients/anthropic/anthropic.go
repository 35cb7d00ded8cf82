// Package anthropic calls the Anthropic Messages API to summarize inventory
// health. The model is pushed hard toward pure-JSON output; callers still
// get defensive fence stripping because models occasionally wrap JSON in
// markdown anyway.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ruralmed/clinicstock/internal/domain/models"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
	model      = "claude-3-haiku-20240307"
	maxTokens  = 1024
)

// Client defines the AI analysis boundary.
type Client interface {
	AnalyzeInventory(ctx context.Context, items []models.InsightItem) (models.InventoryInsight, error)
}

type anthropicClient struct {
	httpClient *resty.Client
}

// NewClient creates a configured Anthropic client.
func NewClient(apiKey string) Client {
	client := resty.New().
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("content-type", "application/json").
		SetTimeout(15 * time.Second)

	return &anthropicClient{httpClient: client}
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

const systemPrompt = `You are a medical inventory assistant for a rural clinic.
The user message is a JSON list of stock items: name, qty (current quantity),
min (reorder threshold), cat (criticality category) and exp (expiry date).

Respond with ONLY a JSON object of this exact shape:
{
  "summary": "at most two professional sentences on overall stock health",
  "urgentActions": ["expired items, items below half their reorder threshold"],
  "restockSuggestions": ["items nearing their threshold or obvious gaps"]
}

Prioritize Critical category items. Output valid JSON and nothing else.`

// AnalyzeInventory sends the reduced stock snapshot and decodes the
// structured insight from the model's reply.
func (c *anthropicClient) AnalyzeInventory(ctx context.Context, items []models.InsightItem) (models.InventoryInsight, error) {
	snapshot, err := json.Marshal(items)
	if err != nil {
		return models.InventoryInsight{}, fmt.Errorf("encode inventory snapshot: %w", err)
	}

	// Prefill the assistant turn with "{" to force a JSON reply.
	reqBody := messageRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    systemPrompt,
		Messages: []message{
			{Role: "user", Content: string(snapshot)},
			{Role: "assistant", Content: "{"},
		},
	}

	var respBody messageResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&respBody).
		Post(apiURL)
	if err != nil {
		return models.InventoryInsight{}, fmt.Errorf("anthropic api call: %w", err)
	}
	if resp.IsError() {
		return models.InventoryInsight{}, fmt.Errorf("anthropic api error: %s", resp.String())
	}
	if len(respBody.Content) == 0 {
		return models.InventoryInsight{}, fmt.Errorf("empty response from ai")
	}

	responseText := stripFences("{" + respBody.Content[0].Text)

	var insight models.InventoryInsight
	if err := json.Unmarshal([]byte(responseText), &insight); err != nil {
		return models.InventoryInsight{}, fmt.Errorf("unmarshal ai response: %w", err)
	}
	return insight, nil
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}
