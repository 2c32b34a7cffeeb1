// Package google adapts the Gemini GenerateContent API to llm.Client.
package google

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	genai "google.golang.org/genai"

	"deepsearcher/internal/llm"
)

// Config carries the subset of Google GenAI client settings the
// orchestrator needs; it is populated from config.Config at wiring time.
type Config struct {
	APIKey string
	Model  string
}

// Client adapts the Google GenAI SDK to llm.Client.
type Client struct {
	sdk   *genai.Client
	model string
}

// New constructs a Client. httpClient may be nil, in which case the SDK's
// default transport is used.
func New(ctx context.Context, cfg Config, httpClient *http.Client) (*Client, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-1.5-flash"
	}
	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     strings.TrimSpace(cfg.APIKey),
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("init google genai client: %w", err)
	}
	return &Client{sdk: sdk, model: model}, nil
}

// Chat implements llm.Client.
func (c *Client) Chat(ctx context.Context, messages []llm.Message) (llm.Reply, error) {
	var sys *genai.Content
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			sys = genai.NewContentFromText(m.Content, genai.RoleUser)
		case "assistant":
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	var cfg *genai.GenerateContentConfig
	if sys != nil {
		cfg = &genai.GenerateContentConfig{SystemInstruction: sys}
	}
	resp, err := c.sdk.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return llm.Reply{}, fmt.Errorf("google chat: %w", err)
	}
	total := 0
	if resp.UsageMetadata != nil {
		total = int(resp.UsageMetadata.TotalTokenCount)
	}
	return llm.Reply{Content: resp.Text(), TotalTokens: total}, nil
}
