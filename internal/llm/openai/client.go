// Package openai adapts the OpenAI Chat Completions API to llm.Client.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	sdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"deepsearcher/internal/llm"
)

// Config carries the subset of OpenAI client settings the orchestrator
// needs; it is populated from config.Config at wiring time.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client adapts the OpenAI SDK to llm.Client.
type Client struct {
	sdk   sdk.Client
	model string
}

// New constructs a Client. httpClient may be nil, in which case
// http.DefaultClient is used.
func New(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithHTTPClient(httpClient),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(base, "/")))
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = sdk.ChatModelGPT4oMini
	}
	return &Client{sdk: sdk.NewClient(opts...), model: model}
}

// Chat implements llm.Client.
func (c *Client) Chat(ctx context.Context, messages []llm.Message) (llm.Reply, error) {
	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(c.model),
		Messages: adaptMessages(messages),
	}
	comp, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return llm.Reply{}, fmt.Errorf("openai chat: %w", err)
	}
	if len(comp.Choices) == 0 {
		return llm.Reply{}, fmt.Errorf("openai chat: no choices returned")
	}
	return llm.Reply{
		Content:     comp.Choices[0].Message.Content,
		TotalTokens: int(comp.Usage.TotalTokens),
	}, nil
}

func adaptMessages(messages []llm.Message) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, sdk.SystemMessage(m.Content))
		case "assistant":
			out = append(out, sdk.AssistantMessage(m.Content))
		default:
			out = append(out, sdk.UserMessage(m.Content))
		}
	}
	return out
}
