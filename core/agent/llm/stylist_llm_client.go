package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stylist_server/core/port/out"
	"stylist_server/pkg/resilience"

	"github.com/goccy/go-json"
	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyResponse is returned when the endpoint answers without choices.
var ErrEmptyResponse = errors.New("llm: empty response")

// Client talks to any OpenAI-compatible chat completion endpoint.
type Client struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	guard       *resilience.Guard
	usage       *UsageTracker
}

type ClientConfig struct {
	APIKey      string
	BaseURL     string // empty uses api.openai.com
	Model       string
	MaxTokens   int
	Temperature float64
	Guard       *resilience.Guard
	Usage       *UsageTracker
}

const DefaultModel = "llama-3.3-70b-versatile"

var _ out.TextCompleter = (*Client)(nil)

func NewClientWithConfig(cfg ClientConfig) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 512
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	usage := cfg.Usage
	if usage == nil {
		usage = NewUsageTracker()
	}

	return &Client{
		client:      openai.NewClientWithConfig(oc),
		model:       model,
		maxTokens:   maxTokens,
		temperature: float32(temperature),
		guard:       cfg.Guard,
		usage:       usage,
	}
}

// Usage exposes call counters.
func (c *Client) Usage() *UsageTracker {
	return c.usage
}

func (c *Client) Complete(ctx context.Context, prompt string, opts ...out.CompletionOption) (string, error) {
	return c.chat(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, false, opts)
}

func (c *Client) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string, opts ...out.CompletionOption) (string, error) {
	return c.chat(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: userPrompt},
	}, false, opts)
}

// CompleteJSON returns a JSON response from LLM decoded into result
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, result interface{}, opts ...out.CompletionOption) error {
	content, err := c.chat(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: userPrompt},
	}, true, opts)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(cleanJSONResponse(content)), result); err != nil {
		c.usage.trackFailure()
		return fmt.Errorf("llm: decode json response: %w", err)
	}
	return nil
}

func (c *Client) chat(ctx context.Context, messages []openai.ChatCompletionMessage, jsonMode bool, opts []out.CompletionOption) (string, error) {
	settings := out.ApplyCompletionOptions(opts)

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
	if settings.MaxTokens > 0 {
		req.MaxTokens = settings.MaxTokens
	}
	if settings.Temperature != nil {
		req.Temperature = *settings.Temperature
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var content string
	call := func(ctx context.Context) error {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		c.usage.Track(c.model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		if len(resp.Choices) == 0 {
			return ErrEmptyResponse
		}
		content = strings.TrimSpace(resp.Choices[0].Message.Content)
		if content == "" {
			return ErrEmptyResponse
		}
		return nil
	}

	var err error
	if c.guard != nil {
		err = c.guard.Execute(ctx, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		c.usage.trackFailure()
		return "", err
	}
	return content, nil
}

// cleanJSONResponse strips markdown code fences some models wrap around JSON.
func cleanJSONResponse(resp string) string {
	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")
	return strings.TrimSpace(resp)
}
