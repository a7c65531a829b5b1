package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/support-agent/support-query/pkg/logger"
)

// ErrNoChoices is returned when the endpoint answers without any completion.
var ErrNoChoices = errors.New("completion returned no choices")

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Client struct {
	client  chatClient
	model   string
	timeout time.Duration
}

type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	// Timeout bounds one completion call. Zero leaves it to the transport.
	Timeout time.Duration
}

type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
}

type CompletionResponse struct {
	Content string
	Model   string
	Usage   Usage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

func NewClient(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	logger.Debug("LLM client initialized",
		zap.String("model", opts.Model),
		zap.String("base_url", cfg.BaseURL),
	)

	return newClient(openai.NewClientWithConfig(cfg), opts.Model, opts.Timeout)
}

func newClient(client chatClient, model string, timeout time.Duration) *Client {
	return &Client{
		client:  client,
		model:   model,
		timeout: timeout,
	}
}

// Complete sends exactly one system and one user message and returns the first choice.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: req.UserPrompt,
		},
	}

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:    c.model,
			Messages: messages,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	logger.Debug("LLM completion generated",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	model := resp.Model
	if model == "" {
		model = c.model
	}

	return &CompletionResponse{
		Content: resp.Choices[0].Message.Content,
		Model:   model,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}
