// Package llm talks to the OpenAI API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/codex-k8s/telegram-jotting-pal/internal/metrics"
	"github.com/codex-k8s/telegram-jotting-pal/internal/threads"
)

// ErrEmptyCompletion is returned when the API answers without choices.
var ErrEmptyCompletion = errors.New("empty chat completion")

// Options configures the OpenAI client.
type Options struct {
	APIKey     string
	BaseURL    string
	MaxRetries int
	Timeout    time.Duration
}

func (o Options) requestOptions() []option.RequestOption {
	opts := []option.RequestOption{
		option.WithAPIKey(o.APIKey),
		option.WithMaxRetries(o.MaxRetries),
	}
	if o.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(o.BaseURL))
	}
	return opts
}

// Client runs chat completions.
type Client struct {
	client  openai.Client
	timeout time.Duration
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewClient initializes an OpenAI chat client.
func NewClient(opts Options, m *metrics.Metrics, log *slog.Logger) *Client {
	return &Client{
		client:  openai.NewClient(opts.requestOptions()...),
		timeout: opts.Timeout,
		metrics: m,
		log:     log,
	}
}

// Complete answers question in the context of system and history. model is a
// setting name such as "gpt4".
func (c *Client) Complete(ctx context.Context, model, system string, history []threads.Turn, question string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	apiModel := APIModel(model)
	params := openai.ChatCompletionNewParams{
		Model:    apiModel,
		Messages: buildMessages(system, history, question),
	}

	started := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err == nil && (resp == nil || len(resp.Choices) == 0) {
		err = ErrEmptyCompletion
	}
	c.metrics.ObserveCompletion(string(apiModel), time.Since(started), err)
	if err != nil {
		c.log.Error("OpenAI chat completion failed", "model", apiModel, "error", err)
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return resp.Choices[0].Message.Content, nil
}

func buildMessages(system string, history []threads.Turn, question string) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	if strings.TrimSpace(system) != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	for _, turn := range history {
		switch turn.Role {
		case threads.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}
	return append(messages, openai.UserMessage(question))
}
