package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"isp-assistant/internal/common/config"
	"isp-assistant/internal/common/logger"
)

// AnthropicGenerator calls the Messages API.
type AnthropicGenerator struct {
	client      anthropic.Client
	model       anthropic.Model
	maxTokens   int64
	temperature float64
	timeout     time.Duration
	logger      logger.Logger
}

func NewAnthropicGenerator(cfg config.LLMConfig, log logger.Logger, opts ...option.RequestOption) *AnthropicGenerator {
	clientOpts := []option.RequestOption{option.WithMaxRetries(cfg.MaxRetries)}
	if cfg.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	clientOpts = append(clientOpts, opts...)

	return &AnthropicGenerator{
		client:      anthropic.NewClient(clientOpts...),
		model:       anthropic.Model(cfg.Model),
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
		timeout:     config.GetDuration(cfg.Timeout),
		logger:      log.With(map[string]interface{}{"provider": "anthropic", "model": cfg.Model}),
	}
}

func (g *AnthropicGenerator) Generate(ctx context.Context, tmpl PromptTemplate, vars map[string]string) (text string, err error) {
	system, user, err := tmpl.Render(vars)
	if err != nil {
		return "", err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() { observe("anthropic", start, err) }()

	params := anthropic.MessageNewParams{
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		Temperature: anthropic.Float(g.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := g.client.Messages.New(ctx, params)
	if err != nil {
		g.logger.Error("anthropic request failed", map[string]interface{}{
			"prompt":   tmpl.Name,
			"error":    err,
			"duration": time.Since(start).String(),
		})
		return "", classify(ctx, err)
	}

	var parts []string
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", classify(ctx, errors.New("no text content in response"))
	}

	g.logger.Debug("anthropic request completed", map[string]interface{}{
		"prompt":     tmpl.Name,
		"stopReason": string(msg.StopReason),
		"duration":   time.Since(start).String(),
	})
	return strings.Join(parts, "\n"), nil
}
