package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"isp-assistant/internal/common/config"
	httpclient "isp-assistant/internal/common/http"
	"isp-assistant/internal/common/logger"
)

// GatewayGenerator calls an internal GenAI gateway at {base}/api/ai/generate.
type GatewayGenerator struct {
	client      *httpclient.Client
	endpoint    string
	apiKey      string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	logger      logger.Logger
}

type gatewayRequest struct {
	System      string  `json:"system,omitempty"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type gatewayResponse struct {
	Text string `json:"text"`
}

func NewGatewayGenerator(cfg config.LLMConfig, log logger.Logger) *GatewayGenerator {
	return &GatewayGenerator{
		client:      httpclient.NewClient(0, cfg.MaxRetries),
		endpoint:    strings.TrimRight(cfg.BaseURL, "/") + "/api/ai/generate",
		apiKey:      cfg.APIKey,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     config.GetDuration(cfg.Timeout),
		logger:      log.With(map[string]interface{}{"provider": "gateway"}),
	}
}

func (g *GatewayGenerator) Generate(ctx context.Context, tmpl PromptTemplate, vars map[string]string) (text string, err error) {
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
	defer func() { observe("gateway", start, err) }()

	var headers map[string]string
	if g.apiKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + g.apiKey}
	}

	var resp gatewayResponse
	req := gatewayRequest{System: system, Prompt: user, MaxTokens: g.maxTokens, Temperature: g.temperature}
	if err := g.client.PostJSON(ctx, g.endpoint, headers, req, &resp); err != nil {
		g.logger.Error("gateway request failed", map[string]interface{}{
			"prompt": tmpl.Name,
			"error":  err,
		})
		return "", classify(ctx, err)
	}

	if strings.TrimSpace(resp.Text) == "" {
		return "", classify(ctx, errors.New("empty response text"))
	}
	return resp.Text, nil
}
