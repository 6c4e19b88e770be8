// Package llm wraps the hosted text generation providers behind one interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"isp-assistant/internal/common/config"
	"isp-assistant/internal/common/logger"
	"isp-assistant/internal/common/metrics"
)

var (
	ErrGenerationFailed  = errors.New("LLM_GENERATION_FAILED")
	ErrGenerationTimeout = errors.New("LLM_TIMEOUT")
)

// Generator turns a prompt template plus variables into model text.
type Generator interface {
	Generate(ctx context.Context, tmpl PromptTemplate, vars map[string]string) (string, error)
}

// PromptTemplate is a named pair of system and user templates in
// text/template syntax. Referencing a variable that was not supplied is an error.
type PromptTemplate struct {
	Name   string
	System string
	User   string
}

// Render executes both templates against vars.
func (p PromptTemplate) Render(vars map[string]string) (system, user string, err error) {
	if system, err = render(p.Name+".system", p.System, vars); err != nil {
		return "", "", err
	}
	if user, err = render(p.Name+".user", p.User, vars); err != nil {
		return "", "", err
	}
	return system, user, nil
}

func render(name, text string, vars map[string]string) (string, error) {
	if text == "" {
		return "", nil
	}
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse prompt %s: %w", name, err)
	}
	var b strings.Builder
	if err := t.Execute(&b, vars); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return b.String(), nil
}

// New builds the generator selected by apis.llm.provider.
func New(cfg config.LLMConfig, log logger.Logger) (Generator, error) {
	switch cfg.Provider {
	case "anthropic", "":
		return NewAnthropicGenerator(cfg, log), nil
	case "gateway":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("gateway provider requires base_url")
		}
		return NewGatewayGenerator(cfg, log), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

// classify maps a provider error onto the package sentinels.
func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrGenerationTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrGenerationFailed, err)
}

func observe(provider string, start time.Time, err error) {
	status := "ok"
	switch {
	case errors.Is(err, ErrGenerationTimeout):
		status = "timeout"
	case err != nil:
		status = "error"
	}
	metrics.LLMRequestDuration.WithLabelValues(provider, status).Observe(time.Since(start).Seconds())
}
