// Package model abstracts the text-generation backend behind a single
// Client interface. Transport errors never escape an implementation: every
// failure is reported as an absent result so the caller can fall back.
package model

import (
	"context"
	"fmt"

	"github.com/haebom/hb-chat/backend/internal/config"
)

// ProgressFunc receives load progress updates: current step, total steps and
// a localized status message.
type ProgressFunc func(step, total int, message string)

// Params are the fixed generation parameters supplied per call.
type Params struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// Info describes the configured backend for status displays.
type Info struct {
	ModelName       string `json:"modelName"`
	Device          string `json:"device"`
	Loaded          bool   `json:"loaded"`
	RemoteAvailable bool   `json:"remoteAvailable"`
	MemoryUsage     int64  `json:"memoryUsage"`
}

// Client is implemented by every text-generation backend.
type Client interface {
	// LoadModel establishes readiness, reporting progress zero or more
	// times. A false return is non-fatal; callers fall back to the mock.
	LoadModel(ctx context.Context, progress ProgressFunc) bool

	// GenerateChatResponse produces a reply for a rendered conversation
	// context. The second return is false when generation failed.
	GenerateChatResponse(ctx context.Context, contextString string, params Params) (string, bool)

	// GenerateText produces a one-shot completion for a plain prompt.
	GenerateText(ctx context.Context, prompt string, params Params) (string, bool)

	// ModelInfo reports backend metadata.
	ModelInfo() Info
}

// New selects the Client implementation for the configured backend. The
// choice is made once at startup; there is no runtime fallback chain between
// real backends.
func New(ctx context.Context, cfg config.ModelConfig) (Client, error) {
	switch cfg.Backend {
	case config.BackendMock:
		return NewMockClient(), nil
	case config.BackendOpenRouter:
		return NewOpenRouterClient(cfg), nil
	case config.BackendArk:
		return NewArkClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown model backend: %q", cfg.Backend)
	}
}

// DefaultParams returns the generation parameters from configuration.
func DefaultParams(cfg config.ModelConfig) Params {
	return Params{
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
	}
}
