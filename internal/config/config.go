package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 는 서비스 전체 설정을 모아둔다.
type Config struct {
	Server ServerConfig
	Model  ModelConfig
	UI     UIConfig
}

// Load 는 환경 변수에서 설정을 읽는다.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	modelCfg, err := loadModelConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		Model:  modelCfg,
		UI:     loadUIConfig(),
	}, nil
}

// ServerConfig 는 HTTP 서버 설정이다.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// ":8080" 이나 "127.0.0.1:8080" 형태도 허용한다.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// UIConfig 는 프런트엔드 기본 언어 설정이다.
type UIConfig struct {
	Lang string
}

func loadUIConfig() UIConfig {
	lang := getEnvOrDefault("UI_LANG", "ko")
	if lang != "ko" && lang != "en" {
		lang = "ko"
	}
	return UIConfig{Lang: lang}
}

// Backend selects the model client implementation at startup.
type Backend string

const (
	BackendMock       Backend = "mock"
	BackendOpenRouter Backend = "openrouter"
	BackendArk        Backend = "ark"
)

// ModelConfig 는 모델 백엔드와 생성 파라미터 설정이다.
type ModelConfig struct {
	Backend     Backend
	APIKey      string
	BaseURL     string
	Candidates  []string
	Ark         ArkConfig
	Temperature float64
	TopP        float64
	MaxTokens   int
	Timeout     time.Duration
}

// ArkConfig 는 Volcengine Ark 백엔드 자격 증명이다.
type ArkConfig struct {
	APIKey    string
	AccessKey string
	SecretKey string
	Model     string
	BaseURL   string
	Region    string
}

// Enabled 는 필수 자격 증명이 제공되었는지 여부를 반환한다.
func (c ArkConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 은 Ark 설정으로 eino 챗 모델을 생성한다.
func (c ModelConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Ark.Enabled() {
		return nil, fmt.Errorf("ark credentials missing: provide ARK_API_KEY + ARK_MODEL or AK/SK")
	}

	temperature := float32(c.Temperature)
	topP := float32(c.TopP)
	maxTokens := c.MaxTokens

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.Ark.BaseURL,
		Region:      c.Ark.Region,
		APIKey:      c.Ark.APIKey,
		AccessKey:   c.Ark.AccessKey,
		SecretKey:   c.Ark.SecretKey,
		Model:       c.Ark.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		TopP:        &topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadModelConfig() (ModelConfig, error) {
	backend := Backend(strings.ToLower(getEnvOrDefault("MODEL_BACKEND", "mock")))
	switch backend {
	case BackendMock, BackendOpenRouter, BackendArk:
	default:
		return ModelConfig{}, fmt.Errorf("invalid MODEL_BACKEND value: %q", backend)
	}

	temperature, err := parseFloatEnv("GEN_TEMPERATURE", 0.7)
	if err != nil {
		return ModelConfig{}, err
	}

	topP, err := parseFloatEnv("GEN_TOP_P", 0.9)
	if err != nil {
		return ModelConfig{}, err
	}

	maxTokens, err := parseIntEnv("GEN_MAX_TOKENS", 300)
	if err != nil {
		return ModelConfig{}, err
	}

	timeoutSeconds, err := parseIntEnv("MODEL_TIMEOUT", 30)
	if err != nil {
		return ModelConfig{}, err
	}

	candidates := splitList(getEnvOrDefault("MODEL_CANDIDATES", "qwen/qwen-2-7b-instruct"))

	return ModelConfig{
		Backend:    backend,
		APIKey:     strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY")),
		BaseURL:    getEnvOrDefault("API_BASE_URL", "https://openrouter.ai/api/v1"),
		Candidates: candidates,
		Ark: ArkConfig{
			APIKey:    strings.TrimSpace(os.Getenv("ARK_API_KEY")),
			AccessKey: strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
			SecretKey: strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
			Model:     strings.TrimSpace(os.Getenv("ARK_MODEL")),
			BaseURL:   getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
			Region:    getEnvOrDefault("ARK_REGION", "cn-beijing"),
		},
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
		Timeout:     time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
