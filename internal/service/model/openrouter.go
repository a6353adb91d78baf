package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/haebom/hb-chat/backend/internal/config"
	"github.com/haebom/hb-chat/backend/internal/prompt"
)

const (
	referer  = "https://hb-ai.replit.app"
	appTitle = "HB AI - Korean AI Chat System"
)

// OpenRouterClient talks to an OpenAI-compatible chat-completions endpoint.
// LoadModel probes the configured model candidates in order and locks onto
// the first one that answers; transport errors are mapped to absent results.
type OpenRouterClient struct {
	baseURL    string
	apiKey     string
	candidates []string
	httpClient *http.Client

	mu        sync.Mutex
	modelName string
	loaded    bool
}

// NewOpenRouterClient builds the HTTP-backed client from configuration.
func NewOpenRouterClient(cfg config.ModelConfig) *OpenRouterClient {
	candidates := cfg.Candidates
	if len(candidates) == 0 {
		candidates = []string{"qwen/qwen-2-7b-instruct"}
	}
	return &OpenRouterClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		candidates: candidates,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		modelName:  candidates[0],
	}
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	Stream      bool          `json:"stream"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// LoadModel checks the API and tries each candidate model with a tiny
// completion until one responds.
func (c *OpenRouterClient) LoadModel(ctx context.Context, progress ProgressFunc) bool {
	const total = 10

	report(progress, 1, total, "API 연결 확인 중...")
	c.checkHealth(ctx)
	report(progress, 3, total, "API 상태 확인 중...")

	for i, candidate := range c.candidates {
		report(progress, 5+i, total, fmt.Sprintf("모델 테스트 중: %s", candidate))

		c.mu.Lock()
		c.modelName = candidate
		c.mu.Unlock()

		reply, err := c.chatCompletion(ctx, "Hello", Params{MaxTokens: 10, Temperature: 0.7, TopP: 0.9}, true)
		if err != nil {
			log.Printf("[model] candidate %s failed: %v", candidate, err)
			continue
		}
		if reply != "" {
			c.mu.Lock()
			c.loaded = true
			c.mu.Unlock()
			report(progress, total, total, fmt.Sprintf("연결 성공: %s", candidate))
			return true
		}
	}

	report(progress, total, total, "모델 연결 실패 - API 키를 확인하세요")
	return false
}

// GenerateChatResponse sends the last user turn of the rendered context as a
// single-message chat completion.
func (c *OpenRouterClient) GenerateChatResponse(ctx context.Context, contextString string, params Params) (string, bool) {
	if !c.isLoaded() {
		log.Printf("[model] generate requested before load")
		return "", false
	}

	message := prompt.LastUserTurn(contextString)
	if message == "" {
		message = contextString
	}

	reply, err := c.chatCompletion(ctx, message, params, true)
	if err != nil || reply == "" {
		if err != nil {
			log.Printf("[model] chat completion failed: %v", err)
		}
		return "", false
	}
	return reply, true
}

// GenerateText sends a plain prompt as a chat completion.
func (c *OpenRouterClient) GenerateText(ctx context.Context, promptText string, params Params) (string, bool) {
	if !c.isLoaded() {
		return "", false
	}

	reply, err := c.chatCompletion(ctx, promptText, params, true)
	if err != nil || reply == "" {
		if err != nil {
			log.Printf("[model] text completion failed: %v", err)
		}
		return "", false
	}
	return reply, true
}

// ModelInfo reports the remote backend status.
func (c *OpenRouterClient) ModelInfo() Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Info{
		ModelName:       c.modelName,
		Device:          "openrouter-api",
		Loaded:          c.loaded,
		RemoteAvailable: true,
		MemoryUsage:     0,
	}
}

// chatCompletion performs one POST to the chat-completions endpoint.
// A 503 means the remote model is still warming up: wait and retry once.
// 404 and 400 are hard failures for the current model.
func (c *OpenRouterClient) chatCompletion(ctx context.Context, message string, params Params, allowRetry bool) (string, error) {
	payload := chatCompletionRequest{
		Model:       c.currentModel(),
		Messages:    []wireMessage{{Role: "user", Content: message}},
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		TopP:        params.TopP,
		Stream:      false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", referer)
	req.Header.Set("X-Title", appTitle)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var result chatCompletionResponse
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return "", fmt.Errorf("failed to decode response: %w", err)
		}
		if len(result.Choices) == 0 {
			return "", fmt.Errorf("empty choices in response")
		}
		return strings.TrimSpace(result.Choices[0].Message.Content), nil

	case http.StatusServiceUnavailable:
		if !allowRetry {
			return "", fmt.Errorf("model still loading after retry")
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(3 * time.Second):
		}
		return c.chatCompletion(ctx, message, params, false)

	case http.StatusNotFound:
		return "", fmt.Errorf("model not found: %s", c.currentModel())

	case http.StatusBadRequest:
		return "", fmt.Errorf("bad request: %s", readErrorBody(resp.Body))

	default:
		return "", fmt.Errorf("api error: status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}
}

// checkHealth probes the /models endpoint. Failures only log; some
// OpenAI-compatible bases do not serve it.
func (c *OpenRouterClient) checkHealth(ctx context.Context) {
	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[model] api health check failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		log.Printf("[model] api base %s does not support /models", c.baseURL)
	}
}

func (c *OpenRouterClient) currentModel() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modelName
}

func (c *OpenRouterClient) isLoaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

func readErrorBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func report(progress ProgressFunc, step, total int, message string) {
	if progress != nil {
		progress(step, total, message)
	}
}
