package model

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/haebom/hb-chat/backend/internal/config"
)

const arkSystemPrompt = "당신은 한국어와 영어를 모두 지원하는 도움이 되는 AI 어시스턴트입니다. 사용자의 언어에 맞춰 적절하게 응답해주세요."

// ArkClient runs chat completions through a Volcengine Ark model behind an
// eino prompt chain. The rendered context string is parsed back into turns
// so the chain receives structured history instead of raw markers.
type ArkClient struct {
	chatModel einomodel.ChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
	modelName string

	mu     sync.Mutex
	loaded bool
}

// NewArkClient builds the chat model and compiles the prompt chain.
func NewArkClient(ctx context.Context, cfg config.ModelConfig) (*ArkClient, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create ark chat model: %w", err)
	}

	promptTemplate := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &ArkClient{
		chatModel: chatModel,
		chain:     runnable,
		modelName: cfg.Ark.Model,
	}, nil
}

// LoadModel marks the client ready; the chain was already compiled at
// construction, so there is nothing left to warm up.
func (c *ArkClient) LoadModel(_ context.Context, progress ProgressFunc) bool {
	report(progress, 1, 1, "모델이 로드되었습니다.")
	c.mu.Lock()
	c.loaded = true
	c.mu.Unlock()
	return true
}

// GenerateChatResponse parses the context back into history plus the final
// user query and invokes the chain. Generation parameters are fixed in the
// Ark model configuration, so params is unused here.
func (c *ArkClient) GenerateChatResponse(ctx context.Context, contextString string, _ Params) (string, bool) {
	history, query := parseContext(contextString)
	if query == "" {
		return "", false
	}

	response, err := c.chain.Invoke(ctx, map[string]any{
		"system":  arkSystemPrompt,
		"history": history,
		"query":   query,
	})
	if err != nil {
		log.Printf("[model] ark chain failed: %v", err)
		return "", false
	}

	return strings.TrimSpace(response.Content), true
}

// GenerateText runs a one-shot query with no history.
func (c *ArkClient) GenerateText(ctx context.Context, promptText string, _ Params) (string, bool) {
	response, err := c.chain.Invoke(ctx, map[string]any{
		"system":  arkSystemPrompt,
		"history": []*schema.Message(nil),
		"query":   promptText,
	})
	if err != nil {
		log.Printf("[model] ark text generation failed: %v", err)
		return "", false
	}
	return strings.TrimSpace(response.Content), true
}

// ModelInfo reports the Ark backend status.
func (c *ArkClient) ModelInfo() Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Info{
		ModelName:       c.modelName,
		Device:          "ark-api",
		Loaded:          c.loaded,
		RemoteAvailable: true,
		MemoryUsage:     0,
	}
}

// parseContext splits an im_start/im_end marked context string into eino
// history messages and the trailing user query. The system block and the
// open assistant marker are dropped.
func parseContext(contextString string) ([]*schema.Message, string) {
	turns := make([]*schema.Message, 0, 12)
	for _, segment := range strings.Split(contextString, "<|im_start|>") {
		segment = strings.TrimSpace(strings.SplitN(segment, "<|im_end|>", 2)[0])
		if segment == "" {
			continue
		}

		role, content, found := strings.Cut(segment, "\n")
		if !found || content == "" {
			continue
		}
		switch role {
		case "user":
			turns = append(turns, schema.UserMessage(content))
		case "assistant":
			turns = append(turns, schema.AssistantMessage(content, nil))
		}
	}

	if len(turns) == 0 {
		return nil, ""
	}

	last := turns[len(turns)-1]
	if last.Role != schema.User {
		return turns, ""
	}
	return turns[:len(turns)-1], last.Content
}
