package model

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/haebom/hb-chat/backend/internal/korean"
	"github.com/haebom/hb-chat/backend/internal/prompt"
)

var loadStageMessages = []string{
	"디바이스 설정 중...",
	"토크나이저 로드 중...",
	"모델 로드 중...",
	"로드 완료!",
}

var koreanChatResponses = []string{
	"'%s'에 대한 흥미로운 질문이네요! 자세히 설명해 드리겠습니다.",
	"말씀하신 '%s' 관련해서 도움을 드릴 수 있습니다. 어떤 부분이 궁금하신가요?",
	"네, 이해했습니다. 한국어로 자연스럽게 대화하며 도움을 드리겠습니다.",
	"좋은 질문입니다! 더 자세한 정보를 원하시면 언제든 말씀해 주세요.",
}

var englishChatResponses = []string{
	"That's an interesting question about '%s'! Let me explain in detail.",
	"I can help you with '%s'. What specific aspect would you like to know more about?",
	"Yes, I understand. I'm here to help you with natural conversation in both languages.",
	"Great question! Feel free to ask if you need more detailed information.",
}

// MockClient simulates a local model: load is a short staged sleep and
// generation picks from a fixed bilingual response set. It never fails and
// doubles as the fallback generator for the real backends.
type MockClient struct {
	mu     sync.Mutex
	rng    *rand.Rand
	loaded bool
}

// NewMockClient creates a mock backend seeded from the clock.
func NewMockClient() *MockClient {
	return &MockClient{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// LoadModel walks ten fake load steps with a short delay each.
func (c *MockClient) LoadModel(ctx context.Context, progress ProgressFunc) bool {
	const total = 10
	for i := 1; i <= total; i++ {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(50 * time.Millisecond):
		}
		if progress != nil {
			stage := i / 3
			if stage >= len(loadStageMessages) {
				stage = len(loadStageMessages) - 1
			}
			progress(i, total, loadStageMessages[stage])
		}
	}

	c.mu.Lock()
	c.loaded = true
	c.mu.Unlock()
	return true
}

// GenerateChatResponse echoes the last user turn back inside a canned reply,
// in Korean when the turn contains Hangul, otherwise in English.
func (c *MockClient) GenerateChatResponse(ctx context.Context, contextString string, _ Params) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case <-time.After(200 * time.Millisecond):
	}

	lastMessage := prompt.LastUserTurn(contextString)
	if lastMessage == "" {
		lastMessage = "Hello"
	}

	responses := englishChatResponses
	if korean.ContainsKorean(lastMessage) {
		responses = koreanChatResponses
	}

	return fillTemplate(c.pick(responses), lastMessage), true
}

// GenerateText behaves like GenerateChatResponse for one-shot prompts.
func (c *MockClient) GenerateText(ctx context.Context, promptText string, params Params) (string, bool) {
	return c.GenerateChatResponse(ctx, prompt.BuildGenerationPrompt(promptText), params)
}

// ModelInfo reports the simulated local model.
func (c *MockClient) ModelInfo() Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Info{
		ModelName:       "Qwen/Qwen2-7B-Instruct",
		Device:          "cpu",
		Loaded:          c.loaded,
		RemoteAvailable: false,
		MemoryUsage:     0,
	}
}

// fillTemplate substitutes the user's topic into responses that reference
// it; the remaining canned replies pass through untouched.
func fillTemplate(tpl, lastMessage string) string {
	if strings.Contains(tpl, "%s") {
		return fmt.Sprintf(tpl, lastMessage)
	}
	return tpl
}

func (c *MockClient) pick(responses []string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return responses[c.rng.Intn(len(responses))]
}
