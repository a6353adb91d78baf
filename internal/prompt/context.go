// Package prompt assembles model input strings from conversation history.
// Output is a pure function of its input: identical history always yields
// byte-identical prompts.
package prompt

import (
	"fmt"
	"strings"

	"github.com/haebom/hb-chat/backend/internal/korean"
	"github.com/haebom/hb-chat/backend/internal/model/chat"
)

// historyLimit caps the trailing message window included in the prompt.
// Older messages are dropped silently; this is a fixed count, not a token
// budget.
const historyLimit = 10

const systemPreamble = "당신은 한국어와 영어를 모두 지원하는 도움이 되는 AI 어시스턴트입니다. 사용자의 언어에 맞춰 적절하게 응답해주세요."

// BuildChatContext renders the conversation as an im_start/im_end marked
// prompt: system preamble, the last 10 turns, then an open assistant marker
// prompting continuation.
func BuildChatContext(history []chat.Message) string {
	parts := make([]string, 0, historyLimit+2)
	parts = append(parts, fmt.Sprintf("<|im_start|>system\n%s<|im_end|>", systemPreamble))

	startIdx := 0
	if len(history) > historyLimit {
		startIdx = len(history) - historyLimit
	}

	for _, msg := range history[startIdx:] {
		switch msg.Role {
		case chat.RoleUser:
			parts = append(parts, fmt.Sprintf("<|im_start|>user\n%s<|im_end|>", msg.Content))
		case chat.RoleAssistant:
			parts = append(parts, fmt.Sprintf("<|im_start|>assistant\n%s<|im_end|>", msg.Content))
		}
	}

	parts = append(parts, "<|im_start|>assistant\n")
	return strings.Join(parts, "\n")
}

// BuildGenerationPrompt wraps a one-shot prompt for the model. Korean input
// gets an explicit Korean-explanation instruction.
func BuildGenerationPrompt(text string) string {
	if korean.ContainsKorean(text) {
		return fmt.Sprintf("<|im_start|>user\n다음 내용에 대해 한국어로 자세히 설명해주세요: %s<|im_end|>\n<|im_start|>assistant\n", text)
	}
	return fmt.Sprintf("<|im_start|>user\n%s<|im_end|>\n<|im_start|>assistant\n", text)
}

// LastUserTurn extracts the content of the final user turn from a rendered
// context string. Mock backends use it to echo the user's topic back.
func LastUserTurn(contextString string) string {
	if !strings.Contains(contextString, "user\n") {
		return ""
	}
	segments := strings.Split(contextString, "user\n")
	last := segments[len(segments)-1]
	return strings.TrimSpace(strings.SplitN(last, "<|im_end|>", 2)[0])
}
