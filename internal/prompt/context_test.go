package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/haebom/hb-chat/backend/internal/model/chat"
)

func TestBuildChatContextDeterministic(t *testing.T) {
	history := []chat.Message{
		{Role: chat.RoleUser, Content: "안녕"},
		{Role: chat.RoleAssistant, Content: "안녕하세요!"},
		{Role: chat.RoleUser, Content: "오늘 날씨 어때?"},
	}

	first := BuildChatContext(history)
	second := BuildChatContext(history)
	if first != second {
		t.Fatal("expected identical output for identical history")
	}
}

func TestBuildChatContextStructure(t *testing.T) {
	history := []chat.Message{
		{Role: chat.RoleUser, Content: "hello"},
		{Role: chat.RoleAssistant, Content: "hi there"},
	}

	got := BuildChatContext(history)

	if !strings.HasPrefix(got, "<|im_start|>system\n") {
		t.Fatalf("expected system block first, got %q", got)
	}
	if !strings.Contains(got, "<|im_start|>user\nhello<|im_end|>") {
		t.Fatal("missing user turn")
	}
	if !strings.Contains(got, "<|im_start|>assistant\nhi there<|im_end|>") {
		t.Fatal("missing assistant turn")
	}
	if !strings.HasSuffix(got, "<|im_start|>assistant\n") {
		t.Fatalf("expected open assistant marker at end, got %q", got)
	}
}

func TestBuildChatContextWindowsHistory(t *testing.T) {
	history := make([]chat.Message, 0, 15)
	for i := 0; i < 15; i++ {
		history = append(history, chat.Message{
			Role:    chat.RoleUser,
			Content: fmt.Sprintf("message-%d", i),
		})
	}

	got := BuildChatContext(history)

	for i := 0; i < 5; i++ {
		if strings.Contains(got, fmt.Sprintf("message-%d<", i)) {
			t.Errorf("expected message-%d to be dropped from window", i)
		}
	}
	for i := 5; i < 15; i++ {
		if !strings.Contains(got, fmt.Sprintf("message-%d<", i)) {
			t.Errorf("expected message-%d to be kept in window", i)
		}
	}
}

func TestBuildChatContextEmptyHistory(t *testing.T) {
	got := BuildChatContext(nil)
	if !strings.HasPrefix(got, "<|im_start|>system\n") {
		t.Fatal("expected system block")
	}
	if !strings.HasSuffix(got, "<|im_start|>assistant\n") {
		t.Fatal("expected open assistant marker")
	}
}

func TestBuildGenerationPrompt(t *testing.T) {
	korean := BuildGenerationPrompt("김치에 대해 알려줘")
	if !strings.Contains(korean, "한국어로 자세히 설명해주세요") {
		t.Fatal("expected korean instruction wrapper")
	}

	english := BuildGenerationPrompt("tell me about kimchi")
	if strings.Contains(english, "한국어로") {
		t.Fatal("did not expect korean instruction for english prompt")
	}
	if !strings.HasPrefix(english, "<|im_start|>user\n") {
		t.Fatalf("unexpected prompt shape: %q", english)
	}
}

func TestLastUserTurn(t *testing.T) {
	history := []chat.Message{
		{Role: chat.RoleUser, Content: "first question"},
		{Role: chat.RoleAssistant, Content: "some answer"},
		{Role: chat.RoleUser, Content: "second question"},
	}

	got := LastUserTurn(BuildChatContext(history))
	if got != "second question" {
		t.Fatalf("expected last user turn, got %q", got)
	}

	if got := LastUserTurn("no markers at all"); got != "" {
		t.Fatalf("expected empty result without markers, got %q", got)
	}
}
