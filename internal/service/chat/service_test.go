package chat_test

import (
	"context"
	"strings"
	"testing"

	"github.com/haebom/hb-chat/backend/internal/korean"
	chatmodel "github.com/haebom/hb-chat/backend/internal/model/chat"
	chatservice "github.com/haebom/hb-chat/backend/internal/service/chat"
	"github.com/haebom/hb-chat/backend/internal/service/model"
	"github.com/haebom/hb-chat/backend/internal/service/session"
)

// failingClient simulates a backend whose every call fails.
type failingClient struct{}

func (failingClient) LoadModel(context.Context, model.ProgressFunc) bool { return false }
func (failingClient) GenerateChatResponse(context.Context, string, model.Params) (string, bool) {
	return "", false
}
func (failingClient) GenerateText(context.Context, string, model.Params) (string, bool) {
	return "", false
}
func (failingClient) ModelInfo() model.Info { return model.Info{} }

// capturingClient records the context string it was handed.
type capturingClient struct {
	lastContext string
}

func (c *capturingClient) LoadModel(context.Context, model.ProgressFunc) bool { return true }
func (c *capturingClient) GenerateChatResponse(_ context.Context, contextString string, _ model.Params) (string, bool) {
	c.lastContext = contextString
	return "고정된 답변입니다.", true
}
func (c *capturingClient) GenerateText(context.Context, string, model.Params) (string, bool) {
	return "fixed", true
}
func (c *capturingClient) ModelInfo() model.Info { return model.Info{} }

func newService(client model.Client) (*chatservice.Service, *session.Store) {
	store := session.NewStore("")
	svc := chatservice.NewService(store, client, model.Params{MaxTokens: 300, Temperature: 0.7, TopP: 0.9}, "ko")
	return svc, store
}

func TestHandleUserMessageWithMock(t *testing.T) {
	svc, store := newService(model.NewMockClient())

	reply, err := svc.HandleUserMessage(context.Background(), "안녕")
	if err != nil {
		t.Fatalf("HandleUserMessage err: %v", err)
	}

	if reply.Role != chatmodel.RoleAssistant {
		t.Fatalf("expected assistant reply, got role %q", reply.Role)
	}
	if reply.Content == "" {
		t.Fatal("expected non-empty reply")
	}
	if strings.Contains(reply.Content, "<|im_start|>") || strings.Contains(reply.Content, "<|im_end|>") {
		t.Fatalf("reply must be free of role markers: %q", reply.Content)
	}
	if !korean.ContainsKorean(reply.Content) {
		t.Fatalf("expected korean reply for korean input, got %q", reply.Content)
	}

	active, ok := store.Active()
	if !ok {
		t.Fatal("expected a session to have been created")
	}
	if len(active.Messages) != 2 {
		t.Fatalf("expected exactly 2 messages, got %d", len(active.Messages))
	}
	if active.Messages[0].Role != chatmodel.RoleUser || active.Messages[1].Role != chatmodel.RoleAssistant {
		t.Fatal("unexpected message roles")
	}
	if active.Title != "안녕" {
		t.Fatalf("expected derived title, got %q", active.Title)
	}
}

func TestHandleUserMessageFallsBackOnFailure(t *testing.T) {
	svc, store := newService(failingClient{})

	reply, err := svc.HandleUserMessage(context.Background(), "hello")
	if err != nil {
		t.Fatalf("model failure must not surface, got %v", err)
	}
	if reply.Content == "" {
		t.Fatal("expected fallback reply")
	}

	active, _ := store.Active()
	if len(active.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(active.Messages))
	}
}

func TestHandleUserMessageReusesActiveSession(t *testing.T) {
	svc, store := newService(model.NewMockClient())

	if _, err := svc.HandleUserMessage(context.Background(), "첫 번째"); err != nil {
		t.Fatalf("first turn err: %v", err)
	}
	if _, err := svc.HandleUserMessage(context.Background(), "두 번째"); err != nil {
		t.Fatalf("second turn err: %v", err)
	}

	if len(store.List()) != 1 {
		t.Fatalf("expected a single session, got %d", len(store.List()))
	}
	active, _ := store.Active()
	if len(active.Messages) != 4 {
		t.Fatalf("expected 4 messages after two turns, got %d", len(active.Messages))
	}
}

func TestHandleUserMessageEmptyInput(t *testing.T) {
	svc, store := newService(model.NewMockClient())

	if _, err := svc.HandleUserMessage(context.Background(), ""); err != chatservice.ErrEmptyInput {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if _, ok := store.Active(); ok {
		t.Fatal("empty input must not create a session")
	}
}

func TestLanguageSteeringDoesNotMutateStoredMessage(t *testing.T) {
	client := &capturingClient{}
	svc, store := newService(client)

	if _, err := svc.HandleUserMessage(context.Background(), "안녕"); err != nil {
		t.Fatalf("HandleUserMessage err: %v", err)
	}

	if !strings.Contains(client.lastContext, "한국어로 답변해주세요") {
		t.Fatalf("expected steering instruction in context, got %q", client.lastContext)
	}

	active, _ := store.Active()
	if active.Messages[0].Content != "안녕" {
		t.Fatalf("stored message was mutated: %q", active.Messages[0].Content)
	}
}

func TestGenerateTextFallsBack(t *testing.T) {
	svc, _ := newService(failingClient{})

	text, err := svc.GenerateText(context.Background(), "tell me a story")
	if err != nil {
		t.Fatalf("GenerateText err: %v", err)
	}
	if text == "" {
		t.Fatal("expected fallback text")
	}
}
