// Package chat orchestrates one conversation turn: append the user message,
// assemble the model context, invoke the configured backend with a mock
// fallback, post-process the reply and append it as the assistant message.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/haebom/hb-chat/backend/internal/korean"
	chatmodel "github.com/haebom/hb-chat/backend/internal/model/chat"
	"github.com/haebom/hb-chat/backend/internal/prompt"
	"github.com/haebom/hb-chat/backend/internal/service/model"
	"github.com/haebom/hb-chat/backend/internal/service/session"
)

// ErrEmptyInput rejects blank user messages before any state changes.
var ErrEmptyInput = errors.New("empty user input")

// Service glues the session store, model client and text post-processing
// into the chat flow. Model failures never escape: the mock generator
// answers whenever the primary backend cannot.
type Service struct {
	store    *session.Store
	client   model.Client
	fallback *model.MockClient
	params   model.Params
	uiLang   string
}

// NewService wires the orchestrator. client may equal fallback when the mock
// backend is configured.
func NewService(store *session.Store, client model.Client, params model.Params, uiLang string) *Service {
	return &Service{
		store:    store,
		client:   client,
		fallback: model.NewMockClient(),
		params:   params,
		uiLang:   uiLang,
	}
}

// HandleUserMessage runs a full conversation turn and returns the appended
// assistant message. An active session is created on demand. Only a totally
// unexpected internal error surfaces; it carries a generic localized message
// and leaves the user message in place with no assistant reply.
func (s *Service) HandleUserMessage(ctx context.Context, input string) (msg chatmodel.Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[orchestrator] panic during turn: %v", r)
			err = fmt.Errorf("%s", korean.Messages(s.uiLang)["error"])
		}
	}()

	if input == "" {
		return chatmodel.Message{}, ErrEmptyInput
	}

	if _, ok := s.store.Active(); !ok {
		s.store.Create(false)
	}

	if err := s.store.AddMessage(chatmodel.RoleUser, input); err != nil {
		return chatmodel.Message{}, fmt.Errorf("failed to record user message: %w", err)
	}

	active, ok := s.store.Active()
	if !ok {
		return chatmodel.Message{}, fmt.Errorf("%s", korean.Messages(s.uiLang)["error"])
	}

	contextString := prompt.BuildChatContext(steeredHistory(active.Messages, s.uiLang))

	reply, ok := s.client.GenerateChatResponse(ctx, contextString, s.params)
	if !ok || reply == "" {
		log.Printf("[orchestrator] primary backend unavailable, using fallback")
		reply, _ = s.fallback.GenerateChatResponse(ctx, contextString, s.params)
	}

	processed := korean.PostProcess(reply)

	if err := s.store.AddMessage(chatmodel.RoleAssistant, processed); err != nil {
		return chatmodel.Message{}, fmt.Errorf("failed to record assistant message: %w", err)
	}

	active, _ = s.store.Active()
	return active.Messages[len(active.Messages)-1], nil
}

// GenerateText runs the one-shot generation path outside any session.
func (s *Service) GenerateText(ctx context.Context, input string) (string, error) {
	if input == "" {
		return "", ErrEmptyInput
	}

	reply, ok := s.client.GenerateText(ctx, input, s.params)
	if !ok || reply == "" {
		log.Printf("[orchestrator] primary backend unavailable, using fallback")
		reply, _ = s.fallback.GenerateText(ctx, input, s.params)
	}

	return korean.PostProcess(reply), nil
}

// steeredHistory copies the history and appends a language-steering
// instruction to the final user turn. The stored message is never mutated;
// steering only shapes the prompt.
func steeredHistory(history []chatmodel.Message, uiLang string) []chatmodel.Message {
	if len(history) == 0 {
		return history
	}

	last := history[len(history)-1]
	if last.Role != chatmodel.RoleUser {
		return history
	}

	suffix := steeringSuffix(korean.DetectLanguage(last.Content), uiLang)
	if suffix == "" {
		return history
	}

	steered := append([]chatmodel.Message(nil), history...)
	steered[len(steered)-1].Content = last.Content + suffix
	return steered
}

func steeringSuffix(lang korean.Language, uiLang string) string {
	switch lang {
	case korean.Korean, korean.Mixed:
		return " (한국어로 답변해주세요.)"
	case korean.English:
		return " (Please answer in English.)"
	default:
		// Detection found no letters at all; steer toward the UI language.
		if uiLang == "en" {
			return " (Please answer in English.)"
		}
		return " (한국어로 답변해주세요.)"
	}
}
