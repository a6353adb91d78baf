package chat

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	chatmodel "github.com/haebom/hb-chat/backend/internal/model/chat"
	chatservice "github.com/haebom/hb-chat/backend/internal/service/chat"
	"github.com/haebom/hb-chat/backend/internal/service/model"
	"github.com/haebom/hb-chat/backend/internal/service/session"
)

func setupRouter() (*chi.Mux, *session.Store) {
	store := session.NewStore("새 채팅")
	orchestrator := chatservice.NewService(store, model.NewMockClient(), model.Params{MaxTokens: 300, Temperature: 0.7, TopP: 0.9}, "ko")
	handler := New(store, orchestrator, "ko")

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, store
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestCreateSession(t *testing.T) {
	r, store := setupRouter()

	resp := doJSON(t, r, http.MethodPost, "/sessions", map[string]bool{"temporary": false})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	var created chatmodel.Session
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.ID == "" || created.Title != "새 채팅" {
		t.Fatalf("unexpected session: %+v", created)
	}
	if store.ActiveID() != created.ID {
		t.Fatal("created session must become active")
	}
}

func TestCreateSessionEmptyBody(t *testing.T) {
	r, _ := setupRouter()

	resp := doJSON(t, r, http.MethodPost, "/sessions", nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for empty body, got %d", resp.Code)
	}
}

func TestCreateTemporarySessionNotListed(t *testing.T) {
	r, _ := setupRouter()

	doJSON(t, r, http.MethodPost, "/sessions", map[string]bool{"temporary": true})

	resp := doJSON(t, r, http.MethodGet, "/sessions", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var list []chatmodel.Session
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("temporary session must not be listed, got %d entries", len(list))
	}
}

func TestGetSessionNotFound(t *testing.T) {
	r, _ := setupRouter()

	resp := doJSON(t, r, http.MethodGet, "/sessions/missing", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestActivateSession(t *testing.T) {
	r, store := setupRouter()

	first := store.Create(false)
	store.Create(false)

	resp := doJSON(t, r, http.MethodPost, "/sessions/"+first.ID+"/activate", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if store.ActiveID() != first.ID {
		t.Fatal("activation did not switch the active session")
	}

	resp = doJSON(t, r, http.MethodPost, "/sessions/missing/activate", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", resp.Code)
	}
}

func TestDeleteSession(t *testing.T) {
	r, store := setupRouter()
	created := store.Create(false)

	resp := doJSON(t, r, http.MethodDelete, "/sessions/"+created.ID, nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if len(store.List()) != 0 {
		t.Fatal("session was not deleted")
	}
}

func TestChatTurn(t *testing.T) {
	r, store := setupRouter()

	resp := doJSON(t, r, http.MethodPost, "/chat", map[string]string{"message": "안녕"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var result struct {
		SessionID string            `json:"sessionId"`
		Message   chatmodel.Message `json:"message"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Message.Role != chatmodel.RoleAssistant || result.Message.Content == "" {
		t.Fatalf("unexpected reply: %+v", result.Message)
	}
	if result.SessionID == "" {
		t.Fatal("expected the active session id in the response")
	}

	active, ok := store.Active()
	if !ok || len(active.Messages) != 2 {
		t.Fatal("expected a session with the full turn recorded")
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	r, _ := setupRouter()

	resp := doJSON(t, r, http.MethodPost, "/chat", map[string]string{"message": ""})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestGenerate(t *testing.T) {
	r, _ := setupRouter()

	resp := doJSON(t, r, http.MethodPost, "/generate", map[string]string{"prompt": "hello"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var result map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["text"] == "" {
		t.Fatal("expected generated text")
	}
}

func TestExportImport(t *testing.T) {
	r, store := setupRouter()
	store.Create(false)
	store.AddMessage(chatmodel.RoleUser, "내보내기 테스트")

	resp := doJSON(t, r, http.MethodGet, "/export", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type: %q", ct)
	}

	// Import into a fresh store via a second router.
	r2, store2 := setupRouter()
	req := httptest.NewRequest(http.MethodPost, "/import", bytes.NewReader(resp.Body.Bytes()))
	rec := httptest.NewRecorder()
	r2.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(store2.List()) != 1 {
		t.Fatalf("expected 1 imported session, got %d", len(store2.List()))
	}
}

func TestImportMalformed(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/import", bytes.NewReader([]byte(`not json`)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestClearSession(t *testing.T) {
	r, store := setupRouter()
	created := store.Create(false)
	store.AddMessage(chatmodel.RoleUser, "지울 메시지")

	resp := doJSON(t, r, http.MethodPost, "/sessions/"+created.ID+"/clear", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	active, _ := store.Active()
	if len(active.Messages) != 0 {
		t.Fatal("messages were not cleared")
	}
}
