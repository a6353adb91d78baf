package chat

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/haebom/hb-chat/backend/internal/korean"
	chatservice "github.com/haebom/hb-chat/backend/internal/service/chat"
	"github.com/haebom/hb-chat/backend/internal/service/session"
	"github.com/haebom/hb-chat/backend/pkg/utils"
)

// Handler 채팅 세션과 대화 흐름의 HTTP 처리기
type Handler struct {
	store        *session.Store
	orchestrator *chatservice.Service
	uiLang       string
}

// New 채팅 처리기를 생성한다
func New(store *session.Store, orchestrator *chatservice.Service, uiLang string) *Handler {
	return &Handler{
		store:        store,
		orchestrator: orchestrator,
		uiLang:       uiLang,
	}
}

// RegisterRoutes 채팅 관련 라우트를 등록한다
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreateSession)
	r.Get("/sessions", h.handleListSessions)
	r.Get("/sessions/active", h.handleActiveSession)
	r.Get("/sessions/{sessionID}", h.handleGetSession)
	r.Post("/sessions/{sessionID}/activate", h.handleActivateSession)
	r.Post("/sessions/{sessionID}/clear", h.handleClearSession)
	r.Delete("/sessions/{sessionID}", h.handleDeleteSession)
	r.Post("/chat", h.handleChat)
	r.Post("/generate", h.handleGenerate)
	r.Get("/export", h.handleExport)
	r.Post("/import", h.handleImport)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Temporary bool `json:"temporary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created := h.store.Create(payload.Temporary)
	utils.RespondJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.store.List())
}

func (h *Handler) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	active, ok := h.store.Active()
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "no active session")
		return
	}
	utils.RespondJSON(w, http.StatusOK, active)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	record, ok := h.store.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, record)
}

func (h *Handler) handleActivateSession(w http.ResponseWriter, r *http.Request) {
	if !h.store.Switch(chi.URLParam(r, "sessionID")) {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	active, _ := h.store.Active()
	utils.RespondJSON(w, http.StatusOK, active)
}

func (h *Handler) handleClearSession(w http.ResponseWriter, r *http.Request) {
	if !h.store.ClearMessages(chi.URLParam(r, "sessionID")) {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	h.store.Delete(chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Message == "" {
		utils.RespondError(w, http.StatusBadRequest, korean.Messages(h.uiLang)["empty_prompt"])
		return
	}

	reply, err := h.orchestrator.HandleUserMessage(r.Context(), payload.Message)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"sessionId": h.store.ActiveID(),
		"message":   reply,
	})
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Prompt == "" {
		utils.RespondError(w, http.StatusBadRequest, korean.Messages(h.uiLang)["empty_prompt"])
		return
	}

	text, err := h.orchestrator.GenerateText(r.Context(), payload.Prompt)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := h.store.ExportJSON()
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to export sessions")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="hb-chat-sessions.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 4<<20))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	added, err := h.store.Import(data)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, korean.Messages(h.uiLang)["error"])
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]int{"imported": added})
}
