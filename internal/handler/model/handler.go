package model

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	modelservice "github.com/haebom/hb-chat/backend/internal/service/model"
	"github.com/haebom/hb-chat/backend/pkg/utils"
)

// Handler exposes model backend status and loading.
type Handler struct {
	client modelservice.Client
}

// New creates the model handler.
func New(client modelservice.Client) *Handler {
	return &Handler{client: client}
}

// RegisterRoutes 모델 상태 라우트를 등록한다
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/model", h.handleModelInfo)
	r.Get("/model/load", h.handleLoadModel)
}

func (h *Handler) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.client.ModelInfo())
}

// handleLoadModel streams load progress as SSE frames so the UI can render
// a progress bar, then reports the final readiness state.
func (h *Handler) handleLoadModel(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)

	progress := func(step, total int, message string) {
		utils.SendSSEChunk(w, flusher, map[string]any{
			"event":   "progress",
			"step":    step,
			"total":   total,
			"message": message,
		})
	}

	loaded := h.client.LoadModel(r.Context(), progress)
	utils.SendSSEEvent(w, flusher, "done", map[string]any{
		"loaded": loaded,
		"info":   h.client.ModelInfo(),
	})
}
