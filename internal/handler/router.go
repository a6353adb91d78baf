package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chatHandler "github.com/haebom/hb-chat/backend/internal/handler/chat"
	modelHandler "github.com/haebom/hb-chat/backend/internal/handler/model"
	"github.com/haebom/hb-chat/backend/internal/handler/ws"
	middlewarePkg "github.com/haebom/hb-chat/backend/internal/middleware"
	chatService "github.com/haebom/hb-chat/backend/internal/service/chat"
	modelService "github.com/haebom/hb-chat/backend/internal/service/model"
	"github.com/haebom/hb-chat/backend/internal/service/session"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(store *session.Store, orchestrator *chatService.Service, client modelService.Client, uiLang string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatH := chatHandler.New(store, orchestrator, uiLang)
	modelH := modelHandler.New(client)
	wsH := ws.New(orchestrator, store)

	r.Route("/api", func(api chi.Router) {
		chatH.RegisterRoutes(api)
		modelH.RegisterRoutes(api)
		wsH.RegisterRoutes(api)
	})

	return r
}
