package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/haebom/hb-chat/backend/internal/config"
	"github.com/haebom/hb-chat/backend/internal/handler"
	"github.com/haebom/hb-chat/backend/internal/korean"
	chatservice "github.com/haebom/hb-chat/backend/internal/service/chat"
	modelservice "github.com/haebom/hb-chat/backend/internal/service/model"
	"github.com/haebom/hb-chat/backend/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	messages := korean.Messages(cfg.UI.Lang)

	store := session.NewStore(messages["new_chat"])

	client, err := modelservice.New(ctx, cfg.Model)
	if err != nil {
		log.Printf("warning: failed to initialize %s backend: %v", cfg.Model.Backend, err)
		log.Println("falling back to mock model client")
		client = modelservice.NewMockClient()
	}

	// Establish backend readiness up front; failure is non-fatal because
	// the orchestrator falls back to the mock generator per turn.
	if !client.LoadModel(ctx, func(step, total int, message string) {
		log.Printf("[model] load %d/%d: %s", step, total, message)
	}) {
		log.Printf("warning: %s backend not ready, replies will use the fallback generator", cfg.Model.Backend)
	}

	orchestrator := chatservice.NewService(store, client, modelservice.DefaultParams(cfg.Model), cfg.UI.Lang)

	router := handler.NewRouter(store, orchestrator, client, cfg.UI.Lang)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("HB Chat backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
