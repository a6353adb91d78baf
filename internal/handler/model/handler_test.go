package model

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	modelservice "github.com/haebom/hb-chat/backend/internal/service/model"
)

func setupRouter() *chi.Mux {
	handler := New(modelservice.NewMockClient())
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func TestModelInfo(t *testing.T) {
	r := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/model", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var info modelservice.Info
	if err := json.Unmarshal(resp.Body.Bytes(), &info); err != nil {
		t.Fatalf("failed to decode info: %v", err)
	}
	if info.ModelName == "" || info.Device != "cpu" {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestLoadModelStreamsProgress(t *testing.T) {
	r := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/model/load", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if ct := resp.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type: %q", ct)
	}

	body := resp.Body.String()
	if !strings.Contains(body, `"event":"progress"`) {
		t.Fatal("expected progress frames")
	}
	if !strings.Contains(body, "event: done") {
		t.Fatal("expected final done event")
	}
	if !strings.Contains(body, `"loaded":true`) {
		t.Fatal("expected loaded=true in final event")
	}
}
