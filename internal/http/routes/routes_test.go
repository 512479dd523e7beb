package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/artwork-critic/internal/config"
	"github.com/phambaophuc/artwork-critic/internal/http/handlers"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handlers.NewAIHandler(handlers.AIHandlerDeps{}, zap.NewNop(), &config.Config{})
	return NewRouter(h, zap.NewNop(), false, 1024).SetupRoutes()
}

func TestRoutes(t *testing.T) {
	r := newTestRouter()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		ctype  string
		want   int
	}{
		{"root", http.MethodGet, "/", "", "", http.StatusOK},
		{"health", http.MethodGet, "/api/health", "", "", http.StatusOK},
		{"stats", http.MethodGet, "/api/stats", "", "", http.StatusOK},
		{"preflight", http.MethodOptions, "/api/ai/critique", "", "", http.StatusNoContent},
		{"form body rejected", http.MethodPost, "/api/ai/critique", "description=x", "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"critique unconfigured", http.MethodPost, "/api/ai/critique", `{"description":"x"}`, "application/json", http.StatusServiceUnavailable},
		{"license unconfigured", http.MethodPost, "/api/ai/agree-license", "", "", http.StatusServiceUnavailable},
		{"oversized body", http.MethodPost, "/api/ai/critique", `{"description":"` + strings.Repeat("x", 2048) + `"}`, "application/json", http.StatusRequestEntityTooLarge},
		{"unknown", http.MethodGet, "/api/v1/images", "", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.ctype != "" {
				req.Header.Set("Content-Type", tt.ctype)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}
