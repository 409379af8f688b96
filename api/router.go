package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/medicare-ai/medassist/metrics"
)

// NewRouter mounts the chat API. mcpHandler is served under mcpPath when
// both are set.
func NewRouter(h *Handler, mcpHandler http.Handler, mcpPath string, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.Use(observe)

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/api/system/status", h.Status).Methods(http.MethodGet)

	r.HandleFunc("/api/chat", h.Chat).Methods(http.MethodPost)
	r.HandleFunc("/api/chat_pdf", h.ChatPDF).Methods(http.MethodPost)
	r.HandleFunc("/api/chat/attach_pdf", h.AttachPDF).Methods(http.MethodPost)
	r.HandleFunc("/api/chat/upload_temp_pdf", h.UploadPDF).Methods(http.MethodPost)
	r.HandleFunc("/api/chat/history", h.Sessions).Methods(http.MethodGet)
	r.HandleFunc("/api/chat/history/{session_id}", h.SessionHistory).Methods(http.MethodGet)
	r.HandleFunc("/api/chat/new_session", h.NewSession).Methods(http.MethodPost)
	r.HandleFunc("/api/chat/switch_session", h.SwitchSession).Methods(http.MethodPost)
	r.HandleFunc("/api/chat/delete_session", h.DeleteSession).Methods(http.MethodPost)
	r.HandleFunc("/api/chat/clear", h.ClearHistory).Methods(http.MethodPost)

	if mcpHandler != nil && mcpPath != "" {
		r.PathPrefix(mcpPath).Handler(mcpHandler)
	}

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unknown"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.ObserveHTTP(route, rec.code, start)
	})
}
