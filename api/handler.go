package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/medicare-ai/medassist/common/logger"
	"github.com/medicare-ai/medassist/document"
	"github.com/medicare-ai/medassist/history"
	"github.com/medicare-ai/medassist/orchestrator"
)

// UserHeader carries the authenticated user id set by the fronting proxy.
const UserHeader = "X-User-ID"

const anonymousUser = "anonymous"

// StatusFunc reports the system status served on /api/system/status.
type StatusFunc func() any

type Handler struct {
	chat      *orchestrator.Orchestrator
	status    StatusFunc
	timeout   time.Duration
	maxUpload int64
}

func NewHandler(chat *orchestrator.Orchestrator, status StatusFunc, timeout time.Duration, maxUpload int64) *Handler {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	if maxUpload <= 0 {
		maxUpload = 20 << 20
	}
	return &Handler{chat: chat, status: status, timeout: timeout, maxUpload: maxUpload}
}

type pdfQuestion struct {
	CID      string `json:"cid"`
	Question string `json:"question"`
}

type attachRequest struct {
	CID       string `json:"cid"`
	Filename  string `json:"filename"`
	SessionID string `json:"session_id"`
}

type sessionRequest struct {
	SessionID string `json:"session_id"`
}

func userID(r *http.Request) string {
	if id := r.Header.Get(UserHeader); id != "" {
		return id
	}
	return anonymousUser
}

func (h *Handler) ctx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warnf("api: write response failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"status": orchestrator.StatusError, "content": msg})
}

// writeFailure maps orchestrator errors to status codes. A partial reply is
// returned as the body when the orchestrator produced one.
func writeFailure(w http.ResponseWriter, reply *orchestrator.Reply, err error) {
	var invalid *orchestrator.InvalidRequestError
	switch {
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, invalid.Message)
	case errors.Is(err, orchestrator.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case reply != nil:
		writeJSON(w, http.StatusInternalServerError, reply)
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if h.status == nil {
		writeError(w, http.StatusServiceUnavailable, "status unavailable")
		return
	}
	writeJSON(w, http.StatusOK, h.status())
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.Request
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.UserID = userID(r)

	ctx, cancel := h.ctx(r)
	defer cancel()
	reply, err := h.chat.Handle(ctx, req)
	if err != nil {
		writeFailure(w, reply, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (h *Handler) ChatPDF(w http.ResponseWriter, r *http.Request) {
	var req pdfQuestion
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()
	reply, err := h.chat.AskDocument(ctx, req.CID, req.Question)
	if err != nil {
		writeFailure(w, reply, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (h *Handler) AttachPDF(w http.ResponseWriter, r *http.Request) {
	var req attachRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()
	reply, err := h.chat.AttachDocument(ctx, userID(r), req.SessionID, req.CID, req.Filename)
	if err != nil {
		writeFailure(w, reply, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (h *Handler) UploadPDF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "File required")
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "File required")
		return
	}
	defer f.Close()
	data, err := document.ReadLimited(f, h.maxUpload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()
	reply, err := h.chat.AttachUpload(ctx, userID(r), r.FormValue("session_id"), hdr.Filename, data)
	if err != nil {
		writeFailure(w, reply, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.chat.SessionList(r.Context(), userID(r))
	if err != nil {
		logger.Errorf("api: list sessions failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load sessions")
		return
	}
	if sessions == nil {
		sessions = []history.SessionSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": orchestrator.StatusSuccess, "sessions": sessions})
}

func (h *Handler) SessionHistory(w http.ResponseWriter, r *http.Request) {
	sid := mux.Vars(r)["session_id"]
	msgs, err := h.chat.Transcript(r.Context(), userID(r), sid)
	if err != nil {
		logger.Errorf("api: load history of %s failed: %v", sid, err)
		writeError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}
	if msgs == nil {
		msgs = []history.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": orchestrator.StatusSuccess, "messages": msgs})
}

func (h *Handler) NewSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":     orchestrator.StatusSuccess,
		"session_id": h.chat.NewSession(userID(r)),
	})
}

func (h *Handler) SwitchSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	msgs, err := h.chat.SwitchSession(r.Context(), userID(r), req.SessionID)
	if err != nil {
		writeFailure(w, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     orchestrator.StatusSuccess,
		"session_id": req.SessionID,
		"messages":   msgs,
	})
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	ok, err := h.chat.DeleteSession(r.Context(), userID(r), req.SessionID)
	if err != nil {
		var invalid *orchestrator.InvalidRequestError
		if errors.As(err, &invalid) {
			writeError(w, http.StatusBadRequest, invalid.Message)
			return
		}
		logger.Errorf("api: delete session %s failed: %v", req.SessionID, err)
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, orchestrator.ErrSessionNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": orchestrator.StatusSuccess, "content": "Session deleted"})
}

func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.chat.ClearHistory(r.Context(), userID(r)); err != nil {
		logger.Errorf("api: clear history failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to clear history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": orchestrator.StatusSuccess, "content": "Chat history cleared"})
}
