package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicare-ai/medassist/cache"
	"github.com/medicare-ai/medassist/dataset"
	"github.com/medicare-ai/medassist/document"
	"github.com/medicare-ai/medassist/fallback"
	"github.com/medicare-ai/medassist/history"
	"github.com/medicare-ai/medassist/llm"
	"github.com/medicare-ai/medassist/orchestrator"
	"github.com/medicare-ai/medassist/pipeline"
	"github.com/medicare-ai/medassist/session"
)

const testCID = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"

type stubInference struct{ answer string }

func (s stubInference) CallWithFallback(ctx context.Context, prompt string, maxTokens int) (string, string, error) {
	return s.answer, "groq", nil
}

type stubLoader struct{ err error }

func (s stubLoader) Load(ctx context.Context, cid string) (*document.Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &document.Document{CID: cid, Text: "Haemoglobin 13.5 g/dL"}, nil
}

func newTestServer(t *testing.T, loader stubLoader) *httptest.Server {
	t.Helper()
	o := &orchestrator.Orchestrator{
		Registry: stubInference{answer: "provider answer"},
		Pipeline: pipeline.New(pipeline.Options{
			Generator: &llm.MockLLMProvider{Response: "generated answer"},
			Dataset:   dataset.New(nil),
		}),
		Fallback:  fallback.New(nil, 0),
		Cache:     cache.NewResponseCache(10, 0),
		Sessions:  session.NewMemStore(10, time.Hour),
		History:   history.NewMemStore(),
		Documents: loader,
		Now:       func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) },
	}
	status := func() any { return map[string]string{"overall": "operational"} }
	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	srv := httptest.NewServer(NewRouter(NewHandler(o, status, 5*time.Second, 1<<20), mcp, "/mcp", nil))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, user string, body any) (*http.Response, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	return do(t, req)
}

func get(t *testing.T, srv *httptest.Server, path, user string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	return do(t, req)
}

func do(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func chatBody(sessionID, text string) map[string]any {
	return map[string]any{
		"session_id": sessionID,
		"messages":   []map[string]string{{"role": "user", "content": text}},
	}
}

func TestChat(t *testing.T) {
	srv := newTestServer(t, stubLoader{})

	resp, body := post(t, srv, "/api/chat", "7", chatBody("s1", "how does sleep affect health"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "provider answer", body["content"])
	assert.Equal(t, "s1", body["session_id"])

	resp, body = post(t, srv, "/api/chat", "7", map[string]any{"messages": []any{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error", body["status"])

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/chat", strings.NewReader("{"))
	require.NoError(t, err)
	resp, _ = do(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatPDF(t *testing.T) {
	srv := newTestServer(t, stubLoader{})
	resp, body := post(t, srv, "/api/chat_pdf", "7", map[string]string{"cid": testCID, "question": "is it normal"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "generated answer", body["content"])

	resp, body = post(t, srv, "/api/chat_pdf", "7", map[string]string{"cid": testCID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "CID and question required.", body["content"])

	failing := newTestServer(t, stubLoader{err: document.ErrDownloadFailed})
	resp, body = post(t, failing, "/api/chat_pdf", "7", map[string]string{"cid": testCID, "question": "is it normal"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Error processing PDF", body["content"])
}

func TestAttachPDF(t *testing.T) {
	srv := newTestServer(t, stubLoader{})
	resp, body := post(t, srv, "/api/chat/attach_pdf", "7", map[string]string{"cid": testCID, "session_id": "s1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["content"], "📎 Attached PDF: PDF Document")

	resp, body = post(t, srv, "/api/chat/attach_pdf", "7", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "CID required", body["content"])

	failing := newTestServer(t, stubLoader{err: document.ErrDownloadFailed})
	resp, body = post(t, failing, "/api/chat/attach_pdf", "7", map[string]string{"cid": testCID})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Failed to attach PDF.", body["content"])
}

func upload(t *testing.T, srv *httptest.Server, filename string, data []byte) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("session_id", "s1"))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/chat/upload_temp_pdf", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(UserHeader, "7")
	return do(t, req)
}

func TestUploadPDF(t *testing.T) {
	srv := newTestServer(t, stubLoader{})

	resp, body := upload(t, srv, "report.pdf", []byte("Prescribed Crocin twice daily"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "s1", body["session_id"])

	resp, body = upload(t, srv, "report.docx", []byte("text"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Only PDF allowed", body["content"])

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/chat/upload_temp_pdf", strings.NewReader("x"))
	require.NoError(t, err)
	resp, _ = do(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionRoutes(t *testing.T) {
	srv := newTestServer(t, stubLoader{})
	post(t, srv, "/api/chat", "7", chatBody("s1", "hello there friend"))

	resp, body := get(t, srv, "/api/chat/history", "7")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	sessions, ok := body["sessions"].([]any)
	require.True(t, ok)
	require.Len(t, sessions, 1)

	_, body = get(t, srv, "/api/chat/history/s1", "7")
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 2)

	_, body = get(t, srv, "/api/chat/history/s1", "8")
	assert.Empty(t, body["messages"])

	resp, body = post(t, srv, "/api/chat/switch_session", "7", map[string]string{"session_id": "s1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "s1", body["session_id"])
	resp, _ = post(t, srv, "/api/chat/switch_session", "7", map[string]string{"session_id": "s9"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, body = post(t, srv, "/api/chat/new_session", "7", nil)
	assert.Equal(t, "session_20240501_093000_7", body["session_id"])

	resp, _ = post(t, srv, "/api/chat/delete_session", "7", map[string]string{"session_id": "s1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = post(t, srv, "/api/chat/delete_session", "7", map[string]string{"session_id": "s1"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Session not found", body["content"])
	resp, _ = post(t, srv, "/api/chat/delete_session", "7", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = post(t, srv, "/api/chat/clear", "7", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOperationalRoutes(t *testing.T) {
	srv := newTestServer(t, stubLoader{})

	resp, _ := get(t, srv, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := get(t, srv, "/api/system/status", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "operational", body["overall"])

	resp, _ = get(t, srv, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = get(t, srv, "/mcp", "")
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	resp, _ = get(t, srv, "/api/chat", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, stubLoader{})
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/chat", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, _ := do(t, req)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
