package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medicare-ai/medassist/cache"
	"github.com/medicare-ai/medassist/common/logger"
	"github.com/medicare-ai/medassist/detector"
	"github.com/medicare-ai/medassist/document"
	"github.com/medicare-ai/medassist/fallback"
	"github.com/medicare-ai/medassist/history"
	"github.com/medicare-ai/medassist/metrics"
	"github.com/medicare-ai/medassist/pipeline"
	"github.com/medicare-ai/medassist/provider"
	"github.com/medicare-ai/medassist/session"
)

// Reply statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

const RoleUser = "user"

const (
	clearedReply       = "📄 PDF context cleared. You can attach another report."
	attachedPrefix     = "Attached PDF Content:\n"
	cidContext         = "PDF Document Content:\n%s\n\nUser Question: %s"
	defaultDocQuestion = "Summarize this PDF and identify any medicines mentioned"
	cidReplyPrefix     = "📄 PDF Analysis (CID: %s):\n\n"
	cidNoText          = "PDF found (CID: %s), but no text could be extracted. Please check the PDF format."
	cidFetchFailed     = "📄 Found PDF (CID: %s), but I'm having trouble processing it right now. Please try again in a moment."
)

// ErrInvalidRequest matches every *InvalidRequestError.
var ErrInvalidRequest = errors.New("invalid request")

// InvalidRequestError is a structurally invalid request. Message is shown
// to the user.
type InvalidRequestError struct {
	Message string
}

func (e *InvalidRequestError) Error() string { return e.Message }

func (e *InvalidRequestError) Is(target error) bool { return target == ErrInvalidRequest }

func invalid(msg string) error { return &InvalidRequestError{Message: msg} }

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one conversation turn.
type Request struct {
	UserID    string    `json:"-"`
	SessionID string    `json:"session_id,omitempty"`
	Messages  []Message `json:"messages"`
}

type Reply struct {
	Status    string `json:"status"`
	Content   string `json:"content"`
	SessionID string `json:"session_id,omitempty"`
}

// Inference answers a prompt through the provider registry.
type Inference interface {
	CallWithFallback(ctx context.Context, prompt string, maxTokens int) (string, string, error)
}

// DocumentLoader fetches and extracts a document by content id.
type DocumentLoader interface {
	Load(ctx context.Context, cid string) (*document.Document, error)
}

// Orchestrator runs a chat turn: context resolution, cache, document
// handling, provider failover and the fallback responder.
type Orchestrator struct {
	Registry  Inference
	Pipeline  *pipeline.Pipeline
	Fallback  *fallback.Responder
	Cache     *cache.ResponseCache
	Sessions  session.Store
	History   history.Store
	Detector  *detector.Detector
	Documents DocumentLoader

	MaxTokens     int
	SummaryChars  int
	HistoryLimit  int
	SessionsLimit int

	// Now is injectable for tests.
	Now func() time.Time

	detectorOnce sync.Once
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) detector() *detector.Detector {
	o.detectorOnce.Do(func() {
		if o.Detector == nil {
			o.Detector = detector.New()
		}
	})
	return o.Detector
}

func (o *Orchestrator) sessionID(userID, id string) string {
	if id != "" {
		return id
	}
	return session.NewID(userID, o.now())
}

// Handle answers one turn. The only error is an *InvalidRequestError; every
// other failure is turned into reply text.
func (o *Orchestrator) Handle(ctx context.Context, req Request) (*Reply, error) {
	msg := lastUserMessage(req.Messages)
	if msg == "" {
		return nil, invalid("No user message received.")
	}
	sid := o.sessionID(req.UserID, req.SessionID)

	m := metrics.NewChatMetrics(uuid.NewString(), sid, msg)
	reply := o.handle(ctx, req.UserID, sid, msg, m)
	m.Finish(nil)
	m.Log()
	return reply, nil
}

func (o *Orchestrator) handle(ctx context.Context, userID, sid, msg string, m *metrics.ChatMetrics) *Reply {
	sctx, err := o.Sessions.Get(ctx, sid)
	if err != nil {
		logger.Warnf("orchestrator: load session %s: %v", sid, err)
	}
	msg = o.resolveMedicine(ctx, sid, msg, sctx.LastMedicine, m)
	o.save(ctx, userID, sid, history.TypeUser, msg, "")

	var docText, docCID string
	if sctx.HasDocument() {
		docText, docCID = sctx.Document.Text, sctx.Document.CID
		m.DocumentCID = docCID
	}

	if cached, ok := o.Cache.Get(msg, docText); ok {
		logger.Infof("returning cached response")
		m.CacheHit = true
		m.Route = "cache"
		o.save(ctx, userID, sid, history.TypeAI, cached, "")
		return o.success(sid, cached)
	}

	if isClearCommand(msg) {
		m.Route = "clear"
		if err := o.Sessions.ClearDocument(ctx, sid); err != nil {
			logger.Warnf("orchestrator: clear document of %s: %v", sid, err)
		}
		o.save(ctx, userID, sid, history.TypeAI, clearedReply, "")
		return o.success(sid, clearedReply)
	}

	cid := document.ExtractCID(msg)
	if cid != "" {
		m.Route = "cid"
		m.DocumentCID = cid
		return o.answerCID(ctx, userID, sid, msg, cid, docText)
	}

	if docText != "" {
		m.Route = "attached"
		docContext := attachedPrefix + docText
		answer := o.Pipeline.Run(ctx, msg, &docContext)
		o.Cache.Set(msg, docText, answer)
		o.save(ctx, userID, sid, history.TypeAI, answer, docCID)
		return o.success(sid, answer)
	}

	answer, used, err := o.Registry.CallWithFallback(ctx, msg, o.MaxTokens)
	if err != nil {
		logger.Errorf("all inference providers failed: %v", err)
		recordAttempts(m, err)
		text, layer := o.Fallback.Respond(ctx, msg)
		m.Route = "fallback"
		m.FallbackLayer = string(layer)
		o.save(ctx, userID, sid, history.TypeAI, text, "")
		return o.success(sid, text)
	}

	m.Route = "provider"
	m.Provider = used
	m.AddAttempt(used)
	logger.Infof("response generated using %s", used)
	o.Cache.Set(msg, docText, answer)
	o.save(ctx, userID, sid, history.TypeAI, answer, "")
	return o.success(sid, answer)
}

func (o *Orchestrator) answerCID(ctx context.Context, userID, sid, msg, cid, docText string) *Reply {
	doc, err := o.Documents.Load(ctx, cid)
	if errors.Is(err, document.ErrContextExtraction) {
		return &Reply{Status: StatusError, Content: fmt.Sprintf(cidNoText, cid), SessionID: sid}
	}
	if err != nil {
		logger.Errorf("document processing error for %s: %v", cid, err)
		text := fmt.Sprintf(cidFetchFailed, cid)
		o.save(ctx, userID, sid, history.TypeAI, text, cid)
		return &Reply{Status: StatusError, Content: text, SessionID: sid}
	}

	question := docQuestion(msg, cid)
	enhanced := fmt.Sprintf(cidContext, doc.Text, question)
	answer := fmt.Sprintf(cidReplyPrefix, cid) + o.Pipeline.Run(ctx, question, &enhanced)
	o.Cache.Set(msg, docText, answer)
	o.save(ctx, userID, sid, history.TypeAI, answer, cid)
	return o.success(sid, answer)
}

func recordAttempts(m *metrics.ChatMetrics, err error) {
	var exhausted *provider.ExhaustedError
	if !errors.As(err, &exhausted) {
		return
	}
	for _, e := range exhausted.Errors() {
		var ce *provider.CallError
		if errors.As(e, &ce) {
			m.AddAttempt(ce.Provider)
		}
	}
}

func (o *Orchestrator) success(sid, content string) *Reply {
	return &Reply{Status: StatusSuccess, Content: content, SessionID: sid}
}

// save persists one transcript message. Failures never affect the reply.
func (o *Orchestrator) save(ctx context.Context, userID, sid, typ, content, cid string) {
	if o.History == nil {
		return
	}
	err := o.History.SaveMessage(ctx, history.Message{
		UserID:    userID,
		SessionID: sid,
		Type:      typ,
		Content:   content,
		PDFCID:    cid,
		Timestamp: o.now(),
	})
	if err != nil {
		logger.Errorf("orchestrator: save chat message for %s: %v", sid, err)
	}
}
