package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/medicare-ai/medassist/common/logger"
	"github.com/medicare-ai/medassist/document"
	"github.com/medicare-ai/medassist/history"
	"github.com/medicare-ai/medassist/session"
)

const (
	defaultFilename = "PDF Document"

	attachNoText  = "📄 Attached PDF (CID: %s) but no extractable text was found."
	attachPrompt  = "Provide a concise medical summary of the attached PDF '%s'. Highlight medicines, key findings, and notable observations."
	attachReply   = "📎 Attached PDF: %s\nCID: %s\n\nSummary:\n%s\n\nYou can now ask follow-up questions (type 'clear pdf' to detach)."
	uploadPrompt  = "Summarize this uploaded medical PDF '%s'. List medicines if any."
	uploadReply   = "📎 Temporary PDF Attached (not on IPFS): %s\n\nSummary:\n%s\n\nAsk follow-up questions (type 'clear pdf' to detach)."
	attachFailed  = "Failed to attach PDF."
	uploadFailed  = "Failed to process PDF"
	askFailed     = "Error processing PDF"
	defaultSumLen = 12000
)

// AttachDocument downloads cid, keeps its text as the session document and
// replies with a summary. A document without text is still acknowledged.
func (o *Orchestrator) AttachDocument(ctx context.Context, userID, sessionID, cid, filename string) (*Reply, error) {
	if strings.TrimSpace(cid) == "" {
		return nil, invalid("CID required")
	}
	if strings.TrimSpace(filename) == "" {
		filename = defaultFilename
	}
	sid := o.sessionID(userID, sessionID)

	doc, err := o.Documents.Load(ctx, cid)
	if errors.Is(err, document.ErrContextExtraction) {
		text := fmt.Sprintf(attachNoText, cid)
		o.save(ctx, userID, sid, history.TypeAI, text, cid)
		return o.success(sid, text), nil
	}
	if err != nil {
		logger.Errorf("attach document error (CID %s): %v", cid, err)
		return &Reply{Status: StatusError, Content: attachFailed, SessionID: sid}, fmt.Errorf("attach document %s failed, err: %w", cid, err)
	}

	summary := o.summarise(ctx, sid, session.Document{CID: cid, Filename: filename, Text: doc.Text}, fmt.Sprintf(attachPrompt, filename))
	text := fmt.Sprintf(attachReply, filename, cid, summary)
	o.save(ctx, userID, sid, history.TypeAI, text, cid)
	return o.success(sid, text), nil
}

// AttachUpload attaches an uploaded PDF that is not stored on IPFS.
func (o *Orchestrator) AttachUpload(ctx context.Context, userID, sessionID, filename string, data []byte) (*Reply, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return nil, invalid("Only PDF allowed")
	}
	sid := o.sessionID(userID, sessionID)

	doc, err := document.Extract(data)
	if errors.Is(err, document.ErrContextExtraction) {
		return nil, invalid("No text extracted")
	}
	if err != nil {
		logger.Errorf("upload document error (%s): %v", filename, err)
		return &Reply{Status: StatusError, Content: uploadFailed, SessionID: sid}, fmt.Errorf("extract upload %s failed, err: %w", filename, err)
	}

	summary := o.summarise(ctx, sid, session.Document{Filename: filename, Text: doc.Text}, fmt.Sprintf(uploadPrompt, filename))
	text := fmt.Sprintf(uploadReply, filename, summary)
	o.save(ctx, userID, sid, history.TypeAI, text, "")
	return o.success(sid, text), nil
}

func (o *Orchestrator) summarise(ctx context.Context, sid string, doc session.Document, prompt string) string {
	if err := o.Sessions.SetDocument(ctx, sid, doc); err != nil {
		logger.Warnf("orchestrator: store document of %s: %v", sid, err)
	}
	limit := o.SummaryChars
	if limit <= 0 {
		limit = defaultSumLen
	}
	excerpt := truncateRunes(doc.Text, limit)
	return o.Pipeline.Run(ctx, prompt, &excerpt)
}

// AskDocument answers a one-off question about cid without touching the
// session.
func (o *Orchestrator) AskDocument(ctx context.Context, cid, question string) (*Reply, error) {
	if strings.TrimSpace(cid) == "" || strings.TrimSpace(question) == "" {
		return nil, invalid("CID and question required.")
	}
	doc, err := o.Documents.Load(ctx, cid)
	if err != nil {
		logger.Errorf("chat document error: %v", err)
		return &Reply{Status: StatusError, Content: askFailed}, fmt.Errorf("load document %s failed, err: %w", cid, err)
	}
	return &Reply{Status: StatusSuccess, Content: o.Pipeline.Run(ctx, question, &doc.Text)}, nil
}

// NewSession returns a fresh session id for userID.
func (o *Orchestrator) NewSession(userID string) string {
	return session.NewID(userID, o.now())
}

// Transcript returns the transcript of one session, or the user's recent
// messages when sessionID is empty.
func (o *Orchestrator) Transcript(ctx context.Context, userID, sessionID string) ([]history.Message, error) {
	if o.History == nil {
		return []history.Message{}, nil
	}
	return o.History.History(ctx, userID, sessionID, o.HistoryLimit)
}

// SessionList summarises the user's most recent sessions.
func (o *Orchestrator) SessionList(ctx context.Context, userID string) ([]history.SessionSummary, error) {
	if o.History == nil {
		return []history.SessionSummary{}, nil
	}
	return o.History.Sessions(ctx, userID, o.SessionsLimit)
}

// DeleteSession removes a session transcript and its context. It reports
// false when the user has no such session.
func (o *Orchestrator) DeleteSession(ctx context.Context, userID, sessionID string) (bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return false, invalid("Session ID required")
	}
	if err := o.Sessions.ClearDocument(ctx, sessionID); err != nil {
		logger.Warnf("orchestrator: clear document of %s: %v", sessionID, err)
	}
	if o.History == nil {
		return false, nil
	}
	return o.History.DeleteSession(ctx, userID, sessionID)
}

func (o *Orchestrator) ClearHistory(ctx context.Context, userID string) error {
	if o.History == nil {
		return nil
	}
	return o.History.Clear(ctx, userID)
}

// ErrSessionNotFound is returned for a session the user never wrote to.
var ErrSessionNotFound = errors.New("Session not found")

// SwitchSession returns the transcript of an existing session of userID.
func (o *Orchestrator) SwitchSession(ctx context.Context, userID, sessionID string) ([]history.Message, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, invalid("Session ID required")
	}
	sessions, err := o.SessionList(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, s := range sessions {
		if s.SessionID == sessionID {
			return o.Transcript(ctx, userID, sessionID)
		}
	}
	return nil, ErrSessionNotFound
}
