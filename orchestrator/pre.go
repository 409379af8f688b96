package orchestrator

import (
	"context"
	"strings"

	"github.com/medicare-ai/medassist/common/logger"
	"github.com/medicare-ai/medassist/detector"
	"github.com/medicare-ai/medassist/metrics"
)

var clearCommands = map[string]bool{
	"clear pdf":        true,
	"detach pdf":       true,
	"remove pdf":       true,
	"clear attachment": true,
}

func isClearCommand(msg string) bool {
	return clearCommands[strings.ToLower(strings.TrimSpace(msg))]
}

// lastUserMessage returns the trimmed content of the newest user message.
func lastUserMessage(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			return strings.TrimSpace(msgs[i].Content)
		}
	}
	return ""
}

// resolveMedicine records the newest medicine of msg for the session, or
// substitutes pronouns with the remembered one when msg names none.
func (o *Orchestrator) resolveMedicine(ctx context.Context, sessionID, msg, remembered string, m *metrics.ChatMetrics) string {
	names := o.detector().Extract(msg)
	if len(names) > 0 {
		m.Medicines = names
		last := o.detector().Last(msg)
		if err := o.Sessions.SetLastMedicine(ctx, sessionID, last); err != nil {
			logger.Warnf("orchestrator: store last medicine for %s: %v", sessionID, err)
		} else {
			logger.Debugf("medicine context updated: %s for session %s", last, sessionID)
		}
		return msg
	}
	resolved, ok := detector.Resolve(msg, remembered)
	if ok {
		m.PronounResolved = true
		logger.Debugf("replaced pronouns with context medicine: %s", remembered)
	}
	return resolved
}

// docQuestion strips the cid from msg; an empty remainder asks for a summary.
func docQuestion(msg, cid string) string {
	q := strings.TrimSpace(strings.ReplaceAll(msg, cid, ""))
	if q == "" {
		return defaultDocQuestion
	}
	return q
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
