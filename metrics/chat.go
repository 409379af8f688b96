package metrics

import (
	"encoding/json"
	"time"

	"github.com/medicare-ai/medassist/common/logger"
)

// ChatMetrics 记录单轮对话的完整指标
type ChatMetrics struct {
	QueryID   string    `json:"query_id"`
	SessionID string    `json:"session_id,omitempty"`
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`

	// 上下文
	Medicines       []string `json:"medicines,omitempty"`
	PronounResolved bool     `json:"pronoun_resolved"`
	DocumentCID     string   `json:"document_cid,omitempty"`

	CacheHit bool `json:"cache_hit"`

	// 推理阶段
	Route            string   `json:"route"` // cache | clear | cid | attached | provider | fallback
	Provider         string   `json:"provider,omitempty"`
	ProviderAttempts []string `json:"provider_attempts,omitempty"`
	FallbackLayer    string   `json:"fallback_layer,omitempty"`

	// 总体
	TotalLatencyMs int64  `json:"total_latency_ms"`
	Success        bool   `json:"success"`
	ErrorMsg       string `json:"error_msg,omitempty"`
}

func NewChatMetrics(queryID, sessionID, query string) *ChatMetrics {
	return &ChatMetrics{
		QueryID:   queryID,
		SessionID: sessionID,
		Query:     query,
		Timestamp: time.Now(),
	}
}

// Log 将指标以 JSON 格式输出到日志
func (m *ChatMetrics) Log() {
	if data, err := json.Marshal(m); err == nil {
		logger.Infof("[CHAT_METRICS] %s", string(data))
	}
}

// Finish stamps the total latency and outcome.
func (m *ChatMetrics) Finish(err error) {
	m.TotalLatencyMs = time.Since(m.Timestamp).Milliseconds()
	m.Success = err == nil
	if err != nil {
		m.ErrorMsg = err.Error()
	}
}

func (m *ChatMetrics) AddAttempt(provider string) {
	m.ProviderAttempts = append(m.ProviderAttempts, provider)
}
