package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/medicare-ai/medassist/common/httpx"
	"github.com/medicare-ai/medassist/common/logger"
	"github.com/medicare-ai/medassist/config"
)

// HTTPClassifier asks an external service and falls back to the keyword
// rules on any failure.
type HTTPClassifier struct {
	Endpoint string
	Client   *httpx.Client
	fallback *RuleBasedClassifier
}

func NewHTTPClassifier(endpoint string, rules []config.IntentRule, httpCfg *config.HTTPClientConfig) *HTTPClassifier {
	return &HTTPClassifier{
		Endpoint: endpoint,
		Client:   httpx.NewFromConfig(httpCfg),
		fallback: NewRuleBasedClassifier(rules),
	}
}

type classifyRequest struct {
	Query string `json:"query"`
}

// Classify calls the external classification service.
func (c *HTTPClassifier) Classify(ctx context.Context, query string) (*Decision, error) {
	body, _ := json.Marshal(classifyRequest{Query: query})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		logger.Warnf("intent: failed to create request: %v", err)
		return c.fallback.Classify(ctx, query)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		logger.Warnf("intent: HTTP request failed: %v", err)
		return c.fallback.Classify(ctx, query)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warnf("intent: unexpected status code: %d", resp.StatusCode)
		return c.fallback.Classify(ctx, query)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil || !gjson.ValidBytes(raw) {
		logger.Warnf("intent: unreadable response: %v", err)
		return c.fallback.Classify(ctx, query)
	}

	res := gjson.ParseBytes(raw)
	labels := res.Get("intents")
	if !labels.IsArray() {
		logger.Warnf("intent: response without intents array")
		return c.fallback.Classify(ctx, query)
	}
	d := &Decision{
		Subject:    res.Get("subject").String(),
		Confidence: res.Get("confidence").Float(),
		Reason:     res.Get("reason").String(),
		Source:     "http",
	}
	labels.ForEach(func(_, v gjson.Result) bool {
		if s := v.String(); s != "" {
			d.add(Intent(s))
		}
		return true
	})
	sortIntents(d.Intents)
	logger.Infof("intent: decision from HTTP service - intents=%v confidence=%.2f", d.Intents, d.Confidence)
	return d, nil
}
