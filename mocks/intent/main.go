// Command intent is a local stand-in for the external intent classification
// service used when intent.provider is "http".
package main

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/medicare-ai/medassist/common/logger"
	"github.com/medicare-ai/medassist/intent"
)

type classifyReq struct {
	Query string `json:"query"`
}

func classifyHandler(rules intent.Classifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req classifyReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d, _ := rules.Classify(r.Context(), req.Query)
		d.Source = "mock"
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(d)
	}
}

func main() {
	addr := ":8081"
	if v := os.Getenv("INTENT_ADDR"); v != "" {
		addr = v
	}
	http.HandleFunc("/classify", classifyHandler(intent.NewRuleBasedClassifier(nil)))
	logger.Infof("Intent mock listening on %s", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		logger.Errorf("intent mock stopped: %v", err)
	}
}
