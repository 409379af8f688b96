package fusion

import (
	"errors"
	"strconv"
	"strings"
)

// NewStrategy constructs a strategy by name. It returns the strategy and a sanitized param map.
func NewStrategy(name string, params map[string]any) (Strategy, map[string]any, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		normalized = "rrf"
	}
	if params == nil {
		params = map[string]any{}
	}

	switch normalized {
	case "rrf":
		k := lookupInt(params, "k")
		if k <= 0 {
			k = 60
		}
		return NewRRFStrategy(k), map[string]any{"k": k}, nil
	case "max", "simple":
		topK := lookupInt(params, "top_k")
		return NewMaxScoreStrategy(topK), map[string]any{"top_k": topK}, nil
	default:
		return nil, nil, errors.New("unsupported fusion strategy: " + normalized)
	}
}

func lookupInt(params map[string]any, key string) int {
	if params == nil {
		return 0
	}
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}
