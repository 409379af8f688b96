package config

// Config represents the main configuration structure for the assistant
type Config struct {
	Server    ServerConfig      `json:"server" yaml:"server"`
	Log       LogConfig         `json:"log" yaml:"log"`
	Providers []ProviderConfig  `json:"providers" yaml:"providers"`
	Registry  RegistryConfig    `json:"registry" yaml:"registry"`
	Pipeline  PipelineConfig    `json:"pipeline" yaml:"pipeline"`
	Embedding EmbeddingConfig   `json:"embedding" yaml:"embedding"`
	Retrieval RetrievalConfig   `json:"retrieval" yaml:"retrieval"`
	Dataset   DatasetConfig     `json:"dataset" yaml:"dataset"`
	Cache     CacheConfig       `json:"cache" yaml:"cache"`
	Session   SessionConfig     `json:"session" yaml:"session"`
	History   HistoryConfig     `json:"history" yaml:"history"`
	Document  DocumentConfig    `json:"document" yaml:"document"`
	Intent    IntentConfig      `json:"intent" yaml:"intent"`
	Detector  DetectorConfig    `json:"detector" yaml:"detector"`
	HTTP      *HTTPClientConfig `json:"http,omitempty" yaml:"http,omitempty"`
}

// ServerConfig controls the HTTP and MCP listeners.
type ServerConfig struct {
	Addr           string   `json:"addr" yaml:"addr"`
	MCPPath        string   `json:"mcp_path,omitempty" yaml:"mcp_path,omitempty"`
	AllowedOrigins []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`
	// RequestTimeoutSeconds bounds one chat turn end to end.
	RequestTimeoutSeconds int `json:"request_timeout_seconds,omitempty" yaml:"request_timeout_seconds,omitempty"`
}

type LogConfig struct {
	Level string `json:"level,omitempty" yaml:"level,omitempty"` // debug, info, warn, error
	JSON  bool   `json:"json,omitempty" yaml:"json,omitempty"`
}

// ProviderConfig defines one inference provider of the registry.
type ProviderConfig struct {
	Name string `json:"name" yaml:"name"`
	// Kind: openai (any OpenAI compatible endpoint) or gemini
	Kind      string   `json:"kind" yaml:"kind"`
	APIKey    string   `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	APIKeyEnv []string `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty"`
	// KeyPrefix is the expected prefix of a valid credential (gsk_, sk-).
	KeyPrefix   string            `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`
	BaseURL     string            `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model       string            `json:"model" yaml:"model"`
	Temperature float64           `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	TopP        float64           `json:"top_p,omitempty" yaml:"top_p,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	// Prompt: "rag" enriches medicine questions with dataset context, "plain" wraps the question only.
	Prompt         string          `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	TimeoutSeconds int             `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
	RateLimit      RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
	Disabled       bool            `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

type RateLimitConfig struct {
	MaxRequests   int `json:"max_requests" yaml:"max_requests"`
	WindowSeconds int `json:"window_seconds" yaml:"window_seconds"`
}

// RegistryConfig tunes the provider breaker.
type RegistryConfig struct {
	MaxErrors            int `json:"max_errors,omitempty" yaml:"max_errors,omitempty"`
	RecoveryAfterSeconds int `json:"recovery_after_seconds" yaml:"recovery_after_seconds"`
}

// PipelineConfig defines the RAG answer pipeline.
type PipelineConfig struct {
	// Generator names the provider the pipeline calls directly.
	Generator  string `json:"generator" yaml:"generator"`
	MaxTokens  int    `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	Currency   string `json:"currency,omitempty" yaml:"currency,omitempty"`
	ShortReply int    `json:"short_reply_tokens,omitempty" yaml:"short_reply_tokens,omitempty"`
	// Relevance judges pipeline output for the rag prompt: heuristic (default) or llm.
	Relevance string `json:"relevance,omitempty" yaml:"relevance,omitempty"`
}

// EmbeddingConfig defines configuration for embedding models
type EmbeddingConfig struct {
	Provider  string   `json:"provider" yaml:"provider"` // Available options: openai, default
	APIKey    string   `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	APIKeyEnv []string `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty"`
	BaseURL   string   `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model     string   `json:"model,omitempty" yaml:"model,omitempty"`
}

// RetrievalConfig selects and tunes the retrieval backend.
type RetrievalConfig struct {
	// Provider: chromem (default), pgvector, keyword, hybrid
	Provider   string `json:"provider" yaml:"provider"`
	IndexPath  string `json:"index_path,omitempty" yaml:"index_path,omitempty"`
	Collection string `json:"collection,omitempty" yaml:"collection,omitempty"`
	TopK       int    `json:"top_k,omitempty" yaml:"top_k,omitempty"`
	// Budget caps the retrieved context handed to the LLM.
	Budget     int    `json:"budget,omitempty" yaml:"budget,omitempty"`
	BudgetUnit string `json:"budget_unit,omitempty" yaml:"budget_unit,omitempty"` // words or tokens
	RRFK       int    `json:"rrf_k,omitempty" yaml:"rrf_k,omitempty"`
	// Rerank reorders candidates by query term overlap before the top_k cut.
	Rerank bool `json:"rerank,omitempty" yaml:"rerank,omitempty"`
	// DatabaseURL is used by the pgvector provider.
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"`
	Table       string `json:"table,omitempty" yaml:"table,omitempty"`
}

type DatasetConfig struct {
	Path string `json:"path" yaml:"path"`
}

type CacheConfig struct {
	Capacity   int `json:"capacity" yaml:"capacity"`
	TTLSeconds int `json:"ttl_seconds,omitempty" yaml:"ttl_seconds,omitempty"`
}

// SessionConfig controls the per-session context store.
// Store: "memory" (default) or "redis".
type SessionConfig struct {
	Store      string      `json:"store,omitempty" yaml:"store,omitempty"`
	Capacity   int         `json:"capacity,omitempty" yaml:"capacity,omitempty"`
	TTLSeconds int         `json:"ttl_seconds,omitempty" yaml:"ttl_seconds,omitempty"`
	Redis      RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`
}

type RedisConfig struct {
	Address  string `json:"address,omitempty" yaml:"address,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// HistoryConfig controls chat transcript persistence.
// Driver: memory (default), sqlite, postgres, mysql, clickhouse
type HistoryConfig struct {
	Driver        string `json:"driver,omitempty" yaml:"driver,omitempty"`
	DSN           string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	ConnectTries  int    `json:"connect_tries,omitempty" yaml:"connect_tries,omitempty"`
	HistoryLimit  int    `json:"history_limit,omitempty" yaml:"history_limit,omitempty"`
	SessionsLimit int    `json:"sessions_limit,omitempty" yaml:"sessions_limit,omitempty"`
}

// DocumentConfig controls attached document download.
type DocumentConfig struct {
	Gateways []string `json:"gateways,omitempty" yaml:"gateways,omitempty"`
	MaxBytes int64    `json:"max_bytes,omitempty" yaml:"max_bytes,omitempty"`
	// SummaryChars caps how much attached text is sent for the attach summary.
	SummaryChars int `json:"summary_chars,omitempty" yaml:"summary_chars,omitempty"`
}

// IntentConfig defines the intent classifier.
type IntentConfig struct {
	// Provider: "rule" (default) or "http"
	Provider string       `json:"provider,omitempty" yaml:"provider,omitempty"`
	Endpoint string       `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Rules    []IntentRule `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// IntentRule adds keywords to an intent of the rule based classifier.
type IntentRule struct {
	Intent   string   `json:"intent" yaml:"intent"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

type DetectorConfig struct {
	ExtraNames          []string `json:"extra_names,omitempty" yaml:"extra_names,omitempty"`
	IncludeDatasetNames bool     `json:"include_dataset_names,omitempty" yaml:"include_dataset_names,omitempty"`
}

// HTTPClientConfig defines common options for outbound HTTP calls.
type HTTPClientConfig struct {
	TimeoutMs              int      `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
	Retry                  int      `json:"retry,omitempty" yaml:"retry,omitempty"`
	BackoffMinMs           int      `json:"backoff_min_ms,omitempty" yaml:"backoff_min_ms,omitempty"`
	BackoffMaxMs           int      `json:"backoff_max_ms,omitempty" yaml:"backoff_max_ms,omitempty"`
	HostAllowlist          []string `json:"host_allowlist,omitempty" yaml:"host_allowlist,omitempty"`
	MaxConsecutiveFailures int      `json:"max_consecutive_failures,omitempty" yaml:"max_consecutive_failures,omitempty"`
	CircuitOpenSeconds     int      `json:"circuit_open_seconds,omitempty" yaml:"circuit_open_seconds,omitempty"`
}

// Provider returns the provider config with the given name.
func (c *Config) Provider(name string) (*ProviderConfig, bool) {
	for i := range c.Providers {
		if c.Providers[i].Name == name {
			return &c.Providers[i], true
		}
	}
	return nil, false
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:                  ":5000",
			MCPPath:               "/mcp",
			AllowedOrigins:        []string{"*"},
			RequestTimeoutSeconds: 90,
		},
		Log: LogConfig{Level: "info"},
		Providers: []ProviderConfig{
			{
				Name:        "groq",
				Kind:        "openai",
				APIKeyEnv:   []string{"GROQ_API_KEY"},
				KeyPrefix:   "gsk_",
				BaseURL:     "https://api.groq.com/openai/v1",
				Model:       "llama-3.1-8b-instant",
				Temperature: 0.7,
				TopP:        0.9,
				MaxTokens:   500,
				Prompt:      "rag",
				RateLimit:   RateLimitConfig{MaxRequests: 25, WindowSeconds: 60},
			},
			{
				Name:        "openrouter",
				Kind:        "openai",
				APIKeyEnv:   []string{"OPENROUTER_API_KEY"},
				KeyPrefix:   "sk-",
				BaseURL:     "https://openrouter.ai/api/v1",
				Model:       "microsoft/wizardlm-2-8x22b:free",
				Temperature: 0.7,
				MaxTokens:   500,
				Headers: map[string]string{
					"HTTP-Referer": "http://localhost:5000",
					"X-Title":      "MediCare AI Assistant",
				},
				Prompt:         "plain",
				TimeoutSeconds: 30,
				RateLimit:      RateLimitConfig{MaxRequests: 200, WindowSeconds: 60},
			},
			{
				Name:        "gemini",
				Kind:        "gemini",
				APIKeyEnv:   []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"},
				Model:       "gemini-2.5-flash",
				Temperature: 0.7,
				MaxTokens:   500,
				Prompt:      "plain",
				RateLimit:   RateLimitConfig{MaxRequests: 15, WindowSeconds: 60},
			},
		},
		Registry: RegistryConfig{MaxErrors: 3, RecoveryAfterSeconds: 300},
		Pipeline: PipelineConfig{Generator: "groq", MaxTokens: 500, Currency: "₹", ShortReply: 200, Relevance: "heuristic"},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			APIKeyEnv: []string{"EMBEDDING_API_KEY", "OPENAI_API_KEY"},
			BaseURL:   "https://api.openai.com/v1",
			Model:     "text-embedding-3-small",
		},
		Retrieval: RetrievalConfig{
			Provider:   "chromem",
			IndexPath:  "data/embeddings/chromem",
			Collection: "medicines",
			TopK:       5,
			Budget:     512,
			BudgetUnit: "words",
			RRFK:       60,
			Table:      "medicine_embeddings",
		},
		Dataset: DatasetConfig{Path: "data/processed_data.csv"},
		Cache:   CacheConfig{Capacity: 500},
		Session: SessionConfig{Store: "memory", Capacity: 10000, TTLSeconds: 24 * 3600},
		History: HistoryConfig{Driver: "memory", ConnectTries: 3, HistoryLimit: 50, SessionsLimit: 20},
		Document: DocumentConfig{
			Gateways: []string{
				"http://127.0.0.1:8080/ipfs/",
				"https://ipfs.io/ipfs/",
				"https://gateway.pinata.cloud/ipfs/",
				"https://cloudflare-ipfs.com/ipfs/",
				"https://dweb.link/ipfs/",
			},
			MaxBytes:     20 << 20,
			SummaryChars: 12000,
		},
		Intent: IntentConfig{Provider: "rule"},
		HTTP: &HTTPClientConfig{
			TimeoutMs:              30000,
			Retry:                  0,
			MaxConsecutiveFailures: 5,
			CircuitOpenSeconds:     30,
		},
	}
}
