package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s]: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("found %d configuration error(s):\n", len(errs)))
	for i, err := range errs {
		b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Message))
	}
	return b.String()
}

// Validate validates the complete configuration
func (c *Config) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, ValidationError{Field: "server.addr", Message: "server address is required"})
	}
	errs = append(errs, c.validateProviders()...)
	errs = append(errs, c.validatePipeline()...)
	errs = append(errs, c.validateRetrieval()...)
	errs = append(errs, c.validateStores()...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// validateProviders validates the provider registry
func (c *Config) validateProviders() ValidationErrors {
	var errs ValidationErrors

	if len(c.Providers) == 0 {
		errs = append(errs, ValidationError{
			Field:   "providers",
			Message: "at least one inference provider is required",
		})
	}

	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		field := fmt.Sprintf("providers[%d]", i)
		if p.Name == "" {
			errs = append(errs, ValidationError{Field: field + ".name", Message: "provider name is required"})
		} else if seen[p.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate provider name %q", p.Name),
			})
		}
		seen[p.Name] = true

		switch strings.ToLower(p.Kind) {
		case "openai":
			if p.BaseURL == "" {
				errs = append(errs, ValidationError{
					Field:   field + ".base_url",
					Message: fmt.Sprintf("base_url is required for openai compatible provider %q", p.Name),
				})
			}
		case "gemini":
		default:
			errs = append(errs, ValidationError{
				Field:   field + ".kind",
				Message: fmt.Sprintf("unsupported provider kind %q (must be openai or gemini)", p.Kind),
			})
		}

		if p.Model == "" {
			errs = append(errs, ValidationError{Field: field + ".model", Message: fmt.Sprintf("model is required for provider %q", p.Name)})
		}
		if p.RateLimit.MaxRequests <= 0 || p.RateLimit.WindowSeconds <= 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".rate_limit",
				Message: fmt.Sprintf("rate limit of provider %q must be positive, got %d/%ds", p.Name, p.RateLimit.MaxRequests, p.RateLimit.WindowSeconds),
			})
		}
		if p.Temperature < 0 || p.Temperature > 2 {
			errs = append(errs, ValidationError{
				Field:   field + ".temperature",
				Message: fmt.Sprintf("temperature must be in [0, 2], got %.2f", p.Temperature),
			})
		}
		if p.TopP < 0 || p.TopP > 1 {
			errs = append(errs, ValidationError{
				Field:   field + ".top_p",
				Message: fmt.Sprintf("top_p must be in [0, 1], got %.2f", p.TopP),
			})
		}
		if p.Prompt != "" && p.Prompt != "rag" && p.Prompt != "plain" {
			errs = append(errs, ValidationError{
				Field:   field + ".prompt",
				Message: fmt.Sprintf("prompt must be rag or plain, got %q", p.Prompt),
			})
		}
	}

	if c.Registry.MaxErrors < 0 {
		errs = append(errs, ValidationError{Field: "registry.max_errors", Message: "max_errors must not be negative"})
	}
	if c.Registry.RecoveryAfterSeconds < 0 {
		errs = append(errs, ValidationError{Field: "registry.recovery_after_seconds", Message: "recovery_after_seconds must not be negative"})
	}
	return errs
}

func (c *Config) validatePipeline() ValidationErrors {
	var errs ValidationErrors
	if c.Pipeline.Generator != "" {
		if _, ok := c.Provider(c.Pipeline.Generator); !ok {
			errs = append(errs, ValidationError{
				Field:   "pipeline.generator",
				Message: fmt.Sprintf("pipeline generator %q does not name a configured provider", c.Pipeline.Generator),
			})
		}
	}
	if r := c.Pipeline.Relevance; r != "" && r != "heuristic" && r != "llm" {
		errs = append(errs, ValidationError{
			Field:   "pipeline.relevance",
			Message: fmt.Sprintf("relevance must be heuristic or llm, got %q", r),
		})
	}
	if c.Pipeline.MaxTokens < 0 {
		errs = append(errs, ValidationError{Field: "pipeline.max_tokens", Message: "max_tokens must not be negative"})
	}
	return errs
}

// validateRetrieval validates retrieval configuration
func (c *Config) validateRetrieval() ValidationErrors {
	var errs ValidationErrors

	switch strings.ToLower(c.Retrieval.Provider) {
	case "chromem", "keyword", "hybrid":
	case "pgvector":
		if c.Retrieval.DatabaseURL == "" {
			errs = append(errs, ValidationError{
				Field:   "retrieval.database_url",
				Message: "database_url is required for pgvector retrieval",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "retrieval.provider",
			Message: fmt.Sprintf("unsupported retrieval provider %q (must be chromem, pgvector, keyword or hybrid)", c.Retrieval.Provider),
		})
	}

	if c.Retrieval.Budget <= 0 {
		errs = append(errs, ValidationError{
			Field:   "retrieval.budget",
			Message: fmt.Sprintf("retrieval budget must be positive, got %d", c.Retrieval.Budget),
		})
	}
	if u := strings.ToLower(c.Retrieval.BudgetUnit); u != "" && u != "words" && u != "tokens" {
		errs = append(errs, ValidationError{
			Field:   "retrieval.budget_unit",
			Message: fmt.Sprintf("budget_unit must be words or tokens, got %q", c.Retrieval.BudgetUnit),
		})
	}
	if c.Retrieval.TopK < 0 || c.Retrieval.TopK > 100 {
		errs = append(errs, ValidationError{
			Field:   "retrieval.top_k",
			Message: fmt.Sprintf("top_k must be in range [0, 100], got %d", c.Retrieval.TopK),
		})
	}
	return errs
}

func (c *Config) validateStores() ValidationErrors {
	var errs ValidationErrors

	if c.Cache.Capacity <= 0 {
		errs = append(errs, ValidationError{
			Field:   "cache.capacity",
			Message: fmt.Sprintf("cache capacity must be positive, got %d", c.Cache.Capacity),
		})
	}

	switch strings.ToLower(c.Session.Store) {
	case "", "memory":
	case "redis":
		if c.Session.Redis.Address == "" {
			errs = append(errs, ValidationError{Field: "session.redis.address", Message: "redis address is required for redis session store"})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "session.store",
			Message: fmt.Sprintf("unsupported session store %q (must be memory or redis)", c.Session.Store),
		})
	}

	switch strings.ToLower(c.History.Driver) {
	case "", "memory":
	case "sqlite", "postgres", "mysql", "clickhouse":
		if c.History.DSN == "" {
			errs = append(errs, ValidationError{
				Field:   "history.dsn",
				Message: fmt.Sprintf("dsn is required for %s history driver", c.History.Driver),
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "history.driver",
			Message: fmt.Sprintf("unsupported history driver %q", c.History.Driver),
		})
	}

	if c.Intent.Provider == "http" && c.Intent.Endpoint == "" {
		errs = append(errs, ValidationError{Field: "intent.endpoint", Message: "endpoint is required for http intent classifier"})
	}
	return errs
}
