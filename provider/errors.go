package provider

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrProviderUnavailable means no provider passed the rate and error screening.
	ErrProviderUnavailable = errors.New("no inference provider available")
	// ErrAllProvidersExhausted matches every *ExhaustedError.
	ErrAllProvidersExhausted = errors.New("all inference providers failed")
)

// CallError is a failure of one specific provider call.
type CallError struct {
	Provider string
	Err      error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("provider %s call failed, err: %v", e.Provider, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// ExhaustedError is returned by CallWithFallback when every attempt failed.
type ExhaustedError struct {
	Last     error
	Attempts *multierror.Error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("All inference providers failed. Last error: %v", e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrAllProvidersExhausted
}

// Errors lists every attempt failure in order.
func (e *ExhaustedError) Errors() []error {
	if e.Attempts == nil {
		return nil
	}
	return e.Attempts.WrappedErrors()
}
