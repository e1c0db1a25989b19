package contracts

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the acquisition and scoring layers.
var (
	// ErrPoolUnavailable means no live snapshot and no fallback cache entry
	ErrPoolUnavailable = errors.New("candidate pool unavailable")
	// ErrInsufficientHistory means fewer usable bars survived cleaning than
	// the acquisition layer's minimum
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrInsufficientData means the scorer received fewer usable closes than
	// its own floor
	ErrInsufficientData = errors.New("insufficient data for scoring")
)

// InvalidSymbolError reports a malformed ticker, rejected before any network
// call.
type InvalidSymbolError struct {
	Symbol string
}

func (e *InvalidSymbolError) Error() string {
	return fmt.Sprintf("invalid stock symbol: %q", e.Symbol)
}

// SchemaError reports an upstream response missing required fields
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("upstream schema missing required fields: %s", strings.Join(e.Missing, ", "))
}

// ProviderError wraps the final underlying error after the market data
// client has exhausted its retries.
type ProviderError struct {
	Op  string // which upstream capability failed
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("market data %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// FailureKind tags a per-candidate failure for counters and user-facing
// messaging. It never changes retry behavior.
type FailureKind string

const (
	FailureNetwork FailureKind = "network"
	FailureData    FailureKind = "data"
)

// networkSignals are message substrings that indicate a transport-level
// failure rather than a data problem.
var networkSignals = []string{
	"connection",
	"timeout",
	"timed out",
	"remote end closed",
	"ssl",
	"tls",
	"max retries",
	"http",
	"temporarily unavailable",
}

// ClassifyError tags an error as a network or data failure by probing its
// message for known transport signals.
func ClassifyError(err error) FailureKind {
	if err == nil {
		return FailureData
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range networkSignals {
		if strings.Contains(msg, sig) {
			return FailureNetwork
		}
	}
	return FailureData
}
