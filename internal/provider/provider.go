// Package provider talks to the completion endpoint: it lists the served
// models and opens streaming chat completions.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/petasbytes/olier/memory"
)

// Kinds of completion endpoint understood by New.
const (
	KindOpenAI    = "openai"
	KindAnthropic = "anthropic"
)

var (
	ErrNoModels    = errors.New("provider: endpoint lists no models")
	ErrUnknownKind = errors.New("provider: unknown kind")
)

// Params are the sampling settings sent with every completion request.
type Params struct {
	MaxTokens   int64
	N           int64
	Temperature float64
}

// DefaultParams: at most 1000 output tokens, a single candidate, temperature 0.4.
var DefaultParams = Params{MaxTokens: 1000, N: 1, Temperature: 0.4}

// Stream is a lazy, finite, non-restartable sequence of text fragments.
//
// Next advances to the next chunk and reports whether one was read.
// Fragment is the text of the current chunk; chunks without content yield "".
// Err reports the failure that ended the stream early, if any.
type Stream interface {
	Next() bool
	Fragment() string
	Err() error
	Close() error
}

// Provider is a completion endpoint.
type Provider interface {
	ListModels(ctx context.Context) ([]string, error)
	Stream(ctx context.Context, model string, turns []memory.Turn, p Params) Stream
}

// Config selects and addresses a completion endpoint.
type Config struct {
	Kind       string
	BaseURL    string
	APIKey     string
	MaxRetries int
	// HTTPClient overrides the SDK's default client; tests use it to fake the endpoint.
	HTTPClient *http.Client
}

// New returns the Provider for cfg.Kind. An empty kind selects KindOpenAI.
func New(cfg Config) (Provider, error) {
	switch cfg.Kind {
	case "", KindOpenAI:
		return NewOpenAI(cfg), nil
	case KindAnthropic:
		return NewAnthropic(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
}

// FirstModel returns the first model the endpoint lists.
func FirstModel(ctx context.Context, p Provider) (string, error) {
	ids, err := p.ListModels(ctx)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", ErrNoModels
	}
	return ids[0], nil
}
