package provider

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	aoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/pkg/errors"

	"github.com/petasbytes/olier/memory"
)

// Anthropic is a Messages API endpoint. The API has no candidate count, so Params.N is ignored.
type Anthropic struct {
	Client *anthropic.Client
}

// NewAnthropic returns a client for cfg.BaseURL (the SDK default when empty).
// The SDK falls back to ANTHROPIC_API_KEY when cfg.APIKey is empty.
func NewAnthropic(cfg Config) *Anthropic {
	opts := []aoption.RequestOption{aoption.WithMaxRetries(cfg.MaxRetries)}
	if cfg.BaseURL != "" {
		opts = append(opts, aoption.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, aoption.WithAPIKey(cfg.APIKey))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, aoption.WithHTTPClient(cfg.HTTPClient))
	}
	c := anthropic.NewClient(opts...)
	return &Anthropic{Client: &c}
}

func (a *Anthropic) ListModels(ctx context.Context) ([]string, error) {
	page, err := a.Client.Models.List(ctx, anthropic.ModelListParams{})
	if err != nil {
		return nil, errors.Wrap(err, "list models")
	}
	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (a *Anthropic) Stream(ctx context.Context, model string, turns []memory.Turn, p Params) Stream {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   p.MaxTokens,
		Temperature: anthropic.Float(p.Temperature),
	}
	for _, t := range turns {
		switch t.Role {
		case memory.RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: t.Content})
		case memory.RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Content)))
		}
	}
	return &anthropicStream{s: a.Client.Messages.NewStreaming(ctx, params)}
}

type anthropicStream struct {
	s    *ssestream.Stream[anthropic.MessageStreamEventUnion]
	frag string
}

// Next yields one fragment per stream event; only text deltas carry text.
func (s *anthropicStream) Next() bool {
	s.frag = ""
	if !s.s.Next() {
		return false
	}
	if ev, ok := s.s.Current().AsAny().(anthropic.ContentBlockDeltaEvent); ok {
		if d, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok {
			s.frag = d.Text
		}
	}
	return true
}

func (s *anthropicStream) Fragment() string { return s.frag }

func (s *anthropicStream) Err() error {
	if err := s.s.Err(); err != nil {
		return errors.Wrap(err, "messages stream")
	}
	return nil
}

func (s *anthropicStream) Close() error { return s.s.Close() }
