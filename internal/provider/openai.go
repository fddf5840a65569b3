package provider

import (
	"context"

	"github.com/openai/openai-go"
	oaoption "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
	"github.com/pkg/errors"

	"github.com/petasbytes/olier/memory"
)

// DefaultOpenAIBaseURL is where a locally hosted OpenAI-compatible server listens by default.
const DefaultOpenAIBaseURL = "http://localhost:8000/v1"

// OpenAI is an OpenAI-compatible chat completion endpoint.
type OpenAI struct {
	Client *openai.Client
}

// NewOpenAI returns a client for cfg.BaseURL (DefaultOpenAIBaseURL when empty).
// Local servers usually accept any key, so an empty APIKey is allowed.
func NewOpenAI(cfg Config) *OpenAI {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultOpenAIBaseURL
	}
	opts := []oaoption.RequestOption{
		oaoption.WithBaseURL(base),
		oaoption.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.APIKey != "" {
		opts = append(opts, oaoption.WithAPIKey(cfg.APIKey))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, oaoption.WithHTTPClient(cfg.HTTPClient))
	}
	c := openai.NewClient(opts...)
	return &OpenAI{Client: &c}
}

func (o *OpenAI) ListModels(ctx context.Context) ([]string, error) {
	page, err := o.Client.Models.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list models")
	}
	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (o *OpenAI) Stream(ctx context.Context, model string, turns []memory.Turn, p Params) Stream {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    openAIMessages(turns),
		MaxTokens:   openai.Int(p.MaxTokens),
		N:           openai.Int(p.N),
		Temperature: openai.Float(p.Temperature),
	}
	return &openAIStream{s: o.Client.Chat.Completions.NewStreaming(ctx, params)}
}

func openAIMessages(turns []memory.Turn) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case memory.RoleSystem:
			out = append(out, openai.SystemMessage(t.Content))
		case memory.RoleAssistant:
			out = append(out, openai.AssistantMessage(t.Content))
		default:
			out = append(out, openai.UserMessage(t.Content))
		}
	}
	return out
}

type openAIStream struct {
	s    *ssestream.Stream[openai.ChatCompletionChunk]
	frag string
}

func (s *openAIStream) Next() bool {
	s.frag = ""
	if !s.s.Next() {
		return false
	}
	// A chunk without choices (usage or keep-alive frames) carries no text.
	if chunk := s.s.Current(); len(chunk.Choices) > 0 {
		s.frag = chunk.Choices[0].Delta.Content
	}
	return true
}

func (s *openAIStream) Fragment() string { return s.frag }

func (s *openAIStream) Err() error {
	if err := s.s.Err(); err != nil {
		return errors.Wrap(err, "chat completion stream")
	}
	return nil
}

func (s *openAIStream) Close() error { return s.s.Close() }
