package runner

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/petasbytes/olier/internal/metrics"
	"github.com/petasbytes/olier/internal/provider"
	"github.com/petasbytes/olier/internal/telemetry"
	"github.com/petasbytes/olier/memory"
)

// Sink receives the accumulated reply after every non-empty fragment.
type Sink func(snapshot string)

// Result describes one completed stream.
type Result struct {
	Text      string
	Committed bool
	Stats     *metrics.StreamStats
}

type Runner struct {
	Provider provider.Provider
	Params   provider.Params
	// Timeout bounds a whole stream; zero means no limit.
	Timeout time.Duration
	Log     zerolog.Logger
}

// New returns a Runner sending provider.DefaultParams.
func New(p provider.Provider, log zerolog.Logger) *Runner {
	return &Runner{Provider: p, Params: provider.DefaultParams, Log: log.With().Str("component", "runner").Logger()}
}

// Fold drains s, calling emit with the accumulated text after each non-empty
// fragment, and returns the final text. s is closed before Fold returns.
// On error the text folded so far is returned alongside it.
func Fold(s provider.Stream, emit Sink) (string, error) {
	return fold(s, emit, nil)
}

func fold(s provider.Stream, emit Sink, stats *metrics.StreamStats) (string, error) {
	defer s.Close()
	var acc strings.Builder
	for s.Next() {
		frag := s.Fragment()
		if stats != nil {
			stats.Observe(frag, time.Now())
		}
		if frag == "" {
			continue
		}
		acc.WriteString(frag)
		if emit != nil {
			emit(acc.String())
		}
	}
	return acc.String(), s.Err()
}

// Run streams a reply to the truncated view of conv from model, feeding
// snapshots to sink, and appends the reply to conv once the stream is done.
func (r *Runner) Run(ctx context.Context, model string, conv *memory.Conversation, sink Sink) (Result, error) {
	ctx, cycleID := telemetry.EnsureCycleID(ctx)
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	log := r.Log.With().Str("cycle_id", cycleID).Str("model", model).Logger()

	view := conv.Truncate()
	log.Debug().Int("turns", len(view)).Int("est_tokens", memory.EstimateTokens(view)).Msg("stream open")

	stats := metrics.StartStream(time.Now())
	text, err := fold(r.Provider.Stream(ctx, model, view, r.Params), sink, stats)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		fields := stats.Fields()
		fields["model"] = model
		fields["error"] = errorKind(err)
		telemetry.EmitCycle(ctx, "stream_failed", fields)
		log.Warn().Err(err).Int("fragments", stats.Fragments).Msg("stream failed")
		return Result{Text: text, Stats: stats}, errors.Wrap(err, "stream reply")
	}

	res := Result{Text: text, Stats: stats}
	if text != "" {
		if err := conv.Append(memory.Turn{Role: memory.RoleAssistant, Content: text}); err != nil {
			return res, errors.Wrap(err, "commit reply")
		}
		res.Committed = true
	}

	fields := stats.Fields()
	fields["model"] = model
	fields["committed"] = res.Committed
	telemetry.EmitCycle(ctx, "stream_completed", fields)
	log.Debug().Int("fragments", stats.Fragments).Bool("committed", res.Committed).
		Dur("elapsed", stats.Elapsed()).Msg("stream done")
	return res, nil
}

// errorKind classifies err without leaking response bodies into telemetry.
func errorKind(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "endpoint"
	}
}
