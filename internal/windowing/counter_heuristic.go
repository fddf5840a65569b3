package windowing

import (
	"io"
	"os"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// TokenCounter estimates the input-token cost of message text.
type TokenCounter interface {
	Count(text string) int
}

// HeuristicCounter is the default deterministic estimator.
// Rules:
// - each message costs its rune count plus a fixed per-message overhead
// - roughly four runes per token, rounded up
type HeuristicCounter struct{}

// Fixed per-message overhead for role markers and separators; changing this requires updating the guard test.
const messageOverhead = 4

const runesPerToken = 4

func (HeuristicCounter) Count(text string) int {
	runes := utf8.RuneCountInString(text) + messageOverhead
	return (runes + runesPerToken - 1) / runesPerToken
}

// Estimate sums c over texts.
func Estimate(c TokenCounter, texts ...string) int {
	total := 0
	for _, t := range texts {
		total += c.Count(t)
	}
	return total
}

// VerboseLog receives window decisions when OLIER_VERBOSE_WINDOW_LOGS=1.
// It writes to stderr so it never mixes with chat output.
var VerboseLog = verboseLogger(os.Stderr)

func verboseLogger(w io.Writer) zerolog.Logger {
	if os.Getenv("OLIER_VERBOSE_WINDOW_LOGS") != "1" {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).With().Timestamp().Str("component", "windowing").Logger()
}

func vlogf(format string, args ...any) {
	VerboseLog.Debug().Msgf(format, args...)
}
