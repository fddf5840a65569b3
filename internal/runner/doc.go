// Package runner consumes one streamed completion per user submission.
//
// Invariant:
//   - the sink always receives the full reply so far, never a delta; each
//     snapshot extends the previous one.
//   - the assistant turn is appended only after the stream ends cleanly with
//     non-empty text. A failed or cancelled stream leaves the conversation
//     as it was.
//
// Flow:
//
//	conv.Truncate() -> provider.Stream -> Fold(sink) -> conv.Append(assistant)
package runner
