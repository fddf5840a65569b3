// Package windowing bounds the history submitted to the completion endpoint.
//
// Policy:
//   - pinned entries (the system prompt) are always retained and come first
//   - of the remaining entries only the newest DefaultWindow survive, in order
package windowing
