// Package memory holds the in-memory conversation of a chat session.
//
// Model:
//   - One system turn, created with the conversation and always first.
//   - User and assistant turns appended in chronological order.
//   - Nothing is persisted; a conversation lives as long as its session.
package memory
