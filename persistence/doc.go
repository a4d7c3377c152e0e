// Package persistence provides durable storage for conversation contexts and
// chat transcripts. Two core.ContextStore implementations are included: a
// thread-safe in-memory store for tests and ephemeral deployments, and a
// SQLite-backed store for durable single-node deployments.
//
// The Gateway type wraps any store with the availability policy used by the
// conversation manager: reads fall back to fresh defaults when the store is
// unreachable, so storage outages degrade persistence without taking the
// assistant down.
package persistence
