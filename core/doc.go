// Package core defines the shared contracts of the chatmesh assistant: the
// per-user ConversationContext, the chat transcript types, the ContextStore
// persistence contract and the opaque Agent capability. Higher level packages
// (tool, persistence, agent, manager) depend on core and never on each other's
// internals, keeping the dependency graph acyclic.
package core
