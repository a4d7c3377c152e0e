// Package builtin ships the assistant's standard tool set: calculator,
// password generator, task manager, text analyzer, unit converter, date
// info and user data access. Providers returns the registration table the
// registry discovers them from at boot.
//
// All builtin tools follow the same conventions: arguments are validated
// against a JSON schema, domain failures are reported as "ERROR: ..." text
// for the model to relay (never as Go errors), and any per-user state lives
// under a tool-owned key in the conversation context's extension data.
package builtin
