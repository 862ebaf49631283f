// Package core provides the foundational domain types, interfaces and execution
// contexts used by readaloud. It defines the core abstractions for:
//
//   - Agents (triage and specialist responders) and their handoff targets
//   - Sessions (conversation containers with event history) and Turns
//   - Events (immutable communication + orchestration records)
//   - RunContext / ToolContext (scoped execution & tool sandboxing)
//   - The error taxonomy shared by the runner and the session driver
//
// Persistence, orchestration and concrete agents live in other packages; core
// keeps the small interfaces they meet at.
package core
