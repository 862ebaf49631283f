// Package runner executes classroom turns.
//
// A turn starts at the registry's root agent (the triage agent). Whenever the
// running agent emits an event naming a transfer target, the runner checks
// the registry, records the hop and runs the target on the same RunContext.
//
// # Responsibilities
//   - Persisting every non-partial event (and its state delta) before the
//     emitting agent resumes
//   - Guarding hops: only allowed targets, at most MaxHandoffs per turn
//   - Bounding a turn by Timeout and a model call budget
//   - Assembling the core.Turn with responder, response text and handoffs
//   - Mapping failures onto the error taxonomy (ServiceError)
package runner
