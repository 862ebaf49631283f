// Package agent contains the classroom agents and the registry that wires
// them together. The package focuses on three concerns:
//
//  1. Identity plumbing shared by every agent (BaseAgent)
//  2. The model-centric specialist that answers with tools (ModelAgent)
//  3. The triage agent that routes a turn or answers it itself (TriageAgent)
//
// Design principles:
//   - No back-references: handoff targets live in the Registry, keyed by name
//   - Routing is a pluggable strategy (route.Classifier)
//   - Every agent reports through the RunContext and waits for persistence
//
// Execution Model:
//   - The runner gives each agent of a turn the same *core.RunContext
//   - A handoff is an event whose Actions.TransferToAgent names the next agent
//   - ModelAgent integrates with model, tool and flow packages to emit events
package agent
