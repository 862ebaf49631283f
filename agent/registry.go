package agent

import (
	"fmt"
	"slices"

	"github.com/hupe1980/readaloud/core"
)

// Registry holds the agents of a classroom and the handoffs each may make.
//
// Agents never reference each other; the registry maps an agent name to the
// ordered names it may delegate to. The runner consults it on every hop.
type Registry struct {
	order   []string
	agents  map[string]core.Agent
	targets map[string][]string
	root    string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		agents:  map[string]core.Agent{},
		targets: map[string][]string{},
	}
}

// Register adds a (or replaces an already registered) agent with its
// allowed handoff targets. The first registered agent becomes the root
// unless SetRoot is called.
func (r *Registry) Register(a core.Agent, targets ...string) {
	name := a.Name()

	if _, ok := r.agents[name]; !ok {
		r.order = append(r.order, name)
	}

	r.agents[name] = a
	r.targets[name] = slices.Clone(targets)

	if r.root == "" {
		r.root = name
	}
}

// SetRoot names the agent every turn starts with.
func (r *Registry) SetRoot(name string) { r.root = name }

// Root returns the entry agent.
func (r *Registry) Root() (core.Agent, error) {
	a, ok := r.agents[r.root]
	if !ok {
		return nil, fmt.Errorf("root agent %q is not registered", r.root)
	}

	return a, nil
}

// Get returns the agent registered under name.
func (r *Registry) Get(name string) (core.Agent, bool) {
	a, ok := r.agents[name]
	return a, ok
}

// Names returns the registered agent names in registration order.
func (r *Registry) Names() []string { return slices.Clone(r.order) }

// Targets describes the agents name may hand off to, in configured order.
// Unregistered target names are skipped.
func (r *Registry) Targets(name string) []core.HandoffTarget {
	names := r.targets[name]
	out := make([]core.HandoffTarget, 0, len(names))

	for _, n := range names {
		a, ok := r.agents[n]
		if !ok {
			continue
		}

		t := core.HandoffTarget{Name: n, Description: a.Description()}
		if kp, ok := a.(core.KeywordProvider); ok {
			t.Keywords = kp.Keywords()
		}

		out = append(out, t)
	}

	return out
}

// CanHandoff reports whether from may delegate to to.
func (r *Registry) CanHandoff(from, to string) bool {
	if _, ok := r.agents[to]; !ok {
		return false
	}

	return slices.Contains(r.targets[from], to)
}

// Validate checks that the root exists and that every target is registered
// and not the agent itself.
func (r *Registry) Validate() error {
	if _, ok := r.agents[r.root]; !ok {
		return core.NewConfigurationError("agents.root", "root agent %q is not registered", r.root)
	}

	for _, name := range r.order {
		for _, t := range r.targets[name] {
			if t == name {
				return core.NewConfigurationError("agents."+name, "agent cannot hand off to itself")
			}

			if _, ok := r.agents[t]; !ok {
				return core.NewConfigurationError("agents."+name, "unknown handoff target %q", t)
			}
		}
	}

	return nil
}
