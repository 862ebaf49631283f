// Package route decides which specialist should answer a turn.
//
// A Classifier looks at the learner's input (and optionally the recent
// conversation) and picks at most one of the candidate agents. The triage
// agent answers the turn itself when no candidate clearly matches.
package route

import (
	"context"

	"github.com/hupe1980/readaloud/core"
)

// Classifier picks the agent that should answer input.
//
// Classify returns the chosen candidate name and true on a clear match, or
// false when no candidate (or more than one) fits. Implementations must only
// return names taken from candidates.
type Classifier interface {
	Classify(ctx context.Context, input string, history []core.Event, candidates []core.HandoffTarget) (string, bool, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, input string, history []core.Event, candidates []core.HandoffTarget) (string, bool, error)

// Classify implements Classifier.
func (f ClassifierFunc) Classify(ctx context.Context, input string, history []core.Event, candidates []core.HandoffTarget) (string, bool, error) {
	return f(ctx, input, history, candidates)
}

// Chain tries classifiers in order and returns the first match. An error
// stops the chain.
func Chain(classifiers ...Classifier) Classifier {
	return ClassifierFunc(func(ctx context.Context, input string, history []core.Event, candidates []core.HandoffTarget) (string, bool, error) {
		for _, c := range classifiers {
			name, ok, err := c.Classify(ctx, input, history, candidates)
			if err != nil {
				return "", false, err
			}

			if ok {
				return name, true, nil
			}
		}

		return "", false, nil
	})
}

func isCandidate(name string, candidates []core.HandoffTarget) bool {
	for _, c := range candidates {
		if c.Name == name {
			return true
		}
	}

	return false
}
