// Package actor defines the decision-maker boundary. The engine only ever
// sees this interface: how an actor reasons (an LLM call, a script, a human)
// is a collaborator's concern.
package actor

import (
	"context"

	"statecraft.ai/internal/protocol"
)

// Actor produces one action proposal per round from its visibility-filtered
// view and the history of summaries it has received so far. Implementations
// must honor ctx: the orchestrator substitutes a pass action when the
// deadline expires.
type Actor interface {
	ProposeAction(ctx context.Context, view protocol.StateView, history []string) (protocol.ActionProposal, error)
}

// Func adapts a plain function to the Actor interface.
type Func func(ctx context.Context, view protocol.StateView, history []string) (protocol.ActionProposal, error)

func (f Func) ProposeAction(ctx context.Context, view protocol.StateView, history []string) (protocol.ActionProposal, error) {
	return f(ctx, view, history)
}
