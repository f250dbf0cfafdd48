// Package llm is the boundary to the text-generation service used for message
// drafting, quality scoring, reply classification and the listing gate.
package llm

import "context"

// Client turns a system and a user instruction into generated text.
type Client interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Func adapts a plain function to Client.
type Func func(ctx context.Context, system, user string) (string, error)

func (f Func) Generate(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}
