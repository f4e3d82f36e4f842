// internal/transmute/generator.go
package transmute

import "context"

// Generator sends one prompt to a text-generation service and returns the
// raw text. Implementations do not retry.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ModelSelector is implemented by generators that can be pointed at another
// model without rebuilding their client.
type ModelSelector interface {
	ForModel(model string) Generator
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
