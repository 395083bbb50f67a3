package providers

import (
	"context"
	"iter"
)

// TextGenerator produces free text for a prompt. Output is untrusted and
// must be validated before use.
type TextGenerator interface {
	// Ready reports whether the generator has usable credentials
	Ready() bool

	// Generate returns the full response text
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateStream yields response chunks in order. The sequence is
	// finite and can only be ranged over once.
	GenerateStream(ctx context.Context, prompt string) iter.Seq2[string, error]
}
