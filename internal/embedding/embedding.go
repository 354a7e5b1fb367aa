// Package embedding provides vector embedding generation for paper text.
package embedding

import (
	"context"
	"strings"
)

const (
	// MaxTextLength is the maximum text length (in characters) sent to
	// the embedding model. ~8000 characters stays well inside the token
	// context window of the supported models.
	MaxTextLength = 8000
)

// Provider generates embeddings from text.
type Provider interface {
	// EmbedText generates an embedding for the given text.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the expected vector dimensions.
	Dimensions() int
}

// PaperText composes the text embedded for a paper. The title is
// prefixed so it contributes to the semantic representation alongside
// the abstract.
func PaperText(title, summary string) string {
	text := strings.TrimSpace(title)
	if summary != "" {
		if text != "" {
			text += ". "
		}
		text += strings.TrimSpace(summary)
	}
	if len(text) > MaxTextLength {
		text = text[:MaxTextLength]
	}
	return text
}
