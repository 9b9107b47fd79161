package ai

import "context"

// Document is a structured payload handed to the semantic scorer: a
// communication-style trait map, a physical-preference document, or a photo
// list wrapped in a map.
type Document map[string]any

// Scorer produces a normalized compatibility value for a pair of documents.
// Implementations talk to an external completion capability and may be slow or
// unreliable; callers isolate failures per dimension and clamp the result into
// [0,1] before use.
type Scorer interface {
	Score(ctx context.Context, a, b Document, instruction string) (float64, error)
}
