package llm

import (
	"context"
	"errors"
)

var ErrUnavailable = errors.New("llm unavailable")

// Generator turns the text of a root post into a reply in the
// configured persona. Implementations must return a reply no longer
// than their configured character bound.
type Generator interface {
	Generate(ctx context.Context, sourceText string) (string, error)
}
