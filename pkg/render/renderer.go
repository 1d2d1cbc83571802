// Package render defines the renderer contract and registry the engine uses
// to turn a form definition into a concrete input surface.
package render

import (
	"context"

	"github.com/LouieCads/iskolar-forms/pkg/form"
)

// Renderer converts a FormDefinition into a byte representation (HTML, an
// interactive terminal session, etc.).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, def form.FormDefinition, options Options) ([]byte, error)
}
