// Package transform calls the remote generative model that performs the
// actual image edits and normalizes its failures into the domain error
// taxonomy.
package transform

import (
	"context"

	"editlab/internal/domain"
)

// Transformer turns an edit request into a finished image. Implementations
// must classify every failure as a domain error kind so callers can decide
// what is worth retrying.
type Transformer interface {
	Transform(ctx context.Context, req domain.EditRequest) (domain.EditResult, error)
}
