package texttransform

import (
	"context"

	"yana/internal/domain/entity"
)

// NoOp returns content unchanged. Used when a Feed carries no AIHints, or
// when no provider API key is configured.
type NoOp struct{}

func NewNoOp() *NoOp { return &NoOp{} }

func (NoOp) Transform(_ context.Context, content string, _ entity.AIHints) (string, error) {
	return content, nil
}
