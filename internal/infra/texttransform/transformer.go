// Package texttransform provides the pluggable AI text-transform surface
// referenced by Feed.AI hints. The engine treats summarize/translate as a
// surface only; callers decide whether and how to invoke it.
package texttransform

import (
	"context"

	"yana/internal/domain/entity"
)

// Transformer applies a Feed's AIHints to article content. Implementations
// must be safe for concurrent use and must never block the enrichment
// pipeline indefinitely — callers apply their own per-call deadline.
type Transformer interface {
	Transform(ctx context.Context, content string, hints entity.AIHints) (string, error)
}

// buildPrompt renders one instruction string covering every hint that is
// set. Summarize and TranslateTo compose; CustomPrompt, if set, replaces
// the summarize instruction rather than stacking with it.
func buildPrompt(hints entity.AIHints, characterLimit int) string {
	switch {
	case hints.CustomPrompt != "":
		return hints.CustomPrompt
	case hints.Summarize && hints.TranslateTo != "":
		return sprintfSummarizeAndTranslate(characterLimit, hints.TranslateTo)
	case hints.Summarize:
		return sprintfSummarize(characterLimit)
	case hints.TranslateTo != "":
		return sprintfTranslate(hints.TranslateTo)
	default:
		return ""
	}
}
