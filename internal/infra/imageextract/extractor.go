// Package imageextract implements an ordered strategy chain that resolves
// a usable header or inline image for an article.
package imageextract

import (
	"context"
	"log/slog"

	"yana/internal/domain/entity"
)

// Image is the result of a successful strategy match.
type Image struct {
	Bytes       []byte
	ContentType string
}

// Options parametrizes one extraction call.
type Options struct {
	IsHeader bool // permits larger target dimensions, forces WebP
	// DocumentHTML is the already-rendered page, consulted by strategies
	// that need a DOM (meta tags, inline SVG, page images).
	DocumentHTML string
}

// Strategy is one entry in the ordered chain. CanHandle gates whether
// Extract is even attempted for url.
type Strategy interface {
	Name() string
	CanHandle(url string) bool
	Extract(ctx context.Context, feedID int64, url string, opts Options) (*Image, error)
}

// Extractor runs the fixed strategy chain in order and stops at the first
// non-nil result.
type Extractor struct {
	strategies []Strategy
	compressor *Compressor
}

// New builds the extractor with the canonical strategy order: direct image,
// YouTube thumbnail, Twitter/X, meta tags, inline SVG, page images.
func New(strategies []Strategy, compressor *Compressor) *Extractor {
	return &Extractor{strategies: strategies, compressor: compressor}
}

// Extract walks the strategy chain and compresses the first hit according
// to opts.IsHeader.
func (e *Extractor) Extract(ctx context.Context, feedID int64, url string, opts Options) (*Image, error) {
	for _, s := range e.strategies {
		if !s.CanHandle(url) {
			continue
		}
		img, err := s.Extract(ctx, feedID, url, opts)
		if err != nil {
			if entity.IsSkipArticle(err) {
				return nil, err
			}
			slog.Warn("image extraction strategy failed, trying next",
				slog.String("strategy", s.Name()), slog.String("url", url), slog.Any("error", err))
			continue
		}
		if img == nil {
			continue
		}
		compressed, err := e.compressor.Compress(img.Bytes, img.ContentType, opts.IsHeader)
		if err != nil {
			slog.Warn("image compression failed, using original bytes",
				slog.String("strategy", s.Name()), slog.Any("error", err))
			return img, nil
		}
		return compressed, nil
	}
	return nil, nil
}
