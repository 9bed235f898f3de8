package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnrichmentError_Classification(t *testing.T) {
	base := errors.New("boom")

	skip := NewSkipArticle("fetchArticleContent", 7, "http://x/1", 404, base)
	assert.True(t, IsSkipArticle(skip))
	assert.Equal(t, 404, skip.StatusCode)
	assert.ErrorIs(t, skip, base)

	transient := NewTransient("fetchArticleContent", 7, "http://x/1", base)
	assert.False(t, IsSkipArticle(transient))
	assert.Equal(t, ErrKindTransient, transient.Kind)

	parseErr := NewParseError("parseToRawArticles", 7, "http://x/feed.xml", base)
	assert.Equal(t, ErrKindParse, parseErr.Kind)

	fatal := NewFatal("persist", 7, base)
	assert.Equal(t, ErrKindFatal, fatal.Kind)
	assert.Equal(t, "", fatal.URL)
}

func TestIsSkipArticle_NonEnrichmentError(t *testing.T) {
	assert.False(t, IsSkipArticle(errors.New("plain error")))
	assert.False(t, IsSkipArticle(nil))
}

func TestErrKind_String(t *testing.T) {
	cases := map[ErrKind]string{
		ErrKindValidation:  "validation",
		ErrKindTransient:   "transient",
		ErrKindSkipArticle: "skip_article",
		ErrKindParse:       "parse",
		ErrKindFatal:       "fatal",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
}
