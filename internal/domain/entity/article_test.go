package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestArticle_Struct(t *testing.T) {
	now := time.Now()

	article := Article{
		ID:           1,
		FeedID:       100,
		Name:         "Test Article",
		URL:          "https://example.com/article/",
		CanonicalURL: NormalizeURL("https://example.com/article/"),
		Content:      "<article><section>body</section></article>",
		PublishedAt:  now,
		CreatedAt:    now,
	}

	assert.Equal(t, int64(1), article.ID)
	assert.Equal(t, int64(100), article.FeedID)
	assert.Equal(t, "Test Article", article.Name)
	assert.Equal(t, "https://example.com/article", article.CanonicalURL)
	assert.Equal(t, now, article.PublishedAt)
	assert.Equal(t, now, article.CreatedAt)
}

func TestArticle_ZeroValue(t *testing.T) {
	var article Article

	assert.Equal(t, int64(0), article.ID)
	assert.Equal(t, int64(0), article.FeedID)
	assert.Equal(t, "", article.Name)
	assert.Equal(t, "", article.URL)
	assert.True(t, article.PublishedAt.IsZero())
	assert.True(t, article.CreatedAt.IsZero())
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trailing slash stripped", "https://example.com/a/", "https://example.com/a"},
		{"fragment removed", "https://example.com/a#section", "https://example.com/a"},
		{"query removed", "https://example.com/a?utm=1", "https://example.com/a"},
		{"all three", "https://example.com/a/?utm=1#x", "https://example.com/a"},
		{"root path untouched", "https://example.com/", "https://example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.in))
		})
	}
}
