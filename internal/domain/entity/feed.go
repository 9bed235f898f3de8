package entity

import (
	"fmt"
	"time"
)

// AggregatorKind identifies which aggregator plugin a Feed is configured for.
// The set is closed: the registry in internal/usecase/aggregator only knows
// how to construct these kinds.
type AggregatorKind string

const (
	KindFullWebsite AggregatorKind = "full_website"
	KindFeedContent AggregatorKind = "feed_content"
	KindYouTube     AggregatorKind = "youtube"
	KindReddit      AggregatorKind = "reddit"
	KindPodcast     AggregatorKind = "podcast"
	KindMeinMMO     AggregatorKind = "mein_mmo"
	KindHeise       AggregatorKind = "heise"
	KindMerkur      AggregatorKind = "merkur"
	KindTagesschau  AggregatorKind = "tagesschau"
	KindExplosm     AggregatorKind = "explosm"
	KindDarkLegacy  AggregatorKind = "dark_legacy"
	KindOglaf       AggregatorKind = "oglaf"
	KindCaschysBlog AggregatorKind = "caschys_blog"
	KindMacTechNews AggregatorKind = "mactechnews"
)

// validKinds is the closed set of aggregator kinds a Feed may carry.
var validKinds = map[AggregatorKind]bool{
	KindFullWebsite: true, KindFeedContent: true, KindYouTube: true,
	KindReddit: true, KindPodcast: true, KindMeinMMO: true, KindHeise: true,
	KindMerkur: true, KindTagesschau: true, KindExplosm: true,
	KindDarkLegacy: true, KindOglaf: true, KindCaschysBlog: true,
	KindMacTechNews: true,
}

// RegexReplacement is one pattern|replacement pair parsed from a feed's
// regex_replacements option.
type RegexReplacement struct {
	Pattern     string
	Replacement string
}

// AIHints carries the pluggable text-transform directives for a Feed.
// The engine only surfaces the hints; the concrete transform is supplied
// by internal/infra/texttransform.
type AIHints struct {
	Summarize    bool
	TranslateTo  string // empty = no translation
	CustomPrompt string
}

// FeedOptions holds the per-feed-kind option bag. Every field defaults to
// its zero value when absent from feed configuration.
type FeedOptions struct {
	ExcludeSelectors      []string
	IgnoreTitleContains   []string
	IgnoreContentContains []string
	RegexReplacements     []RegexReplacement
	TraverseMultipage     bool // mein_mmo only
	SkipDuplicates        bool
	UseCurrentTimestamp   bool
	GenerateTitleImage    bool
	AddSourceFooter       bool
	DailyPostLimit        int // -1 unlimited, 0 disabled, n>0 target
}

// Feed is the configuration for one ingestion source.
type Feed struct {
	ID         int64
	UserID     *int64 // nil = system-shared
	Kind       AggregatorKind
	Identifier string // URL, subreddit name, channel id/handle, etc.
	Name       string
	Icon       string // base64 or URL
	Enabled    bool
	Options    FeedOptions
	AI         AIHints

	LastCrawledAt      *time.Time
	LastIconIdentifier string // identifier icon was last collected against

	CreatedAt time.Time
}

// Validate checks structural invariants of a Feed. Identifier format is
// validated per-kind by the aggregator's own Validate step, not here —
// this only checks the data shared across every kind.
func (f *Feed) Validate() error {
	if f.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if !validKinds[f.Kind] {
		return &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown aggregator kind %q", f.Kind)}
	}
	if f.Identifier == "" {
		return &ValidationError{Field: "identifier", Message: "identifier is required"}
	}
	if f.Options.DailyPostLimit < -1 {
		return &ValidationError{Field: "daily_post_limit", Message: "must be -1, 0, or a positive integer"}
	}
	return nil
}
