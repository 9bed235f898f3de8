package stream

import (
	"fmt"
	"strconv"
	"strings"
)

// RefKind classifies a parsed stream id.
type RefKind int

const (
	RefKindFeed RefKind = iota
	RefKindLabel
	RefKindReadingList
	RefKindStarred
	RefKindRead
)

// Ref is a parsed GReader stream id.
type Ref struct {
	Kind   RefKind
	FeedID int64  // valid when Kind == RefKindFeed
	Label  string // valid when Kind == RefKindLabel
}

const (
	feedPrefix       = "feed/"
	labelPrefix      = "user/-/label/"
	stateReadingList = "user/-/state/com.google/reading-list"
	stateStarred     = "user/-/state/com.google/starred"
	stateRead        = "user/-/state/com.google/read"
)

// ParseRef parses a stream id per the GReader stream id grammar:
//
//	feed/{numericFeedId}
//	user/-/label/{groupName}
//	user/-/state/com.google/reading-list
//	user/-/state/com.google/starred
//	user/-/state/com.google/read
func ParseRef(raw string) (Ref, error) {
	switch {
	case raw == stateReadingList:
		return Ref{Kind: RefKindReadingList}, nil
	case raw == stateStarred:
		return Ref{Kind: RefKindStarred}, nil
	case raw == stateRead:
		return Ref{Kind: RefKindRead}, nil
	case strings.HasPrefix(raw, labelPrefix):
		label := strings.TrimPrefix(raw, labelPrefix)
		if label == "" {
			return Ref{}, fmt.Errorf("stream: empty label in %q", raw)
		}
		return Ref{Kind: RefKindLabel, Label: label}, nil
	case strings.HasPrefix(raw, feedPrefix):
		idStr := strings.TrimPrefix(raw, feedPrefix)
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id <= 0 {
			return Ref{}, fmt.Errorf("stream: invalid feed id in %q", raw)
		}
		return Ref{Kind: RefKindFeed, FeedID: id}, nil
	default:
		return Ref{}, fmt.Errorf("stream: unrecognized stream id %q", raw)
	}
}

const itemIDPrefix = "tag:google.com,2005:reader/item/"

// FormatItemID renders an article id in GReader's wire form: the fixed
// tag prefix followed by 16 lowercase zero-padded hex digits.
func FormatItemID(id int64) string {
	return fmt.Sprintf("%s%016x", itemIDPrefix, id)
}

// ParseItemID accepts both the full tag form and a bare integer-looking
// id. A non-integer or non-positive id yields (0, false) rather than an
// error, so callers can simply skip it.
func ParseItemID(raw string) (int64, bool) {
	if s, ok := strings.CutPrefix(raw, itemIDPrefix); ok {
		n, err := strconv.ParseInt(s, 16, 64)
		if err != nil || n <= 0 {
			return 0, false
		}
		return n, true
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
		return n, true
	}
	if n, err := strconv.ParseInt(raw, 16, 64); err == nil && n > 0 {
		return n, true
	}
	return 0, false
}
