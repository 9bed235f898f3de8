package iconfetch

import "testing"

func TestFindFaviconLink_RelIcon(t *testing.T) {
	html := `<html><head><link rel="icon" href="/static/favicon.png"></head><body></body></html>`

	got, ok := findFaviconLink(html, "https://example.com/blog/post")
	if !ok {
		t.Fatal("expected a favicon link to be found")
	}
	if want := "https://example.com/static/favicon.png"; got != want {
		t.Errorf("want %q, got %q", want, got)
	}
}

func TestFindFaviconLink_ShortcutIcon(t *testing.T) {
	html := `<html><head><link rel="shortcut icon" href="favicon.ico"></head></html>`

	got, ok := findFaviconLink(html, "https://example.com/")
	if !ok {
		t.Fatal("expected a favicon link to be found")
	}
	if want := "https://example.com/favicon.ico"; got != want {
		t.Errorf("want %q, got %q", want, got)
	}
}

func TestFindFaviconLink_NoLinkTag(t *testing.T) {
	html := `<html><head><title>no icon here</title></head></html>`

	if _, ok := findFaviconLink(html, "https://example.com/"); ok {
		t.Fatal("expected no favicon link to be found")
	}
}

func TestFindFaviconLink_IgnoresUnrelatedRel(t *testing.T) {
	html := `<html><head><link rel="stylesheet" href="/style.css"></head></html>`

	if _, ok := findFaviconLink(html, "https://example.com/"); ok {
		t.Fatal("expected stylesheet link to be ignored")
	}
}
