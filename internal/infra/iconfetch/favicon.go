package iconfetch

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// findFaviconLink walks the parsed document tree looking for a
// <link rel="icon"> (or "shortcut icon") tag, the conventional place a site
// advertises its favicon outside of og:image/twitter:image meta tags.
func findFaviconLink(documentHTML, pageURL string) (string, bool) {
	doc, err := html.Parse(strings.NewReader(documentHTML))
	if err != nil {
		return "", false
	}

	var href string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if href != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "link" {
			rel := strings.ToLower(getAttr(n, "rel"))
			if rel == "icon" || rel == "shortcut icon" || rel == "apple-touch-icon" {
				if h := getAttr(n, "href"); h != "" {
					href = h
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
			if href != "" {
				return
			}
		}
	}
	walk(doc)

	if href == "" {
		return "", false
	}
	resolved, err := resolveAgainst(pageURL, href)
	if err != nil {
		return "", false
	}
	return resolved, true
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func resolveAgainst(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(refURL).String(), nil
}
