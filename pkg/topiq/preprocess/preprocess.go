// Package preprocess cleans raw document text before fitting.
package preprocess

import (
	"strings"

	"golang.org/x/net/html"
)

// StripHTML extracts the visible text of an HTML fragment, skipping
// script and style content. Unparseable input is returned as-is.
func StripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)

	return CleanWhitespace(buf.String())
}

// CleanWhitespace collapses runs of whitespace into single spaces.
func CleanWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
