package ingest

import (
	"strings"

	"golang.org/x/net/html"
)

// StripMarkup reduces a message body to plain text. Tags are dropped,
// entities are decoded, and block-level boundaries become newlines so the
// chunker still sees paragraph structure.
func StripMarkup(body string) string {
	if !strings.ContainsAny(body, "<&") {
		return strings.TrimSpace(body)
	}

	var b strings.Builder
	tok := html.NewTokenizer(strings.NewReader(body))
	for {
		switch tok.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			b.WriteString(string(tok.Text()))
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tok.TagName()
			if string(name) == "br" {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := tok.TagName()
			if isBlockTag(string(name)) {
				b.WriteByte('\n')
			}
		}
	}
}

func isBlockTag(name string) bool {
	switch name {
	case "p", "div", "br", "li", "ul", "ol", "blockquote", "pre", "h1", "h2", "h3", "h4", "h5", "h6", "tr":
		return true
	}
	return false
}
