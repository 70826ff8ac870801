package exchange

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// SanitizeHTML turns a full HTML document into the fragment Exchange renders:
// head <style> blocks hoisted into one <style> element followed by the body's
// inner HTML. Input without a document wrapper is returned unchanged, so the
// function is idempotent.
func SanitizeHTML(in string) string {
	if !isDocument(in) {
		return in
	}

	doc, err := html.Parse(strings.NewReader(in))
	if err != nil {
		return in
	}

	var head, body *html.Node
	for n := range doc.Descendants() {
		switch n.DataAtom {
		case atom.Head:
			if head == nil {
				head = n
			}
		case atom.Body:
			if body == nil {
				body = n
			}
		}
	}

	var styles []string
	if head != nil {
		for n := range head.Descendants() {
			if n.Type != html.ElementNode || n.DataAtom != atom.Style {
				continue
			}
			var sb strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					sb.WriteString(c.Data)
				}
			}
			if s := strings.TrimSpace(sb.String()); s != "" {
				styles = append(styles, s)
			}
		}
	}

	var content strings.Builder
	if body != nil {
		for c := body.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&content, c); err != nil {
				return in
			}
		}
	}

	out := strings.TrimSpace(content.String())
	if len(styles) > 0 {
		out = "<style>" + strings.Join(styles, "\n") + "</style>\n" + out
	}

	return out
}

// isDocument reports whether in carries a doctype or an html, head or body
// start tag. Comments and raw text never count.
func isDocument(in string) bool {
	z := html.NewTokenizer(strings.NewReader(in))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.DoctypeToken:
			return true
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Html, atom.Head, atom.Body:
				return true
			}
		}
	}
}
