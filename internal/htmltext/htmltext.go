// Package htmltext flattens HTML fragments that appear inside extracted email
// content into plain text suitable for terminal rendering.
package htmltext

import (
	"strings"

	"golang.org/x/net/html"
)

// Flatten converts an HTML fragment to plain text: block elements break
// lines, script/style subtrees are dropped, whitespace runs collapse. Input
// without markup passes through with only whitespace normalization.
func Flatten(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return normalize(fragment)
	}
	node, err := html.Parse(strings.NewReader(fragment))
	if err != nil || node == nil {
		return normalize(fragment)
	}
	var b strings.Builder
	collect(&b, node)
	return normalize(b.String())
}

func collect(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript", "head":
			return
		case "br", "hr", "p", "div", "li", "tr":
			b.WriteString("\n")
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(b, c)
	}
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "p", "div", "li", "tr":
			b.WriteString("\n")
		}
	}
}

// normalize trims every line, collapses internal whitespace runs, and keeps
// at most one consecutive blank line.
func normalize(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			if len(out) > 0 && out[len(out)-1] == "" {
				continue
			}
			out = append(out, "")
			continue
		}
		out = append(out, strings.Join(fields, " "))
	}
	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
