// Package format provides plain text shaping for message bodies.
package format

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var blankRunRe = regexp.MustCompile(`\n{3,}`)

// HTML2Text flattens an HTML body into plain text. Single-column layout tables
// are unwrapped into their content, data tables keep one line per row with
// cells separated by " | ".
func HTML2Text(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return strings.TrimSpace(content)
	}

	var b strings.Builder
	writeNode(&b, doc)

	text := strings.ReplaceAll(b.String(), "\u00a0", " ")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}

	return strings.TrimSpace(blankRunRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}

func writeNode(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		writeText(b, n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "head", "title":
			return
		case "br":
			b.WriteString("\n")
			return
		case "table":
			if isLayoutTable(n) {
				writeChildren(b, n)
			} else {
				writeDataTable(b, n)
			}
			return
		case "tr":
			writeChildren(b, n)
			b.WriteString("\n")
			return
		case "li":
			newline(b)
			b.WriteString("- ")
			writeChildren(b, n)
			newline(b)
			return
		case "a":
			writeChildren(b, n)
			if href := attr(n, "href"); href != "" && strings.HasPrefix(href, "http") && !strings.Contains(nodeText(n), href) {
				b.WriteString(" (" + href + ")")
			}
			return
		}

		if isBlock(n.Data) {
			paragraph(b)
			writeChildren(b, n)
			paragraph(b)
			return
		}
	}

	writeChildren(b, n)
}

func writeChildren(b *strings.Builder, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNode(b, c)
	}
}

func writeText(b *strings.Builder, data string) {
	text := strings.Join(strings.Fields(data), " ")
	if text == "" {
		if data != "" && !endsWithSpace(b) {
			b.WriteString(" ")
		}
		return
	}

	if isSpace(rune(data[0])) && !endsWithSpace(b) {
		b.WriteString(" ")
	}
	b.WriteString(text)
	if isSpace(rune(data[len(data)-1])) {
		b.WriteString(" ")
	}
}

func writeDataTable(b *strings.Builder, table *html.Node) {
	newline(b)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			cells := make([]string, 0, countCellsInRow(n))
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, strings.Join(strings.Fields(nodeText(c)), " "))
				}
			}
			if len(cells) > 0 {
				b.WriteString(strings.Join(cells, " | "))
				b.WriteString("\n")
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
}

// isLayoutTable reports whether a table only positions content: no header
// cells and a single column.
func isLayoutTable(table *html.Node) bool {
	if hasTableHeaders(table) {
		return false
	}

	return countTableColumns(table) <= 1
}

func hasTableHeaders(n *html.Node) bool {
	if n.Type == html.ElementNode && (n.Data == "th" || n.Data == "thead") {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasTableHeaders(c) {
			return true
		}
	}
	return false
}

func countTableColumns(n *html.Node) int {
	maxCols := 0
	if n.Type == html.ElementNode && n.Data == "tr" {
		maxCols = countCellsInRow(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		// nested tables are judged on their own
		if c.Type == html.ElementNode && c.Data == "table" {
			continue
		}
		if cols := countTableColumns(c); cols > maxCols {
			maxCols = cols
		}
	}
	return maxCols
}

func countCellsInRow(row *html.Node) int {
	cols := 0
	for c := row.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			cols++
		}
	}
	return cols
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "section", "article", "header", "footer", "blockquote", "pre",
		"h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "hr":
		return true
	}
	return false
}

func newline(b *strings.Builder) {
	if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
		b.WriteString("\n")
	}
}

func paragraph(b *strings.Builder) {
	if b.Len() == 0 {
		return
	}
	newline(b)
	if !strings.HasSuffix(b.String(), "\n\n") {
		b.WriteString("\n")
	}
}

func endsWithSpace(b *strings.Builder) bool {
	s := b.String()
	return s == "" || isSpace(rune(s[len(s)-1]))
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
