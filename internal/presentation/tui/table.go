package tui

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// table is the cell text of one HTML <table>.
type table struct {
	header []string
	rows   [][]string
}

// HTMLToMarkdown converts engine HTML into markdown. Tables become pipe tables,
// everything else is reduced to its text with one line per block element.
func HTMLToMarkdown(src string) (string, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
			return
		case n.Type == html.ElementNode && n.DataAtom == atom.Table:
			endLine(&b)
			b.WriteString(parseTable(n).markdown())
			return
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			b.WriteByte('\n')
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlock(n.DataAtom) {
			endLine(&b)
		}
	}
	walk(doc)

	return strings.TrimSpace(b.String()), nil
}

// StripTags returns the text content of src with entities decoded.
func StripTags(src string) string {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return html.UnescapeString(src)
	}
	return strings.TrimSpace(textOf(doc))
}

func parseTable(n *html.Node) table {
	var t table
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
			var cells []string
			headerRow := n.Parent != nil && n.Parent.DataAtom == atom.Thead
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.ElementNode {
					continue
				}
				switch c.DataAtom {
				case atom.Th:
					headerRow = true
					cells = append(cells, cellText(c))
				case atom.Td:
					cells = append(cells, cellText(c))
				}
			}
			if headerRow && t.header == nil {
				t.header = cells
			} else {
				t.rows = append(t.rows, cells)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)

	if t.header == nil && len(t.rows) > 0 {
		t.header, t.rows = t.rows[0], t.rows[1:]
	}
	return t
}

func (t table) markdown() string {
	width := len(t.header)
	for _, r := range t.rows {
		width = max(width, len(r))
	}
	if width == 0 {
		return ""
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for i := 0; i < width; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			b.WriteString(" " + cell + " |")
		}
		b.WriteString("\n")
	}

	writeRow(t.header)
	b.WriteString("|")
	for i := 0; i < width; i++ {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, r := range t.rows {
		writeRow(r)
	}
	return b.String()
}

func cellText(n *html.Node) string {
	s := strings.Join(strings.Fields(textOf(n)), " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textOf(c))
		if c.Type == html.ElementNode && (isBlock(c.DataAtom) || c.DataAtom == atom.Br) {
			endLine(&b)
		}
	}
	return b.String()
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Pre, atom.Tr, atom.Li, atom.H1, atom.H2, atom.H3, atom.H4, atom.Table:
		return true
	}
	return false
}

func endLine(b *strings.Builder) {
	s := b.String()
	if s != "" && !strings.HasSuffix(s, "\n") {
		b.WriteByte('\n')
	}
}
