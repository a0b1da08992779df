package render

import (
	"bytes"
	"html/template"
	"slices"
	"strings"

	"github.com/nao1215/prism/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TableClass is the class attribute of every generated table fragment.
const TableClass = "prism-table"

// TableFragment renders t as an HTML <table> element.
// The header row goes in <thead>, every row in <tbody>, and numeric cells
// get the class "num". Cell text is escaped.
func TableFragment(t *model.Table) (template.HTML, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}

	table := element(atom.Table, "class", TableClass, "data-section", t.Name)

	thead := element(atom.Thead)
	head := element(atom.Tr)
	for _, col := range t.Columns {
		th := element(atom.Th)
		th.AppendChild(text(col))
		head.AppendChild(th)
	}
	thead.AppendChild(head)
	table.AppendChild(thead)

	tbody := element(atom.Tbody)
	for _, row := range t.Rows {
		tr := element(atom.Tr)
		for _, cell := range row {
			var td *html.Node
			if _, ok := model.ToFloat(cell); ok {
				td = element(atom.Td, "class", "num")
			} else {
				td = element(atom.Td)
			}
			td.AppendChild(text(model.FormatCell(cell)))
			tr.AppendChild(td)
		}
		tbody.AppendChild(tr)
	}
	table.AppendChild(tbody)

	var buf bytes.Buffer
	if err := html.Render(&buf, table); err != nil {
		return "", model.Wrap(model.ErrRender, "render table "+t.Name, err)
	}
	return template.HTML(buf.String()), nil //nolint:gosec // Built from escaped text nodes
}

// ParseTables extracts every <table> in markup, in document order.
// Header cells come from <th> cells of the first row (or <thead>); cell
// values are parsed with model.ParseCell. The table name is taken from
// data-section, then <caption>.
func ParseTables(markup string) ([]*model.Table, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, model.Wrap(model.ErrRender, "parse markup", err)
	}

	var tables []*model.Table
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Table {
			grid := readTable(n)
			t := model.NewTable(grid.name, grid.header...)
			for _, row := range grid.rows {
				cells := make([]any, len(row))
				for i, c := range row {
					cells[i] = model.ParseCell(c)
				}
				t.Rows = append(t.Rows, cells)
			}
			tables = append(tables, t)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return tables, nil
}

// tableGrid is the text content of a <table> element.
type tableGrid struct {
	name    string
	caption string
	header  []string
	rows    [][]string
}

// readTable collects the rows of a table node. Nested tables are not
// descended into.
func readTable(n *html.Node) tableGrid {
	grid := tableGrid{name: getAttr(n, "data-section")}

	var walk func(*html.Node, bool)
	walk = func(n *html.Node, inHead bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Caption:
				grid.caption = textContent(c)
			case atom.Thead:
				walk(c, true)
			case atom.Tbody, atom.Tfoot:
				walk(c, false)
			case atom.Tr:
				var cells []string
				allHeader := true
				for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type != html.ElementNode {
						continue
					}
					switch cell.DataAtom {
					case atom.Th:
						cells = append(cells, textContent(cell))
					case atom.Td:
						allHeader = false
						cells = append(cells, textContent(cell))
					}
				}
				if grid.header == nil && len(grid.rows) == 0 && (inHead || allHeader) {
					grid.header = cells
				} else {
					grid.rows = append(grid.rows, cells)
				}
			}
		}
	}
	walk(n, false)

	if grid.name == "" {
		grid.name = grid.caption
	}
	return grid
}

// element creates an element node with the given attribute key/value pairs.
func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// getAttr returns the value of the named attribute, or "".
func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// hasClass reports whether n carries class in its class attribute.
func hasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(getAttr(n, "class")), class)
}

// textContent returns the whitespace-collapsed text below n.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			if n.DataAtom == atom.Br {
				b.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
