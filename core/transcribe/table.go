package transcribe

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// table renders a pipe table. The header is the first <thead> row, else the
// first row of the table; it is never repeated among the body rows.
type table struct{}

func (table) format(t *Transcriber, n *html.Node) string {
	s := selection(n)
	headRows := s.ChildrenFiltered("thead").ChildrenFiltered("tr").Nodes
	bodyRows := s.ChildrenFiltered("tbody").ChildrenFiltered("tr").Nodes
	all := tableRows(n)

	var header *html.Node
	switch {
	case len(headRows) > 0:
		header = headRows[0]
	case len(all) > 0:
		header = all[0]
	}

	rows := bodyRows
	if len(rows) == 0 {
		rows = all
		if len(headRows) > 0 && len(all) > 0 {
			rows = all[1:]
		}
	}

	var b strings.Builder
	if header != nil {
		cells := rowCells(header)
		b.WriteString("|")
		for _, c := range cells {
			b.WriteString(" " + cellText(t, c) + " |")
		}
		b.WriteString("\n|")
		b.WriteString(strings.Repeat(" --- |", len(cells)))
		b.WriteString("\n")
	}
	for _, row := range rows {
		if row == header {
			continue
		}
		b.WriteString("|")
		for _, c := range rowCells(row) {
			b.WriteString(" " + cellText(t, c) + " |")
		}
		b.WriteString("\n")
	}

	if b.Len() == 0 {
		return ""
	}
	return b.String() + "\n"
}

// tableRows lists every row of n in document order, including rows the
// parser placed inside an implied <tbody>.
func tableRows(n *html.Node) []*html.Node {
	var rows []*html.Node
	selection(n).Children().Each(func(_ int, c *goquery.Selection) {
		switch c.Get(0).DataAtom {
		case atom.Tr:
			rows = append(rows, c.Get(0))
		case atom.Thead, atom.Tbody, atom.Tfoot:
			rows = append(rows, c.ChildrenFiltered("tr").Nodes...)
		}
	})
	return rows
}

func rowCells(row *html.Node) []*html.Node {
	return selection(row).ChildrenFiltered("th, td").Nodes
}

// cellText flattens one cell: pipes are escaped and newline runs become
// inline breaks so the row stays on one line.
func cellText(t *Transcriber, cell *html.Node) string {
	text := strings.TrimSpace(t.children(cell))
	text = strings.ReplaceAll(text, "|", `\|`)
	return newlineRunRe.ReplaceAllString(text, " <br> ")
}
