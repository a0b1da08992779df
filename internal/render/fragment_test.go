package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/prism/internal/model"
)

func sampleTable(t *testing.T) *model.Table {
	t.Helper()
	table := model.NewTable("Sales", "Name", "Value")
	if err := table.AppendRow("alpha", int64(1)); err != nil {
		t.Fatal(err)
	}
	if err := table.AppendRow("<beta>", 2.5); err != nil {
		t.Fatal(err)
	}
	return table
}

func TestTableFragment(t *testing.T) {
	t.Parallel()

	t.Run("renders header and rows", func(t *testing.T) {
		t.Parallel()

		frag, err := TableFragment(sampleTable(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		s := string(frag)
		for _, want := range []string{
			`<table class="prism-table" data-section="Sales">`,
			`<th>Name</th><th>Value</th>`,
			`<td class="num">1</td>`,
			`&lt;beta&gt;`,
		} {
			if !strings.Contains(s, want) {
				t.Errorf("expected %q in %s", want, s)
			}
		}
		if got := strings.Count(s, "<tr>"); got != 3 {
			t.Errorf("expected 3 rows including the header, got %d", got)
		}
	})

	t.Run("rejects ragged tables", func(t *testing.T) {
		t.Parallel()

		table := model.NewTable("Bad", "A", "B")
		table.Rows = append(table.Rows, []any{"only one"})
		if _, err := TableFragment(table); !errors.Is(err, model.ErrInvalidTable) {
			t.Errorf("expected ErrInvalidTable, got %v", err)
		}
	})
}

func TestParseTables(t *testing.T) {
	t.Parallel()

	t.Run("round trip keeps rows and column order", func(t *testing.T) {
		t.Parallel()

		src := sampleTable(t)
		frag, err := TableFragment(src)
		if err != nil {
			t.Fatal(err)
		}

		tables, err := ParseTables("<body>" + string(frag) + "</body>")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tables) != 1 {
			t.Fatalf("expected 1 table, got %d", len(tables))
		}
		got := tables[0]
		if got.Name != "Sales" {
			t.Errorf("expected name Sales, got %q", got.Name)
		}
		if got.RowCount() != src.RowCount() {
			t.Errorf("expected %d rows, got %d", src.RowCount(), got.RowCount())
		}
		for i, col := range src.Columns {
			if got.Columns[i] != col {
				t.Errorf("column %d: expected %q, got %q", i, col, got.Columns[i])
			}
		}
		if got.Rows[1][0] != "<beta>" {
			t.Errorf("expected unescaped text, got %v", got.Rows[1][0])
		}
	})

	t.Run("keeps document order", func(t *testing.T) {
		t.Parallel()

		markup := `<table data-section="B"><tr><th>x</th></tr></table>
<div><table><caption>A</caption><tr><th>y</th></tr><tr><td>1</td></tr></table></div>`
		tables, err := ParseTables(markup)
		if err != nil {
			t.Fatal(err)
		}
		if len(tables) != 2 || tables[0].Name != "B" || tables[1].Name != "A" {
			t.Fatalf("unexpected tables: %+v", tables)
		}
		if tables[1].RowCount() != 1 {
			t.Errorf("expected 1 row, got %d", tables[1].RowCount())
		}
	})
}
