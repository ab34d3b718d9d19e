package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/clocktree/pkg/topology"
	"github.com/matzehuels/clocktree/pkg/tree"
)

func defaultModel(t *testing.T) *tree.Model {
	t.Helper()
	m, err := tree.Build(topology.Default(), tree.Frame{Width: 1400, Height: 1000, Scale: 1})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(defaultModel(t), Options{})

	for _, want := range []string{
		"digraph G {",
		"rankdir=LR;",
		`"pll" -> "cpu_div";`,
		`"apb" -> "uart";`,
		`"wifi" [label="WiFi\n160MHz", fillcolor="#fff1b8"];`,
		`"cpu_div" [label="CPU 1/2", style="rounded,filled,bold"];`,
		`"timer_fanout" [shape=point`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
	if got := strings.Count(dot, "->"); got != 29 {
		t.Errorf("edges = %d, want 29", got)
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(defaultModel(t), Options{Detailed: true})
	if !strings.Contains(dot, `key: adc\nkind: terminal`) {
		t.Errorf("detailed label missing\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.50 200.00" xmlns="x"><g/></svg>`)
	out := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.50 200.00" width="100" height="200"><g/></svg>`
	if out != want {
		t.Errorf("normalizeViewBox = %s", out)
	}
}
