package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/clocktree/pkg/topology"
	"github.com/matzehuels/clocktree/pkg/tree"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the node key and kind to every label.
	Detailed bool
}

// ToDOT converts a clock tree to Graphviz DOT format. Graphviz lays the tree
// out left to right on its own; the model's positions are ignored.
//
// Interactive dividers show their selected option, placeholder junctions are
// drawn as points, and the special terminal uses the highlight fill.
func ToDOT(m *tree.Model, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=\"#d1e9ff\", color=\"#dee2e6\", fontcolor=\"#495057\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [arrowsize=0.6];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.2;\n")
	buf.WriteString("\n")

	for _, n := range m.Nodes {
		attrs := fmtAttrs(n, fmtLabel(n, opts.Detailed))
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Key, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, c := range m.Connections {
		from, okFrom := m.Node(c.From)
		to, okTo := m.Node(c.To)
		if !okFrom || !okTo {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", from.Key, to.Key)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *tree.Node, detailed bool) string {
	lines := []string{n.Label}
	if n.Interactive {
		lines = []string{fmt.Sprintf("%s %s", n.Label, n.Selected)}
	}
	if n.Freq != nil {
		lines = append(lines, n.Freq.String())
	}
	if detailed {
		lines = append(lines, fmt.Sprintf("key: %s", n.Key), fmt.Sprintf("kind: %s", n.Kind))
	}
	return strings.Join(lines, "\n")
}

func fmtAttrs(n *tree.Node, label string) []string {
	if n.Placeholder() {
		return []string{"shape=point", "width=0.08", "label=\"\""}
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case n.Special:
		attrs = append(attrs, "fillcolor=\"#fff1b8\"")
	case n.Interactive:
		attrs = append(attrs, "style=\"rounded,filled,bold\"")
	case n.Kind == topology.KindRoot:
		attrs = append(attrs, "shape=doubleoctagon", "style=filled")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's root element with one that has a
// zero-origin viewBox and matching pixel size.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(root))
}
