// Package nodelink renders a clock tree as a Graphviz node-link diagram.
//
// # Overview
//
// The native diagram places nodes in fixed columns with orthogonal
// connectors. This package offers a second view of the same tree where
// Graphviz does the layout: nodes are boxes annotated with their frequency,
// connected left to right by arrows. It is useful for checking a new topology
// file before tuning its columns.
//
// # Usage
//
//	dot := nodelink.ToDOT(model, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz], which runs Graphviz
// in-process through WebAssembly; no system Graphviz install is needed.
package nodelink
