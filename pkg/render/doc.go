// Package render draws a laid out clock tree onto an abstract 2D surface.
//
// # Overview
//
// The [Renderer] reads a [tree.Model] and issues draw calls against a
// [Surface]: stroked connector paths, filled arrowheads, rounded node boxes
// and text. It keeps no state between calls, so rendering the same model twice
// produces the same draw calls.
//
// Surfaces live in the [sink] subpackage:
//
//   - [sink.SVG]: writes an SVG document
//   - [sink.PNG]: rasterizes with fogleman/gg
//   - [sink.Recorder]: records calls, for tests and the JSON frame dump
//
// A Graphviz node-link view of the same tree is available in [nodelink].
//
// # Connectors
//
// Connections are grouped by parent. A parent with one child gets a three
// segment orthogonal route that turns a fixed [DefaultGap] before the child.
// A parent with several children gets a vertical trunk [DefaultGap] before its
// leftmost child and one horizontal leg per child. The node named by the
// model's lead_in render hint is routed with a fixed [DefaultLeadIn] segment
// out of its right edge and the trunk placed at the end of that segment.
// Arrowheads are only drawn into labelled children.
//
// # Nodes
//
// Placeholder nodes (empty label) and interactive nodes are not drawn; hosts
// overlay live controls on interactive nodes, and [Renderer.DrawControlFace]
// draws a static stand-in for exports. The special terminal's frequency is
// badged in red when it drops below the highlight threshold.
//
// [sink]: github.com/matzehuels/clocktree/pkg/render/sink
// [sink.SVG]: github.com/matzehuels/clocktree/pkg/render/sink#SVG
// [sink.PNG]: github.com/matzehuels/clocktree/pkg/render/sink#PNG
// [sink.Recorder]: github.com/matzehuels/clocktree/pkg/render/sink#Recorder
// [nodelink]: github.com/matzehuels/clocktree/pkg/render/nodelink
package render
