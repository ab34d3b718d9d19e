// Package tree builds the positioned node set of a clock diagram.
//
// # Overview
//
// [Build] turns a [topology.Topology] into a [Model] for one container frame.
// Every node receives its final x position and size; y is a placeholder that
// the layout engine overwrites. Terminals are spaced evenly by the topology's
// terminal pitch and centred on the origin row, all other nodes start on the
// origin row.
//
// Rebuilds fully replace state. Node identifiers are fresh on every build, so
// callers that need stable identity across frames use [Node.Key] instead.
//
// # Connections
//
// A [Connection] exists for every node with a parent and points from parent
// to child. Connections are derived at build time and are never edited.
//
// # Errors
//
// A topology whose parent links do not form a single rooted tree fails with a
// MALFORMED_TOPOLOGY error (see package errors). Callers skip rendering for
// that rebuild and keep their previous frame.
package tree
