// Package topology describes the static shape of a clock-distribution tree.
//
// A [Topology] enumerates the root clock source, the divider nodes (some of
// which are interactive and carry an option list), the junction nodes that only
// route or split a path, and the terminal consumers with their nominal
// frequencies. It also carries the declarative propagation rules that say which
// terminals a divider affects, and a handful of layout and render hints.
//
// Topologies are plain data: they are decoded from TOML or YAML, validated with
// [Topology.Validate], and handed to the tree builder. Structural problems such
// as a dangling parent key or a cycle are detected when the tree is built, not
// here.
//
// # Loading
//
//	topo, err := topology.Load("board.toml")
//	if err != nil {
//	    return err
//	}
//
// [Default] returns the embedded topology of the reference board.
package topology
