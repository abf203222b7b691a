// Copyright © 2024 Zach Witz <zachwitz@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package tree implements the rooted binary trees
// used in a DTL reconciliation analysis,
// as well as the tip map
// that associates the leaves of a parasite tree
// with the leaves of its host tree.
package tree

import (
	"fmt"
	"sort"
)

// A MalformedError is the error produced
// when a tree violates the structural invariants
// of a reconciliation analysis
// (single root, strictly binary, unique identifiers).
type MalformedError struct {
	Tree string // tree name
	Node string // offending node, if known
	Msg  string
}

func (e *MalformedError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("tree %q: %s", e.Tree, e.Msg)
	}
	return fmt.Sprintf("tree %q: node %q: %s", e.Tree, e.Node, e.Msg)
}

// A Tree is a rooted strictly binary phylogenetic tree.
// Nodes are identified by consecutive integers,
// with the root at 0.
// After a call to Validate the tree is immutable.
type Tree struct {
	name  string
	nodes []*node
	taxa  map[string]int

	post []int // node IDs in post-order
	val  bool
}

type node struct {
	id       int
	parent   int
	children [2]int
	taxon    string

	// pre-order interval of the subtree,
	// used for ancestry queries
	preIn, preOut int
}

// New creates a new empty tree with the indicated name
// and a root node.
func New(name string) *Tree {
	t := &Tree{
		name: name,
		taxa: make(map[string]int),
	}
	t.nodes = append(t.nodes, &node{
		id:       0,
		parent:   -1,
		children: [2]int{-1, -1},
	})
	return t
}

// Add adds a new node as a child of the indicated node
// and returns the ID of the added node.
// If taxon is not empty,
// the node is a terminal with that taxon name.
// It panics if called after Validate.
func (t *Tree) Add(parent int, taxon string) (int, error) {
	if t.val {
		panic("tree: add on a validated tree")
	}
	if parent < 0 || parent >= len(t.nodes) {
		return -1, &MalformedError{Tree: t.name, Msg: fmt.Sprintf("parent node %d not in tree", parent)}
	}
	p := t.nodes[parent]
	if p.taxon != "" {
		return -1, &MalformedError{Tree: t.name, Node: p.taxon, Msg: "parent is a terminal"}
	}
	if p.children[1] != -1 {
		return -1, &MalformedError{Tree: t.name, Msg: fmt.Sprintf("node %d: more than two children", parent)}
	}
	if taxon != "" {
		if _, dup := t.taxa[taxon]; dup {
			return -1, &MalformedError{Tree: t.name, Node: taxon, Msg: "repeated taxon name"}
		}
	}

	n := &node{
		id:       len(t.nodes),
		parent:   parent,
		children: [2]int{-1, -1},
		taxon:    taxon,
	}
	if p.children[0] == -1 {
		p.children[0] = n.id
	} else {
		p.children[1] = n.id
	}
	t.nodes = append(t.nodes, n)
	if taxon != "" {
		t.taxa[taxon] = n.id
	}
	return n.id, nil
}

// Validate checks that the tree is strictly binary,
// freezes the tree,
// and builds the traversal indexes
// used by the reconciliation machinery.
func (t *Tree) Validate() error {
	if t.val {
		return nil
	}
	for _, n := range t.nodes {
		if n.taxon != "" {
			continue
		}
		if n.children[0] == -1 || n.children[1] == -1 {
			return &MalformedError{Tree: t.name, Msg: fmt.Sprintf("node %d: internal node without two children", n.id)}
		}
	}
	if len(t.nodes) == 1 && t.nodes[0].taxon == "" {
		return &MalformedError{Tree: t.name, Msg: "empty tree"}
	}

	t.post = t.post[:0]
	pre := 0
	var walk func(id int)
	walk = func(id int) {
		n := t.nodes[id]
		n.preIn = pre
		pre++
		if n.taxon == "" {
			walk(n.children[0])
			walk(n.children[1])
		}
		n.preOut = pre
		t.post = append(t.post, id)
	}
	walk(0)
	if len(t.post) != len(t.nodes) {
		return &MalformedError{Tree: t.name, Msg: "disconnected nodes"}
	}

	t.val = true
	return nil
}

// Name returns the name of the tree.
func (t *Tree) Name() string { return t.name }

// Len returns the number of nodes of the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// Root returns the ID of the root node.
func (t *Tree) Root() int { return 0 }

// IsRoot returns true if the indicated node is the root.
func (t *Tree) IsRoot(id int) bool { return id == 0 }

// IsTerm returns true if the indicated node is a terminal.
func (t *Tree) IsTerm(id int) bool { return t.nodes[id].taxon != "" }

// Parent returns the ID of the parent of the indicated node,
// or -1 for the root.
func (t *Tree) Parent(id int) int { return t.nodes[id].parent }

// Children returns the IDs of the two children
// of the indicated node.
// For a terminal both IDs are -1.
func (t *Tree) Children(id int) (int, int) {
	n := t.nodes[id]
	return n.children[0], n.children[1]
}

// Taxon returns the taxon name of a terminal node,
// or an empty string for an internal node.
func (t *Tree) Taxon(id int) string { return t.nodes[id].taxon }

// TaxNode returns the node ID of the terminal
// with the given taxon name.
// It returns -1 if the taxon is not in the tree.
func (t *Tree) TaxNode(taxon string) int {
	id, ok := t.taxa[taxon]
	if !ok {
		return -1
	}
	return id
}

// Terms returns the taxon names of the tree,
// sorted alphabetically.
func (t *Tree) Terms() []string {
	terms := make([]string, 0, len(t.taxa))
	for tax := range t.taxa {
		terms = append(terms, tax)
	}
	sort.Strings(terms)
	return terms
}

// Postorder returns the node IDs of the tree in post-order,
// children always before their parent.
// The tree must be validated.
func (t *Tree) Postorder() []int {
	if !t.val {
		panic("tree: postorder on a non-validated tree")
	}
	return t.post
}

// IsAncestor returns true if node an is a strict ancestor
// of node id.
func (t *Tree) IsAncestor(an, id int) bool {
	if an == id {
		return false
	}
	a := t.nodes[an]
	n := t.nodes[id]
	return n.preIn > a.preIn && n.preOut <= a.preOut
}

// Comparable returns true if one of the nodes
// is an ancestor of the other,
// or if both nodes are the same.
// Transfer events are only valid between non-comparable nodes.
func (t *Tree) Comparable(n1, n2 int) bool {
	if n1 == n2 {
		return true
	}
	return t.IsAncestor(n1, n2) || t.IsAncestor(n2, n1)
}
