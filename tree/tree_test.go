// Copyright © 2024 Zach Witz <zachwitz@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package tree_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/zachwitz/empress/tree"
)

func TestNewick(t *testing.T) {
	tr, err := tree.Newick(strings.NewReader("((a:1.2,b:0.7)ab:0.3,c)root;"), "host")
	if err != nil {
		t.Fatalf("unable to read tree: %v", err)
	}

	if got := tr.Name(); got != "host" {
		t.Errorf("name: got %q, want %q", got, "host")
	}
	if got := tr.Len(); got != 5 {
		t.Errorf("nodes: got %d, want %d", got, 5)
	}

	want := []string{"a", "b", "c"}
	got := tr.Terms()
	if len(got) != len(want) {
		t.Fatalf("terms: got %v, want %v", got, want)
	}
	for i, tax := range want {
		if got[i] != tax {
			t.Errorf("terms: got %v, want %v", got, want)
			break
		}
	}

	for _, tax := range want {
		id := tr.TaxNode(tax)
		if id < 0 {
			t.Errorf("taxon %q: not found", tax)
			continue
		}
		if !tr.IsTerm(id) {
			t.Errorf("taxon %q: not a terminal", tax)
		}
		if gt := tr.Taxon(id); gt != tax {
			t.Errorf("taxon: got %q, want %q", gt, tax)
		}
	}
	if id := tr.TaxNode("not-in-tree"); id != -1 {
		t.Errorf("unknown taxon: got node %d, want -1", id)
	}
}

func TestNewickSingleTerm(t *testing.T) {
	tr, err := tree.Newick(strings.NewReader("a;"), "host")
	if err != nil {
		t.Fatalf("unable to read tree: %v", err)
	}
	if got := tr.Len(); got != 1 {
		t.Errorf("nodes: got %d, want 1", got)
	}
	if !tr.IsTerm(tr.Root()) {
		t.Errorf("root: expecting a terminal")
	}
}

func TestNewickMalformed(t *testing.T) {
	tests := map[string]string{
		"polytomy":       "(a,b,c);",
		"single child":   "((a),b);",
		"repeated taxon": "(a,a);",
		"unclosed":       "((a,b),c",
		"empty clade":    "(,a);",
	}
	for name, nwk := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := tree.Newick(strings.NewReader(nwk), name)
			if err == nil {
				t.Fatalf("reading %q: expecting error", nwk)
			}
			var mf *tree.MalformedError
			if !errors.As(err, &mf) {
				t.Errorf("reading %q: got error %v, want a MalformedError", nwk, err)
			}
		})
	}
}

func TestPostorder(t *testing.T) {
	tr, err := tree.Newick(strings.NewReader("((a,b),c);"), "host")
	if err != nil {
		t.Fatalf("unable to read tree: %v", err)
	}

	post := tr.Postorder()
	if len(post) != tr.Len() {
		t.Fatalf("postorder: got %d nodes, want %d", len(post), tr.Len())
	}
	seen := make(map[int]bool, len(post))
	for _, id := range post {
		c1, c2 := tr.Children(id)
		if c1 != -1 && (!seen[c1] || !seen[c2]) {
			t.Errorf("node %d: visited before its children", id)
		}
		seen[id] = true
	}
	if last := post[len(post)-1]; last != tr.Root() {
		t.Errorf("postorder: last node %d, want root %d", last, tr.Root())
	}
}

func TestAncestry(t *testing.T) {
	tr, err := tree.Newick(strings.NewReader("((a,b),c);"), "host")
	if err != nil {
		t.Fatalf("unable to read tree: %v", err)
	}

	a := tr.TaxNode("a")
	b := tr.TaxNode("b")
	c := tr.TaxNode("c")
	ab := tr.Parent(a)

	if tr.Parent(b) != ab {
		t.Errorf("parent of %d: got %d, want %d", b, tr.Parent(b), ab)
	}
	if !tr.IsAncestor(tr.Root(), a) {
		t.Errorf("root should be an ancestor of node %d", a)
	}
	if !tr.IsAncestor(ab, b) {
		t.Errorf("node %d should be an ancestor of node %d", ab, b)
	}
	if tr.IsAncestor(a, ab) {
		t.Errorf("node %d should not be an ancestor of node %d", a, ab)
	}
	if tr.IsAncestor(a, a) {
		t.Errorf("a node is not its own ancestor")
	}

	if tr.Comparable(a, b) {
		t.Errorf("nodes %d and %d should be incomparable", a, b)
	}
	if tr.Comparable(ab, c) {
		t.Errorf("nodes %d and %d should be incomparable", ab, c)
	}
	if !tr.Comparable(ab, a) {
		t.Errorf("nodes %d and %d should be comparable", ab, a)
	}
	if !tr.Comparable(c, c) {
		t.Errorf("a node should be comparable with itself")
	}
}

func TestTipMap(t *testing.T) {
	data := `# parasite	host
A	a
B	b
C	a
`
	m, err := tree.ReadTipMap(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unable to read tip map: %v", err)
	}

	if got := m.Len(); got != 3 {
		t.Errorf("mapped terminals: got %d, want 3", got)
	}
	want := map[string]string{"A": "a", "B": "b", "C": "a"}
	for p, h := range want {
		got, ok := m.Host(p)
		if !ok {
			t.Errorf("parasite %q: not mapped", p)
			continue
		}
		if got != h {
			t.Errorf("parasite %q: got host %q, want %q", p, got, h)
		}
	}
	if _, ok := m.Host("Z"); ok {
		t.Errorf("parasite %q: should be unmapped", "Z")
	}

	ps := m.Parasites()
	wantPs := []string{"A", "B", "C"}
	for i, p := range wantPs {
		if ps[i] != p {
			t.Errorf("parasites: got %v, want %v", ps, wantPs)
			break
		}
	}
}

func TestTipMapErrors(t *testing.T) {
	tests := map[string]string{
		"three fields":       "A\ta\textra\n",
		"conflicting remaps": "A\ta\nA\tb\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := tree.ReadTipMap(strings.NewReader(data)); err == nil {
				t.Errorf("reading %q: expecting error", data)
			}
		})
	}
}
