// Copyright © 2024 Zach Witz <zachwitz@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package recon

import (
	"math"
	"sync"

	"github.com/zachwitz/empress/tree"
)

// A Table is the dynamic programming table
// of a reconciliation under a fixed cost vector.
// For every pairing of a parasite node with a host node
// it holds the minimum cost of reconciling
// the parasite subtree when placed at the host node,
// and when placed anywhere below the host node's edge
// (to account for losses and transfer landings).
// A table is built once and never mutated,
// so it can be shared by concurrent readers.
type Table struct {
	host     *tree.Tree
	parasite *tree.Tree
	tips     []int // parasite terminal -> host terminal, -1 if unmapped
	costs    Costs

	// all slices are indexed [parasite node][host node]
	at    [][]float64 // placed exactly at the host node
	below [][]float64 // placed at the node or below it, losses charged
	sub   [][]float64 // best below value within the host subtree
	far   [][]float64 // best below value at any incomparable host node

	opt      float64
	feasible bool
	roots    []int // host nodes where the parasite root attains the optimum

	once sync.Once
	enum *solver
}

// New computes the reconciliation table
// of the parasite tree over the host tree
// under the given tip map and cost vector.
// Both trees must be validated.
// A tip map entry naming an unknown or internal host
// is a MappingError;
// an unmapped parasite terminal may sit
// on any host terminal at no cost.
func New(host, parasite *tree.Tree, tips *tree.TipMap, cs Costs) (*Table, error) {
	if err := cs.Validate(); err != nil {
		return nil, err
	}

	tb := &Table{
		host:     host,
		parasite: parasite,
		tips:     make([]int, parasite.Len()),
		costs:    cs,
	}
	for i := range tb.tips {
		tb.tips[i] = -1
	}
	for _, p := range parasite.Postorder() {
		if !parasite.IsTerm(p) {
			continue
		}
		tax := parasite.Taxon(p)
		hTax, ok := tips.Host(tax)
		if !ok {
			continue
		}
		h := host.TaxNode(hTax)
		if h < 0 {
			return nil, &MappingError{Parasite: tax, Host: hTax, Msg: "host terminal not in host tree"}
		}
		tb.tips[p] = h
	}

	tb.fill()
	return tb, nil
}

// Fill runs the recurrence:
// parasite nodes in post-order,
// and for each parasite node
// the host nodes in post-order for the at and below passes,
// then in pre-order for the incomparable-best aggregate
// used by transfer events.
func (tb *Table) fill() {
	np, nh := tb.parasite.Len(), tb.host.Len()
	tb.at = newMatrix(np, nh)
	tb.below = newMatrix(np, nh)
	tb.sub = newMatrix(np, nh)
	tb.far = newMatrix(np, nh)

	hpost := tb.host.Postorder()
	for _, p := range tb.parasite.Postorder() {
		term := tb.parasite.IsTerm(p)
		p1, p2 := tb.parasite.Children(p)

		for _, h := range hpost {
			at := math.Inf(1)
			if term {
				if tb.host.IsTerm(h) && (tb.tips[p] == h || tb.tips[p] == -1) {
					at = 0
				}
			} else {
				if !tb.host.IsTerm(h) {
					h1, h2 := tb.host.Children(h)
					c := tb.costs.Cospeciation + math.Min(
						tb.below[p1][h1]+tb.below[p2][h2],
						tb.below[p1][h2]+tb.below[p2][h1])
					at = math.Min(at, c)
				}
				d := tb.costs.Duplication + tb.below[p1][h] + tb.below[p2][h]
				at = math.Min(at, d)

				tr := tb.costs.Transfer + math.Min(
					tb.below[p1][h]+tb.far[p2][h],
					tb.below[p2][h]+tb.far[p1][h])
				at = math.Min(at, tr)
			}
			tb.at[p][h] = at

			below := at
			sub := math.Inf(1)
			if !tb.host.IsTerm(h) {
				h1, h2 := tb.host.Children(h)
				below = math.Min(below, tb.costs.Loss+tb.below[p][h1])
				below = math.Min(below, tb.costs.Loss+tb.below[p][h2])
				sub = math.Min(tb.sub[p][h1], tb.sub[p][h2])
			}
			tb.below[p][h] = below
			tb.sub[p][h] = math.Min(below, sub)
		}

		// pre-order: the nodes incomparable with a child
		// are the nodes incomparable with its parent
		// plus the subtree of its sibling
		tb.far[p][tb.host.Root()] = math.Inf(1)
		for i := len(hpost) - 1; i >= 0; i-- {
			h := hpost[i]
			if tb.host.IsTerm(h) {
				continue
			}
			h1, h2 := tb.host.Children(h)
			tb.far[p][h1] = math.Min(tb.far[p][h], tb.sub[p][h2])
			tb.far[p][h2] = math.Min(tb.far[p][h], tb.sub[p][h1])
		}
	}

	root := tb.parasite.Root()
	tb.opt = math.Inf(1)
	for _, h := range hpost {
		if tb.at[root][h] < tb.opt {
			tb.opt = tb.at[root][h]
		}
	}
	tb.feasible = !math.IsInf(tb.opt, 1)
	if !tb.feasible {
		return
	}
	for _, h := range hpost {
		if approxEq(tb.at[root][h], tb.opt) {
			tb.roots = append(tb.roots, h)
		}
	}
}

func newMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	buf := make([]float64, rows*cols)
	for i := range m {
		m[i] = buf[i*cols : (i+1)*cols]
	}
	return m
}

// Optimum returns the global minimum reconciliation cost.
// The second value is false
// if no reconciliation exists
// under the given tip map.
func (tb *Table) Optimum() (float64, bool) {
	return tb.opt, tb.feasible
}

// Costs returns the cost vector used to build the table.
func (tb *Table) Costs() Costs { return tb.costs }

// Host returns the host tree of the table.
func (tb *Table) Host() *tree.Tree { return tb.host }

// Parasite returns the parasite tree of the table.
func (tb *Table) Parasite() *tree.Tree { return tb.parasite }

// At returns the minimum cost
// of reconciling the parasite subtree
// placed exactly at the host node.
func (tb *Table) At(p, h int) float64 { return tb.at[p][h] }

// Below returns the minimum cost
// of reconciling the parasite subtree
// placed at the host node or below its edge.
func (tb *Table) Below(p, h int) float64 { return tb.below[p][h] }
