// Copyright © 2024 Zach Witz <zachwitz@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package recon

import (
	"math/big"
	"math/rand/v2"
	"sync"
)

// MaxEnumerate is the safety ceiling
// of the number of reconciliations
// that Enumerate will materialize.
// The number of optimal reconciliations
// is exponential in the tree size in the worst case,
// so requests above the ceiling are rejected
// with a CapacityError instead of exhausting memory.
const MaxEnumerate = 100_000

// Pseudo events used only inside the backtracking cells.
const (
	lossStep EventType = 254 // descend one host edge, charging a loss
	descend  EventType = 255 // recurse into a cell without charging an event
)

// A cellKey identifies a cell of the table
// during backtracking:
// a parasite node,
// a host node,
// and whether the parasite is placed below the host edge
// or exactly at the host node.
type cellKey struct {
	p, h  int
	below bool
}

// An option is one choice that attains the minimum
// of a cell,
// with the number of optimal realizations
// of the subtree under that choice.
type option struct {
	ev     EventType
	target int
	kids   []cellKey
	count  *big.Int
}

type cell struct {
	total *big.Int
	opts  []option
}

// A solver memoizes the per-cell optimal choices
// and realization counts of a table.
// The same sub-problem recurs under many root choices,
// so cells are built once and shared.
type solver struct {
	tb *Table

	mu   sync.Mutex
	memo map[cellKey]*cell
	root *cell
}

func (tb *Table) solve() *solver {
	tb.once.Do(func() {
		s := &solver{
			tb:   tb,
			memo: make(map[cellKey]*cell),
		}
		root := &cell{total: big.NewInt(0)}
		if tb.feasible {
			pr := tb.parasite.Root()
			for _, h := range tb.roots {
				k := cellKey{p: pr, h: h}
				c := s.cell(k)
				root.opts = append(root.opts, option{
					ev:     descend,
					target: -1,
					kids:   []cellKey{k},
					count:  c.total,
				})
				root.total = new(big.Int).Add(root.total, c.total)
			}
		}
		s.root = root
		tb.enum = s
	})
	return tb.enum
}

// Cell returns the memoized cell of a key,
// building it on first use.
func (s *solver) cell(k cellKey) *cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cellLocked(k)
}

func (s *solver) cellLocked(k cellKey) *cell {
	if c, ok := s.memo[k]; ok {
		return c
	}
	c := &cell{total: big.NewInt(0)}
	s.memo[k] = c

	if k.below {
		s.belowOptions(k, c)
	} else {
		s.atOptions(k, c)
	}
	for _, o := range c.opts {
		c.total = new(big.Int).Add(c.total, o.count)
	}
	return c
}

func (s *solver) add(c *cell, ev EventType, target int, kids ...cellKey) {
	count := big.NewInt(1)
	for _, k := range kids {
		kc := s.cellLocked(k)
		count = new(big.Int).Mul(count, kc.total)
	}
	c.opts = append(c.opts, option{
		ev:     ev,
		target: target,
		kids:   kids,
		count:  count,
	})
}

// AtOptions collects the event choices
// that attain the at-node minimum of a cell.
// The order of the options is fixed
// (cospeciation, duplication, transfer,
// transfer targets in host post-order),
// so the reconciliation at a given rank
// is deterministic.
func (s *solver) atOptions(k cellKey, c *cell) {
	tb := s.tb
	want := tb.at[k.p][k.h]

	if tb.parasite.IsTerm(k.p) {
		if approxEq(want, 0) {
			c.opts = append(c.opts, option{ev: Tip, target: -1, count: big.NewInt(1)})
		}
		return
	}
	p1, p2 := tb.parasite.Children(k.p)

	if !tb.host.IsTerm(k.h) {
		h1, h2 := tb.host.Children(k.h)
		if approxEq(want, tb.costs.Cospeciation+tb.below[p1][h1]+tb.below[p2][h2]) {
			s.add(c, Cospeciation, -1, cellKey{p1, h1, true}, cellKey{p2, h2, true})
		}
		if approxEq(want, tb.costs.Cospeciation+tb.below[p1][h2]+tb.below[p2][h1]) {
			s.add(c, Cospeciation, -1, cellKey{p1, h2, true}, cellKey{p2, h1, true})
		}
	}

	if approxEq(want, tb.costs.Duplication+tb.below[p1][k.h]+tb.below[p2][k.h]) {
		s.add(c, Duplication, -1, cellKey{p1, k.h, true}, cellKey{p2, k.h, true})
	}

	if approxEq(want, tb.costs.Transfer+tb.below[p1][k.h]+tb.far[p2][k.h]) {
		for _, ht := range s.targets(p2, k.h) {
			s.add(c, Transfer, ht, cellKey{p1, k.h, true}, cellKey{p2, ht, true})
		}
	}
	if approxEq(want, tb.costs.Transfer+tb.below[p2][k.h]+tb.far[p1][k.h]) {
		for _, ht := range s.targets(p1, k.h) {
			s.add(c, Transfer, ht, cellKey{p2, k.h, true}, cellKey{p1, ht, true})
		}
	}
}

// Targets returns the host nodes incomparable with h
// where the below value of the parasite node
// attains the incomparable-best aggregate.
func (s *solver) targets(p, h int) []int {
	tb := s.tb
	best := tb.far[p][h]
	var ts []int
	for _, ht := range tb.host.Postorder() {
		if tb.host.Comparable(h, ht) {
			continue
		}
		if approxEq(tb.below[p][ht], best) {
			ts = append(ts, ht)
		}
	}
	return ts
}

// BelowOptions collects the choices
// that attain the below-edge minimum of a cell:
// staying at the host node,
// or charging a loss and descending to a host child.
func (s *solver) belowOptions(k cellKey, c *cell) {
	tb := s.tb
	want := tb.below[k.p][k.h]

	if approxEq(want, tb.at[k.p][k.h]) {
		s.add(c, descend, -1, cellKey{k.p, k.h, false})
	}
	if tb.host.IsTerm(k.h) {
		return
	}
	h1, h2 := tb.host.Children(k.h)
	if approxEq(want, tb.costs.Loss+tb.below[k.p][h1]) {
		s.add(c, lossStep, -1, cellKey{k.p, h1, true})
	}
	if approxEq(want, tb.costs.Loss+tb.below[k.p][h2]) {
		s.add(c, lossStep, -1, cellKey{k.p, h2, true})
	}
}

// Decode maps a rank in [0, Count)
// to its reconciliation.
// Every optimal reconciliation has exactly one rank,
// so iterating the ranks enumerates the optimal set
// without duplicates.
func (s *solver) decode(idx *big.Int) *Reconciliation {
	rec := &Reconciliation{
		Host:     s.tb.host,
		Parasite: s.tb.parasite,
		Events:   make([]Event, s.tb.parasite.Len()),
		Cost:     s.tb.opt,
	}
	for i := range rec.Events {
		rec.Events[i].Target = -1
	}
	s.walk(s.root, cellKey{p: -1, h: -1}, new(big.Int).Set(idx), rec)
	return rec
}

func (s *solver) walk(c *cell, k cellKey, idx *big.Int, rec *Reconciliation) {
	var op option
	for _, o := range c.opts {
		if idx.Cmp(o.count) < 0 {
			op = o
			break
		}
		idx.Sub(idx, o.count)
	}

	switch op.ev {
	case descend:
		s.walk(s.cell(op.kids[0]), op.kids[0], idx, rec)
	case lossStep:
		rec.Events[k.p].Losses++
		s.walk(s.cell(op.kids[0]), op.kids[0], idx, rec)
	default:
		e := &rec.Events[k.p]
		e.Type = op.ev
		e.Host = k.h
		e.Target = op.target
		if len(op.kids) == 2 {
			c2 := s.cell(op.kids[1])
			i1, i2 := new(big.Int).DivMod(idx, c2.total, new(big.Int))
			s.walk(s.cell(op.kids[0]), op.kids[0], i1, rec)
			s.walk(c2, op.kids[1], i2, rec)
		}
	}
}

// Count returns the number of optimal reconciliations
// of the table,
// or zero if the table is infeasible.
func (tb *Table) Count() *big.Int {
	return new(big.Int).Set(tb.solve().root.total)
}

// An Iter is a lazy cursor over the optimal reconciliations
// of a table,
// in a fixed deterministic order.
// Several independent cursors can run over the same table.
type Iter struct {
	s     *solver
	idx   *big.Int
	total *big.Int
}

// Iter returns a new cursor
// at the start of the optimal set.
func (tb *Table) Iter() *Iter {
	s := tb.solve()
	return &Iter{
		s:     s,
		idx:   big.NewInt(0),
		total: s.root.total,
	}
}

// Next returns the next optimal reconciliation.
// It returns false when the optimal set is exhausted.
func (it *Iter) Next() (*Reconciliation, bool) {
	if it.idx.Cmp(it.total) >= 0 {
		return nil, false
	}
	r := it.s.decode(it.idx)
	it.idx.Add(it.idx, big.NewInt(1))
	return r, true
}

// Enumerate returns up to n optimal reconciliations,
// in the cursor order.
// With n <= 0 the whole optimal set is requested.
// Requests beyond the MaxEnumerate ceiling
// fail with a CapacityError.
func (tb *Table) Enumerate(n int) ([]*Reconciliation, error) {
	s := tb.solve()
	if n > MaxEnumerate {
		return nil, &CapacityError{Requested: n, Limit: MaxEnumerate, Msg: "reconciliation enumeration"}
	}
	if n <= 0 {
		if s.root.total.Cmp(big.NewInt(MaxEnumerate)) > 0 {
			return nil, &CapacityError{Requested: MaxEnumerate + 1, Limit: MaxEnumerate, Msg: "reconciliation enumeration"}
		}
		n = int(s.root.total.Int64())
	}

	var rs []*Reconciliation
	it := tb.Iter()
	for len(rs) < n {
		r, ok := it.Next()
		if !ok {
			break
		}
		rs = append(rs, r)
	}
	return rs, nil
}

// Sample returns n reconciliations
// drawn uniformly at random
// (with replacement)
// from the optimal set,
// using an explicit seed.
// Sampling draws a uniform rank
// over the per-cell realization counts,
// so it never enumerates the optimal set.
func (tb *Table) Sample(n int, seed uint64) []*Reconciliation {
	s := tb.solve()
	if !tb.feasible || n <= 0 {
		return nil
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1))

	rs := make([]*Reconciliation, 0, n)
	for range n {
		idx := randBig(rng, s.root.total)
		rs = append(rs, s.decode(idx))
	}
	return rs
}

// randBig returns a uniform random integer in [0, n)
// by rejection sampling over the bit length of n.
func randBig(rng *rand.Rand, n *big.Int) *big.Int {
	if n.IsInt64() {
		return big.NewInt(rng.Int64N(n.Int64()))
	}
	bits := n.BitLen()
	nb := (bits + 7) / 8
	buf := make([]byte, nb)
	shift := uint(nb*8 - bits)
	for {
		for i := 0; i < nb; i += 8 {
			v := rng.Uint64()
			for j := 0; j < 8 && i+j < nb; j++ {
				buf[i+j] = byte(v >> (8 * j))
			}
		}
		buf[0] >>= shift
		v := new(big.Int).SetBytes(buf)
		if v.Cmp(n) < 0 {
			return v
		}
	}
}
