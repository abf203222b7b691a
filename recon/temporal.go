// Copyright © 2024 Zach Witz <zachwitz@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package recon

// A timeNode is an internal node
// of the host or the parasite tree
// inside the combined timing graph.
type timeNode struct {
	parasite bool
	id       int
}

// TemporallyConsistent reports whether the event mapping
// can be realized in time:
// the divergence-order constraints implied by the tree topologies
// and by the events
// (a transfer in particular forces its donor and receiver edges
// to be contemporaneous)
// must admit a topological order.
// A reconciliation that is optimal under the cost model
// can still be impossible to draw on a time axis;
// this check detects that case.
func (r *Reconciliation) TemporallyConsistent() bool {
	g := r.timingGraph()

	// depth-first topological sort with cycle detection
	const (
		unseen = iota
		visiting
		done
	)
	state := make(map[timeNode]int, len(g))
	var visit func(n timeNode) bool
	visit = func(n timeNode) bool {
		switch state[n] {
		case visiting:
			return false
		case done:
			return true
		}
		state[n] = visiting
		for _, c := range g[n] {
			if _, ok := g[c]; !ok {
				continue
			}
			if !visit(c) {
				return false
			}
		}
		state[n] = done
		return true
	}
	for n := range g {
		if !visit(n) {
			return false
		}
	}
	return true
}

// TimingGraph builds the divergence-order constraints
// between the internal nodes of both trees.
// Terminals are contemporaneous by definition
// and are left out of the graph.
func (r *Reconciliation) timingGraph() map[timeNode][]timeNode {
	g := make(map[timeNode][]timeNode)

	for _, h := range r.Host.Postorder() {
		if r.Host.IsTerm(h) {
			continue
		}
		h1, h2 := r.Host.Children(h)
		n := timeNode{id: h}
		g[n] = append(g[n], timeNode{id: h1}, timeNode{id: h2})
	}
	for _, p := range r.Parasite.Postorder() {
		if r.Parasite.IsTerm(p) {
			continue
		}
		p1, p2 := r.Parasite.Children(p)
		n := timeNode{parasite: true, id: p}
		g[n] = append(g[n], timeNode{parasite: true, id: p1}, timeNode{parasite: true, id: p2})
	}

	for _, p := range r.Parasite.Postorder() {
		if r.Parasite.IsTerm(p) {
			continue
		}
		e := r.Events[p]
		pn := timeNode{parasite: true, id: p}
		h := e.Host

		// the parasite diverges before its host node does
		g[pn] = append(g[pn], timeNode{id: h})
		// and after the divergence that created the host edge
		if hp := r.Host.Parent(h); hp >= 0 {
			g[timeNode{id: hp}] = append(g[timeNode{id: hp}], pn)
		}

		if e.Type != Transfer {
			continue
		}
		// donor and receiver edges must overlap in time
		if tp := r.Host.Parent(e.Target); tp >= 0 {
			g[timeNode{id: tp}] = append(g[timeNode{id: tp}], pn)
		}
		pc := r.transferredChild(p)
		if pc >= 0 && !r.Parasite.IsTerm(pc) {
			g[timeNode{parasite: true, id: pc}] = append(g[timeNode{parasite: true, id: pc}], timeNode{id: h})
		}
	}
	return g
}

// TransferredChild returns the parasite child
// that lands at the transfer target,
// or -1 if the node is not a transfer.
func (r *Reconciliation) transferredChild(p int) int {
	e := r.Events[p]
	if e.Type != Transfer {
		return -1
	}
	p1, p2 := r.Parasite.Children(p)
	if inOrBelow(r.Host, r.Events[p1].Host, e.Target) {
		return p1
	}
	if inOrBelow(r.Host, r.Events[p2].Host, e.Target) {
		return p2
	}
	return -1
}
