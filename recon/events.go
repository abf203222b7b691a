// Copyright © 2024 Zach Witz <zachwitz@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package recon

import (
	"fmt"

	"github.com/zachwitz/empress/tree"
)

// EventType is the kind of evolutionary event
// assigned to a parasite node.
// The set of events is closed:
// every recurrence and every consumer
// switches exhaustively over these values.
type EventType uint8

const (
	// Tip is the event of a parasite terminal
	// sitting on its host terminal.
	Tip EventType = iota

	// Cospeciation is a parallel branching
	// of parasite and host.
	Cospeciation

	// Duplication is a parasite branching
	// within a single host lineage.
	Duplication

	// Transfer is a parasite branching
	// in which one child jumps
	// to a host lineage incomparable with the current one.
	Transfer
)

// String returns the single letter code of the event,
// as used in reconciliation reports.
func (e EventType) String() string {
	switch e {
	case Tip:
		return "C"
	case Cospeciation:
		return "S"
	case Duplication:
		return "D"
	case Transfer:
		return "T"
	}
	return "?"
}

// An Event is the placement of a parasite node:
// the host node where the parasite sits,
// the kind of event at that node,
// and the losses charged on the way down to it.
type Event struct {
	Type EventType

	// Host is the host node
	// where the parasite node is placed.
	Host int

	// Target is the host node
	// receiving the transferred child,
	// or -1 if the event is not a transfer.
	Target int

	// Losses is the number of loss events
	// charged while descending host edges
	// from the point where the parent event
	// placed this lineage.
	Losses int
}

// A Signature is the count of each event class
// in a reconciliation.
// Two reconciliations with the same signature
// have the same cost under any cost vector.
type Signature struct {
	Cospeciations int
	Duplications  int
	Transfers     int
	Losses        int
}

// Cost returns the total cost of the signature
// under the given cost vector.
func (s Signature) Cost(c Costs) float64 {
	return float64(s.Cospeciations)*c.Cospeciation +
		float64(s.Duplications)*c.Duplication +
		float64(s.Transfers)*c.Transfer +
		float64(s.Losses)*c.Loss
}

// String returns the signature in the form "<S,D,T,L>".
func (s Signature) String() string {
	return fmt.Sprintf("<%d,%d,%d,%d>", s.Cospeciations, s.Duplications, s.Transfers, s.Losses)
}

// A Reconciliation is a complete assignment
// of every parasite node
// to a host node and an event.
type Reconciliation struct {
	Host     *tree.Tree
	Parasite *tree.Tree

	// Events is indexed by parasite node ID.
	Events []Event

	// Cost is the total cost of the reconciliation
	// under the cost vector used to build it.
	Cost float64
}

// Signature returns the event counts of the reconciliation.
func (r *Reconciliation) Signature() Signature {
	var s Signature
	for _, e := range r.Events {
		switch e.Type {
		case Cospeciation:
			s.Cospeciations++
		case Duplication:
			s.Duplications++
		case Transfer:
			s.Transfers++
		}
		s.Losses += e.Losses
	}
	return s
}

// CostWith returns the total cost of the reconciliation
// under an arbitrary cost vector.
func (r *Reconciliation) CostWith(c Costs) float64 {
	return r.Signature().Cost(c)
}

// Key returns a canonical string key
// of the event mapping,
// used to compare reconciliations for identity.
func (r *Reconciliation) Key() string {
	k := make([]byte, 0, len(r.Events)*8)
	for _, e := range r.Events {
		k = fmt.Appendf(k, "%s%d.%d.%d;", e.Type, e.Host, e.Target, e.Losses)
	}
	return string(k)
}

// Distance returns the number of parasite nodes
// whose host placement or event type
// differs between two reconciliations
// of the same pair of trees.
// The distance is symmetric,
// zero only between identical event mappings,
// and satisfies the triangle inequality.
func Distance(a, b *Reconciliation) int {
	d := 0
	for i := range a.Events {
		ea, eb := a.Events[i], b.Events[i]
		if ea.Type != eb.Type || ea.Host != eb.Host {
			d++
		}
	}
	return d
}

// Check verifies the internal consistency
// of the reconciliation:
// terminals sit on their required host terminals,
// every internal event is valid
// given the placements of its children,
// and the stored cost is the cost of the event counts.
func (r *Reconciliation) Check(tips *tree.TipMap, c Costs) error {
	for _, p := range r.Parasite.Postorder() {
		e := r.Events[p]
		if r.Parasite.IsTerm(p) {
			if e.Type != Tip {
				return fmt.Errorf("parasite %d: terminal with event %s", p, e.Type)
			}
			if !r.Host.IsTerm(e.Host) {
				return fmt.Errorf("parasite %d: placed on internal host node %d", p, e.Host)
			}
			if h, ok := tips.Host(r.Parasite.Taxon(p)); ok && r.Host.TaxNode(h) != e.Host {
				return fmt.Errorf("parasite %q: mapped to %q, placed on %q", r.Parasite.Taxon(p), h, r.Host.Taxon(e.Host))
			}
			continue
		}

		p1, p2 := r.Parasite.Children(p)
		h1, h2 := r.Events[p1].Host, r.Events[p2].Host
		switch e.Type {
		case Cospeciation:
			if r.Host.IsTerm(e.Host) {
				return fmt.Errorf("parasite %d: cospeciation on host terminal %d", p, e.Host)
			}
			c1, c2 := r.Host.Children(e.Host)
			ok := inOrBelow(r.Host, h1, c1) && inOrBelow(r.Host, h2, c2)
			if !ok {
				ok = inOrBelow(r.Host, h1, c2) && inOrBelow(r.Host, h2, c1)
			}
			if !ok {
				return fmt.Errorf("parasite %d: cospeciation at host %d with children at %d, %d", p, e.Host, h1, h2)
			}
		case Duplication:
			if !inOrBelow(r.Host, h1, e.Host) || !inOrBelow(r.Host, h2, e.Host) {
				return fmt.Errorf("parasite %d: duplication at host %d with children at %d, %d", p, e.Host, h1, h2)
			}
		case Transfer:
			if e.Target < 0 || r.Host.Comparable(e.Host, e.Target) {
				return fmt.Errorf("parasite %d: transfer from host %d to comparable node %d", p, e.Host, e.Target)
			}
			ok := inOrBelow(r.Host, h1, e.Host) && inOrBelow(r.Host, h2, e.Target)
			if !ok {
				ok = inOrBelow(r.Host, h2, e.Host) && inOrBelow(r.Host, h1, e.Target)
			}
			if !ok {
				return fmt.Errorf("parasite %d: transfer %d->%d with children at %d, %d", p, e.Host, e.Target, h1, h2)
			}
		default:
			return fmt.Errorf("parasite %d: internal node with event %s", p, e.Type)
		}
	}

	if got := r.CostWith(c); !approxEq(got, r.Cost) {
		return fmt.Errorf("stored cost %.6f, event costs sum %.6f", r.Cost, got)
	}
	return nil
}

// InOrBelow returns true if node id is at node an
// or inside its subtree.
func inOrBelow(t *tree.Tree, id, an int) bool {
	return id == an || t.IsAncestor(an, id)
}
