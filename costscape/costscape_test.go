// Copyright © 2024 Zach Witz <zachwitz@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package costscape_test

import (
	"math"
	"strings"
	"testing"

	"github.com/zachwitz/empress/costscape"
	"github.com/zachwitz/empress/recon"
	"github.com/zachwitz/empress/tree"
)

func newTree(t testing.TB, nwk, name string) *tree.Tree {
	t.Helper()

	tr, err := tree.Newick(strings.NewReader(nwk), name)
	if err != nil {
		t.Fatalf("unable to read tree %q: %v", nwk, err)
	}
	return tr
}

func newTips(pairs ...string) *tree.TipMap {
	m := tree.NewTipMap()
	for i := 0; i < len(pairs); i += 2 {
		m.Set(pairs[i], pairs[i+1])
	}
	return m
}

func TestPartitionSingleRegion(t *testing.T) {
	host := newTree(t, "(a,b);", "host")
	parasite := newTree(t, "(A,B);", "parasite")
	tips := newTips("A", "a", "B", "b")

	cfg := costscape.Config{
		DupMin:      0.2,
		DupMax:      5,
		TransferMin: 0.2,
		TransferMax: 5,
		Loss:        1,
	}
	regions, err := costscape.Partition(host, parasite, tips, cfg)
	if err != nil {
		t.Fatalf("unable to partition: %v", err)
	}
	if len(regions) != 1 {
		t.Fatalf("regions: got %d, want 1", len(regions))
	}

	r := regions[0]
	want := recon.Signature{Cospeciations: 1}
	if len(r.Signatures) != 1 || r.Signatures[0] != want {
		t.Errorf("signature: got %v, want %s", r.Signatures, want)
	}

	rect := (cfg.DupMax - cfg.DupMin) * (cfg.TransferMax - cfg.TransferMin)
	if d := math.Abs(r.Area() - rect); d > 1e-6 {
		t.Errorf("area: got %g, want %g", r.Area(), rect)
	}
	if !r.Contains(costscape.Point{Dup: 2, Transfer: 2}) {
		t.Errorf("region should contain the rectangle center")
	}
}

// In the crossed instance the parasite terminal C
// lives on the host terminal a,
// so the optimum is the lower envelope of
// d+l (duplication above the root cospeciation),
// d+t (duplication with a nested transfer),
// and 2t (two chained transfers).
func TestPartitionCrossed(t *testing.T) {
	host := newTree(t, "((a,b),c);", "host")
	parasite := newTree(t, "((A,B),C);", "parasite")
	tips := newTips("A", "a", "B", "b", "C", "a")

	cfg := costscape.Config{
		DupMin:      0.2,
		DupMax:      5,
		TransferMin: 0.2,
		TransferMax: 5,
		Loss:        1,
	}
	regions, err := costscape.Partition(host, parasite, tips, cfg)
	if err != nil {
		t.Fatalf("unable to partition: %v", err)
	}
	if len(regions) < 3 {
		t.Fatalf("regions: got %d, want at least 3", len(regions))
	}

	var sum float64
	for _, r := range regions {
		sum += r.Area()
	}
	rect := (cfg.DupMax - cfg.DupMin) * (cfg.TransferMax - cfg.TransferMin)
	if d := math.Abs(sum - rect); d > 1e-6 {
		t.Errorf("total area: got %g, want %g", sum, rect)
	}

	// interior probes,
	// one per expected envelope piece
	probes := []costscape.Point{
		{Dup: 1, Transfer: 3},     // d+l
		{Dup: 0.3, Transfer: 0.5}, // d+t
		{Dup: 3, Transfer: 0.5},   // 2t
	}
	for _, pt := range probes {
		cs := recon.Costs{
			Duplication: pt.Dup,
			Transfer:    pt.Transfer,
			Loss:        cfg.Loss,
		}
		tb, err := recon.New(host, parasite, tips, cs)
		if err != nil {
			t.Fatalf("unable to build table: %v", err)
		}
		min, ok := tb.Optimum()
		if !ok {
			t.Fatalf("point (%g,%g): expecting a feasible reconciliation", pt.Dup, pt.Transfer)
		}

		in := 0
		for _, r := range regions {
			if !r.Contains(pt) {
				continue
			}
			in++
			got := r.Signatures[0].Cost(cs)
			if math.Abs(got-min) > recon.Eps {
				t.Errorf("point (%g,%g): region cost %g, optimum %g", pt.Dup, pt.Transfer, got, min)
			}
		}
		if in != 1 {
			t.Errorf("point (%g,%g): contained in %d regions, want 1", pt.Dup, pt.Transfer, in)
		}
	}
}

func TestPartitionBadRectangle(t *testing.T) {
	host := newTree(t, "(a,b);", "host")
	parasite := newTree(t, "(A,B);", "parasite")
	tips := newTips("A", "a", "B", "b")

	cfg := costscape.Config{
		DupMin:      5,
		DupMax:      0.2,
		TransferMin: 0.2,
		TransferMax: 5,
		Loss:        1,
	}
	if _, err := costscape.Partition(host, parasite, tips, cfg); err == nil {
		t.Errorf("empty rectangle: expecting an error")
	}
}
