// Copyright © 2024 Zach Witz <zachwitz@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package histogram_test

import (
	"math"
	"strings"
	"testing"

	"github.com/zachwitz/empress/histogram"
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

func crossedInstance(t testing.TB) (host, parasite *tree.Tree, tips *tree.TipMap) {
	t.Helper()
	host = newTree(t, "((a,b),c);", "host")
	parasite = newTree(t, "((A,B),C);", "parasite")
	tips = newTips("A", "a", "B", "b", "C", "a")
	return host, parasite, tips
}

func TestNull(t *testing.T) {
	host, parasite, tips := crossedInstance(t)
	cs := recon.Costs{Duplication: 1, Transfer: 1, Loss: 1}

	r, err := histogram.Null(host, parasite, tips, cs, histogram.Options{
		Repetitions: 50,
		Seed:        7,
		CPU:         2,
	})
	if err != nil {
		t.Fatalf("unable to build null distribution: %v", err)
	}

	if r.Observed != 2 {
		t.Errorf("observed cost: got %g, want 2", r.Observed)
	}
	// the permuted maps reuse the original host terminals,
	// so with finite costs every replicate is feasible
	if r.Infeasible != 0 {
		t.Errorf("infeasible replicates: got %d, want 0", r.Infeasible)
	}
	if len(r.Costs) != 50 {
		t.Fatalf("replicate costs: got %d, want 50", len(r.Costs))
	}
	for i, c := range r.Costs {
		if c < 0 || math.IsInf(c, 0) || math.IsNaN(c) {
			t.Errorf("replicate %d: invalid cost %g", i, c)
		}
	}
	if r.PValue < 0 || r.PValue > 1 {
		t.Errorf("p-value: got %g, want a value in [0,1]", r.PValue)
	}
}

func TestNullSeed(t *testing.T) {
	host, parasite, tips := crossedInstance(t)
	cs := recon.Costs{Duplication: 1, Transfer: 1, Loss: 1}

	// the same seed replays the same distribution,
	// no matter how many workers run the replicates
	a, err := histogram.Null(host, parasite, tips, cs, histogram.Options{
		Repetitions: 40,
		Seed:        11,
		CPU:         1,
	})
	if err != nil {
		t.Fatalf("unable to build null distribution: %v", err)
	}
	b, err := histogram.Null(host, parasite, tips, cs, histogram.Options{
		Repetitions: 40,
		Seed:        11,
		CPU:         4,
	})
	if err != nil {
		t.Fatalf("unable to build null distribution: %v", err)
	}

	if len(a.Costs) != len(b.Costs) {
		t.Fatalf("replicate costs: got %d and %d", len(a.Costs), len(b.Costs))
	}
	for i := range a.Costs {
		if a.Costs[i] != b.Costs[i] {
			t.Errorf("replicate %d: got costs %g and %g", i, a.Costs[i], b.Costs[i])
		}
	}
	if a.PValue != b.PValue {
		t.Errorf("p-value: got %g and %g", a.PValue, b.PValue)
	}
}

func TestNullTails(t *testing.T) {
	host, parasite, tips := crossedInstance(t)
	cs := recon.Costs{Duplication: 1, Transfer: 1, Loss: 1}

	lo, err := histogram.Null(host, parasite, tips, cs, histogram.Options{
		Repetitions: 40,
		Seed:        3,
		Tail:        histogram.Lower,
	})
	if err != nil {
		t.Fatalf("unable to build null distribution: %v", err)
	}
	up, err := histogram.Null(host, parasite, tips, cs, histogram.Options{
		Repetitions: 40,
		Seed:        3,
		Tail:        histogram.Upper,
	})
	if err != nil {
		t.Fatalf("unable to build null distribution: %v", err)
	}

	// both tails include the ties,
	// so together they cover the whole distribution
	if lo.PValue+up.PValue < 1-1e-12 {
		t.Errorf("tail p-values %g and %g sum below 1", lo.PValue, up.PValue)
	}
}

func TestNullNormalize(t *testing.T) {
	host, parasite, tips := crossedInstance(t)
	cs := recon.Costs{Duplication: 1, Transfer: 1, Loss: 1}

	raw, err := histogram.Null(host, parasite, tips, cs, histogram.Options{
		Repetitions: 20,
		Seed:        5,
	})
	if err != nil {
		t.Fatalf("unable to build null distribution: %v", err)
	}
	norm, err := histogram.Null(host, parasite, tips, cs, histogram.Options{
		Repetitions: 20,
		Seed:        5,
		Normalize:   true,
	})
	if err != nil {
		t.Fatalf("unable to build null distribution: %v", err)
	}

	// the parasite tree has three terminals
	if got, want := norm.Observed, raw.Observed/3; got != want {
		t.Errorf("normalized observed cost: got %g, want %g", got, want)
	}
	for i := range raw.Costs {
		if got, want := norm.Costs[i], raw.Costs[i]/3; got != want {
			t.Errorf("normalized replicate %d: got %g, want %g", i, got, want)
		}
	}
}

func TestNullCancel(t *testing.T) {
	host, parasite, tips := crossedInstance(t)
	cs := recon.Costs{Duplication: 1, Transfer: 1, Loss: 1}

	r, err := histogram.Null(host, parasite, tips, cs, histogram.Options{
		Repetitions: 100,
		Seed:        1,
		Cancel:      func() bool { return true },
	})
	if err != nil {
		t.Fatalf("unable to build null distribution: %v", err)
	}
	if len(r.Costs) != 0 {
		t.Errorf("replicate costs after cancellation: got %d, want 0", len(r.Costs))
	}
	if !math.IsNaN(r.PValue) {
		t.Errorf("p-value without replicates: got %g, want NaN", r.PValue)
	}
}

func TestNullErrors(t *testing.T) {
	host, parasite, tips := crossedInstance(t)
	cs := recon.Costs{Duplication: 1, Transfer: 1, Loss: 1}

	if _, err := histogram.Null(host, parasite, tips, cs, histogram.Options{}); err == nil {
		t.Errorf("zero repetitions: expecting an error")
	}

	bad := newTips("A", "a", "B", "b", "C", "not-in-host")
	if _, err := histogram.Null(host, parasite, bad, cs, histogram.Options{Repetitions: 10}); err == nil {
		t.Errorf("unmapped host: expecting an error")
	}
}
