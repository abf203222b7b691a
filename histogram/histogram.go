// Copyright © 2024 Zach Witz <zachwitz@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package histogram builds an empirical null distribution
// of minimum reconciliation costs
// by randomly permuting the tip map
// of the analyzed tree pair,
// and locates the observed cost inside that distribution.
package histogram

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/zachwitz/empress/recon"
	"github.com/zachwitz/empress/tree"
)

// Tail selects the side of the distribution
// used for the p-value.
type Tail int

const (
	// Lower counts the null costs
	// at or below the observed cost.
	Lower Tail = iota

	// Upper counts the null costs
	// at or above the observed cost.
	Upper
)

// Options control the null distribution run.
type Options struct {
	// Repetitions is the number of randomized replicates.
	Repetitions int

	// Seed of the random number generator.
	// The same seed always produces
	// the same distribution,
	// regardless of the number of workers.
	Seed uint64

	// Normalize divides every cost
	// by the number of parasite terminals.
	Normalize bool

	// Tail of the p-value.
	Tail Tail

	// CPU is the number of concurrent workers.
	// The default (zero) uses all available CPU.
	CPU int

	// Cancel is checked between replicates;
	// when it returns true
	// no further replicate is started.
	Cancel func() bool
}

// A Result is an empirical null distribution
// with the placement of the observed cost in it.
type Result struct {
	// Observed is the minimum cost
	// of the original instance.
	Observed float64

	// Costs are the minimum costs
	// of the feasible randomized replicates,
	// in replicate order.
	Costs []float64

	// Infeasible is the number of randomized replicates
	// without any valid reconciliation.
	// These replicates are excluded from Costs
	// but reported here,
	// never dropped silently.
	Infeasible int

	// PValue is the fraction of feasible replicates
	// on the requested tail of the observed cost.
	PValue float64

	// Mean and StdDev of the feasible replicate costs.
	Mean   float64
	StdDev float64

	// PNormal is the tail probability
	// under a normal approximation
	// of the null distribution.
	PNormal float64
}

// Null builds the null distribution
// of the reconciliation of the parasite tree
// over the host tree.
// Each replicate permutes the host terminals
// among the mapped parasite terminals,
// keeping both tree shapes
// and the multiset of used hosts.
func Null(host, parasite *tree.Tree, tips *tree.TipMap, cs recon.Costs, o Options) (*Result, error) {
	if o.Repetitions <= 0 {
		return nil, errors.New("histogram: a positive number of repetitions is required")
	}

	tb, err := recon.New(host, parasite, tips, cs)
	if err != nil {
		return nil, err
	}
	obs, ok := tb.Optimum()
	if !ok {
		return nil, fmt.Errorf("histogram: no reconciliation exists under the given tip map")
	}

	parasites := tips.Parasites()
	hosts := make([]string, len(parasites))
	for i, p := range parasites {
		hosts[i], _ = tips.Host(p)
	}

	cpu := o.CPU
	if cpu == 0 {
		cpu = runtime.NumCPU()
	}

	costs := make([]float64, o.Repetitions)
	reps := make(chan int, cpu*2)
	var wg sync.WaitGroup
	for range cpu {
		go func() {
			for rep := range reps {
				costs[rep] = replicate(host, parasite, cs, parasites, hosts, o.Seed, uint64(rep))
				wg.Done()
			}
		}()
	}
	done := o.Repetitions
	for rep := range o.Repetitions {
		if o.Cancel != nil && o.Cancel() {
			done = rep
			break
		}
		wg.Add(1)
		reps <- rep
	}
	wg.Wait()
	close(reps)

	r := &Result{Observed: obs}
	for _, c := range costs[:done] {
		if math.IsInf(c, 1) {
			r.Infeasible++
			continue
		}
		r.Costs = append(r.Costs, c)
	}
	if o.Normalize {
		sz := float64(numTerms(parasite))
		r.Observed /= sz
		for i := range r.Costs {
			r.Costs[i] /= sz
		}
	}
	r.finish(o.Tail)
	return r, nil
}

// Replicate computes the minimum cost
// of one randomized replicate.
// The generator is seeded from the run seed
// and the replicate number,
// so a replicate is reproducible
// no matter which worker runs it.
func replicate(host, parasite *tree.Tree, cs recon.Costs, parasites, hosts []string, seed, rep uint64) float64 {
	rng := rand.New(rand.NewPCG(seed, rep))
	perm := rng.Perm(len(hosts))

	m := tree.NewTipMap()
	for i, p := range parasites {
		m.Set(p, hosts[perm[i]])
	}

	tb, err := recon.New(host, parasite, m, cs)
	if err != nil {
		// the permuted map uses the same host terminals,
		// so the table can only fail as infeasible
		return math.Inf(1)
	}
	c, ok := tb.Optimum()
	if !ok {
		return math.Inf(1)
	}
	return c
}

// Finish fills the summary statistics
// from the feasible replicate costs.
func (r *Result) finish(tail Tail) {
	if len(r.Costs) == 0 {
		r.PValue = math.NaN()
		r.Mean = math.NaN()
		r.StdDev = math.NaN()
		r.PNormal = math.NaN()
		return
	}

	in := 0
	for _, c := range r.Costs {
		switch tail {
		case Lower:
			if c <= r.Observed+recon.Eps {
				in++
			}
		case Upper:
			if c >= r.Observed-recon.Eps {
				in++
			}
		}
	}
	r.PValue = float64(in) / float64(len(r.Costs))

	r.Mean = stat.Mean(r.Costs, nil)
	r.StdDev = stat.StdDev(r.Costs, nil)

	n := distuv.Normal{Mu: r.Mean, Sigma: r.StdDev}
	if r.StdDev == 0 || math.IsNaN(r.StdDev) {
		r.PNormal = math.NaN()
		return
	}
	switch tail {
	case Lower:
		r.PNormal = n.CDF(r.Observed)
	case Upper:
		r.PNormal = n.Survival(r.Observed)
	}
}

func numTerms(t *tree.Tree) int {
	n := 0
	for _, id := range t.Postorder() {
		if t.IsTerm(id) {
			n++
		}
	}
	return n
}
