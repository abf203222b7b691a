// Copyright © 2024 Zach Witz <zachwitz@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package costscape partitions a rectangle
// of the (duplication cost, transfer cost) plane
// into regions where the optimal reconciliation
// keeps the same event-count signature.
// The optimal cost is the minimum
// of finitely many functions
// that are affine in the two free costs,
// so the regions are convex polygons
// bounded by straight lines.
package costscape

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/zachwitz/empress/recon"
	"github.com/zachwitz/empress/tree"
)

// geomEps is the tolerance of the polygon clipping.
const geomEps = 1e-9

// Config describes the swept cost rectangle.
// The cospeciation and loss costs are held fixed.
type Config struct {
	DupMin, DupMax           float64
	TransferMin, TransferMax float64

	// Cospeciation is the fixed cospeciation cost.
	// By convention it is zero,
	// the baseline of the other events.
	Cospeciation float64

	// Loss is the fixed loss cost.
	Loss float64

	// Steps is the number of grid intervals per axis.
	// Zero means the default of 10.
	Steps int

	// Tolerance is the precision of the boundary search
	// between samples with different signatures.
	// Zero means a 1/256 fraction
	// of the smaller rectangle side.
	Tolerance float64

	// CPU is the number of concurrent grid samples.
	// The default (zero) uses all available CPU.
	CPU int

	// Cancel is checked between samples;
	// when it returns true
	// no further sample is computed.
	Cancel func() bool
}

func (c Config) validate() error {
	if !(c.DupMin < c.DupMax) || !(c.TransferMin < c.TransferMax) {
		return fmt.Errorf("costscape: empty cost rectangle [%g,%g]x[%g,%g]", c.DupMin, c.DupMax, c.TransferMin, c.TransferMax)
	}
	if c.DupMin < 0 || c.TransferMin < 0 || c.Cospeciation < 0 || c.Loss < 0 {
		return errors.New("costscape: negative costs")
	}
	return nil
}

func (c Config) steps() int {
	if c.Steps <= 0 {
		return 10
	}
	return c.Steps
}

func (c Config) tolerance() float64 {
	if c.Tolerance > 0 {
		return c.Tolerance
	}
	return math.Min(c.DupMax-c.DupMin, c.TransferMax-c.TransferMin) / 256
}

// A Point is a cost vector
// in the swept plane.
type Point struct {
	Dup      float64
	Transfer float64
}

// A Region is a maximal part of the cost rectangle
// where the optimal signature does not change.
// Vertices is a convex polygon in counterclockwise order;
// a region where two signatures stay tied
// degenerates to a segment with zero area.
type Region struct {
	// Signatures of the optimal reconciliation
	// inside the region.
	// More than one signature means the signatures
	// have the same cost everywhere
	// (for example, signatures differing only
	// in cospeciation counts
	// when the cospeciation cost is zero).
	Signatures []recon.Signature

	Vertices []Point
}

// Area returns the area of the region polygon.
func (r Region) Area() float64 {
	var sum float64
	n := len(r.Vertices)
	if n < 3 {
		return 0
	}
	for i, a := range r.Vertices {
		b := r.Vertices[(i+1)%n]
		sum += a.Dup*b.Transfer - b.Dup*a.Transfer
	}
	return math.Abs(sum) / 2
}

// Contains reports whether the point
// is inside the region
// or on its boundary.
func (r Region) Contains(p Point) bool {
	n := len(r.Vertices)
	if n < 3 {
		return false
	}
	sign := 0
	for i, a := range r.Vertices {
		b := r.Vertices[(i+1)%n]
		cross := (b.Dup-a.Dup)*(p.Transfer-a.Transfer) - (b.Transfer-a.Transfer)*(p.Dup-a.Dup)
		if math.Abs(cross) <= geomEps {
			continue
		}
		s := 1
		if cross < 0 {
			s = -1
		}
		if sign == 0 {
			sign = s
		} else if sign != s {
			return false
		}
	}
	return true
}

// Partition sweeps the cost rectangle
// and returns its regions.
// Samples are taken on a regular grid,
// refined by bisection wherever two neighbor samples
// disagree on the signature,
// and the collected signatures are resolved
// into exact polygons
// as the cells of their affine lower envelope.
// Regions are sorted by decreasing area.
func Partition(host, parasite *tree.Tree, tips *tree.TipMap, cfg Config) ([]Region, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	sc := &scape{
		host:     host,
		parasite: parasite,
		tips:     tips,
		cfg:      cfg,
	}
	if err := sc.sampleGrid(); err != nil {
		return nil, err
	}
	sc.refineBoundaries()

	regions := sc.envelope()
	sort.Slice(regions, func(i, j int) bool {
		ai, aj := regions[i].Area(), regions[j].Area()
		if ai != aj {
			return ai > aj
		}
		return lessSig(regions[i].Signatures[0], regions[j].Signatures[0])
	})
	return regions, nil
}

type sample struct {
	pt  Point
	sig recon.Signature
}

type scape struct {
	host     *tree.Tree
	parasite *tree.Tree
	tips     *tree.TipMap
	cfg      Config

	grid []sample                 // grid samples, row-major
	sigs map[recon.Signature]bool // every signature seen
}

// SignatureAt runs the reconciliation
// at one cost vector
// and returns the signature
// of the canonical optimal reconciliation
// (the first one in the deterministic
// backtracking order).
func (sc *scape) signatureAt(pt Point) (recon.Signature, error) {
	cs := recon.Costs{
		Cospeciation: sc.cfg.Cospeciation,
		Duplication:  pt.Dup,
		Transfer:     pt.Transfer,
		Loss:         sc.cfg.Loss,
	}
	tb, err := recon.New(sc.host, sc.parasite, sc.tips, cs)
	if err != nil {
		return recon.Signature{}, err
	}
	r, ok := tb.Iter().Next()
	if !ok {
		return recon.Signature{}, errors.New("costscape: no reconciliation exists under the given tip map")
	}
	return r.Signature(), nil
}

// SampleGrid evaluates the signature
// on a (steps+1) x (steps+1) regular grid.
// Every sample is an independent reconciliation,
// so samples run concurrently.
func (sc *scape) sampleGrid() error {
	steps := sc.cfg.steps()
	pts := make([]Point, 0, (steps+1)*(steps+1))
	for i := 0; i <= steps; i++ {
		t := sc.cfg.TransferMin + float64(i)*(sc.cfg.TransferMax-sc.cfg.TransferMin)/float64(steps)
		for j := 0; j <= steps; j++ {
			d := sc.cfg.DupMin + float64(j)*(sc.cfg.DupMax-sc.cfg.DupMin)/float64(steps)
			pts = append(pts, Point{Dup: d, Transfer: t})
		}
	}

	cpu := sc.cfg.CPU
	if cpu == 0 {
		cpu = runtime.NumCPU()
	}

	sc.grid = make([]sample, len(pts))
	errs := make([]error, len(pts))
	jobs := make(chan int, cpu*2)
	var wg sync.WaitGroup
	for range cpu {
		go func() {
			for i := range jobs {
				sig, err := sc.signatureAt(pts[i])
				sc.grid[i] = sample{pt: pts[i], sig: sig}
				errs[i] = err
				wg.Done()
			}
		}()
	}
	for i := range pts {
		if sc.cfg.Cancel != nil && sc.cfg.Cancel() {
			wg.Wait()
			close(jobs)
			return errors.New("costscape: canceled")
		}
		wg.Add(1)
		jobs <- i
	}
	wg.Wait()
	close(jobs)

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	sc.sigs = make(map[recon.Signature]bool)
	for _, s := range sc.grid {
		sc.sigs[s.sig] = true
	}
	return nil
}

// RefineBoundaries bisects every grid edge
// whose end samples disagree,
// down to the configured tolerance,
// collecting the signatures of thin regions
// that the grid stepped over.
func (sc *scape) refineBoundaries() {
	steps := sc.cfg.steps()
	tol := sc.cfg.tolerance()

	at := func(i, j int) sample { return sc.grid[i*(steps+1)+j] }
	for i := 0; i <= steps; i++ {
		for j := 0; j <= steps; j++ {
			s := at(i, j)
			if j < steps {
				sc.refine(s, at(i, j+1), tol)
			}
			if i < steps {
				sc.refine(s, at(i+1, j), tol)
			}
		}
	}
}

func (sc *scape) refine(a, b sample, tol float64) {
	if a.sig == b.sig {
		return
	}
	if sc.cfg.Cancel != nil && sc.cfg.Cancel() {
		return
	}
	dd := b.pt.Dup - a.pt.Dup
	dt := b.pt.Transfer - a.pt.Transfer
	if math.Hypot(dd, dt) < tol {
		return
	}
	mid := Point{Dup: a.pt.Dup + dd/2, Transfer: a.pt.Transfer + dt/2}
	sig, err := sc.signatureAt(mid)
	if err != nil {
		return
	}
	sc.sigs[sig] = true
	m := sample{pt: mid, sig: sig}
	if sig != a.sig {
		sc.refine(a, m, tol)
	}
	if sig != b.sig {
		sc.refine(m, b, tol)
	}
}

// An affine is the cost of a signature
// as a function of the two free costs.
type affine struct {
	base   float64 // cospeciation and loss contribution
	dups   int
	transf int
}

func (sc *scape) affineOf(s recon.Signature) affine {
	return affine{
		base:   float64(s.Cospeciations)*sc.cfg.Cospeciation + float64(s.Losses)*sc.cfg.Loss,
		dups:   s.Duplications,
		transf: s.Transfers,
	}
}

func sameAffine(a, b affine) bool {
	return a.dups == b.dups && a.transf == b.transf && math.Abs(a.base-b.base) <= geomEps
}

// Envelope resolves the collected signatures
// into the cells of their lower envelope
// over the cost rectangle.
// Signatures with identical affine cost
// are tied over the whole plane
// and share a region.
func (sc *scape) envelope() []Region {
	sigs := make([]recon.Signature, 0, len(sc.sigs))
	for s := range sc.sigs {
		sigs = append(sigs, s)
	}
	sort.Slice(sigs, func(i, j int) bool { return lessSig(sigs[i], sigs[j]) })

	type group struct {
		fn   affine
		sigs []recon.Signature
	}
	var groups []group
	for _, s := range sigs {
		fn := sc.affineOf(s)
		found := false
		for gi := range groups {
			if sameAffine(groups[gi].fn, fn) {
				groups[gi].sigs = append(groups[gi].sigs, s)
				found = true
				break
			}
		}
		if !found {
			groups = append(groups, group{fn: fn, sigs: []recon.Signature{s}})
		}
	}

	rect := []Point{
		{sc.cfg.DupMin, sc.cfg.TransferMin},
		{sc.cfg.DupMax, sc.cfg.TransferMin},
		{sc.cfg.DupMax, sc.cfg.TransferMax},
		{sc.cfg.DupMin, sc.cfg.TransferMax},
	}

	var regions []Region
	for gi, g := range groups {
		poly := rect
		for gj, o := range groups {
			if gj == gi {
				continue
			}
			// keep the half-plane where g costs no more than o
			c0 := g.fn.base - o.fn.base
			cd := float64(g.fn.dups - o.fn.dups)
			ct := float64(g.fn.transf - o.fn.transf)
			poly = clip(poly, c0, cd, ct)
			if len(poly) == 0 {
				break
			}
		}
		poly = dedupe(poly)
		if len(poly) < 2 {
			continue
		}
		regions = append(regions, Region{Signatures: g.sigs, Vertices: poly})
	}
	return regions
}

// Clip cuts the polygon with the half-plane
// c0 + cd*dup + ct*transfer <= 0
// (Sutherland-Hodgman).
func clip(poly []Point, c0, cd, ct float64) []Point {
	if len(poly) == 0 {
		return nil
	}
	eval := func(p Point) float64 { return c0 + cd*p.Dup + ct*p.Transfer }

	var out []Point
	for i, a := range poly {
		b := poly[(i+1)%len(poly)]
		fa, fb := eval(a), eval(b)
		if fa <= geomEps {
			out = append(out, a)
		}
		if (fa < -geomEps && fb > geomEps) || (fa > geomEps && fb < -geomEps) {
			t := fa / (fa - fb)
			out = append(out, Point{
				Dup:      a.Dup + t*(b.Dup-a.Dup),
				Transfer: a.Transfer + t*(b.Transfer-a.Transfer),
			})
		}
	}
	return out
}

func dedupe(poly []Point) []Point {
	var out []Point
	for _, p := range poly {
		dup := false
		for _, q := range out {
			if math.Abs(p.Dup-q.Dup) <= geomEps && math.Abs(p.Transfer-q.Transfer) <= geomEps {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, p)
		}
	}
	return out
}

func lessSig(a, b recon.Signature) bool {
	if a.Cospeciations != b.Cospeciations {
		return a.Cospeciations < b.Cospeciations
	}
	if a.Duplications != b.Duplications {
		return a.Duplications < b.Duplications
	}
	if a.Transfers != b.Transfers {
		return a.Transfers < b.Transfers
	}
	return a.Losses < b.Losses
}
