// Copyright © 2024 Zach Witz <zachwitz@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package histogram

import (
	"math"
	"testing"
)

func TestFinish(t *testing.T) {
	r := &Result{
		Observed: 2,
		Costs:    []float64{1, 2, 3, 4},
	}
	r.finish(Lower)

	// ties count on both tails
	if r.PValue != 0.5 {
		t.Errorf("lower p-value: got %g, want 0.5", r.PValue)
	}
	if r.Mean != 2.5 {
		t.Errorf("mean: got %g, want 2.5", r.Mean)
	}
	if r.StdDev <= 0 {
		t.Errorf("standard deviation: got %g, want a positive value", r.StdDev)
	}
	if r.PNormal <= 0 || r.PNormal >= 1 {
		t.Errorf("normal p-value: got %g, want a value in (0,1)", r.PNormal)
	}

	r.finish(Upper)
	if r.PValue != 0.75 {
		t.Errorf("upper p-value: got %g, want 0.75", r.PValue)
	}
}

func TestFinishEmpty(t *testing.T) {
	r := &Result{Observed: 2}
	r.finish(Lower)

	if !math.IsNaN(r.PValue) {
		t.Errorf("p-value: got %g, want NaN", r.PValue)
	}
	if !math.IsNaN(r.Mean) || !math.IsNaN(r.StdDev) {
		t.Errorf("moments: got %g, %g, want NaN", r.Mean, r.StdDev)
	}
}

func TestFinishConstant(t *testing.T) {
	r := &Result{
		Observed: 3,
		Costs:    []float64{3, 3, 3},
	}
	r.finish(Lower)

	if r.PValue != 1 {
		t.Errorf("p-value: got %g, want 1", r.PValue)
	}
	// the normal approximation degenerates
	// when every replicate has the same cost
	if !math.IsNaN(r.PNormal) {
		t.Errorf("normal p-value: got %g, want NaN", r.PNormal)
	}
}
