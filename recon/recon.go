// Copyright © 2024 Zach Witz <zachwitz@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package recon implements the duplication-transfer-loss
// reconciliation of a parasite tree with its host tree:
// the dynamic programming table of minimum costs
// for every pairing of a parasite node with a host node,
// and the enumeration of the event mappings
// that attain the optimal cost.
package recon

import (
	"fmt"
	"math"
)

// Eps is the tolerance used to compare costs.
// Two costs closer than Eps are a genuine tie,
// so all tied choices are kept
// for enumeration and cost-region detection.
const Eps = 1e-9

func approxEq(a, b float64) bool {
	if math.IsInf(a, 1) || math.IsInf(b, 1) {
		return math.IsInf(a, 1) && math.IsInf(b, 1)
	}
	return math.Abs(a-b) < Eps
}

// Costs is the cost vector of a reconciliation:
// the cost charged for each kind of event.
// All costs must be finite and non-negative.
type Costs struct {
	Cospeciation float64
	Duplication  float64
	Transfer     float64
	Loss         float64
}

// Validate returns an error
// if a cost is negative,
// infinite,
// or not a number.
func (c Costs) Validate() error {
	for _, v := range []struct {
		name string
		cost float64
	}{
		{"cospeciation", c.Cospeciation},
		{"duplication", c.Duplication},
		{"transfer", c.Transfer},
		{"loss", c.Loss},
	} {
		if math.IsNaN(v.cost) || math.IsInf(v.cost, 0) {
			return fmt.Errorf("costs: %s: invalid value %v", v.name, v.cost)
		}
		if v.cost < 0 {
			return fmt.Errorf("costs: %s: negative cost %v", v.name, v.cost)
		}
	}
	return nil
}

// A MappingError is the error produced
// when a tip map is inconsistent
// with the analyzed trees.
type MappingError struct {
	Parasite string
	Host     string
	Msg      string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("tip map: parasite %q, host %q: %s", e.Parasite, e.Host, e.Msg)
}

// A CapacityError is the error produced
// when an enumeration or a clustering
// is requested beyond a safety ceiling.
// The caller can retry with a lower request
// or switch to sampling.
type CapacityError struct {
	Requested int
	Limit     int
	Msg       string
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: requested %d, limit %d", e.Msg, e.Requested, e.Limit)
}
