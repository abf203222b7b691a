// Copyright © 2024 Zach Witz <zachwitz@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package cluster groups a set of optimal reconciliations
// by the distance between their event mappings
// and reports one or more median reconciliations
// per group.
package cluster

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/zachwitz/empress/recon"
)

// MaxSet is the safety ceiling on the number
// of reconciliations accepted for clustering:
// the engine stores the full pairwise distance matrix,
// so the memory cost grows with the square of the set size.
const MaxSet = 5_000

// Config controls the clustering.
// Exactly one of Clusters or Threshold must be set.
type Config struct {
	// Clusters is the number of clusters to build.
	Clusters int

	// Threshold is a distance threshold
	// used to derive the number of clusters:
	// a reconciliation farther than the threshold
	// from every current median
	// seeds a new cluster.
	Threshold int

	// Support reports every co-optimal median
	// of a cluster.
	// Otherwise only the median
	// with the lowest set index is reported.
	Support bool

	// MaxIterations caps the medoid refinement loop.
	// Zero means the default of 100.
	MaxIterations int
}

// A Cluster is a group of reconciliations
// with its median(s).
// Members and medians are indexes
// into the clustered set.
type Cluster struct {
	// Members of the cluster,
	// in increasing set index.
	Members []int

	// Medians is the member (or members, see Config.Support)
	// minimizing the total distance
	// to the other members.
	Medians []int

	// Cost is the total distance
	// from the members to the first median.
	Cost int
}

// Clusters groups the reconciliations
// by their event-mapping distance
// using iterative medoid refinement:
// each reconciliation is assigned
// to its closest current median,
// and each cluster's median is recomputed
// as the member minimizing the total distance
// to the other members,
// until the medians are stable.
// All reconciliations must be over the same pair of trees.
func Clusters(rs []*recon.Reconciliation, cfg Config) ([]Cluster, error) {
	if len(rs) == 0 {
		return nil, errors.New("cluster: empty reconciliation set")
	}
	if len(rs) > MaxSet {
		return nil, &recon.CapacityError{Requested: len(rs), Limit: MaxSet, Msg: "reconciliation clustering"}
	}
	if (cfg.Clusters <= 0) == (cfg.Threshold <= 0) {
		return nil, errors.New("cluster: exactly one of a cluster count or a distance threshold is required")
	}
	if cfg.Clusters > len(rs) {
		return nil, fmt.Errorf("cluster: %d clusters requested over %d reconciliations", cfg.Clusters, len(rs))
	}
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = 100
	}

	d := distMatrix(rs)
	var medoids []int
	if cfg.Clusters > 0 {
		medoids = buildMedoids(d, cfg.Clusters)
	} else {
		medoids = thresholdMedoids(d, cfg.Threshold)
	}

	assign := make([]int, len(rs))
	for range maxIter {
		assignMembers(d, medoids, assign)

		moved := false
		for ci, m := range medoids {
			nm := bestMedoid(d, assign, ci)
			// a cluster can empty out when the set
			// has duplicated event mappings
			if nm >= 0 && nm != m {
				medoids[ci] = nm
				moved = true
			}
		}
		if !moved {
			break
		}
	}
	assignMembers(d, medoids, assign)

	grouped := make([]Cluster, len(medoids))
	for i, r := range assign {
		grouped[r].Members = append(grouped[r].Members, i)
	}
	var cls []Cluster
	for _, cl := range grouped {
		if len(cl.Members) == 0 {
			continue
		}
		sort.Ints(cl.Members)
		meds, cost := medians(d, cl.Members)
		if !cfg.Support {
			meds = meds[:1]
		}
		cl.Medians = meds
		cl.Cost = cost
		cls = append(cls, cl)
	}
	sort.Slice(cls, func(i, j int) bool { return cls[i].Members[0] < cls[j].Members[0] })
	return cls, nil
}

func distMatrix(rs []*recon.Reconciliation) [][]int {
	d := make([][]int, len(rs))
	for i := range d {
		d[i] = make([]int, len(rs))
	}
	for i := range rs {
		for j := i + 1; j < len(rs); j++ {
			v := recon.Distance(rs[i], rs[j])
			d[i][j] = v
			d[j][i] = v
		}
	}
	return d
}

// BuildMedoids seeds k medoids:
// the first minimizes the total distance to the set,
// each following one maximizes the reduction
// of the total distance to the closest medoid.
// Ties go to the lowest index,
// so the seeding is deterministic.
func buildMedoids(d [][]int, k int) []int {
	n := len(d)
	medoids := make([]int, 0, k)

	best, bestSum := 0, math.MaxInt
	for i := range n {
		sum := 0
		for j := range n {
			sum += d[i][j]
		}
		if sum < bestSum {
			best, bestSum = i, sum
		}
	}
	medoids = append(medoids, best)

	closest := make([]int, n)
	for i := range n {
		closest[i] = d[i][best]
	}
	for len(medoids) < k {
		best, bestGain := -1, -1
		for i := range n {
			if closest[i] == 0 {
				continue
			}
			gain := 0
			for j := range n {
				if v := closest[j] - d[i][j]; v > 0 {
					gain += v
				}
			}
			if gain > bestGain {
				best, bestGain = i, gain
			}
		}
		if best < 0 {
			// every remaining point duplicates a medoid
			for i := range n {
				if !contains(medoids, i) {
					best = i
					break
				}
			}
		}
		medoids = append(medoids, best)
		for j := range n {
			if d[best][j] < closest[j] {
				closest[j] = d[best][j]
			}
		}
	}
	sort.Ints(medoids)
	return medoids
}

// ThresholdMedoids seeds a medoid
// for every reconciliation farther than the threshold
// from all current medoids.
func thresholdMedoids(d [][]int, threshold int) []int {
	medoids := []int{0}
	for i := 1; i < len(d); i++ {
		far := true
		for _, m := range medoids {
			if d[i][m] <= threshold {
				far = false
				break
			}
		}
		if far {
			medoids = append(medoids, i)
		}
	}
	return medoids
}

func assignMembers(d [][]int, medoids []int, assign []int) {
	for i := range assign {
		best, bestD := 0, math.MaxInt
		for ci, m := range medoids {
			if d[i][m] < bestD {
				best, bestD = ci, d[i][m]
			}
		}
		assign[i] = best
	}
}

func bestMedoid(d [][]int, assign []int, ci int) int {
	best, bestSum := -1, math.MaxInt
	for i, c := range assign {
		if c != ci {
			continue
		}
		sum := 0
		for j, cj := range assign {
			if cj == ci {
				sum += d[i][j]
			}
		}
		if sum < bestSum {
			best, bestSum = i, sum
		}
	}
	return best
}

// Medians returns the members minimizing
// the total distance to the other members,
// in increasing index,
// with the minimized total distance.
func medians(d [][]int, members []int) ([]int, int) {
	bestSum := math.MaxInt
	var meds []int
	for _, i := range members {
		sum := 0
		for _, j := range members {
			sum += d[i][j]
		}
		if sum < bestSum {
			bestSum = sum
			meds = meds[:0]
		}
		if sum == bestSum {
			meds = append(meds, i)
		}
	}
	return meds, bestSum
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
