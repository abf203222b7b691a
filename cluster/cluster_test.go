// Copyright © 2024 Zach Witz <zachwitz@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package cluster_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zachwitz/empress/cluster"
	"github.com/zachwitz/empress/recon"
	"github.com/zachwitz/empress/tree"
)

func newTree(t testing.TB, nwk, name string) *tree.Tree {
	t.Helper()

	tr, err := tree.Newick(strings.NewReader(nwk), name)
	require.NoError(t, err, "reading tree %q", nwk)
	return tr
}

func newTips(pairs ...string) *tree.TipMap {
	m := tree.NewTipMap()
	for i := 0; i < len(pairs); i += 2 {
		m.Set(pairs[i], pairs[i+1])
	}
	return m
}

// transferPair returns the two optimal reconciliations
// of an instance where either parasite terminal
// can be the transferred one.
func transferPair(t testing.TB) []*recon.Reconciliation {
	t.Helper()

	host := newTree(t, "((a,b),c);", "host")
	parasite := newTree(t, "(A,C);", "parasite")
	tips := newTips("A", "a", "C", "c")

	tb, err := recon.New(host, parasite, tips, recon.Costs{Duplication: 3, Transfer: 1, Loss: 2})
	require.NoError(t, err)
	rs, err := tb.Enumerate(0)
	require.NoError(t, err)
	require.Len(t, rs, 2)
	return rs
}

func TestClustersSingletons(t *testing.T) {
	rs := transferPair(t)
	require.Positive(t, recon.Distance(rs[0], rs[1]))

	cls, err := cluster.Clusters(rs, cluster.Config{Clusters: 2})
	require.NoError(t, err)
	require.Len(t, cls, 2)

	for i, cl := range cls {
		assert.Equal(t, []int{i}, cl.Members, "cluster %d members", i)
		assert.Equal(t, []int{i}, cl.Medians, "cluster %d medians", i)
		assert.Zero(t, cl.Cost, "cluster %d cost", i)
	}
}

func TestClustersSingle(t *testing.T) {
	rs := transferPair(t)

	cls, err := cluster.Clusters(rs, cluster.Config{Clusters: 1})
	require.NoError(t, err)
	require.Len(t, cls, 1)

	cl := cls[0]
	assert.Equal(t, []int{0, 1}, cl.Members)
	require.Len(t, cl.Medians, 1)
	assert.Equal(t, recon.Distance(rs[0], rs[1]), cl.Cost)
}

func TestClustersThreshold(t *testing.T) {
	base := []recon.Event{
		{Type: recon.Transfer, Host: 0, Target: 4},
		{Type: recon.Tip, Host: 2, Target: -1},
		{Type: recon.Tip, Host: 4, Target: -1},
	}
	moved := []recon.Event{
		{Type: recon.Transfer, Host: 4, Target: 0},
		{Type: recon.Tip, Host: 2, Target: -1},
		{Type: recon.Tip, Host: 3, Target: -1},
	}
	rs := []*recon.Reconciliation{
		{Events: base},
		{Events: moved},
		{Events: base},
	}
	require.Equal(t, 2, recon.Distance(rs[0], rs[1]))

	// every reconciliation within the threshold
	// of the first one joins its cluster
	cls, err := cluster.Clusters(rs, cluster.Config{Threshold: 2})
	require.NoError(t, err)
	assert.Len(t, cls, 1)

	// a tighter threshold seeds a cluster
	// per distant event mapping
	cls, err = cluster.Clusters(rs, cluster.Config{Threshold: 1})
	require.NoError(t, err)
	require.Len(t, cls, 2)
	assert.Equal(t, []int{0, 2}, cls[0].Members)
	assert.Equal(t, []int{1}, cls[1].Members)
}

func TestClustersSupport(t *testing.T) {
	pair := transferPair(t)

	// with each mapping repeated,
	// every member is a co-optimal median
	rs := []*recon.Reconciliation{pair[0], pair[1], pair[0], pair[1]}

	cls, err := cluster.Clusters(rs, cluster.Config{Clusters: 1, Support: true})
	require.NoError(t, err)
	require.Len(t, cls, 1)
	assert.Equal(t, []int{0, 1, 2, 3}, cls[0].Medians)

	cls, err = cluster.Clusters(rs, cluster.Config{Clusters: 1})
	require.NoError(t, err)
	require.Len(t, cls, 1)
	assert.Equal(t, []int{0}, cls[0].Medians)
}

func TestClustersBadConfig(t *testing.T) {
	rs := transferPair(t)

	_, err := cluster.Clusters(nil, cluster.Config{Clusters: 1})
	assert.Error(t, err, "empty set")

	_, err = cluster.Clusters(rs, cluster.Config{})
	assert.Error(t, err, "neither clusters nor threshold")

	_, err = cluster.Clusters(rs, cluster.Config{Clusters: 1, Threshold: 1})
	assert.Error(t, err, "both clusters and threshold")

	_, err = cluster.Clusters(rs, cluster.Config{Clusters: 3})
	assert.Error(t, err, "more clusters than reconciliations")
}
