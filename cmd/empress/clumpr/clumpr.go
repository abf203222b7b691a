// Copyright © 2024 Zach Witz <zachwitz@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package clumpr implements a command
// to cluster optimal reconciliations
// and report their medians.
package clumpr

import (
	"fmt"
	"io"
	"os"

	"github.com/js-arias/command"
	"github.com/zachwitz/empress/cluster"
	"github.com/zachwitz/empress/recon"
	"github.com/zachwitz/empress/tree"
)

var Command = &command.Command{
	Usage: `clumpr [--sc <value>] [-d <value>] [-t <value>] [-l <value>]
	[-k <number>] [--threshold <number>] [--support]
	[--max <number>] [--sample <number>] [--seed <number>]
	<host-file> <parasite-file> <tipmap-file>`,
	Short: "cluster optimal reconciliations into medians",
	Long: `
Command clumpr collects a set of optimal reconciliations, groups them by the
number of parasite nodes with a different placement or event, and reports one
or more median reconciliations per group.

The arguments of the command are the host tree file and the parasite tree
file, both in newick format, and the tab-delimited tip map file (see
'empress help input-files').

The event costs are set with the flag --sc for cospeciation (default 0), the
flag -d for duplication (default 2), the flag -t for transfer (default 3),
and the flag -l for loss (default 1).

The number of clusters is set with the flag -k (default 3); alternatively,
the flag --threshold sets a distance threshold from which the number of
clusters is derived. With the flag --support, every co-optimal median of a
cluster is reported instead of a single canonical one.

The clustered set holds up to --max reconciliations (default 500) in the
deterministic enumeration order; with the flag --sample, the set is drawn
uniformly at random from the optimal set instead, seeded with --seed.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var spCost float64
var dupCost float64
var transferCost float64
var lossCost float64
var numClusters int
var threshold int
var support bool
var maxRecs int
var sampleRecs int
var seed uint64

func setFlags(c *command.Command) {
	c.Flags().Float64Var(&spCost, "sc", 0, "")
	c.Flags().Float64Var(&dupCost, "d", 2, "")
	c.Flags().Float64Var(&transferCost, "t", 3, "")
	c.Flags().Float64Var(&lossCost, "l", 1, "")
	c.Flags().IntVar(&numClusters, "k", 0, "")
	c.Flags().IntVar(&threshold, "threshold", 0, "")
	c.Flags().BoolVar(&support, "support", false, "")
	c.Flags().IntVar(&maxRecs, "max", 500, "")
	c.Flags().IntVar(&sampleRecs, "sample", 0, "")
	c.Flags().Uint64Var(&seed, "seed", 1, "")
}

func run(c *command.Command, args []string) error {
	if len(args) != 3 {
		return c.UsageError("expecting host, parasite, and tip map files")
	}
	host, parasite, tips, err := readInput(args[0], args[1], args[2])
	if err != nil {
		return err
	}

	cs := recon.Costs{
		Cospeciation: spCost,
		Duplication:  dupCost,
		Transfer:     transferCost,
		Loss:         lossCost,
	}
	tb, err := recon.New(host, parasite, tips, cs)
	if err != nil {
		return err
	}
	if _, ok := tb.Optimum(); !ok {
		fmt.Fprintf(c.Stdout(), "no reconciliation exists under the given tip map\n")
		return nil
	}

	var rs []*recon.Reconciliation
	if sampleRecs > 0 {
		rs = tb.Sample(sampleRecs, seed)
	} else {
		rs, err = tb.Enumerate(maxRecs)
		if err != nil {
			return err
		}
	}

	cfg := cluster.Config{
		Clusters:  numClusters,
		Threshold: threshold,
		Support:   support,
	}
	if numClusters == 0 && threshold == 0 {
		cfg.Clusters = 3
		if cfg.Clusters > len(rs) {
			cfg.Clusters = len(rs)
		}
	}
	cls, err := cluster.Clusters(rs, cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.Stdout(), "reconciliations: %d (of %s optimal)\n", len(rs), tb.Count())
	for i, cl := range cls {
		fmt.Fprintf(c.Stdout(), "# cluster %d: %d members, total distance to median %d\n", i+1, len(cl.Members), cl.Cost)
		for _, m := range cl.Medians {
			printMedian(c.Stdout(), rs[m])
		}
	}
	return nil
}

func printMedian(w io.Writer, r *recon.Reconciliation) {
	fmt.Fprintf(w, "median: cost %g, events %s\n", r.Cost, r.Signature())
	fmt.Fprintf(w, "parasite\tevent\thost\ttarget\tlosses\n")
	for _, p := range r.Parasite.Postorder() {
		e := r.Events[p]
		target := "-"
		if e.Target >= 0 {
			target = nodeLabel(r.Host, e.Target)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", nodeLabel(r.Parasite, p), e.Type, nodeLabel(r.Host, e.Host), target, e.Losses)
	}
}

func nodeLabel(t *tree.Tree, id int) string {
	if t.IsTerm(id) {
		return t.Taxon(id)
	}
	return fmt.Sprintf("n%d", id)
}

func readInput(hostFile, parasiteFile, tipFile string) (host, parasite *tree.Tree, tips *tree.TipMap, err error) {
	host, err = readTree(hostFile)
	if err != nil {
		return nil, nil, nil, err
	}
	parasite, err = readTree(parasiteFile)
	if err != nil {
		return nil, nil, nil, err
	}

	f, err := os.Open(tipFile)
	if err != nil {
		return nil, nil, nil, err
	}
	defer f.Close()
	tips, err = tree.ReadTipMap(f)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("while reading file %q: %v", tipFile, err)
	}
	return host, parasite, tips, nil
}

func readTree(name string) (*tree.Tree, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := tree.Newick(f, name)
	if err != nil {
		return nil, fmt.Errorf("while reading file %q: %v", name, err)
	}
	return t, nil
}
