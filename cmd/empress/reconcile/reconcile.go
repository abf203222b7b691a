// Copyright © 2024 Zach Witz <zachwitz@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package reconcile implements a command
// to compute minimum-cost reconciliations
// of a parasite tree over a host tree.
package reconcile

import (
	"fmt"
	"io"
	"os"

	"github.com/js-arias/command"
	"github.com/zachwitz/empress/recon"
	"github.com/zachwitz/empress/tree"
)

var Command = &command.Command{
	Usage: `reconcile [--sc <value>] [-d <value>] [-t <value>] [-l <value>]
	[--max <number>] [--sample <number>] [--seed <number>]
	<host-file> <parasite-file> <tipmap-file>`,
	Short: "compute minimum-cost reconciliations",
	Long: `
Command reconcile computes the minimum duplication-transfer-loss
reconciliation cost of a parasite (or gene) tree over a host tree, and prints
optimal reconciliations.

The arguments of the command are the host tree file and the parasite tree
file, both in newick format, and the tab-delimited tip map file associating
parasite terminals with host terminals (see 'empress help input-files').

The event costs are set with the flag --sc for cospeciation (default 0), the
flag -d for duplication (default 2), the flag -t for transfer (default 3),
and the flag -l for loss (default 1).

By default, the command prints the minimum cost, the number of optimal
reconciliations, and the first optimal reconciliation. Use the flag --max to
print up to the indicated number of reconciliations; the number of printed
reconciliations is capped by a safety ceiling. With the flag --sample, the
indicated number of reconciliations is drawn uniformly at random from the
optimal set instead; the flag --seed sets the seed of the sampling.

For each reconciliation the command reports whether the event mapping is
consistent with a temporal ordering of both trees: an optimal reconciliation
with transfers can still be impossible to realize in time.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var spCost float64
var dupCost float64
var transferCost float64
var lossCost float64
var maxRecs int
var sampleRecs int
var seed uint64

func setFlags(c *command.Command) {
	c.Flags().Float64Var(&spCost, "sc", 0, "")
	c.Flags().Float64Var(&dupCost, "d", 2, "")
	c.Flags().Float64Var(&transferCost, "t", 3, "")
	c.Flags().Float64Var(&lossCost, "l", 1, "")
	c.Flags().IntVar(&maxRecs, "max", 1, "")
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
	min, ok := tb.Optimum()
	if !ok {
		fmt.Fprintf(c.Stdout(), "no reconciliation exists under the given tip map\n")
		return nil
	}
	fmt.Fprintf(c.Stdout(), "minimum cost: %g\n", min)
	fmt.Fprintf(c.Stdout(), "optimal reconciliations: %s\n", tb.Count())

	var rs []*recon.Reconciliation
	if sampleRecs > 0 {
		rs = tb.Sample(sampleRecs, seed)
	} else {
		rs, err = tb.Enumerate(maxRecs)
		if err != nil {
			return err
		}
	}
	for i, r := range rs {
		printReconciliation(c.Stdout(), i+1, r)
	}
	return nil
}

func printReconciliation(w io.Writer, num int, r *recon.Reconciliation) {
	consistent := "temporally consistent"
	if !r.TemporallyConsistent() {
		consistent = "temporally inconsistent"
	}
	fmt.Fprintf(w, "# reconciliation %d: cost %g, events %s, %s\n", num, r.Cost, r.Signature(), consistent)
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
