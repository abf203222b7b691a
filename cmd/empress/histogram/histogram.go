// Copyright © 2024 Zach Witz <zachwitz@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package histogram implements a command
// to compare the observed reconciliation cost
// against a randomized null distribution.
package histogram

import (
	"fmt"
	"os"

	"github.com/js-arias/command"
	"github.com/zachwitz/empress/histogram"
	"github.com/zachwitz/empress/recon"
	"github.com/zachwitz/empress/tree"
	"gonum.org/v1/plot/vg"
)

var Command = &command.Command{
	Usage: `histogram [--sc <value>] [-d <value>] [-t <value>] [-l <value>]
	[--reps <number>] [--seed <number>] [--ynorm] [--upper]
	[--bins <number>] [--csv <cost-file>]
	[-o|--output <plot-file>]
	<host-file> <parasite-file> <tipmap-file>`,
	Short: "compare the observed cost with a random null",
	Long: `
Command histogram builds an empirical null distribution of minimum
reconciliation costs by repeatedly permuting the tip map, keeping both tree
shapes, and reports the placement of the observed cost in that distribution.

The arguments of the command are the host tree file and the parasite tree
file, both in newick format, and the tab-delimited tip map file (see
'empress help input-files').

The event costs are set with the flag --sc for cospeciation (default 0), the
flag -d for duplication (default 2), the flag -t for transfer (default 3),
and the flag -l for loss (default 1).

The flag --reps sets the number of randomized replicates (default 100) and
the flag --seed the seed of the randomization; a run with the same seed
always produces the same distribution. Replicates without a valid
reconciliation are excluded from the distribution and reported.

By default, the p-value is the fraction of replicate costs at or below the
observed cost; with the flag --upper, at or above it. With the flag --ynorm
every cost is divided by the number of parasite terminals.

With the flag --csv, the replicate costs are written to the indicated file,
one cost per line. With the flag --output, or -o, the distribution is drawn
to the indicated file, with --bins histogram bins (default 20); the image
format is taken from the file extension (e.g. pdf, png, or svg).
	`,
	SetFlags: setFlags,
	Run:      run,
}

var spCost float64
var dupCost float64
var transferCost float64
var lossCost float64
var reps int
var seed uint64
var yNorm bool
var upper bool
var bins int
var csvFile string
var output string

func setFlags(c *command.Command) {
	c.Flags().Float64Var(&spCost, "sc", 0, "")
	c.Flags().Float64Var(&dupCost, "d", 2, "")
	c.Flags().Float64Var(&transferCost, "t", 3, "")
	c.Flags().Float64Var(&lossCost, "l", 1, "")
	c.Flags().IntVar(&reps, "reps", 100, "")
	c.Flags().Uint64Var(&seed, "seed", 1, "")
	c.Flags().BoolVar(&yNorm, "ynorm", false, "")
	c.Flags().BoolVar(&upper, "upper", false, "")
	c.Flags().IntVar(&bins, "bins", 20, "")
	c.Flags().StringVar(&csvFile, "csv", "", "")
	c.Flags().StringVar(&output, "output", "", "")
	c.Flags().StringVar(&output, "o", "", "")
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
	tail := histogram.Lower
	if upper {
		tail = histogram.Upper
	}
	r, err := histogram.Null(host, parasite, tips, cs, histogram.Options{
		Repetitions: reps,
		Seed:        seed,
		Normalize:   yNorm,
		Tail:        tail,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.Stdout(), "observed cost: %g\n", r.Observed)
	fmt.Fprintf(c.Stdout(), "replicates: %d (infeasible: %d)\n", len(r.Costs)+r.Infeasible, r.Infeasible)
	fmt.Fprintf(c.Stdout(), "null mean: %g\n", r.Mean)
	fmt.Fprintf(c.Stdout(), "null standard deviation: %g\n", r.StdDev)
	fmt.Fprintf(c.Stdout(), "p-value: %g\n", r.PValue)
	fmt.Fprintf(c.Stdout(), "p-value (normal approximation): %g\n", r.PNormal)

	if csvFile != "" {
		if err := writeCosts(r); err != nil {
			return err
		}
	}
	if output == "" {
		return nil
	}
	p, err := r.Plot(bins)
	if err != nil {
		return err
	}
	if err := p.Save(15*vg.Centimeter, 10*vg.Centimeter, output); err != nil {
		return fmt.Errorf("while writing to %q: %v", output, err)
	}
	return nil
}

func writeCosts(r *histogram.Result) (err error) {
	f, err := os.Create(csvFile)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	fmt.Fprintf(f, "cost\n")
	for _, c := range r.Costs {
		fmt.Fprintf(f, "%g\n", c)
	}
	return nil
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
