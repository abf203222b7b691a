// Copyright © 2024 Zach Witz <zachwitz@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package costscape implements a command
// to partition the duplication-transfer cost plane
// into regions with the same optimal reconciliation.
package costscape

import (
	"fmt"
	"os"

	"github.com/js-arias/command"
	"github.com/zachwitz/empress/costscape"
	"github.com/zachwitz/empress/tree"
	"gonum.org/v1/plot/vg"
)

var Command = &command.Command{
	Usage: `costscape [--dmin <value>] [--dmax <value>]
	[--tmin <value>] [--tmax <value>]
	[--sc <value>] [-l <value>]
	[--steps <number>] [--tol <value>]
	[-o|--output <plot-file>]
	<host-file> <parasite-file> <tipmap-file>`,
	Short: "partition the cost plane into regions",
	Long: `
Command costscape sweeps a rectangle of the (duplication cost, transfer cost)
plane, holding the cospeciation and loss costs fixed, and partitions the
rectangle into the maximal regions where the optimal reconciliation keeps
the same event counts.

The arguments of the command are the host tree file and the parasite tree
file, both in newick format, and the tab-delimited tip map file (see
'empress help input-files').

The rectangle is set with the flags --dmin and --dmax for the duplication
cost (defaults 0.2 and 5), and --tmin and --tmax for the transfer cost
(defaults 0.2 and 5). The flag --sc sets the fixed cospeciation cost
(default 0) and the flag -l the fixed loss cost (default 1).

The rectangle is sampled on a grid of --steps intervals per side (default
10), refined near the detected region boundaries down to the tolerance set
with the flag --tol.

The regions are printed as tab-delimited rows with the event signature
"<S,D,T,L>", the region area, and the vertices of the region polygon. With
the flag --output, or -o, the regions are also drawn to the indicated file;
the image format is taken from the file extension (e.g. pdf, png, or svg).
	`,
	SetFlags: setFlags,
	Run:      run,
}

var dupMin float64
var dupMax float64
var transferMin float64
var transferMax float64
var spCost float64
var lossCost float64
var steps int
var tolerance float64
var output string

func setFlags(c *command.Command) {
	c.Flags().Float64Var(&dupMin, "dmin", 0.2, "")
	c.Flags().Float64Var(&dupMax, "dmax", 5, "")
	c.Flags().Float64Var(&transferMin, "tmin", 0.2, "")
	c.Flags().Float64Var(&transferMax, "tmax", 5, "")
	c.Flags().Float64Var(&spCost, "sc", 0, "")
	c.Flags().Float64Var(&lossCost, "l", 1, "")
	c.Flags().IntVar(&steps, "steps", 10, "")
	c.Flags().Float64Var(&tolerance, "tol", 0, "")
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

	cfg := costscape.Config{
		DupMin:       dupMin,
		DupMax:       dupMax,
		TransferMin:  transferMin,
		TransferMax:  transferMax,
		Cospeciation: spCost,
		Loss:         lossCost,
		Steps:        steps,
		Tolerance:    tolerance,
	}
	regions, err := costscape.Partition(host, parasite, tips, cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.Stdout(), "signature\tarea\tvertices\n")
	for _, r := range regions {
		fmt.Fprintf(c.Stdout(), "%s\t%.6g\t", r.Signatures[0], r.Area())
		for i, v := range r.Vertices {
			if i > 0 {
				fmt.Fprintf(c.Stdout(), " ")
			}
			fmt.Fprintf(c.Stdout(), "(%.6g,%.6g)", v.Dup, v.Transfer)
		}
		fmt.Fprintf(c.Stdout(), "\n")
	}

	if output == "" {
		return nil
	}
	p, err := costscape.Plot(regions, cfg)
	if err != nil {
		return err
	}
	if err := p.Save(15*vg.Centimeter, 15*vg.Centimeter, output); err != nil {
		return fmt.Errorf("while writing to %q: %v", output, err)
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
