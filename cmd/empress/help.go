// Copyright © 2024 Zach Witz <zachwitz@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package main

import "github.com/js-arias/command"

func init() {
	app.Add(inputFilesGuide)
	app.Add(eventsGuide)
}

var inputFilesGuide = &command.Command{
	Usage: "input-files",
	Short: "about the input files",
	Long: `
Every empress command works on three input files: the host tree, the parasite
(or gene) tree, and the tip map between them.

Both trees are rooted binary trees in newick (parenthetical) format, for
example:

	((a,b),c);

Branch lengths and internal node labels are accepted and ignored, as the
reconciliation works on the tree topology alone. Trees with polytomies are
rejected.

The tip map is a tab-delimited file. Each row associates a terminal of the
parasite tree with a terminal of the host tree:

	# parasite	host
	A	a
	B	b
	C	c

Several parasite terminals can share a host terminal. A parasite terminal
left out of the file is free: it can sit on any host terminal. A row naming
a host terminal that is not in the host tree is an error. Lines starting
with '#' are ignored.
	`,
}

var eventsGuide = &command.Command{
	Usage: "events",
	Short: "about the event model",
	Long: `
Empress explains the parasite tree over the host tree with four kinds of
events, each one with its own cost:

	- cospeciation (S): the parasite branches in parallel with its host.
	- duplication (D): the parasite branches within a single host lineage.
	- transfer (T): one child of the parasite jumps to a host lineage that
	  is neither an ancestor nor a descendant of the current one.
	- loss (L): a host lineage branches but the parasite follows only one
	  of the sides.

A reconciliation assigns every parasite node to a host node and an event, and
its cost is the sum of the costs of its events. The reported reconciliations
minimize that sum. The minimum is rarely unique: the optimal set can grow
exponentially with the tree size, which is why the commands expose bounded
enumeration and random sampling instead of an unconditional full listing.
	`,
}
