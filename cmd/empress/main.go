// Copyright © 2024 Zach Witz <zachwitz@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Empress is a tool for the event-based reconciliation
// of a pair of phylogenetic trees
// under the duplication-transfer-loss model.
package main

import (
	"github.com/js-arias/command"
	"github.com/zachwitz/empress/cmd/empress/clumpr"
	"github.com/zachwitz/empress/cmd/empress/costscape"
	"github.com/zachwitz/empress/cmd/empress/histogram"
	"github.com/zachwitz/empress/cmd/empress/reconcile"
)

var app = &command.Command{
	Usage: "empress <command> [<argument>...]",
	Short: "a tool for duplication-transfer-loss tree reconciliation",
}

func init() {
	app.Add(reconcile.Command)
	app.Add(costscape.Command)
	app.Add(histogram.Command)
	app.Add(clumpr.Command)
}

func main() {
	app.Main()
}
