/*
Package arbor is the logic core of a branching-narrative editor: typed story
variables, condition trees that gate choices, scene actions that mutate state
on entry, and a force-directed layout of the scene graph.

# Concept

A story is a graph of scenes linked by choices. Arbor keeps the narrative
state (variables, history, snapshots, playthroughs) in a variables.Manager,
evaluates gates with a condition.Engine and positions scenes with a
layout.Layout. The packages are I/O free; persistence lives behind
ports.ProjectStore (memory and redis adapters), and the arbor CLI wraps it
all for the terminal.

# Usage

	package main

	import (
		"fmt"
		"log"

		"github.com/aretw0/arbor"
	)

	func main() {
		p, err := arbor.Open("./ferry.yaml")
		if err != nil {
			log.Fatal(err)
		}
		if err := p.Validate().Err(); err != nil {
			log.Fatal(err)
		}

		p.Start("demo")
		state, err := p.Choose("talk")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(state.CurrentSceneID)
	}

# Packages

  - pkg/condition: evaluation, validation and rendering of condition trees.
  - pkg/variables: the variable manager (values, history, undo, snapshots, gates, actions, playthroughs).
  - pkg/layout: force-directed placement of the scene graph.
  - pkg/story: the YAML authoring format.
  - pkg/session: serialized read-modify-write of persisted projects.
*/
package arbor
