/*
Package flowpath models fluidic networks (syringes, tubing, junctions, detectors) as a graph of segments with volumes, and answers questions about them: how much volume lies between two points, which paths connect them, how long a change of flow rates takes to reach a detector, and which junctions mix streams at unstable ratios.

# Concept

Every segment belongs to a Network. Connections may be unconditional or bound to a state of a state group (for example the position of a selector valve); switching a group's state on the Network changes which connections are active for every segment at once. Queries only follow the active connections unless asked to ignore state.

# Descriptions

Networks are usually written as text, one chain per line:

	# declarations
	Syringe_1:0, Syringe_2:0, line_a1:10, line_a2:20, line_b1:100, ftir:8

	# connections
	Syringe_1 > line_a1 > line_b1 > ftir
	Syringe_2 > line_a2 > line_b1 | valve:merge

A trailing " | group:state" constrains the last link of the chain, " || group:state" every link. Files ending in .hcl are read with the HCL loader instead, which adds variables and tube geometry helpers.

# Usage

	g, err := flowpath.Load("reactor.flow")
	if err != nil {
		log.Fatal(err)
	}
	g.SetState("valve", "merge")

	minutes, found, err := g.TimeFrom("ftir", map[string]float64{"Syringe_1": 55, "Syringe_2": 90})

See the pkg/flow package for the query API and pkg/dsl for building networks in code.
*/
package flowpath
