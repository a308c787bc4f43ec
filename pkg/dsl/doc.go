/*
Package dsl builds flow networks, either programmatically with a fluent builder
or from a line-oriented text description.

Fluent builder:

	b := dsl.New()
	b.Add("Bottle_1").Volume(0).To("b1_to_sel")
	b.Add("b1_to_sel").Volume(150).To("sel_to_syr", graph.When("selector", "refill_1"))
	net, assumed := b.Build() // assumed lists segments that defaulted to volume 0

Text description (see Decode):

	# declarations: name[:volume], comma separated
	Syringe_1:0, line_a1:10, ftir:8

	# connection chains; " | " constrains the last link, " || " every link
	Syringe_1 > line_a1 > ftir
	b1_to_sel > sel_to_syr | selector:refill_1
	Syringe > sel_to_syr > sel_to_rxtr || selector:infuse

Tokens " > ", " | " and " || " must be surrounded by spaces, so names such as
"sel->vlv" or "sel<>syr" are valid. Problems are reported per line as
Diagnostics and never stop the rest of the description from being built.

EncodeSelectorValve and GenerateHeader produce description text for recurring
wiring patterns and for re-using an existing network.
*/
package dsl
