/*
Package flow models networks of flow segments (tubing, vessels, reactors) whose
connectivity depends on the state of switching devices such as valves and
selectors.

A Network owns the segments, indexed by name, and the state registry they
resolve against. Segments answer path questions under the current states:

  - VolumeTo: internal volume between two segments.
  - DurationTo / TimeFrom: travel time once the sources flow at given rates.
  - CheckFlowStabilityFrom: inlet flow-rate imbalance at junctions.

Path queries require a single path between the two segments under the current
states. Several paths produce an *AmbiguousPathError instead of a guess. Flow
queries seed the sources, iterate the rates of the segments in between until
they reach a fixed point, and always reset the scratch rates afterwards, even
when they fail.
*/
package flow
