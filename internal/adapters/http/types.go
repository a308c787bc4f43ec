package http

import (
	"github.com/aretw0/flowpath/pkg/flow"
	core "github.com/aretw0/flowpath/pkg/graph"
)

// SegmentView is the JSON form of a segment.
type SegmentView struct {
	Name        string   `json:"name"`
	Volume      float64  `json:"volume"`
	Children    []string `json:"children"`
	Parents     []string `json:"parents"`
	StateGroups []string `json:"state_groups,omitempty"`
}

// Edges lists the neighbors of one bucket.
type Edges struct {
	Children []string `json:"children"`
	Parents  []string `json:"parents"`
}

// SegmentDetail adds the per-state buckets to SegmentView.
type SegmentDetail struct {
	SegmentView
	Summary string           `json:"summary"`
	Buckets map[string]Edges `json:"buckets"`
}

type StateRequest struct {
	State string `json:"state"`
}

type FlowRequest struct {
	At            string             `json:"at"`
	Rates         map[string]float64 `json:"rates"`
	CriticalRatio float64            `json:"critical_ratio,omitempty"`
}

type VolumeResponse struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Found  bool    `json:"found"`
	Volume float64 `json:"volume"`
}

type TimeResponse struct {
	At      string  `json:"at"`
	Minutes float64 `json:"minutes"`
	Seconds float64 `json:"seconds"`
}

type StabilityResponse struct {
	At            string             `json:"at"`
	CriticalRatio float64            `json:"critical_ratio"`
	Stable        bool               `json:"stable"`
	Unstable      []string           `json:"unstable"`
	WorstRatio    float64            `json:"worst_ratio"`
	Junctions     map[string]float64 `json:"junctions"`
}

type ErrorResponse struct {
	Error string     `json:"error"`
	Paths [][]string `json:"paths,omitempty"`
}

func segmentView(seg *flow.Segment) SegmentView {
	edges := seg.Connections(false)
	return SegmentView{
		Name:        seg.Name(),
		Volume:      seg.Volume(),
		Children:    nodeNames(edges.Children.Items()),
		Parents:     nodeNames(edges.Parents.Items()),
		StateGroups: seg.Node().StateGroups(),
	}
}

func edgesView(e core.EdgeSet[*flow.Segment]) Edges {
	return Edges{
		Children: nodeNames(e.Children.Items()),
		Parents:  nodeNames(e.Parents.Items()),
	}
}

func nodeNames(nodes []*core.Node[*flow.Segment]) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Data().Name()
	}
	return out
}
