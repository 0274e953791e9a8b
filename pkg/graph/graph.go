package graph

import (
	"github.com/scan-io-git/identity-leak/pkg/signal"
)

// Relation labels an inferred relationship between two nodes.
type Relation string

const (
	RelationProfileInfo  Relation = "PROFILE_INFO"
	RelationSocialLink   Relation = "SOCIAL_LINK"
	RelationOwnsRepo     Relation = "OWNS_REPO"
	RelationOwnsAsset    Relation = "OWNS_ASSET"
	RelationTemporalNext Relation = "TEMPORAL_NEXT"
	RelationYearly       Relation = "YEARLY"
	RelationSharedValue  Relation = "SHARED_VALUE"
)

// precedence of each relation; a lower number wins when two rules connect the same pair.
var precedence = map[Relation]int{
	RelationProfileInfo:  1,
	RelationSocialLink:   2,
	RelationOwnsRepo:     3,
	RelationOwnsAsset:    3,
	RelationTemporalNext: 4,
	RelationYearly:       4,
	RelationSharedValue:  5,
}

// Precedence returns the rule rank of r. Unknown relations rank last.
func (r Relation) Precedence() int {
	if p, ok := precedence[r]; ok {
		return p
	}
	return len(precedence) + 1
}

// TargetPrefix prefixes the identifier of the synthetic target node.
const TargetPrefix = "TARGET:"

// PlaceholderTarget names the target when neither an explicit identifier nor a USERNAME signal exists.
const PlaceholderTarget = "unknown-target"

// Node is a graph vertex. Every node except the target represents one distinct (kind, value) pair.
type Node struct {
	ID         string
	Target     bool
	Kind       signal.Kind
	Value      string
	Confidence float64
	Sources    []string
	Evidence   string
	Meta       map[string]string
}

// Edge is an undirected, labelled connection. Source/Target only fix a stable order.
type Edge struct {
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	Relation Relation `json:"relation"`
}

// Graph is the identity graph of one assessment. It is built once and not modified afterwards.
type Graph struct {
	TargetID string
	Nodes    []Node
	Edges    []Edge

	index map[string]int
}

// NodeID returns the identifier used for the node of a signal key.
func NodeID(k signal.Key) string {
	return k.String()
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// EdgesOf returns every edge incident to id, in graph order.
func (g *Graph) EdgesOf(id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Source == id || e.Target == id {
			out = append(out, e)
		}
	}
	return out
}

// Corroboration counts the links that independently support the signal with key k:
// SHARED_VALUE edges, plus the social link of a mutual connection.
func (g *Graph) Corroboration(k signal.Key) int {
	id := NodeID(k)
	node, ok := g.Node(id)
	if !ok {
		return 0
	}

	count := 0
	for _, e := range g.EdgesOf(id) {
		switch {
		case e.Relation == RelationSharedValue:
			count++
		case e.Relation == RelationSocialLink && node.Kind == signal.KindMutual:
			count++
		}
	}
	return count
}

// NodeLink is the serializable node-link form of a Graph.
type NodeLink struct {
	Directed bool              `json:"directed"`
	Graph    map[string]string `json:"graph"`
	Nodes    []map[string]any  `json:"nodes"`
	Edges    []Edge            `json:"edges"`
}

// NodeLink exports g. The target node carries only its identifier.
func (g *Graph) NodeLink() NodeLink {
	out := NodeLink{
		Graph: map[string]string{"target": g.TargetID},
		Nodes: make([]map[string]any, 0, len(g.Nodes)),
		Edges: append([]Edge{}, g.Edges...),
	}

	for _, n := range g.Nodes {
		if n.Target {
			out.Nodes = append(out.Nodes, map[string]any{"id": n.ID, "target": true})
			continue
		}
		attrs := map[string]any{
			"id":         n.ID,
			"kind":       n.Kind,
			"value":      n.Value,
			"confidence": n.Confidence,
		}
		if len(n.Sources) > 0 {
			attrs["sources"] = n.Sources
		}
		if n.Evidence != "" {
			attrs["evidence"] = n.Evidence
		}
		if len(n.Meta) > 0 {
			attrs["meta"] = n.Meta
		}
		out.Nodes = append(out.Nodes, attrs)
	}
	return out
}
