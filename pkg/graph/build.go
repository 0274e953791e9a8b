package graph

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/scan-io-git/identity-leak/pkg/profileurl"
	"github.com/scan-io-git/identity-leak/pkg/signal"
)

// Build constructs the identity graph of signals. target names the subject; when empty the
// first USERNAME signal is used, then PlaceholderTarget. Build is deterministic: node and edge
// order only depend on the (kind, value) keys of the input, never on its order.
func Build(signals []signal.Signal, target string) *Graph {
	b := &builder{
		graph: &Graph{
			TargetID: TargetPrefix + resolveTarget(signals, target),
			index:    make(map[string]int),
		},
		pairs: make(map[[2]string]int),
	}
	b.graph.index[b.graph.TargetID] = 0
	b.graph.Nodes = append(b.graph.Nodes, Node{ID: b.graph.TargetID, Target: true})

	nodes := b.addNodes(unique(signals))

	b.linkTarget(nodes)
	b.linkTemporal(nodes)
	b.linkSharedValues(nodes)

	sort.SliceStable(b.graph.Edges, func(i, j int) bool {
		a, c := b.graph.Edges[i], b.graph.Edges[j]
		if a.Relation.Precedence() != c.Relation.Precedence() {
			return a.Relation.Precedence() < c.Relation.Precedence()
		}
		if a.Source != c.Source {
			return a.Source < c.Source
		}
		return a.Target < c.Target
	})
	return b.graph
}

type builder struct {
	graph *Graph
	pairs map[[2]string]int // unordered endpoint pair -> edge index
}

func resolveTarget(signals []signal.Signal, target string) string {
	if t := strings.TrimSpace(target); t != "" {
		return t
	}
	for _, s := range signals {
		if s.Kind == signal.KindUsername && s.Value != "" {
			return s.Value
		}
	}
	return PlaceholderTarget
}

// unique drops duplicate keys, keeping the highest confidence, and sorts by key.
func unique(signals []signal.Signal) []signal.Signal {
	best := make(map[signal.Key]signal.Signal, len(signals))
	for _, s := range signals {
		if s.Value == "" {
			continue
		}
		if cur, ok := best[s.Key()]; !ok || s.Confidence > cur.Confidence {
			best[s.Key()] = s
		}
	}

	out := make([]signal.Signal, 0, len(best))
	for _, s := range best {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })
	return out
}

// addNodes creates one node per signal. Staleness signals of an asset that has its own
// summary node are folded into that node instead.
func (b *builder) addNodes(signals []signal.Signal) []Node {
	assets := make(map[string]int) // asset name -> node index
	var stale []signal.Signal

	for _, s := range signals {
		if s.Kind == signal.KindRepoInactive {
			stale = append(stale, s)
			continue
		}
		i := b.addNode(s)
		if s.Kind == signal.KindRepoSummary || s.Kind == signal.KindAssetSummary {
			if _, dup := assets[assetName(s)]; !dup {
				assets[assetName(s)] = i
			}
		}
	}

	for _, s := range stale {
		i, ok := assets[assetName(s)]
		if !ok {
			b.addNode(s)
			continue
		}
		n := &b.graph.Nodes[i]
		meta := make(map[string]string, len(n.Meta)+2)
		for k, v := range n.Meta {
			meta[k] = v
		}
		meta["inactive"] = "true"
		meta["inactive_detail"] = s.Value
		n.Meta = meta
	}

	sort.SliceStable(b.graph.Nodes[1:], func(i, j int) bool {
		return keyOf(b.graph.Nodes[1+i]).Less(keyOf(b.graph.Nodes[1+j]))
	})
	for i, n := range b.graph.Nodes {
		b.graph.index[n.ID] = i
	}
	return b.graph.Nodes[1:]
}

func (b *builder) addNode(s signal.Signal) int {
	var meta map[string]string
	if len(s.Meta) > 0 {
		meta = make(map[string]string, len(s.Meta))
		for k, v := range s.Meta {
			meta[k] = v
		}
	}
	b.graph.Nodes = append(b.graph.Nodes, Node{
		ID:         NodeID(s.Key()),
		Kind:       s.Kind,
		Value:      s.Value,
		Confidence: s.Confidence,
		Sources:    append([]string(nil), s.Sources...),
		Evidence:   s.Evidence,
		Meta:       meta,
	})
	return len(b.graph.Nodes) - 1
}

func keyOf(n Node) signal.Key {
	return signal.Key{Kind: n.Kind, Value: n.Value}
}

// assetName identifies the asset a summary or staleness signal is about: meta "repo" or
// "asset" when present, else the value up to the first " | " separator.
func assetName(s signal.Signal) string {
	for _, key := range []string{"repo", "asset"} {
		if name := s.Meta[key]; name != "" {
			return strings.ToLower(name)
		}
	}
	name, _, _ := strings.Cut(s.Value, " | ")
	return strings.ToLower(strings.TrimSpace(name))
}

// addEdge connects a and c once. When the pair already has an edge the relation with the
// higher precedence is kept.
func (b *builder) addEdge(a, c string, rel Relation) {
	if a == c {
		return
	}
	pair := [2]string{a, c}
	if c < a {
		pair = [2]string{c, a}
	}
	if i, ok := b.pairs[pair]; ok {
		if rel.Precedence() < b.graph.Edges[i].Relation.Precedence() {
			b.graph.Edges[i].Relation = rel
		}
		return
	}
	b.pairs[pair] = len(b.graph.Edges)
	b.graph.Edges = append(b.graph.Edges, Edge{Source: a, Target: c, Relation: rel})
}

// linkTarget applies the target, social and ownership rules.
func (b *builder) linkTarget(nodes []Node) {
	target := b.graph.TargetID
	for _, n := range nodes {
		switch {
		case n.Kind.IsSocial():
			b.addEdge(target, n.ID, RelationSocialLink)
		case n.Kind == signal.KindAssetSummary:
			b.addEdge(target, n.ID, RelationOwnsAsset)
		case n.Kind.IsAsset():
			b.addEdge(target, n.ID, RelationOwnsRepo)
		case n.Kind.IsPeriodic():
			// chained in linkTemporal
		default:
			b.addEdge(target, n.ID, RelationProfileInfo)
		}
	}
}

// linkTemporal chains periodic aggregates chronologically and attaches the earliest
// bucket to the total aggregate, or to the target when no total exists.
func (b *builder) linkTemporal(nodes []Node) {
	var buckets []Node
	total := ""
	for _, n := range nodes {
		switch {
		case n.Kind.IsPeriodic():
			buckets = append(buckets, n)
		case n.Kind == signal.KindContributionTotal && total == "":
			total = n.ID
		}
	}
	if len(buckets) == 0 {
		return
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		pi, pj := period(buckets[i]), period(buckets[j])
		if pi != pj {
			return pi < pj
		}
		return keyOf(buckets[i]).Less(keyOf(buckets[j]))
	})

	for i := 1; i < len(buckets); i++ {
		b.addEdge(buckets[i-1].ID, buckets[i].ID, RelationTemporalNext)
	}
	if total != "" {
		b.addEdge(buckets[0].ID, total, RelationYearly)
	} else {
		b.addEdge(b.graph.TargetID, buckets[0].ID, RelationYearly)
	}
}

// period returns the sortable bucket of a periodic node. Non-numeric periods sort last.
func period(n Node) int {
	for _, raw := range []string{n.Meta["year"], n.Value} {
		if p, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			return p
		}
	}
	return int(^uint(0) >> 1)
}

// linkSharedValues connects nodes of different kinds whose values reduce to a common token.
func (b *builder) linkSharedValues(nodes []Node) {
	holders := make(map[string][]int)
	var tokens []string
	for i, n := range nodes {
		if n.Kind.IsSocial() || n.Kind.IsPeriodic() || n.Kind.IsAsset() {
			continue
		}
		for _, tok := range valueTokens(n) {
			if _, ok := holders[tok]; !ok {
				tokens = append(tokens, tok)
			}
			holders[tok] = append(holders[tok], i)
		}
	}
	sort.Strings(tokens)

	for _, tok := range tokens {
		idx := holders[tok]
		for x := 0; x < len(idx); x++ {
			for y := x + 1; y < len(idx); y++ {
				a, c := nodes[idx[x]], nodes[idx[y]]
				if a.Kind == c.Kind {
					continue
				}
				if c.ID < a.ID {
					a, c = c, a
				}
				b.addEdge(a.ID, c.ID, RelationSharedValue)
			}
		}
	}
}

// valueTokens reduces a value to the comparable forms used for near-equality: the value
// itself, a compact alphanumeric form, the account handle of a profile link and the local
// part of an email address. Numeric and very short tokens are ignored.
func valueTokens(n Node) []string {
	v := strings.ToLower(strings.TrimSpace(n.Value))
	candidates := []string{strings.TrimPrefix(v, "@")}

	if handle := profileurl.Handle(v); handle != "" {
		candidates = append(candidates, handle)
	}
	if local, domain, ok := strings.Cut(v, "@"); ok && local != "" && strings.Contains(domain, ".") && !strings.ContainsAny(v, " /") {
		candidates = append(candidates, local)
		// noreply addresses look like "<id>+<login>", tagged ones like "<login>+<tag>"
		if head, tail, found := strings.Cut(local, "+"); found {
			candidates = append(candidates, head, tail)
		}
	}

	seen := make(map[string]bool)
	var out []string
	add := func(tok string) {
		if len(tok) < 3 || isNumeric(tok) || seen[tok] {
			return
		}
		seen[tok] = true
		out = append(out, tok)
	}
	for _, c := range candidates {
		add(c)
		add(compact(c))
	}
	return out
}

func compact(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
