// Package graph holds the weighted term graph shared by the extraction
// back-ends and the error corrector.
//
// Nodes live in an arena and are addressed by index. Edges are stored on
// both endpoints as index→weight maps, so an undirected edge is two
// directed entries that the corrector may update independently before
// consolidating them.
package graph

import (
	"fmt"
	"math"
	"sort"

	"github.com/cognicore/rankup/pkg/rankup/internalerr"
)

const (
	// Unset marks a missing expected score.
	Unset = -1.0
	// DefaultEdgeWeight is the weight of a freshly connected edge.
	DefaultEdgeWeight = 1.0
	// InitialRank is the rank every node starts with.
	InitialRank = 1.0
)

// Kind tags what a node stands for.
type Kind uint8

const (
	KindWord Kind = iota
	KindKeyword
	KindNGram
	KindSynset
)

func (k Kind) String() string {
	switch k {
	case KindWord:
		return "word"
	case KindKeyword:
		return "keyword"
	case KindNGram:
		return "ngram"
	case KindSynset:
		return "synset"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Node is a vertex of the graph.
type Node struct {
	Index int
	Key   string
	Text  string
	Kind  Kind

	Rank         float64
	PreviousRank float64
	OriginalRank float64

	// D is the differential computed by the corrector; PreviousD keeps the
	// value from the iteration before.
	D         float64
	PreviousD float64

	ExpectedScore float64
	Marked        bool

	// Count and Members are only meaningful for n-gram nodes: occurrences in
	// the text and the keyword nodes the n-gram is made of.
	Count   int
	Members []int

	originalPrevious float64

	edges         map[int]float64
	previousEdges map[int]float64
	originalEdges map[int]float64
}

func newNode(index int, key, text string, kind Kind) *Node {
	return &Node{
		Index:         index,
		Key:           key,
		Text:          text,
		Kind:          kind,
		Rank:          InitialRank,
		PreviousRank:  InitialRank,
		OriginalRank:  InitialRank,
		ExpectedScore: Unset,

		originalPrevious: InitialRank,
		edges:         make(map[int]float64),
		previousEdges: make(map[int]float64),
		originalEdges: make(map[int]float64),
	}
}

// HasExpected reports whether an expected score was assigned.
func (n *Node) HasExpected() bool {
	return n.ExpectedScore >= 0
}

// SetD stores a new differential, keeping the old one in PreviousD.
func (n *Node) SetD(d float64) {
	n.PreviousD = n.D
	n.D = d
}

// Degree returns the number of incident edges, self loops included.
func (n *Node) Degree() int {
	return len(n.edges)
}

// Graph is an arena of nodes keyed by string.
type Graph struct {
	nodes []*Node
	index map[string]int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{index: make(map[string]int)}
}

// GetOrCreate returns the node for key, creating it when absent.
// The boolean is true when a new node was created.
func (g *Graph) GetOrCreate(key, text string, kind Kind) (*Node, bool) {
	if i, ok := g.index[key]; ok {
		return g.nodes[i], false
	}
	n := newNode(len(g.nodes), key, text, kind)
	g.nodes = append(g.nodes, n)
	g.index[key] = n.Index
	return n, true
}

// Lookup finds a node by key.
func (g *Graph) Lookup(key string) (*Node, bool) {
	i, ok := g.index[key]
	if !ok {
		return nil, false
	}
	return g.nodes[i], true
}

// Node returns the node at index i.
func (g *Graph) Node(i int) *Node {
	return g.nodes[i]
}

// Nodes returns every node in creation order.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// OfKind returns the indices of all nodes of the given kind.
func (g *Graph) OfKind(kind Kind) []int {
	var out []int
	for _, n := range g.nodes {
		if n.Kind == kind {
			out = append(out, n.Index)
		}
	}
	return out
}

// Connect links a and b in both directions with the given weight.
func (g *Graph) Connect(a, b int, weight float64) {
	na, nb := g.nodes[a], g.nodes[b]
	na.edges[b] = weight
	nb.edges[a] = weight
	na.previousEdges[b] = weight
	nb.previousEdges[a] = weight
}

// Disconnect removes the edge between a and b.
func (g *Graph) Disconnect(a, b int) {
	na, nb := g.nodes[a], g.nodes[b]
	delete(na.edges, b)
	delete(nb.edges, a)
	delete(na.previousEdges, b)
	delete(nb.previousEdges, a)
}

// Weight returns the directed weight from a to b.
func (g *Graph) Weight(a, b int) (float64, bool) {
	w, ok := g.nodes[a].edges[b]
	return w, ok
}

// SetEdgeWeight updates the directed entry a→b, remembering the old weight
// so that Revert can restore it.
func (g *Graph) SetEdgeWeight(a, b int, weight float64) {
	n := g.nodes[a]
	n.previousEdges[b] = n.edges[b]
	n.edges[b] = weight
}

// Neighbors returns the indices adjacent to i in ascending order.
func (g *Graph) Neighbors(i int) []int {
	edges := g.nodes[i].edges
	out := make([]int, 0, len(edges))
	for j := range edges {
		out = append(out, j)
	}
	sort.Ints(out)
	return out
}

// TotalWeight sums the weights of every edge leaving i.
func (g *Graph) TotalWeight(i int) float64 {
	total := 0.0
	for _, j := range g.Neighbors(i) {
		total += g.nodes[i].edges[j]
	}
	return total
}

// NormalizedWeight returns w(from,to) divided by the total weight leaving
// from. A node without outgoing weight contributes zero.
func (g *Graph) NormalizedWeight(from, to int) float64 {
	total := g.TotalWeight(from)
	if total == 0 {
		return 0
	}
	return g.nodes[from].edges[to] / total
}

// MarkOriginal records current ranks, previous ranks and weights as the
// state Reset returns to.
func (g *Graph) MarkOriginal() {
	for _, n := range g.nodes {
		n.OriginalRank = n.Rank
		n.originalPrevious = n.PreviousRank
		n.originalEdges = copyEdges(n.edges)
	}
}

// Reset restores every node to the snapshot taken by MarkOriginal.
func (g *Graph) Reset() {
	for _, n := range g.nodes {
		n.Rank = n.OriginalRank
		n.PreviousRank = n.originalPrevious
		n.D = 0
		n.PreviousD = 0
		n.ExpectedScore = Unset
		n.edges = copyEdges(n.originalEdges)
		n.previousEdges = copyEdges(n.originalEdges)
	}
}

// Revert rolls the given nodes back one step: rank to the previous rank
// (or the original when none was recorded) and edges to their previous
// weights. With no indices every node is reverted.
func (g *Graph) Revert(indices ...int) {
	if len(indices) == 0 {
		for _, n := range g.nodes {
			revertNode(n)
		}
		return
	}
	for _, i := range indices {
		revertNode(g.nodes[i])
	}
}

func revertNode(n *Node) {
	if n.PreviousRank >= 0 {
		n.Rank = n.PreviousRank
	} else {
		n.Rank = n.OriginalRank
	}
	for j, w := range n.previousEdges {
		n.edges[j] = w
	}
}

// CheckSymmetry verifies w(a,b) == w(b,a) within eps for every edge.
func (g *Graph) CheckSymmetry(eps float64) error {
	for _, n := range g.nodes {
		for j, w := range n.edges {
			back, ok := g.nodes[j].edges[n.Index]
			if !ok {
				return fmt.Errorf("%w: edge %s->%s has no reverse", internalerr.ErrInvalidInput, n.Key, g.nodes[j].Key)
			}
			if math.Abs(back-w) > eps {
				return fmt.Errorf("%w: edge %s<->%s weights %g != %g", internalerr.ErrInvalidInput, n.Key, g.nodes[j].Key, w, back)
			}
		}
	}
	return nil
}

// Edge is one undirected edge, reported once with a < b (or a == b for
// self loops).
type Edge struct {
	A, B   int
	Weight float64
}

// Edges lists every undirected edge in index order.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for _, n := range g.nodes {
		for _, j := range g.Neighbors(n.Index) {
			if j < n.Index {
				continue
			}
			out = append(out, Edge{A: n.Index, B: j, Weight: n.edges[j]})
		}
	}
	return out
}

func copyEdges(src map[int]float64) map[int]float64 {
	dst := make(map[int]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
