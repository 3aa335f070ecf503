// Package graph implements a fixed-topology audio processing graph. Nodes
// are rendered block by block in topological order; every edge sums the
// source node's output into the destination node's input.
package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gopxl/beep/v2"
)

var (
	ErrCycle       = errors.New("connection would create a cycle")
	ErrUnknownNode = errors.New("node does not belong to this graph")
)

// Edge is a directed connection between two nodes.
type Edge struct {
	From NodeID
	To   NodeID
}

type slot struct {
	node Node
	in   [][2]float64
	out  [][2]float64
}

// Graph owns a set of nodes and the connection registry between them.
// It is not safe for concurrent use; callers serialize access.
type Graph struct {
	sampleRate beep.SampleRate
	blockSize  int

	slots []*slot
	edges map[Edge]struct{}

	order []NodeID
	succ  map[NodeID][]NodeID
	dirty bool
}

// New creates an empty graph rendering blocks of blockSize frames.
func New(sampleRate beep.SampleRate, blockSize int) *Graph {
	if blockSize <= 0 {
		blockSize = 512
	}
	return &Graph{
		sampleRate: sampleRate,
		blockSize:  blockSize,
		edges:      make(map[Edge]struct{}),
		dirty:      true,
	}
}

// SampleRate returns the rate all nodes operate at.
func (g *Graph) SampleRate() beep.SampleRate { return g.sampleRate }

// BlockSize returns the number of frames rendered by each Process call.
func (g *Graph) BlockSize() int { return g.blockSize }

func (g *Graph) nextID() NodeID { return NodeID(len(g.slots)) }

func (g *Graph) register(n Node) {
	g.slots = append(g.slots, &slot{
		node: n,
		in:   make([][2]float64, g.blockSize),
		out:  make([][2]float64, g.blockSize),
	})
	g.dirty = true
}

func (g *Graph) owns(n Node) bool {
	if n == nil {
		return false
	}
	id := int(n.ID())
	return id >= 0 && id < len(g.slots) && g.slots[id].node == n
}

// Connect adds an edge from -> to. Connecting an existing edge is a no-op.
func (g *Graph) Connect(from, to Node) error {
	if !g.owns(from) || !g.owns(to) {
		return ErrUnknownNode
	}
	e := Edge{From: from.ID(), To: to.ID()}
	if _, ok := g.edges[e]; ok {
		return nil
	}
	if e.From == e.To {
		return fmt.Errorf("connect %s to itself: %w", from.Name(), ErrCycle)
	}

	g.edges[e] = struct{}{}
	g.dirty = true
	if err := g.sort(); err != nil {
		delete(g.edges, e)
		g.dirty = true
		return fmt.Errorf("connect %s to %s: %w", from.Name(), to.Name(), err)
	}
	return nil
}

// Disconnect removes the edge from -> to and reports whether it existed.
// Removing an edge that is not present is a no-op.
func (g *Graph) Disconnect(from, to Node) bool {
	if !g.owns(from) || !g.owns(to) {
		return false
	}
	e := Edge{From: from.ID(), To: to.ID()}
	if _, ok := g.edges[e]; !ok {
		return false
	}
	delete(g.edges, e)
	g.dirty = true
	return true
}

// Route points from at exactly one destination out of choices. Any edge from
// from to a member of choices is removed before the edge to to is added, so
// calling Route repeatedly with the same arguments leaves a single edge.
func (g *Graph) Route(from, to Node, choices ...Node) error {
	if !g.owns(from) || !g.owns(to) {
		return ErrUnknownNode
	}
	for _, c := range choices {
		if c.ID() != to.ID() {
			g.Disconnect(from, c)
		}
	}
	return g.Connect(from, to)
}

// Connected reports whether the edge from -> to exists.
func (g *Graph) Connected(from, to Node) bool {
	if !g.owns(from) || !g.owns(to) {
		return false
	}
	_, ok := g.edges[Edge{From: from.ID(), To: to.ID()}]
	return ok
}

// Outgoing returns the destinations of from in ascending id order.
func (g *Graph) Outgoing(from Node) []NodeID {
	var out []NodeID
	for e := range g.edges {
		if e.From == from.ID() {
			out = append(out, e.To)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Edges returns a snapshot of every edge in the graph.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for e := range g.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// Input returns the input buffer of n for the current block. Callers may sum
// external signal into it between Begin and Process.
func (g *Graph) Input(n Node) [][2]float64 {
	if !g.owns(n) {
		return nil
	}
	return g.slots[n.ID()].in
}

// Output returns the output of n from the most recent Process call.
func (g *Graph) Output(n Node) [][2]float64 {
	if !g.owns(n) {
		return nil
	}
	return g.slots[n.ID()].out
}

// Begin clears all node inputs for a new block.
func (g *Graph) Begin() {
	for _, s := range g.slots {
		clear(s.in)
	}
}

// Process renders one block through every node in topological order.
func (g *Graph) Process() {
	if g.dirty {
		// Connect rejects cycles, so the registry is always sortable here.
		_ = g.sort()
	}
	for _, id := range g.order {
		s := g.slots[id]
		s.node.process(s.in, s.out)
		for _, to := range g.succ[id] {
			dst := g.slots[to].in
			for i := range s.out {
				dst[i][0] += s.out[i][0]
				dst[i][1] += s.out[i][1]
			}
		}
	}
}

// sort rebuilds the render order and the successor lists (Kahn's algorithm).
func (g *Graph) sort() error {
	indeg := make([]int, len(g.slots))
	succ := make(map[NodeID][]NodeID, len(g.slots))
	for e := range g.edges {
		succ[e.From] = append(succ[e.From], e.To)
		indeg[e.To]++
	}
	for id := range succ {
		s := succ[id]
		sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	}

	order := make([]NodeID, 0, len(g.slots))
	var ready []NodeID
	for id := range g.slots {
		if indeg[id] == 0 {
			ready = append(ready, NodeID(id))
		}
	}
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, to := range succ[id] {
			indeg[to]--
			if indeg[to] == 0 {
				ready = append(ready, to)
			}
		}
	}
	if len(order) != len(g.slots) {
		return ErrCycle
	}

	g.order = order
	g.succ = succ
	g.dirty = false
	return nil
}
