package graph

import "fmt"

// NodeID identifies a node inside the Graph that created it.
type NodeID int

// Kind is the closed set of node variants a Graph can hold.
type Kind int

const (
	KindGain Kind = iota
	KindFilterChain
	KindDelay
	KindConvolution
)

func (k Kind) String() string {
	switch k {
	case KindGain:
		return "gain"
	case KindFilterChain:
		return "filter-chain"
	case KindDelay:
		return "delay"
	case KindConvolution:
		return "convolution"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Node is a processing unit owned by a Graph. The set of implementations is
// closed: only the node types in this package satisfy it.
type Node interface {
	ID() NodeID
	Name() string
	Kind() Kind

	// process reads one block from in and writes the same number of frames to out.
	process(in, out [][2]float64)
}

type base struct {
	id   NodeID
	name string
	kind Kind
}

func (b *base) ID() NodeID   { return b.id }
func (b *base) Name() string { return b.name }
func (b *base) Kind() Kind   { return b.kind }

func (b *base) String() string {
	return fmt.Sprintf("%s#%d(%s)", b.name, b.id, b.kind)
}
