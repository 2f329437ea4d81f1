// Package aoi keeps per-space neighbor sets on top of go-aoi's XZ-list manager
package aoi

import (
	"math"

	goaoi "github.com/xiaonanln/go-aoi"
)

// Node is one tracked point; Data carries the owner
type Node struct {
	Data      interface{}
	X, Y      float64
	aoi       goaoi.AOI
	neighbors map[*Node]struct{}
	space     *Space
}

// InSpace reports whether the node has entered a space
func (n *Node) InSpace() bool {
	return n.space != nil
}

// DistanceTo returns the euclidean distance between two nodes
func (n *Node) DistanceTo(o *Node) float64 {
	return math.Hypot(n.X-o.X, n.Y-o.Y)
}

// OnEnterAOI is called by the manager when other comes within range
func (n *Node) OnEnterAOI(other *goaoi.AOI) {
	o := other.Data.(*Node)
	if o == n || n.neighbors == nil {
		return
	}
	n.neighbors[o] = struct{}{}
	if o.neighbors != nil {
		o.neighbors[n] = struct{}{}
	}
}

// OnLeaveAOI is called by the manager when other goes out of range
func (n *Node) OnLeaveAOI(other *goaoi.AOI) {
	o := other.Data.(*Node)
	delete(n.neighbors, o)
	delete(o.neighbors, n)
}

// Space is one AOI manager; Distance bounds every query on each axis
type Space struct {
	Distance float64
	mgr      goaoi.AOIManager
	nodes    map[*Node]struct{}
}

// NewSpace creates an empty space whose queries reach distance on each axis
func NewSpace(distance float64) *Space {
	return &Space{
		Distance: distance,
		mgr:      goaoi.NewXZListAOIManager(goaoi.Coord(distance)),
		nodes:    map[*Node]struct{}{},
	}
}

// Len returns the number of nodes in the space
func (s *Space) Len() int {
	return len(s.nodes)
}

// Enter inserts n at (x, y); a node already in another space leaves it first
func (s *Space) Enter(n *Node, x, y float64) {
	if n.space != nil {
		n.space.Leave(n)
	}
	n.X, n.Y = x, y
	n.neighbors = map[*Node]struct{}{}
	n.space = s
	s.nodes[n] = struct{}{}
	goaoi.InitAOI(&n.aoi, goaoi.Coord(s.Distance), n, n)
	s.mgr.Enter(&n.aoi, goaoi.Coord(x), goaoi.Coord(y))
}

// Leave removes n from the space
func (s *Space) Leave(n *Node) {
	if n.space != s {
		return
	}
	s.mgr.Leave(&n.aoi)
	for o := range n.neighbors {
		delete(o.neighbors, n)
	}
	n.neighbors = nil
	n.space = nil
	delete(s.nodes, n)
}

// Move updates the position of n; the manager reports neighbors entering and leaving
func (s *Space) Move(n *Node, x, y float64) {
	if n.space != s {
		return
	}
	n.X, n.Y = x, y
	s.mgr.Moved(&n.aoi, goaoi.Coord(x), goaoi.Coord(y))
}

// Neighbors calls fn for every node currently in range of n
func (s *Space) Neighbors(n *Node, fn func(other *Node)) {
	if n.space != s {
		return
	}
	for o := range n.neighbors {
		fn(o)
	}
}

// Nearest returns the closest neighbor accepted by filter within radius, or nil
func (s *Space) Nearest(n *Node, radius float64, filter func(other *Node) bool) *Node {
	var best *Node
	bestDist := radius
	s.Neighbors(n, func(other *Node) {
		if filter != nil && !filter(other) {
			return
		}
		if d := n.DistanceTo(other); d < bestDist || (d == bestDist && best == nil) {
			best, bestDist = other, d
		}
	})
	return best
}
