package aoi

import (
	"math"
	"math/rand"
	"testing"

	"github.com/bmizerany/assert"
)

// pairs closer than this to the range edge are not checked
const edge = 0.01

func checkNeighbors(t *testing.T, s *Space, nodes []*Node) {
	for _, n := range nodes {
		got := map[*Node]bool{}
		s.Neighbors(n, func(o *Node) { got[o] = true })
		for _, o := range nodes {
			if o == n {
				assert.T(t, !got[o], "a node is not its own neighbor")
				continue
			}
			dx, dy := math.Abs(o.X-n.X), math.Abs(o.Y-n.Y)
			if dx < s.Distance-edge && dy < s.Distance-edge {
				assert.T(t, got[o], "node in range is a neighbor")
			} else if dx > s.Distance+edge || dy > s.Distance+edge {
				assert.T(t, !got[o], "node out of range is not a neighbor")
			}
		}
	}
}

func TestEnterMoveLeave(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		s := NewSpace(9)
		var nodes []*Node
		count := 1 + rng.Intn(40)
		for i := 0; i < count; i++ {
			n := &Node{Data: i}
			s.Enter(n, rng.Float64()*100, rng.Float64()*100)
			nodes = append(nodes, n)
		}
		assert.Equal(t, count, s.Len())
		checkNeighbors(t, s, nodes)

		for m := 0; m < 50; m++ {
			n := nodes[rng.Intn(len(nodes))]
			s.Move(n, rng.Float64()*100, rng.Float64()*100)
		}
		checkNeighbors(t, s, nodes)

		removed, kept := nodes[:len(nodes)/2], nodes[len(nodes)/2:]
		for _, n := range removed {
			s.Leave(n)
			assert.T(t, !n.InSpace(), "node should have left")
		}
		assert.Equal(t, len(kept), s.Len())
		checkNeighbors(t, s, kept)
	}
}

func TestNearest(t *testing.T) {
	s := NewSpace(9)
	hunter := &Node{Data: 0}
	s.Enter(hunter, 50, 50)
	near := &Node{Data: 1}
	s.Enter(near, 53, 50)
	far := &Node{Data: 2}
	s.Enter(far, 50, 57)
	outside := &Node{Data: 3}
	s.Enter(outside, 70, 50)

	assert.Equal(t, near, s.Nearest(hunter, 9, nil))
	assert.Equal(t, far, s.Nearest(hunter, 9, func(o *Node) bool { return o != near }))
	assert.T(t, s.Nearest(hunter, 2, nil) == nil, "nothing within 2")

	s.Move(outside, 51, 50)
	assert.Equal(t, outside, s.Nearest(hunter, 9, nil))
	s.Move(outside, 70, 50)
	assert.Equal(t, near, s.Nearest(hunter, 9, nil))

	// entering a second space leaves the first
	other := NewSpace(9)
	other.Enter(near, 0, 0)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, far, s.Nearest(hunter, 9, nil))
	assert.T(t, other.Nearest(near, 9, nil) == nil, "alone in the new space")
}
