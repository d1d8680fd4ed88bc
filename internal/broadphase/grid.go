// Package broadphase narrows the all-pairs contact search down to pairs of
// bodies whose bounding squares share a uniform hash cell.
package broadphase

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon widens the cell past the diameter so a body exactly one diameter
// wide never straddles three cells.
const Epsilon = 1e-5

// Pair is an unordered candidate pair, normalised so A < B.
type Pair struct {
	A, B int
}

func makePair(i, j int) Pair {
	if i < j {
		return Pair{A: i, B: j}
	}
	return Pair{A: j, B: i}
}

type cell struct {
	X, Y int
}

var corners = [4]mgl64.Vec2{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}

// Grid is a reusable spatial hash. The zero value is not usable; call NewGrid.
// A Grid is not safe for concurrent use.
type Grid struct {
	cells map[cell][]int
	seen  map[Pair]struct{}
	pairs []Pair
}

func NewGrid() *Grid {
	return &Grid{
		cells: make(map[cell][]int),
		seen:  make(map[Pair]struct{}),
	}
}

// Find returns every pair of bodies that may be closer than 2r, given body
// centres pos and a radius r no smaller than any body's. Each pair appears
// once, in discovery order. The returned slice is reused by the next call.
func (g *Grid) Find(pos []mgl64.Vec2, r float64) []Pair {
	g.reset(len(pos))

	size := 2*r + Epsilon
	var stamped [4]cell

	for i, p := range pos {
		n := 0
		for _, c := range corners {
			k := cell{
				X: int(math.Floor((p[0] + c[0]*r) / size)),
				Y: int(math.Floor((p[1] + c[1]*r) / size)),
			}
			if contains(stamped[:n], k) {
				continue
			}
			stamped[n] = k
			n++

			occupants := g.cells[k]
			for _, j := range occupants {
				pr := makePair(i, j)
				if _, dup := g.seen[pr]; dup {
					continue
				}
				g.seen[pr] = struct{}{}
				g.pairs = append(g.pairs, pr)
			}
			g.cells[k] = append(occupants, i)
		}
	}
	return g.pairs
}

func (g *Grid) reset(n int) {
	// Keep per-cell slices between calls, but drop the table once bodies have
	// wandered over far more cells than they can occupy at once.
	if len(g.cells) > 8*n+64 {
		clear(g.cells)
	} else {
		for k := range g.cells {
			g.cells[k] = g.cells[k][:0]
		}
	}
	clear(g.seen)
	g.pairs = g.pairs[:0]
}

func contains(cells []cell, k cell) bool {
	for _, c := range cells {
		if c == k {
			return true
		}
	}
	return false
}
