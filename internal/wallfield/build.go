package wallfield

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/arena/internal/dynamo"
)

// OpenDistance is the wall distance reported everywhere in a field without
// walls. It is finite so bilinear blending never multiplies zero by Inf.
const OpenDistance = 1e6

// Circle is a round obstacle.
type Circle struct {
	Center mgl64.Vec2
	Radius float64
}

// Open returns a field with no walls at all over bounds.
func Open(bounds Bounds) *Field {
	f, err := Build(bounds, 2, 2, false, nil)
	if err != nil {
		// only reachable with empty bounds
		panic(err)
	}
	return f
}

// Box returns a walled rectangle at the given resolution (grid nodes per
// world unit) with optional circular obstacles inside.
func Box(bounds Bounds, resolution float64, obstacles ...Circle) (*Field, error) {
	if !(resolution > 0) {
		return nil, fmt.Errorf("resolution %v: %w", resolution, dynamo.ErrInvalidField)
	}
	w := int(math.Round(bounds.Width()*resolution)) + 1
	h := int(math.Round(bounds.Height()*resolution)) + 1
	return Build(bounds, w, h, true, obstacles)
}

// Build evaluates the signed distance and normal of the nearest feature at
// every grid node. walls adds the four edges of bounds as boundaries.
func Build(bounds Bounds, width, height int, walls bool, obstacles []Circle) (*Field, error) {
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("grid %dx%d needs at least 2x2 cells: %w", width, height, dynamo.ErrInvalidField)
	}
	for _, c := range obstacles {
		if !(c.Radius > 0) {
			return nil, fmt.Errorf("obstacle radius %v: %w", c.Radius, dynamo.ErrInvalidField)
		}
	}

	size := width * height
	dist := make([]float64, size)
	nx := make([]float64, size)
	ny := make([]float64, size)

	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			p := mgl64.Vec2{
				bounds.XMin + float64(col)/float64(width-1)*bounds.Width(),
				bounds.YMin + float64(row)/float64(height-1)*bounds.Height(),
			}
			d, n := nearest(p, bounds, walls, obstacles)
			k := row*width + col
			dist[k], nx[k], ny[k] = d, n[0], n[1]
		}
	}
	return New(bounds, width, height, dist, nx, ny)
}

func nearest(p mgl64.Vec2, b Bounds, walls bool, obstacles []Circle) (float64, mgl64.Vec2) {
	best := OpenDistance
	var normal mgl64.Vec2

	consider := func(d float64, n mgl64.Vec2) {
		if d < best {
			best, normal = d, n
		}
	}

	if walls {
		consider(p[0]-b.XMin, mgl64.Vec2{1, 0})
		consider(b.XMax-p[0], mgl64.Vec2{-1, 0})
		consider(p[1]-b.YMin, mgl64.Vec2{0, 1})
		consider(b.YMax-p[1], mgl64.Vec2{0, -1})
	}

	for _, c := range obstacles {
		off := p.Sub(c.Center)
		l := off.Len()
		n := mgl64.Vec2{1, 0}
		if l > 0 {
			n = off.Mul(1 / l)
		}
		consider(l-c.Radius, n)
	}
	return best, normal
}
