// Package wallfield holds the precomputed wall boundary the arena collides
// against: per-cell signed distance to the nearest wall plus the unit wall
// normal, sampled on a regular grid over a rectangular domain.
package wallfield

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/arena/internal/dynamo"
)

// Bounds is the world rectangle covered by the grid.
type Bounds struct {
	XMin, XMax, YMin, YMax float64
}

func (b Bounds) Width() float64  { return b.XMax - b.XMin }
func (b Bounds) Height() float64 { return b.YMax - b.YMin }

// Contains reports whether p lies inside the rectangle, edges included.
func (b Bounds) Contains(p mgl64.Vec2) bool {
	return p[0] >= b.XMin && p[0] <= b.XMax && p[1] >= b.YMin && p[1] <= b.YMax
}

// Sample is the interpolated wall information at one position. Dist is
// positive in free space and negative inside obstacles.
type Sample struct {
	Dist   float64
	Normal mgl64.Vec2
}

// Field is immutable once built. Layers are row-major, row index following y.
type Field struct {
	bounds Bounds
	width  int
	height int
	dist   []float64
	nx     []float64
	ny     []float64
}

// New builds a field from three equally shaped row-major layers.
func New(bounds Bounds, width, height int, dist, nx, ny []float64) (*Field, error) {
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("grid %dx%d needs at least 2x2 cells: %w", width, height, dynamo.ErrInvalidField)
	}
	if !(bounds.XMax > bounds.XMin) || !(bounds.YMax > bounds.YMin) {
		return nil, fmt.Errorf("empty bounds %+v: %w", bounds, dynamo.ErrInvalidField)
	}
	size := width * height
	if len(dist) != size || len(nx) != size || len(ny) != size {
		return nil, fmt.Errorf("layer sizes %d/%d/%d, want %d: %w",
			len(dist), len(nx), len(ny), size, dynamo.ErrInvalidField)
	}
	return &Field{
		bounds: bounds,
		width:  width,
		height: height,
		dist:   dist,
		nx:     nx,
		ny:     ny,
	}, nil
}

func (f *Field) Bounds() Bounds { return f.bounds }
func (f *Field) Width() int     { return f.width }
func (f *Field) Height() int    { return f.height }

// Cell returns the stored (unblended) values of grid cell (col, row).
func (f *Field) Cell(col, row int) Sample {
	k := row*f.width + col
	return Sample{Dist: f.dist[k], Normal: mgl64.Vec2{f.nx[k], f.ny[k]}}
}

// CellCenter returns the world position of grid node (col, row).
func (f *Field) CellCenter(col, row int) mgl64.Vec2 {
	return mgl64.Vec2{
		f.bounds.XMin + float64(col)/float64(f.width-1)*f.bounds.Width(),
		f.bounds.YMin + float64(row)/float64(f.height-1)*f.bounds.Height(),
	}
}

// Sample bilinearly interpolates the field at p. Positions outside the bounds
// are clamped onto the edge cells, never wrapped.
func (f *Field) Sample(p mgl64.Vec2) Sample {
	ix := (p[0] - f.bounds.XMin) / f.bounds.Width() * float64(f.width-1)
	iy := (p[1] - f.bounds.YMin) / f.bounds.Height() * float64(f.height-1)
	ix = clamp(ix, float64(f.width-2))
	iy = clamp(iy, float64(f.height-2))

	l := int(ix)
	t := int(iy)
	ax := ix - float64(l)
	ay := iy - float64(t)

	k00 := t*f.width + l
	k10 := k00 + f.width
	w00 := (1 - ax) * (1 - ay)
	w10 := (1 - ax) * ay
	w01 := ax * (1 - ay)
	w11 := ax * ay

	blend := func(layer []float64) float64 {
		return w00*layer[k00] + w10*layer[k10] + w01*layer[k00+1] + w11*layer[k10+1]
	}
	return Sample{
		Dist:   blend(f.dist),
		Normal: mgl64.Vec2{blend(f.nx), blend(f.ny)},
	}
}

// SampleBatch samples every position into dst, which must be at least as
// long as pos.
func (f *Field) SampleBatch(pos []mgl64.Vec2, dst []Sample) {
	for i, p := range pos {
		dst[i] = f.Sample(p)
	}
}

// clamp limits v to [0, hi]; NaN maps to 0.
func clamp(v, hi float64) float64 {
	if !(v > 0) {
		return 0
	}
	return math.Min(v, hi)
}
