package broadphase_test

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/arena/internal/broadphase"
)

func bruteForce(pos []mgl64.Vec2, r float64) []broadphase.Pair {
	var out []broadphase.Pair
	for i := range pos {
		for j := i + 1; j < len(pos); j++ {
			if pos[i].Sub(pos[j]).Len() < 2*r {
				out = append(out, broadphase.Pair{A: i, B: j})
			}
		}
	}
	return out
}

func scatter(rng *rand.Rand, n int, side float64) []mgl64.Vec2 {
	pos := make([]mgl64.Vec2, n)
	for i := range pos {
		pos[i] = mgl64.Vec2{(rng.Float64() - 0.5) * side, (rng.Float64() - 0.5) * side}
	}
	return pos
}

var _ = Describe("Grid", func() {
	var grid *broadphase.Grid

	BeforeEach(func() {
		grid = broadphase.NewGrid()
	})

	It("returns nothing for a single body", func() {
		Expect(grid.Find([]mgl64.Vec2{{0, 0}}, 1)).To(BeEmpty())
	})

	It("never pairs a body with itself", func() {
		pairs := grid.Find([]mgl64.Vec2{{0.1, 0.1}, {0.2, 0.3}}, 1)
		Expect(pairs).To(ConsistOf(broadphase.Pair{A: 0, B: 1}))
	})

	It("finds two overlapping bodies once even when they share four cells", func() {
		pos := []mgl64.Vec2{{0, 0}, {0, 0}}
		Expect(grid.Find(pos, 1)).To(ConsistOf(broadphase.Pair{A: 0, B: 1}))
	})

	It("skips bodies far apart", func() {
		pos := []mgl64.Vec2{{0, 0}, {10, 0}, {0, -10}}
		Expect(grid.Find(pos, 1)).To(BeEmpty())
	})

	It("normalises pairs so A < B", func() {
		pos := []mgl64.Vec2{{5, 5}, {-3, 2}, {5.5, 5}, {-3, 2.5}}
		for _, p := range grid.Find(pos, 1) {
			Expect(p.A).To(BeNumerically("<", p.B))
		}
	})

	DescribeTable("has no false negatives and no duplicates for random placements",
		func(seed int64, n int, side, r float64) {
			rng := rand.New(rand.NewSource(seed))
			pos := scatter(rng, n, side)

			got := grid.Find(pos, r)

			seen := make(map[broadphase.Pair]bool, len(got))
			for _, p := range got {
				Expect(seen[p]).To(BeFalse(), "duplicate pair %v", p)
				seen[p] = true
			}
			for _, p := range bruteForce(pos, r) {
				Expect(seen).To(HaveKey(p), "missed overlapping pair %v", p)
			}
		},
		Entry("sparse", int64(1), 50, 100.0, 1.0),
		Entry("dense", int64(2), 200, 20.0, 1.0),
		Entry("very dense", int64(3), 100, 4.0, 1.0),
		Entry("small radius", int64(4), 300, 10.0, 0.25),
		Entry("negative coordinates on cell edges", int64(5), 80, 8.0, 0.5),
	)

	It("stays sound across repeated calls on a reused grid", func() {
		rng := rand.New(rand.NewSource(7))
		for round := 0; round < 20; round++ {
			pos := scatter(rng, 60, 30)
			got := make(map[broadphase.Pair]bool)
			for _, p := range grid.Find(pos, 1) {
				got[p] = true
			}
			for _, p := range bruteForce(pos, 1) {
				Expect(got).To(HaveKey(p))
			}
		}
	})

	It("reports pairs in a deterministic order", func() {
		rng := rand.New(rand.NewSource(11))
		pos := scatter(rng, 100, 15)

		first := append([]broadphase.Pair(nil), grid.Find(pos, 1)...)
		second := broadphase.NewGrid().Find(pos, 1)

		Expect(second).To(Equal(first))
	})
})
