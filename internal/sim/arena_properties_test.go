package sim_test

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/arena/internal/dynamo"
	"github.com/san-kum/arena/internal/physics"
	"github.com/san-kum/arena/internal/sim"
	"github.com/san-kum/arena/internal/wallfield"
)

const dt = 0.02

var open = wallfield.Open(wallfield.Bounds{XMin: -100, XMax: 100, YMin: -100, YMax: 100})

func craft(mass, inertia, radius, drag float64) physics.Props {
	return physics.Props{Mass: mass, Inertia: inertia, Radius: radius, DragArea: drag}
}

func newArena(x dynamo.State, props []physics.Props, field *wallfield.Field, params physics.Params) *sim.Arena {
	a, err := sim.NewArena(x, props, field, params, nil)
	Expect(err).NotTo(HaveOccurred())
	return a
}

func stepN(a *sim.Arena, u dynamo.Control, n int) {
	for i := 0; i < n; i++ {
		Expect(a.Step(u, dt)).To(Succeed())
	}
}

var _ = Describe("Arena", func() {
	Describe("two overlapping bodies", func() {
		It("pushes them apart with equal and opposite acceleration", func() {
			props := []physics.Props{craft(1, 0.25, 1, 1), craft(1, 0.25, 1, 1)}
			x := dynamo.State{
				-0.75, 0, 0, 0, 0, 0,
				0.75, 0, 0, 0, 0, 0,
			}
			a := newArena(x, props, open, physics.DefaultParams())

			Expect(a.Step(dynamo.NewControl(2), dt)).To(Succeed())

			s := a.State()
			ax0 := s[dynamo.VX] / dt
			ax1 := s[dynamo.StateStride+dynamo.VX] / dt
			Expect(ax0).To(BeNumerically("<", 0))
			Expect(ax1).To(BeNumerically(">", 0))
			Expect(ax0).To(BeNumerically("~", -ax1, 1e-12))
			Expect(s[dynamo.VY]).To(BeNumerically("~", 0, 1e-12))
			Expect(s[dynamo.StateStride+dynamo.VY]).To(BeNumerically("~", 0, 1e-12))
		})
	})

	It("moves a lone body in a straight line without drag", func() {
		x := dynamo.State{1, -2, 0.3, 1, 2, 0.5}
		a := newArena(x, []physics.Props{craft(2, 0.5, 1, 0)}, open, physics.DefaultParams())

		stepN(a, dynamo.NewControl(1), 100)

		s := a.State()
		Expect(s[dynamo.X]).To(BeNumerically("~", 3, 1e-9))
		Expect(s[dynamo.Y]).To(BeNumerically("~", 2, 1e-9))
		Expect(s[dynamo.Theta]).To(BeNumerically("~", 1.3, 1e-9))
		Expect(s[dynamo.VX]).To(BeNumerically("~", 1, 1e-12))
		Expect(s[dynamo.VY]).To(BeNumerically("~", 2, 1e-12))
		Expect(s[dynamo.Omega]).To(BeNumerically("~", 0.5, 1e-12))
	})

	It("never gains kinetic energy under drag alone", func() {
		x := dynamo.State{0, 0, 0, 5, -3, 3}
		a := newArena(x, []physics.Props{craft(1, 0.25, 1, 1)}, open, physics.DefaultParams())

		prev := a.Model().Energy(a.State())
		for i := 0; i < 200; i++ {
			Expect(a.Step(dynamo.NewControl(1), dt)).To(Succeed())
			e := a.Model().Energy(a.State())
			Expect(e).To(BeNumerically("<=", prev))
			prev = e
		}
		Expect(prev).To(BeNumerically("<", 0.5*34))
	})

	It("conserves linear momentum through a glancing collision", func() {
		props := []physics.Props{craft(1, 0.25, 1, 0), craft(2, 0.8, 1, 0)}
		x := dynamo.State{
			-1.5, 0.3, 0, 2, 0, 1,
			1.5, -0.2, 0, -1, 0, 0,
		}
		a := newArena(x, props, open, physics.DefaultParams())
		px0, py0 := physics.Momentum(a.State(), props)

		touched := false
		for i := 0; i < 200; i++ {
			Expect(a.Step(dynamo.NewControl(2), dt)).To(Succeed())
			touched = touched || a.Model().Contacts(a.State()) > 0
		}

		Expect(touched).To(BeTrue())
		px, py := physics.Momentum(a.State(), props)
		Expect(px).To(BeNumerically("~", px0, 1e-8))
		Expect(py).To(BeNumerically("~", py0, 1e-8))
	})

	It("keeps a fast body inside a walled box", func() {
		field, err := wallfield.Box(wallfield.Bounds{XMin: 0, XMax: 20, YMin: 0, YMax: 20}, 2)
		Expect(err).NotTo(HaveOccurred())
		x := dynamo.State{10, 10, 0, 8, 5, 0}
		a := newArena(x, []physics.Props{craft(1, 0.25, 1, 1)}, field, physics.DefaultParams())

		bounced := false
		for i := 0; i < 500; i++ {
			Expect(a.Step(dynamo.NewControl(1), dt)).To(Succeed())
			s := a.State()
			Expect(s[dynamo.X]).To(And(BeNumerically(">", 0.5), BeNumerically("<", 19.5)))
			Expect(s[dynamo.Y]).To(And(BeNumerically(">", 0.5), BeNumerically("<", 19.5)))
			bounced = bounced || s[dynamo.VX] < 0
		}
		Expect(bounced).To(BeTrue())
		Expect(a.State().IsValid()).To(BeTrue())
	})

	It("is deterministic for a seeded spawn", func() {
		field, err := wallfield.Box(wallfield.Bounds{XMin: 0, XMax: 25, YMin: 0, YMax: 25}, 2,
			wallfield.Circle{Center: mgl64.Vec2{20, 20}, Radius: 2})
		Expect(err).NotTo(HaveOccurred())

		cfg := sim.DefaultSpawnConfig()
		cfg.Count = 12
		cfg.HalfSize = 8

		run := func() uint64 {
			x, props, err := sim.Spawn(cfg, rand.New(rand.NewSource(7)))
			Expect(err).NotTo(HaveOccurred())
			a := newArena(x, props, field, physics.DefaultParams())
			u := dynamo.NewControl(a.Bodies())
			for i := 0; i < a.Bodies(); i++ {
				u.Set(i, 10, 0.5)
			}
			stepN(a, u, 150)
			return a.State().Checksum()
		}

		Expect(run()).To(Equal(run()))
	})

	DescribeTable("rejects bad steps without touching the state",
		func(u dynamo.Control, step float64, want error) {
			x := dynamo.State{0, 0, 0, 1, 1, 1}
			a := newArena(x, []physics.Props{craft(1, 0.25, 1, 1)}, open, physics.DefaultParams())
			before := a.Snapshot()

			Expect(a.Step(u, step)).To(MatchError(want))
			Expect(a.State()).To(Equal(before))
			Expect(a.Steps()).To(BeZero())
			Expect(a.Time()).To(BeZero())
		},
		Entry("short control", dynamo.Control{1}, dt, dynamo.ErrDimensionMismatch),
		Entry("long control", dynamo.NewControl(2), dt, dynamo.ErrDimensionMismatch),
		Entry("zero dt", dynamo.NewControl(1), 0.0, dynamo.ErrParameterBounds),
		Entry("negative dt", dynamo.NewControl(1), -dt, dynamo.ErrParameterBounds),
		Entry("NaN dt", dynamo.NewControl(1), math.NaN(), dynamo.ErrParameterBounds),
	)
})
