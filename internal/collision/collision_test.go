package collision_test

import (
	"context"
	"errors"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fabricsim/internal/collision"
	"github.com/san-kum/fabricsim/internal/dynamo"
	"github.com/san-kum/fabricsim/internal/mesh"
)

var h = mesh.Vec3{0.1, 0.1, 0.1}

func unitCube(in *mesh.Interface, wave mesh.WaveType) *mesh.Surface {
	box, err := mesh.Box(in, "cube", wave, mesh.Vec3{-0.5, -0.5, -0.5}, mesh.Vec3{0.5, 0.5, 0.5})
	Expect(err).NotTo(HaveOccurred())
	return box
}

// fan is four triangles around a center point dipping to depth z below
// corners held at z = 0.6.
func fan(in *mesh.Interface, z float64) (*mesh.Surface, *mesh.Vertex) {
	pts := []*mesh.Vertex{
		in.NewVertex(mesh.Vec3{-0.2, -0.2, 0.6}),
		in.NewVertex(mesh.Vec3{0.2, -0.2, 0.6}),
		in.NewVertex(mesh.Vec3{0.2, 0.2, 0.6}),
		in.NewVertex(mesh.Vec3{-0.2, 0.2, 0.6}),
		in.NewVertex(mesh.Vec3{0, 0, z}),
	}
	s, err := in.AddSurface("fabric", mesh.WaveElastic, pts,
		[][3]int{{0, 1, 4}, {1, 2, 4}, {2, 3, 4}, {3, 0, 4}})
	Expect(err).NotTo(HaveOccurred())
	return s, pts[4]
}

func positions(in *mesh.Interface) []mesh.Vec3 {
	out := make([]mesh.Vec3, len(in.Vertices))
	for i, v := range in.Vertices {
		out[i] = v.Pos
	}
	return out
}

var _ = Describe("Classify", func() {
	surf := func(w mesh.WaveType) *mesh.Surface { return &mesh.Surface{Wave: w} }

	DescribeTable("pairs surfaces by role in either order",
		func(a, b mesh.WaveType, want collision.Type) {
			Expect(collision.Classify(surf(a), surf(b))).To(Equal(want))
			Expect(collision.Classify(surf(b), surf(a))).To(Equal(want))
		},
		Entry("elastic/elastic", mesh.WaveElastic, mesh.WaveElastic, collision.FabricFabric),
		Entry("elastic/neumann", mesh.WaveElastic, mesh.WaveNeumann, collision.FabricRigid),
		Entry("elastic/movable", mesh.WaveElastic, mesh.WaveMovableBody, collision.FabricRigid),
		Entry("neumann/movable", mesh.WaveNeumann, mesh.WaveMovableBody, collision.RigidRigid),
		Entry("movable/movable", mesh.WaveMovableBody, mesh.WaveMovableBody, collision.RigidRigid),
		Entry("other/elastic", mesh.WaveOther, mesh.WaveElastic, collision.Unknown),
		Entry("other/neumann", mesh.WaveOther, mesh.WaveNeumann, collision.Unknown),
	)
})

var _ = Describe("Resolver", func() {
	var (
		in  *mesh.Interface
		res *collision.Resolver
		ctx context.Context
	)

	BeforeEach(func() {
		in = mesh.NewInterface()
		res = collision.NewResolver(h, logr.Discard())
		ctx = context.Background()
	})

	Context("with a fabric point inside a rigid cube", func() {
		var center *mesh.Vertex

		BeforeEach(func() {
			unitCube(in, mesh.WaveNeumann)
			_, center = fan(in, 0.4)
			center.Vel = mesh.Vec3{1, 2, 3}
		})

		It("moves the point just outside the top face", func() {
			crossings := mesh.FindCrossings(in)
			Expect(crossings).To(HaveLen(1))

			rep, err := res.Resolve(ctx, crossings)
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Corrected).To(Equal(1))
			Expect(rep.Skipped).To(BeZero())
			Expect(rep.Results).To(HaveLen(1))

			r := rep.Results[0]
			Expect(r.Type).To(Equal(collision.FabricRigid))
			Expect(r.State).To(Equal(collision.FabricRigidCorrected))
			Expect(r.Crossed).To(Equal(1))

			Expect(center.Pos[0]).To(BeNumerically("~", 0, 1e-12))
			Expect(center.Pos[1]).To(BeNumerically("~", 0, 1e-12))
			Expect(center.Pos[2]).To(BeNumerically("~", 0.5+collision.DefaultTol*0.1, 1e-12))
			Expect(center.Vel).To(Equal(mesh.Vec3{1, 2, 3}))
		})

		It("leaves no crossing behind", func() {
			_, err := res.Resolve(ctx, mesh.FindCrossings(in))
			Expect(err).NotTo(HaveOccurred())
			Expect(mesh.FindCrossings(in)).To(BeEmpty())
		})
	})

	It("lands at the same gap regardless of penetration depth", func() {
		for _, depth := range []float64{0.45, 0.3, 0.1} {
			in := mesh.NewInterface()
			unitCube(in, mesh.WaveMovableBody)
			_, center := fan(in, depth)

			_, err := res.Resolve(ctx, mesh.FindCrossings(in))
			Expect(err).NotTo(HaveOccurred())
			Expect(center.Pos[2]).To(BeNumerically("~", 0.505, 1e-12), "depth %g", depth)
		}
	})

	It("is a no-op on an already corrected cluster", func() {
		unitCube(in, mesh.WaveNeumann)
		_, center := fan(in, 0.4)

		crossings := mesh.FindCrossings(in)
		c, err := collision.BuildCluster(crossings[0])
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Crossed).To(ConsistOf(center))

		Expect(c.Correct(h, collision.DefaultTol)).To(Equal(1))
		before := center.Pos
		n, ok := mesh.NearestPointToCluster(center.Pos, c.RigidTris)
		Expect(ok).To(BeTrue())
		Expect(n.Dist).To(BeNumerically(">", 0))
		Expect(n.Dist).To(BeNumerically("~", collision.DefaultTol*0.1, 1e-12))

		Expect(c.Correct(h, collision.DefaultTol)).To(BeZero())
		Expect(center.Pos).To(Equal(before))
	})

	It("skips fabric-fabric crossings without moving anything", func() {
		if _, _, err := mesh.SquareCanopy(in, "a", 2, 2, mesh.Vec3{}); err != nil {
			Fail(err.Error())
		}
		pts := []*mesh.Vertex{
			in.NewVertex(mesh.Vec3{0.3, -0.5, -0.5}),
			in.NewVertex(mesh.Vec3{0.3, 0.5, -0.5}),
			in.NewVertex(mesh.Vec3{0.3, 0.5, 0.5}),
			in.NewVertex(mesh.Vec3{0.3, -0.5, 0.5}),
		}
		_, err := in.AddSurface("b", mesh.WaveElastic, pts, [][3]int{{0, 1, 2}, {0, 2, 3}})
		Expect(err).NotTo(HaveOccurred())

		crossings := mesh.FindCrossings(in)
		Expect(crossings).To(HaveLen(1))
		before := positions(in)

		rep, err := res.Resolve(ctx, crossings)
		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Skipped).To(Equal(1))
		Expect(rep.Corrected).To(BeZero())
		Expect(rep.Results[0].State).To(Equal(collision.Unsupported))
		Expect(positions(in)).To(Equal(before))
	})

	It("stops on rigid-rigid crossings", func() {
		unitCube(in, mesh.WaveNeumann)
		_, err := mesh.Box(in, "other", mesh.WaveMovableBody, mesh.Vec3{0.2, 0.2, 0.2}, mesh.Vec3{0.9, 0.9, 0.9})
		Expect(err).NotTo(HaveOccurred())

		_, err = res.Resolve(ctx, mesh.FindCrossings(in))
		Expect(errors.Is(err, dynamo.ErrRigidRigid)).To(BeTrue())
		Expect(dynamo.IsFatal(err)).To(BeTrue())
	})

	It("stops on unknown pairings", func() {
		unitCube(in, mesh.WaveOther)
		fan(in, 0.4)

		_, err := res.Resolve(ctx, mesh.FindCrossings(in))
		Expect(errors.Is(err, dynamo.ErrUnknownCollision)).To(BeTrue())
		Expect(dynamo.IsFatal(err)).To(BeTrue())
	})

	It("honors a cancelled context", func() {
		unitCube(in, mesh.WaveNeumann)
		fan(in, 0.4)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := res.Resolve(cancelled, mesh.FindCrossings(in))
		Expect(err).To(MatchError(context.Canceled))
	})
})

var _ = Describe("BuildCluster", func() {
	It("requires a rigid surface", func() {
		in := mesh.NewInterface()
		a, _ := fan(in, 0.4)
		cc := &mesh.CrossCurve{Surfs: [2]*mesh.Surface{a, a}}

		_, err := collision.BuildCluster(cc)
		Expect(errors.Is(err, dynamo.ErrNoRigidSurface)).To(BeTrue())
		Expect(dynamo.IsFatal(err)).To(BeTrue())
	})

	It("closes the fabric cluster over a triangle bordering two members", func() {
		in := mesh.NewInterface()
		box, err := mesh.Box(in, "box", mesh.WaveNeumann, mesh.Vec3{0, 0, 5}, mesh.Vec3{1, 1, 6})
		Expect(err).NotTo(HaveOccurred())
		canopy, _, err := mesh.SquareCanopy(in, "canopy", 3, 3, mesh.Vec3{1.5, 1.5, 1})
		Expect(err).NotTo(HaveOccurred())

		// lower-right and upper-left triangles of cells (0,0) and (1,0)
		t0, t2, t3 := canopy.Tris[0], canopy.Tris[2], canopy.Tris[3]
		cc := &mesh.CrossCurve{
			Surfs: [2]*mesh.Surface{box, canopy},
			Bonds: []mesh.CrossBond{
				{Tris: [2]*mesh.Tri{box.Tris[0], t0}},
				{Tris: [2]*mesh.Tri{box.Tris[0], t2}},
			},
		}

		c, err := collision.BuildCluster(cc)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.FabricTris).To(ConsistOf(t0, t2, t3))
		Expect(c.RigidTris).To(ConsistOf(box.Tris[0]))
		Expect(c.Crossed).To(BeEmpty())
	})
})
