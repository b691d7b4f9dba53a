package spring

import (
	"fmt"

	"github.com/san-kum/fabricsim/internal/dynamo"
	"github.com/san-kum/fabricsim/internal/mesh"
)

// Assembler sums the elastic pull on a mesh point straight from the
// triangle sides around it.
type Assembler struct {
	Law Law
}

func NewAssembler(law Law) *Assembler {
	return &Assembler{Law: law}
}

// ForceAtPoint returns the net elastic force on v from the sides of the
// first ring of v on the surface owning t. Every neighbor across a side
// at v pulls once, also along the rim of an open fan. Registered points
// take no force. A flagged side around v means v is not a
// surface-interior point and yields ErrBoundarySpring.
func (a *Assembler) ForceAtPoint(v *mesh.Vertex, t *mesh.Tri, k float64) (Vec3, error) {
	if v.Registered {
		return Vec3{}, nil
	}
	seen := mesh.NewVisitSet(8)
	var f Vec3
	for _, tri := range mesh.TrisAroundPoint(v, t.Surf) {
		j := tri.Index(v)
		out, in := tri.Sides[j], tri.Sides[(j+2)%3]
		if out.Boundary || in.Boundary {
			return Vec3{}, fmt.Errorf("point %s, tri %d: %w", v, tri.ID, dynamo.ErrBoundarySpring)
		}
		if nb := tri.V[(j+1)%3]; seen.Visit(nb) {
			f = f.Add(a.Law.Force(k, v.Pos, nb.Pos, out.RestLen, out.RestDir))
		}
		if nb := tri.V[(j+2)%3]; seen.Visit(nb) {
			f = f.Add(a.Law.Force(k, v.Pos, nb.Pos, in.RestLen, in.RestDir.Mul(-1)))
		}
	}
	return f, nil
}
