package spring

// Class is the material a point takes its mass and damping from.
type Class int

const (
	Canopy Class = iota
	StringLine
	GoreLine
	Load
)

func (c Class) String() string {
	switch c {
	case StringLine:
		return "string"
	case GoreLine:
		return "gore"
	case Load:
		return "load"
	default:
		return "canopy"
	}
}

// Material bundles the constants of one class. K is the stiffness of the
// springs of that class; Mass and Lambda apply to points of that class.
type Material struct {
	Class  Class
	K      float64
	Mass   float64
	Lambda float64
}

// Link is one spring seen from its first endpoint. RestDir points from
// that endpoint toward Index.
type Link struct {
	Index   int
	K       float64
	RestLen float64
	RestDir Vec3
}

// Vertex describes one slot of the flat kernel buffers.
type Vertex struct {
	Class  Class
	Mass   float64
	Lambda float64
	// Fixed slots keep their position and velocity.
	Fixed bool
	Links []Link
}

// Reset clears the descriptor for reuse, keeping the link storage.
func (v *Vertex) Reset(m Material) {
	v.Class = m.Class
	v.Mass = m.Mass
	v.Lambda = m.Lambda
	v.Fixed = false
	v.Links = v.Links[:0]
}

func (v *Vertex) Link(index int, k, restLen float64, restDir Vec3) {
	v.Links = append(v.Links, Link{Index: index, K: k, RestLen: restLen, RestDir: restDir})
}

// HasLink reports whether v already springs to index.
func (v *Vertex) HasLink(index int) bool {
	for _, l := range v.Links {
		if l.Index == index {
			return true
		}
	}
	return false
}
