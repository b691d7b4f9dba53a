package spring

import (
	"fmt"
	"strings"

	"github.com/san-kum/fabricsim/internal/mesh"
)

type Vec3 = mesh.Vec3

// Law selects how a deformed spring turns into a force on its first
// endpoint.
type Law int

const (
	// CurrentDirection: k (L - L0) d, d the current unit direction.
	CurrentDirection Law = iota
	// RestDirection: k ((xnb - x) - L0 d0), the deviation from the rest
	// vector. Stable under large rotations.
	RestDirection
	// Strain: k L0 (d - d0).
	Strain
)

var lawNames = map[Law]string{
	CurrentDirection: "current",
	RestDirection:    "rest",
	Strain:           "strain",
}

func (l Law) String() string {
	if n, ok := lawNames[l]; ok {
		return n
	}
	return fmt.Sprintf("law(%d)", int(l))
}

func ParseLaw(name string) (Law, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for l, n := range lawNames {
		if n == key {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown force law %q (want current, rest or strain)", name)
}

func ListLaws() []string {
	return []string{"current", "rest", "strain"}
}

// Force is the pull of neighbor nb on self through one spring of
// stiffness k with the given rest length and rest direction (self → nb).
func (l Law) Force(k float64, self, nb Vec3, restLen float64, restDir Vec3) Vec3 {
	d := nb.Sub(self)
	switch l {
	case RestDirection:
		return d.Sub(restDir.Mul(restLen)).Mul(k)
	case Strain:
		length := d.Len()
		if length == 0 {
			return restDir.Mul(-k * restLen)
		}
		return d.Mul(1 / length).Sub(restDir).Mul(k * restLen)
	default:
		length := d.Len()
		if length == 0 {
			return Vec3{}
		}
		return d.Mul(k * (length - restLen) / length)
	}
}
