package fabric

import (
	"fmt"

	"github.com/san-kum/fabricsim/internal/mesh"
	"github.com/san-kum/fabricsim/internal/spring"
)

type Vec3 = mesh.Vec3

// Params are the material and stepping constants of one structural
// group. The s, l and g suffixes are canopy mesh, string line and gore
// line.
type Params struct {
	Ks, Kl, Kg                float64
	Ms, Ml, Mg                float64
	LambdaS, LambdaL, LambdaG float64

	Payload     float64
	AreaDensity float64
	Gravity     Vec3

	Dt           float64
	NSub         int
	SmoothLayers int
}

func DefaultParams() Params {
	return Params{
		Ks: 500, Kl: 1000, Kg: 800,
		Ms: 0.001, Ml: 0.002, Mg: 0.0015,
		LambdaS: 0.02, LambdaL: 0.02, LambdaG: 0.02,
		Payload:      0.5,
		AreaDensity:  0.1,
		Gravity:      Vec3{0, 0, -9.8},
		Dt:           0.001,
		NSub:         20,
		SmoothLayers: 1,
	}
}

func (p Params) Validate() error {
	for _, m := range []struct {
		name string
		v    float64
	}{{"ms", p.Ms}, {"ml", p.Ml}, {"mg", p.Mg}, {"payload", p.Payload}} {
		if m.v <= 0 {
			return fmt.Errorf("%s must be positive, got %g", m.name, m.v)
		}
	}
	if p.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %g", p.Dt)
	}
	if p.NSub <= 0 {
		return fmt.Errorf("n_sub must be positive, got %d", p.NSub)
	}
	if p.SmoothLayers < 0 {
		return fmt.Errorf("smooth layers must not be negative, got %d", p.SmoothLayers)
	}
	return nil
}

// Material resolves the constant bundle of a class. Load points carry
// the payload and take no damping.
func (p Params) Material(c spring.Class) spring.Material {
	switch c {
	case spring.StringLine:
		return spring.Material{Class: c, K: p.Kl, Mass: p.Ml, Lambda: p.LambdaL}
	case spring.GoreLine:
		return spring.Material{Class: c, K: p.Kg, Mass: p.Mg, Lambda: p.LambdaG}
	case spring.Load:
		return spring.Material{Class: c, Mass: p.Payload}
	default:
		return spring.Material{Class: spring.Canopy, K: p.Ks, Mass: p.Ms, Lambda: p.LambdaS}
	}
}

// CurveClass maps a curve role to the material of its springs and points.
func CurveClass(r mesh.CurveRole) spring.Class {
	switch r {
	case mesh.CurveString:
		return spring.StringLine
	case mesh.CurveGore:
		return spring.GoreLine
	default:
		return spring.Canopy
	}
}

// NodeClass maps a node role to the material its point takes mass from.
func NodeClass(r mesh.NodeRole) spring.Class {
	switch r {
	case mesh.NodeLoad:
		return spring.Load
	case mesh.NodeGore:
		return spring.GoreLine
	case mesh.NodeString:
		return spring.StringLine
	default:
		return spring.Canopy
	}
}
