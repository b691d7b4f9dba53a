package collision

import (
	"fmt"

	"github.com/san-kum/fabricsim/internal/dynamo"
	"github.com/san-kum/fabricsim/internal/mesh"
)

// Type is the pairing of the two surfaces meeting at a crossing.
type Type int

const (
	Unknown Type = iota
	FabricFabric
	FabricRigid
	RigidRigid
)

func (t Type) String() string {
	switch t {
	case FabricFabric:
		return "fabric-fabric"
	case FabricRigid:
		return "fabric-rigid"
	case RigidRigid:
		return "rigid-rigid"
	default:
		return "unknown"
	}
}

// Classify pairs two surfaces by their declared roles. It is symmetric.
func Classify(s0, s1 *mesh.Surface) Type {
	e0, e1 := s0.Wave == mesh.WaveElastic, s1.Wave == mesh.WaveElastic
	r0, r1 := s0.Wave.IsRigid(), s1.Wave.IsRigid()
	switch {
	case e0 && e1:
		return FabricFabric
	case e0 && r1, r0 && e1:
		return FabricRigid
	case r0 && r1:
		return RigidRigid
	default:
		return Unknown
	}
}

// Err maps a pairing to the error the resolver reports for it, nil for
// a pairing it can treat.
func (t Type) Err() error {
	switch t {
	case FabricRigid:
		return nil
	case FabricFabric:
		return dynamo.ErrFabricFabric
	case RigidRigid:
		return dynamo.ErrRigidRigid
	default:
		return dynamo.ErrUnknownCollision
	}
}

// State tracks one crossing through the resolver.
type State int

const (
	Classified State = iota
	FabricRigidBuilding
	FabricRigidCorrected
	Unsupported
)

func (s State) String() string {
	switch s {
	case FabricRigidBuilding:
		return "fabric-rigid-building"
	case FabricRigidCorrected:
		return "fabric-rigid-corrected"
	case Unsupported:
		return "unsupported"
	default:
		return "classified"
	}
}

// next is the transition out of Classified for a pairing.
func (t Type) next() State {
	if t == FabricRigid {
		return FabricRigidBuilding
	}
	return Unsupported
}

func surfaceRoles(cc *mesh.CrossCurve) (rigid, fabric *mesh.Surface, err error) {
	for _, s := range cc.Surfs {
		switch {
		case s.Wave.IsRigid():
			rigid = s
		case s.Wave == mesh.WaveElastic:
			fabric = s
		}
	}
	if rigid == nil {
		return nil, nil, fmt.Errorf("crossing %s/%s: %w", cc.Surfs[0].Name, cc.Surfs[1].Name, dynamo.ErrNoRigidSurface)
	}
	if fabric == nil {
		return nil, nil, fmt.Errorf("crossing %s/%s: no fabric surface: %w",
			cc.Surfs[0].Name, cc.Surfs[1].Name, dynamo.ErrUnknownCollision)
	}
	return rigid, fabric, nil
}
