package collision

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/san-kum/fabricsim/internal/dynamo"
	"github.com/san-kum/fabricsim/internal/mesh"
)

// DefaultTol is the gap left between a corrected point and the rigid
// surface, in grid cells.
const DefaultTol = 0.05

// Result is the outcome for one crossing.
type Result struct {
	Surfaces    [2]string
	Type        Type
	State       State
	RigidTris   int
	FabricTris  int
	Crossed     int
	Corrected   int
	RigidBeyond int
}

type Report struct {
	Results   []Result
	Corrected int
	Skipped   int
}

// Resolver treats the crossings reported after interface propagation,
// one pass per crossing.
type Resolver struct {
	// H is the grid spacing the correction gap is measured in.
	H   mesh.Vec3
	Tol float64
	Log logr.Logger
}

func NewResolver(h mesh.Vec3, log logr.Logger) *Resolver {
	return &Resolver{H: h, Tol: DefaultTol, Log: log}
}

// Resolve handles each crossing in turn. Fabric-fabric crossings are
// logged and skipped; rigid-rigid, unknown pairings and fabric-rigid
// crossings without a rigid surface stop the pass with a fatal error.
func (r *Resolver) Resolve(ctx context.Context, crossings []*mesh.CrossCurve) (*Report, error) {
	rep := &Report{}
	for i, cc := range crossings {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		res, err := r.resolveOne(cc)
		rep.Results = append(rep.Results, res)
		switch {
		case errors.Is(err, dynamo.ErrFabricFabric):
			rep.Skipped++
			r.Log.Info("skipping crossing", "index", i, "surfaces", res.Surfaces, "reason", err.Error())
		case err != nil:
			return rep, fmt.Errorf("crossing %d: %w", i, err)
		default:
			rep.Corrected += res.Corrected
		}
	}
	return rep, nil
}

func (r *Resolver) resolveOne(cc *mesh.CrossCurve) (Result, error) {
	res := Result{
		Surfaces: [2]string{cc.Surfs[0].Name, cc.Surfs[1].Name},
		Type:     Classify(cc.Surfs[0], cc.Surfs[1]),
		State:    Classified,
	}
	r.Log.V(2).Info("classified crossing", "surfaces", res.Surfaces, "type", res.Type.String())

	res.State = res.Type.next()
	if res.State == Unsupported {
		return res, res.Type.Err()
	}

	c, err := BuildCluster(cc)
	if err != nil {
		res.State = Unsupported
		return res, err
	}
	res.RigidTris = len(c.RigidTris)
	res.FabricTris = len(c.FabricTris)
	res.Crossed = len(c.Crossed)
	r.Log.V(2).Info("built cluster", "rigidTris", res.RigidTris, "fabricTris", res.FabricTris, "crossed", res.Crossed)

	res.Corrected = c.Correct(r.H, r.Tol)
	res.RigidBeyond = c.RigidBeyond()
	res.State = FabricRigidCorrected
	if res.RigidBeyond > 0 {
		r.Log.V(1).Info("rigid points beyond fabric after correction", "count", res.RigidBeyond)
	}
	return res, nil
}
