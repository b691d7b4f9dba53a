package compute

import (
	"fmt"

	"github.com/san-kum/fabricsim/internal/dynamo"
	"github.com/san-kum/fabricsim/internal/integrators"
	"github.com/san-kum/fabricsim/internal/mesh"
	"github.com/san-kum/fabricsim/internal/spring"
)

// CPUBackend is the sequential kernel. Sub-steps run in order; force
// evaluation inside a sub-step fans out for large systems.
//
// An integrator with an error estimate refines each sub-step until the
// estimate stays within Tol.
type CPUBackend struct {
	Tol float64

	integ dynamo.Integrator
	state dynamo.State
}

// DefaultAdaptiveTol is the relative error allowed per adaptive step.
const DefaultAdaptiveTol = 1e-6

// minAdaptiveFraction bounds how far an adaptive step may shrink
// relative to the sub-step.
const minAdaptiveFraction = 1e-6

func NewCPUBackend(integ dynamo.Integrator) *CPUBackend {
	if integ == nil {
		integ = integrators.NewRK4()
	}
	return &CPUBackend{integ: integ, Tol: DefaultAdaptiveTol}
}

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Cleanup()        {}

func (c *CPUBackend) SpringSolve(sys *spring.System, pos, vel []mesh.Vec3, nSub int, dt float64) error {
	if err := checkBuffers(sys, pos, vel, nSub, dt); err != nil {
		return err
	}
	c.state = spring.Pack(pos, vel, c.state)

	h := dt / float64(nSub)
	x := c.state
	adaptive, isAdaptive := c.integ.(dynamo.AdaptiveIntegrator)
	for s := 0; s < nSub; s++ {
		if isAdaptive {
			var err error
			if x, err = c.refine(adaptive, sys, x, float64(s)*h, h); err != nil {
				return fmt.Errorf("sub-step %d: %w", s, err)
			}
		} else {
			x = c.integ.Step(sys, x, nil, float64(s)*h, h)
		}
		if !x.IsValid() {
			return fmt.Errorf("sub-step %d: %w", s, dynamo.ErrInvalidState)
		}
	}
	spring.Unpack(x, pos, vel)
	return nil
}

// refine covers [t, t+h] with error-controlled steps. A step is retried
// with the proposed size when the integrator shrinks it.
func (c *CPUBackend) refine(ai dynamo.AdaptiveIntegrator, sys *spring.System, x dynamo.State, t, h float64) (dynamo.State, error) {
	left, try := h, h
	for left > h*1e-12 {
		try = min(try, left)
		next, proposed, err := ai.StepAdaptive(sys, x, nil, t, try, c.Tol)
		if err != nil {
			return nil, err
		}
		if proposed < 0.9*try {
			if proposed < h*minAdaptiveFraction {
				return nil, fmt.Errorf("step size %g at t=%g: %w", proposed, t, dynamo.ErrInvalidState)
			}
			try = proposed
			continue
		}
		x = next
		t += try
		left -= try
		try = proposed
	}
	return x, nil
}
