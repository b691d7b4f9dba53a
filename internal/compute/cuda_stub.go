//go:build !cuda

package compute

import (
	"github.com/san-kum/fabricsim/internal/mesh"
	"github.com/san-kum/fabricsim/internal/spring"
)

type CUDABackend struct{}

func NewCUDABackend() *CUDABackend {
	return &CUDABackend{}
}

func (c *CUDABackend) Name() string    { return "cuda (not compiled)" }
func (c *CUDABackend) Available() bool { return false }
func (c *CUDABackend) Cleanup()        {}

func (c *CUDABackend) SpringSolve(sys *spring.System, pos, vel []mesh.Vec3, nSub int, dt float64) error {
	return NewCPUBackend(nil).SpringSolve(sys, pos, vel, nSub, dt)
}
