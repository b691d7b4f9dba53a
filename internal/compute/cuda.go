//go:build cuda

package compute

/*
#cgo CFLAGS: -I/opt/cuda/include
#cgo LDFLAGS: -L/opt/cuda/lib64 -L${SRCDIR} -lcudart -lkernels -lstdc++
#include <stdlib.h>

extern int cuda_device_count();
extern const char* cuda_device_name_get();
extern int spring_solver_gpu(float* x, float* v, int n,
	int* link_start, int* link_index, float* link_k, float* link_len0, float* link_dir0,
	float* mass, float* lambda, int* fixed,
	float gx, float gy, float gz, int law, int nsub, float dt);
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/san-kum/fabricsim/internal/mesh"
	"github.com/san-kum/fabricsim/internal/spring"
)

// CUDABackend runs the whole sub-step loop on the device. Links are
// flattened CSR style: slot i owns link_start[i] .. link_start[i+1].
type CUDABackend struct {
	available  bool
	deviceName string
}

func NewCUDABackend() *CUDABackend {
	count := int(C.cuda_device_count())
	name := ""
	if count > 0 {
		name = C.GoString(C.cuda_device_name_get())
	}
	return &CUDABackend{
		available:  count > 0,
		deviceName: name,
	}
}

func (c *CUDABackend) Name() string {
	if c.available {
		return "cuda (" + c.deviceName + ")"
	}
	return "cuda (not available)"
}

func (c *CUDABackend) Available() bool { return c.available }
func (c *CUDABackend) Cleanup()        {}

func (c *CUDABackend) SpringSolve(sys *spring.System, pos, vel []mesh.Vec3, nSub int, dt float64) error {
	if !c.available {
		return NewCPUBackend(nil).SpringSolve(sys, pos, vel, nSub, dt)
	}
	if err := checkBuffers(sys, pos, vel, nSub, dt); err != nil {
		return err
	}
	n := len(sys.Verts)
	if n == 0 {
		return nil
	}

	xF := make([]float32, 3*n)
	vF := make([]float32, 3*n)
	mass := make([]float32, n)
	lambda := make([]float32, n)
	fixed := make([]C.int, n)
	start := make([]C.int, n+1)
	var index []C.int
	var k, len0, dir0 []float32

	for i, sv := range sys.Verts {
		for d := 0; d < 3; d++ {
			xF[3*i+d] = float32(pos[i][d])
			vF[3*i+d] = float32(vel[i][d])
		}
		mass[i] = float32(sv.Mass)
		lambda[i] = float32(sv.Lambda)
		if sv.Fixed {
			fixed[i] = 1
		}
		start[i] = C.int(len(index))
		for _, l := range sv.Links {
			index = append(index, C.int(l.Index))
			k = append(k, float32(l.K))
			len0 = append(len0, float32(l.RestLen))
			dir0 = append(dir0, float32(l.RestDir[0]), float32(l.RestDir[1]), float32(l.RestDir[2]))
		}
	}
	start[n] = C.int(len(index))
	if len(index) == 0 {
		// keep the pointers below valid
		index = append(index, 0)
		k = append(k, 0)
		len0 = append(len0, 0)
		dir0 = append(dir0, 0, 0, 0)
	}

	rc := C.spring_solver_gpu(
		(*C.float)(unsafe.Pointer(&xF[0])),
		(*C.float)(unsafe.Pointer(&vF[0])),
		C.int(n),
		(*C.int)(unsafe.Pointer(&start[0])),
		(*C.int)(unsafe.Pointer(&index[0])),
		(*C.float)(unsafe.Pointer(&k[0])),
		(*C.float)(unsafe.Pointer(&len0[0])),
		(*C.float)(unsafe.Pointer(&dir0[0])),
		(*C.float)(unsafe.Pointer(&mass[0])),
		(*C.float)(unsafe.Pointer(&lambda[0])),
		(*C.int)(unsafe.Pointer(&fixed[0])),
		C.float(sys.Gravity[0]), C.float(sys.Gravity[1]), C.float(sys.Gravity[2]),
		C.int(sys.Law),
		C.int(nSub),
		C.float(dt),
	)
	if rc != 0 {
		return fmt.Errorf("spring_solver_gpu failed with code %d", int(rc))
	}

	for i := 0; i < n; i++ {
		for d := 0; d < 3; d++ {
			pos[i][d] = float64(xF[3*i+d])
			vel[i][d] = float64(vF[3*i+d])
		}
	}
	return nil
}
