// Package spring assembles elastic forces on a triangulated membrane.
//
// Two views of the same spring network live here. Assembler walks the
// mesh directly and is used for one-off queries. System works on flat
// position and velocity buffers described by per-slot Vertex
// descriptors, and is what the sub-stepped kernels integrate.
package spring
