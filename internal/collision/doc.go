// Package collision resolves crossings between the fabric and rigid
// bodies.
//
// Each reported crossing is classified by the roles of its two surfaces.
// Fabric-rigid crossings get a local triangle cluster on both sides and
// every fabric point found inside the rigid body is moved back out along
// the rigid surface normal. Only positions change; velocities, rest
// lengths and topology are left as they are.
package collision
