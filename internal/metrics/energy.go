package metrics

import (
	"math"

	"github.com/san-kum/fabricsim/internal/mesh"
)

// KineticEnergy averages Σ ½ m |v|² over the observed steps.
type KineticEnergy struct {
	name    string
	last    float64
	total   float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(s Sample) {
	if s.Group == nil {
		return
	}
	ke := 0.0
	s.Group.EachMass(func(p *mesh.Vertex, m float64) {
		ke += 0.5 * m * p.Vel.Dot(p.Vel)
	})
	e.last = ke
	e.total += ke
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

// Last is the energy at the latest observed step.
func (e *KineticEnergy) Last() float64 { return e.last }

func (e *KineticEnergy) Reset() {
	e.last = 0
	e.total = 0
	e.samples = 0
}

// ElasticEnergy tracks Σ ½ k (L − L0)² over every spring of the group
// and keeps the largest value seen.
type ElasticEnergy struct {
	name    string
	last    float64
	peak    float64
	samples int
}

func NewElasticEnergy() *ElasticEnergy {
	return &ElasticEnergy{name: "elastic_energy"}
}

func (e *ElasticEnergy) Name() string { return e.name }

func (e *ElasticEnergy) Observe(s Sample) {
	if s.Group == nil {
		return
	}
	pe := 0.0
	s.Group.EachSpring(func(a, b *mesh.Vertex, k, restLen float64) {
		dl := b.Pos.Sub(a.Pos).Len() - restLen
		pe += 0.5 * k * dl * dl
	})
	e.last = pe
	e.peak = math.Max(e.peak, pe)
	e.samples++
}

func (e *ElasticEnergy) Value() float64 { return e.peak }

func (e *ElasticEnergy) Last() float64 { return e.last }

func (e *ElasticEnergy) Reset() {
	e.last = 0
	e.peak = 0
	e.samples = 0
}
