package metrics

import (
	"github.com/san-kum/fabricsim/internal/collision"
	"github.com/san-kum/fabricsim/internal/fabric"
	"github.com/san-kum/fabricsim/internal/mesh"
)

// Sample is what a metric sees after one macro step.
type Sample struct {
	Time      float64
	Interface *mesh.Interface
	Group     *fabric.Group
	Step      *fabric.StepReport
	// Collisions is nil when collision handling is off.
	Collisions *collision.Report
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Defaults returns the metrics every run records.
func Defaults() []Metric {
	return []Metric{
		NewKineticEnergy(),
		NewElasticEnergy(),
		NewMaxSpeed(),
		NewCorrections(),
		NewCanopyForce(),
	}
}
