package metrics

import "math"

// MaxSpeed is the largest post-processed point speed over the run.
type MaxSpeed struct {
	name string
	max  float64
}

func NewMaxSpeed() *MaxSpeed {
	return &MaxSpeed{name: "max_speed"}
}

func (m *MaxSpeed) Name() string { return m.name }

func (m *MaxSpeed) Observe(s Sample) {
	if s.Step == nil {
		return
	}
	m.max = math.Max(m.max, s.Step.Speed.Max)
}

func (m *MaxSpeed) Value() float64 { return m.max }

func (m *MaxSpeed) Reset() { m.max = 0 }

// Corrections counts fabric points moved out of rigid bodies.
type Corrections struct {
	name    string
	sum     int
	skipped int
}

func NewCorrections() *Corrections {
	return &Corrections{name: "corrections"}
}

func (c *Corrections) Name() string { return c.name }

func (c *Corrections) Observe(s Sample) {
	if s.Collisions == nil {
		return
	}
	c.sum += s.Collisions.Corrected
	c.skipped += s.Collisions.Skipped
}

func (c *Corrections) Value() float64 { return float64(c.sum) }

// Skipped is the number of crossings left untreated.
func (c *Corrections) Skipped() int { return c.skipped }

func (c *Corrections) Reset() {
	c.sum = 0
	c.skipped = 0
}
