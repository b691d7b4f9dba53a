package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/fabricsim/internal/dynamo"
)

var factories = map[string]func() dynamo.Integrator{
	"euler":      func() dynamo.Integrator { return NewEuler() },
	"symplectic": func() dynamo.Integrator { return NewSemiImplicitEuler() },
	"rk4":        func() dynamo.Integrator { return NewRK4() },
	"rk45":       func() dynamo.Integrator { return NewRK45() },
	"verlet":     func() dynamo.Integrator { return NewVerlet() },
	"leapfrog":   func() dynamo.Integrator { return NewLeapfrog() },
}

// New returns a fresh integrator by name. Integrators carry scratch
// state, so each kernel owns its own.
func New(name string) (dynamo.Integrator, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return f(), nil
}

func List() []string {
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
