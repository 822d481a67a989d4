package pricing

import (
	"fmt"
	"strings"
)

// Quadrature selects the weights applied to the frequency grid before the
// transform.
type Quadrature int

const (
	// QuadratureRectangle weighs every node by 1, leaving only the
	// alternating sign that re-centres the strike grid.
	QuadratureRectangle Quadrature = iota

	// QuadratureSimpson applies Simpson weights 1/3, 4/3, 2/3, 4/3, ...
	// which removes the O(du) bias the rectangle rule leaves at u = 0.
	QuadratureSimpson
)

// ParseQuadrature maps "rectangle" or "simpson" to a Quadrature
func ParseQuadrature(name string) (Quadrature, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "rectangle":
		return QuadratureRectangle, nil
	case "simpson":
		return QuadratureSimpson, nil
	default:
		return QuadratureRectangle, fmt.Errorf("unknown quadrature: %q", name)
	}
}

func (q Quadrature) String() string {
	switch q {
	case QuadratureSimpson:
		return "simpson"
	default:
		return "rectangle"
	}
}

// weight returns the signed weight of node i: (-1+2((i+1) mod 2)) for the
// rectangle rule, times (3 + (-1)^(i+1) - delta_i)/3 for Simpson.
func (q Quadrature) weight(i int) float64 {
	sign := float64(-1 + 2*((i+1)%2))
	if q != QuadratureSimpson {
		return sign
	}

	w := 3.0
	if i%2 == 0 {
		w--
	} else {
		w++
	}
	if i == 0 {
		w--
	}
	return sign * w / 3
}
