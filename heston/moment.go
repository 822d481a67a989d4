package heston

import (
	"math"
)

// CriticalTime returns the Andersen-Piterbarg moment explosion time T* for
// the moment E[F_T^{alpha+1}] needed by the damped transform. It is +Inf when
// the moment never explodes.
func CriticalTime(alpha float64, p ModelParams) float64 {
	sigma2 := p.Sigma * p.Sigma
	k := alpha * (alpha + 1) / 2
	b := 2 * k / sigma2
	a := (2*p.Rho*(alpha+1) - p.Kappa) / sigma2
	disc := a*a - 4*b
	gamma := math.Sqrt(math.Abs(disc)) / 2

	switch {
	case disc >= 0 && a < 0:
		return math.Inf(1)
	case disc >= 0:
		return sigma2 * math.Log((a/2+gamma)/(a/2-gamma)) / gamma
	case a < 0:
		return 2 * sigma2 * (math.Pi + math.Atan(2*gamma/a)) / gamma
	default:
		return 2 * sigma2 * math.Atan(2*gamma/a) / gamma
	}
}

// CheckMomentCondition reports whether pricing at maturity T with damping
// alpha is feasible, along with the critical time. Pricing is infeasible
// when T >= T*.
func CheckMomentCondition(T, alpha float64, p ModelParams) (bool, float64) {
	critical := CriticalTime(alpha, p)
	return T < critical, critical
}
