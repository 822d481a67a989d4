package heston

import (
	"errors"
	"fmt"
)

// ErrInvalidParams is returned by ModelParams.Validate
var ErrInvalidParams = errors.New("invalid heston parameters")

// ModelParams holds the risk-neutral Heston variance dynamics
// dv = kappa*(theta - v)dt + sigma*sqrt(v)dW, corr(dW, dS) = rho.
type ModelParams struct {
	Rho   float64 `json:"rho"`   // correlation between the Brownian motions
	Kappa float64 `json:"kappa"` // speed of mean reversion
	Theta float64 `json:"theta"` // long-run variance
	Sigma float64 `json:"sigma"` // volatility of variance
}

// Validate checks rho in (-1, 1) and positive kappa, theta and sigma
func (p ModelParams) Validate() error {
	switch {
	case !(p.Rho > -1 && p.Rho < 1):
		return fmt.Errorf("%w: rho must lie in (-1, 1), got %v", ErrInvalidParams, p.Rho)
	case !(p.Kappa > 0):
		return fmt.Errorf("%w: kappa must be positive, got %v", ErrInvalidParams, p.Kappa)
	case !(p.Theta > 0):
		return fmt.Errorf("%w: theta must be positive, got %v", ErrInvalidParams, p.Theta)
	case !(p.Sigma > 0):
		return fmt.Errorf("%w: sigma must be positive, got %v", ErrInvalidParams, p.Sigma)
	}
	return nil
}

// FellerSatisfied reports whether 2*kappa*theta >= sigma^2, i.e. the
// variance process stays strictly positive.
func (p ModelParams) FellerSatisfied() bool {
	return 2*p.Kappa*p.Theta >= p.Sigma*p.Sigma
}
