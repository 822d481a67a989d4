package option

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned for non-positive maturity or strike
var ErrInvalidArgument = errors.New("invalid option argument")

// EuropeanOption describes a European call or put. The strike is carried
// for reference; grid pricers ignore it and price the whole strike lattice.
type EuropeanOption struct {
	isCall   bool
	maturity float64
	strike   float64
}

// New creates a validated European option
func New(isCall bool, maturity, strike float64) (*EuropeanOption, error) {
	o := &EuropeanOption{isCall: isCall}
	if err := o.SetMaturity(maturity); err != nil {
		return nil, err
	}
	if err := o.SetStrike(strike); err != nil {
		return nil, err
	}
	return o, nil
}

// IsCall reports whether the option is a call
func (o *EuropeanOption) IsCall() bool {
	return o.isCall
}

// Maturity returns the time to maturity in years
func (o *EuropeanOption) Maturity() float64 {
	return o.maturity
}

// Strike returns the strike
func (o *EuropeanOption) Strike() float64 {
	return o.strike
}

// SetMaturity sets the time to maturity; it must be positive
func (o *EuropeanOption) SetMaturity(m float64) error {
	if !(m > 0) {
		return fmt.Errorf("%w: time to maturity must be positive, got %v", ErrInvalidArgument, m)
	}
	o.maturity = m
	return nil
}

// SetStrike sets the strike; it must be positive
func (o *EuropeanOption) SetStrike(k float64) error {
	if !(k > 0) {
		return fmt.Errorf("%w: strike must be positive, got %v", ErrInvalidArgument, k)
	}
	o.strike = k
	return nil
}

func (o *EuropeanOption) String() string {
	kind := "put"
	if o.isCall {
		kind = "call"
	}
	return fmt.Sprintf("european %s T=%g K=%g", kind, o.maturity, o.strike)
}
