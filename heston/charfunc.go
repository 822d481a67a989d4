package heston

import (
	"math/cmplx"
)

// LogPriceCF is the characteristic function E[exp(i*u*X_T)] of the log-forward
// price X_T = ln F_T, given the current log-forward x and variance v at time t.
//
// No validation is done: extreme u or parameter combinations may overflow
// to Inf/NaN, the caller owns numerical stability.
func LogPriceCF(u complex128, x, v, t, T float64, p ModelParams) complex128 {
	rho := complex(p.Rho, 0)
	kappa := complex(p.Kappa, 0)
	sigma := complex(p.Sigma, 0)
	sigma2 := sigma * sigma
	iu := 1i * u

	b := rho*sigma*iu - kappa
	d := cmplx.Sqrt(b*b + sigma2*(iu+u*u))
	g := (b + d) / (b - d)

	tau := complex(T-t, 0)
	edt := cmplx.Exp(-d * tau)

	D := ((-b - d) / sigma2) * ((1 - edt) / (1 - g*edt))
	C := (kappa * complex(p.Theta, 0) / sigma2) *
		((-b-d)*tau - 2*cmplx.Log((1-g*edt)/(1-g)))

	return cmplx.Exp(C + D*complex(v, 0) + iu*complex(x, 0))
}

// ExpOptionCF is the Fourier transform of the damped undiscounted call price
// c_T(k) = e^{alpha*k} E[(F_T - e^k)^+] evaluated at real frequency u.
func ExpOptionCF(u, x, v, alpha, T float64, p ModelParams) complex128 {
	shifted := complex(u, -(alpha + 1))
	denom := complex(alpha*alpha+alpha-u*u, (2*alpha+1)*u)
	return LogPriceCF(shifted, x, v, 0, T, p) / denom
}
