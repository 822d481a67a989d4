package spectral

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/cmplxs"
)

// ErrOddLength is returned when the transform input has an odd number of samples.
var ErrOddLength = errors.New("input length must be even")

// Method selects the algorithm behind FFT.Compute. Both produce
// F_n = sum_k f_k e^{-2*pi*i*n*k/N} in natural order.
type Method string

const (
	// MethodDSP delegates to mjibson/go-dsp (O(N log N)).
	MethodDSP Method = "dsp"
	// MethodSplit is the single-level even/odd decimation evaluated with
	// explicit dot products (O(N^2)).
	MethodSplit Method = "split"
)

// FFT provides the discrete Fourier transform used by the pricing grid
type FFT struct {
	method Method
}

// NewFFT creates a transform backed by go-dsp
func NewFFT() *FFT {
	return &FFT{method: MethodDSP}
}

// NewFFTWithMethod creates a transform using the given method
func NewFFTWithMethod(method Method) (*FFT, error) {
	switch method {
	case MethodDSP, MethodSplit:
		return &FFT{method: method}, nil
	case "":
		return NewFFT(), nil
	default:
		return nil, fmt.Errorf("unknown fft method: %q", method)
	}
}

// Method reports the configured algorithm
func (f *FFT) Method() Method {
	return f.method
}

// Compute returns the forward DFT of x. The input must have even length;
// it is never padded and never modified.
func (f *FFT) Compute(x []complex128) ([]complex128, error) {
	if len(x)%2 == 1 {
		return nil, fmt.Errorf("fft of length %d: %w", len(x), ErrOddLength)
	}
	if len(x) == 0 {
		return []complex128{}, nil
	}

	switch f.method {
	case MethodSplit:
		return splitDFT(x), nil
	default:
		// go-dsp copies its input before transforming
		return fft.FFT(x), nil
	}
}

// splitDFT splits x into even and odd halves and, for every output bin n,
// combines dot(w^n, even) + e^{-2*pi*i*n/N} * dot(w^n, odd) where
// w_m = e^{-2*pi*i*m/(N/2)}.
func splitDFT(x []complex128) []complex128 {
	size := len(x)
	half := size / 2

	even := make([]complex128, half)
	odd := make([]complex128, half)
	for m := 0; m < half; m++ {
		even[m] = x[2*m]
		odd[m] = x[2*m+1]
	}

	// w_m^n == twist[(m*n) mod half], so one table serves every power.
	twist := make([]complex128, half)
	for m := 0; m < half; m++ {
		twist[m] = cmplx.Rect(1, -2*math.Pi*float64(m)/float64(half))
	}

	pow := make([]complex128, half)
	buf := make([]complex128, half)
	result := make([]complex128, size)

	for n := 0; n < size; n++ {
		for m := 0; m < half; m++ {
			pow[m] = twist[(m*n)%half]
		}
		sumEven := cmplxs.Sum(cmplxs.MulTo(buf, pow, even))
		sumOdd := cmplxs.Sum(cmplxs.MulTo(buf, pow, odd))
		multiplier := cmplx.Rect(1, -2*math.Pi*float64(n)/float64(size))
		result[n] = sumEven + multiplier*sumOdd
	}

	return result
}

// Direct evaluates the DFT definition term by term. It accepts any length
// and is meant as a reference for checking the fast paths.
func Direct(x []complex128) []complex128 {
	size := len(x)
	result := make([]complex128, size)
	for n := 0; n < size; n++ {
		var sum complex128
		for k := 0; k < size; k++ {
			angle := -2 * math.Pi * float64((n*k)%size) / float64(size)
			sum += x[k] * cmplx.Rect(1, angle)
		}
		result[n] = sum
	}
	return result
}
