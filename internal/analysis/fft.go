package analysis

import (
	"math"
	"math/cmplx"
)

func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}
	return result
}

// Spectrum removes the mean of series, zero pads it to a power of two and
// returns the magnitude of the positive frequency bins together with the
// frequency of the strongest non-DC bin. dt is the sample spacing.
func Spectrum(series []float64, dt float64) (ps []float64, dominant float64) {
	if len(series) < 2 || dt <= 0 {
		return nil, 0
	}

	n := 1
	for n < len(series) {
		n *= 2
	}

	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(len(series))

	padded := make([]float64, n)
	for i, v := range series {
		padded[i] = v - mean
	}

	fft := FFT(padded)
	ps = make([]float64, n/2)
	best := 0
	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
		if i > 0 && ps[i] > ps[best] {
			best = i
		}
	}
	if best == 0 {
		return ps, 0
	}
	return ps, float64(best) / (float64(n) * dt)
}
