package signals

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SavGol applies a Savitzky-Golay filter to y and returns a new slice of the same length.
//
// Interior points use the centred least-squares fit. The first and last window/2 points are
// evaluated on the polynomial fitted to the first and last full window, so no padding is
// involved and the output is never shifted in time.
//
// A window that cannot support the requested degree (window <= degree) leaves the data
// untouched.
func SavGol(y []float64, window, degree int) ([]float64, error) {
	if window < 1 || window%2 == 0 {
		return nil, fmt.Errorf("window must be a positive odd number, got %d", window)
	}
	if degree < 0 {
		return nil, fmt.Errorf("polynomial degree must not be negative, got %d", degree)
	}
	if window > len(y) {
		return nil, fmt.Errorf("window %d exceeds series length %d", window, len(y))
	}

	out := make([]float64, len(y))
	if window <= degree {
		copy(out, y)
		return out, nil
	}

	h := fitProjection(window, degree)
	half := window / 2
	n := len(y)

	for i := range y {
		start, row := i-half, half
		if i < half {
			start, row = 0, i
		} else if i >= n-half {
			start = n - window
			row = i - start
		}
		out[i] = floats.Dot(h.RawRowView(row), y[start:start+window])
	}

	return out, nil
}

// fitProjection returns the window x window hat matrix of a least-squares polynomial fit over
// equally spaced points. Row r gives the weights producing the fitted value at position r.
func fitProjection(window, degree int) *mat.Dense {
	half := window / 2
	scale := float64(max(half, 1))
	cols := degree + 1

	vander := mat.NewDense(window, cols, nil)
	for i := 0; i < window; i++ {
		x := float64(i-half) / scale
		v := 1.0
		for j := 0; j < cols; j++ {
			vander.Set(i, j, v)
			v *= x
		}
	}

	var qr mat.QR
	qr.Factorize(vander)

	var q mat.Dense
	qr.QTo(&q)
	basis := q.Slice(0, window, 0, cols)

	var h mat.Dense
	h.Mul(basis, basis.T())
	return &h
}

// EffectiveWindow picks the smoothing window for a series of n samples: the preferred window
// when it fits, otherwise the largest odd value not above n.
func EffectiveWindow(preferred, n int) int {
	if n <= 0 {
		return 0
	}
	if preferred <= n {
		return preferred
	}
	if n%2 == 0 {
		return n - 1
	}
	return n
}
