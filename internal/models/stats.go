// Package models implements the econometric primitives that sit between
// feature engines and agent signals: ordinary least squares, rolling
// z-scores, and the locked-weight composite builder every multi-signal
// agent ends with. No model here performs I/O; every entry point is a
// pure function of the feature map and as-of date it is given.
package models

import "math"

// mean returns the arithmetic mean of xs. Callers guarantee len(xs) > 0.
func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev returns the sample standard deviation of xs (n-1 denominator).
// Returns 0 when fewer than 2 points are given.
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	sumSq := 0.0
	for _, x := range xs {
		d := x - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)-1))
}

// ZScore returns (value - mean(window)) / stddev(window). Returns NaN
// when the window has fewer than 2 points or zero variance, signaling the
// caller to treat the z-score as unavailable rather than firing on noise.
func ZScore(value float64, window []float64) float64 {
	if len(window) < 2 {
		return math.NaN()
	}
	sd := stddev(window)
	if sd == 0 {
		return math.NaN()
	}
	return (value - mean(window)) / sd
}

// correlation returns the Pearson correlation coefficient between xs and
// ys of equal length. Returns NaN when either series has zero variance.
func correlation(xs, ys []float64) float64 {
	if len(xs) != len(ys) || len(xs) < 2 {
		return math.NaN()
	}
	mx, my := mean(xs), mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx := xs[i] - mx
		dy := ys[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	return sxy / math.Sqrt(sxx*syy)
}

// OLSResult is the output of an ordinary-least-squares fit with an
// intercept term prepended to the design matrix.
type OLSResult struct {
	Intercept    float64
	Coefficients []float64 // one per predictor column, same order as the input matrix
	NPredictors  int
	NObs         int
}

// Predict evaluates the fitted model at one row of predictor values.
func (r OLSResult) Predict(row []float64) float64 {
	y := r.Intercept
	for i, x := range row {
		if i >= len(r.Coefficients) {
			break
		}
		y += r.Coefficients[i] * x
	}
	return y
}

// FitOLS fits y = b0 + b1*x1 + ... + bk*xk by solving the normal equations
// (XtX)b = Xty via Gauss-Jordan elimination. rows holds one predictor
// vector per observation, aligned with y. Returns false when the system is
// singular (collinear predictors, or fewer observations than predictors
// plus the intercept) — callers treat that as "insufficient predictors".
func FitOLS(rows [][]float64, y []float64) (OLSResult, bool) {
	n := len(rows)
	if n == 0 || len(y) != n {
		return OLSResult{}, false
	}
	k := len(rows[0])
	if n < k+1 {
		return OLSResult{}, false
	}

	// Design matrix with an intercept column of ones prepended.
	p := k + 1
	design := make([][]float64, n)
	for i, row := range rows {
		design[i] = make([]float64, p)
		design[i][0] = 1.0
		copy(design[i][1:], row)
	}

	// Normal equations: (X^T X) beta = X^T y.
	xtx := make([][]float64, p)
	for i := range xtx {
		xtx[i] = make([]float64, p)
	}
	xty := make([]float64, p)
	for i := 0; i < n; i++ {
		for a := 0; a < p; a++ {
			xty[a] += design[i][a] * y[i]
			for b := 0; b < p; b++ {
				xtx[a][b] += design[i][a] * design[i][b]
			}
		}
	}

	beta, ok := solveLinearSystem(xtx, xty)
	if !ok {
		return OLSResult{}, false
	}

	return OLSResult{
		Intercept:    beta[0],
		Coefficients: beta[1:],
		NPredictors:  k,
		NObs:         n,
	}, true
}

// solveLinearSystem solves Ax = b via Gauss-Jordan elimination with
// partial pivoting, returning false when A is singular to machine
// precision.
func solveLinearSystem(a [][]float64, b []float64) ([]float64, bool) {
	n := len(a)
	aug := make([][]float64, n)
	for i := range a {
		aug[i] = make([]float64, n+1)
		copy(aug[i], a[i])
		aug[i][n] = b[i]
	}

	for col := 0; col < n; col++ {
		pivot := col
		maxAbs := math.Abs(aug[col][col])
		for r := col + 1; r < n; r++ {
			if abs := math.Abs(aug[r][col]); abs > maxAbs {
				pivot = r
				maxAbs = abs
			}
		}
		if maxAbs < 1e-12 {
			return nil, false
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]

		pivotVal := aug[col][col]
		for c := col; c <= n; c++ {
			aug[col][c] /= pivotVal
		}
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := aug[r][col]
			if factor == 0 {
				continue
			}
			for c := col; c <= n; c++ {
				aug[r][c] -= factor * aug[col][c]
			}
		}
	}

	x := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = aug[i][n]
	}
	return x, true
}

// clip01 clamps x into [0, 1].
func clip01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// lerp linearly interpolates between anchor points (x0,y0) and (x1,y1) at
// x, clamped to [y0,y1] (or [y1,y0] if descending) outside the range —
// used by the dominance-risk sub-score normalization.
func lerp(x, x0, y0, x1, y1 float64) float64 {
	if x1 == x0 {
		return y0
	}
	t := (x - x0) / (x1 - x0)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return y0 + t*(y1-y0)
}
