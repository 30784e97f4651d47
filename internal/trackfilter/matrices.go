package trackfilter

import "gonum.org/v1/gonum/mat"

// groundTransition returns F_g(Δt), the 4x4 block-diagonal position/
// velocity transition for (x, ẋ, y, ẏ).
func groundTransition(dt float64) *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, dt, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, dt,
		0, 0, 0, 1,
	})
}

// groundCovarianceFactor returns Γ_g(Δt), the 4x2 factor that spreads
// per-axis acceleration noise into the full ground state.
func groundCovarianceFactor(dt float64) *mat.Dense {
	half := dt * dt / 2
	return mat.NewDense(4, 2, []float64{
		half, 0,
		dt, 0,
		0, half,
		0, dt,
	})
}

// groundProcessNoise returns Q_g = Γ_g Σ_g Γ_g^T for per-axis acceleration
// variances (varX, varY).
func groundProcessNoise(dt, varX, varY float64) *mat.SymDense {
	gamma := groundCovarianceFactor(dt)
	sigma := mat.NewDiagDense(2, []float64{varX, varY})
	return sandwich(gamma, sigma)
}

// groundObservation returns O_g = [1 0 0 0; 0 0 1 0], extracting (x, y).
func groundObservation() *mat.Dense {
	return mat.NewDense(2, 4, []float64{
		1, 0, 0, 0,
		0, 0, 1, 0,
	})
}

// roadTransition returns F_r(Δt) = [[1, Δt], [0, 1]] for (s, ṡ).
func roadTransition(dt float64) *mat.Dense {
	return mat.NewDense(2, 2, []float64{
		1, dt,
		0, 1,
	})
}

// roadCovarianceFactor returns Γ_r(Δt) = (Δt²/2, Δt)^T.
func roadCovarianceFactor(dt float64) *mat.Dense {
	return mat.NewDense(2, 1, []float64{dt * dt / 2, dt})
}

// roadProcessNoise returns Q_r = Γ_r σ_r² Γ_r^T for along-edge acceleration
// variance sigmaR2.
func roadProcessNoise(dt, sigmaR2 float64) *mat.SymDense {
	gamma := roadCovarianceFactor(dt)
	sigma := mat.NewDiagDense(1, []float64{sigmaR2})
	return sandwich(gamma, sigma)
}

// roadObservation returns O_r = [1, 0], extracting s.
func roadObservation() *mat.Dense {
	return mat.NewDense(1, 2, []float64{1, 0})
}

// sandwich returns Γ Σ Γ^T as a symmetric matrix, forcing exact symmetry so
// downstream Cholesky factorizations never fail on floating-point
// asymmetry.
func sandwich(gamma *mat.Dense, sigma mat.Symmetric) *mat.SymDense {
	rows, _ := gamma.Dims()
	var tmp mat.Dense
	tmp.Mul(gamma, sigma)
	var full mat.Dense
	full.Mul(&tmp, gamma.T())
	out := mat.NewSymDense(rows, nil)
	for i := 0; i < rows; i++ {
		for j := i; j < rows; j++ {
			out.SetSym(i, j, full.At(i, j))
		}
	}
	return out
}

// diagSym builds a diagonal SymDense from the given values.
func diagSym(values ...float64) *mat.SymDense {
	n := len(values)
	out := mat.NewSymDense(n, nil)
	for i, v := range values {
		out.SetSym(i, i, v)
	}
	return out
}
