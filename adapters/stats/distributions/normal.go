package distributions

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Normal provides the standard normal CDF and quantile used by the z-test.
// It is stateless and safe for concurrent use.
type Normal struct{}

// NewNormal creates a standard normal distribution helper
func NewNormal() *Normal {
	return &Normal{}
}

// CDF computes the cumulative distribution function Φ(x)
func (n *Normal) CDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// Quantile computes the inverse CDF Φ⁻¹(p). p must lie in [0, 1].
func (n *Normal) Quantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// TwoTailedPValue returns the probability of a standard normal draw at least
// as extreme as z in either direction.
func (n *Normal) TwoTailedPValue(z float64) float64 {
	// 2*Φ(-|z|) equals 2*(1-Φ(z)) for z > 0 and 2*Φ(z) otherwise,
	// without the cancellation in 1-Φ(z) for large z.
	p := 2 * n.CDF(-math.Abs(z))
	if p > 1 {
		p = 1
	}
	return p
}

// CriticalValues returns the two-tailed rejection thresholds
// [Φ⁻¹(alpha/2), Φ⁻¹(1-alpha/2)]. The upper one is taken as -low because
// 1-alpha/2 rounds to 1 for alpha below ~2e-16.
func (n *Normal) CriticalValues(alpha float64) (low, high float64) {
	low = n.Quantile(alpha / 2)
	return low, -low
}
