package ztest

import (
	"fmt"
	"math"

	"propztest/domain/core"
	"propztest/domain/stats"
	apperrors "propztest/internal/errors"
)

// normalize converts both sample values to success proportions.
func normalize(s1, s2 *stats.Sample, convention stats.Convention) (float64, float64, []stats.Notice, error) {
	samples := [2]*stats.Sample{s1, s2}
	var asCount [2]bool

	switch convention {
	case stats.ConventionProportions:
		for i, s := range samples {
			if s.Value > 1 {
				return 0, 0, nil, apperrors.InvalidSample(i+1, s.Value, "proportion must lie in [0, 1]", nil)
			}
		}
	case stats.ConventionCounts:
		asCount = [2]bool{true, true}
	default:
		asCount = [2]bool{s1.Value > 1, s2.Value > 1}
		if asCount[0] != asCount[1] {
			// A value of exactly 0 or 1 is a valid count; anything else
			// strictly inside (0, 1) cannot be paired with a count.
			other := 0
			if asCount[0] {
				other = 1
			}
			v := samples[other].Value
			if v != 0 && v != 1 {
				return 0, 0, nil, apperrors.InvalidSample(other+1, v,
					fmt.Sprintf("proportion cannot be paired with count %g in sample %d", samples[1-other].Value, 2-other),
					core.ErrMixedConvention)
			}
			asCount[other] = true
		}
	}

	var props [2]float64
	var notices []stats.Notice
	for i, s := range samples {
		if !asCount[i] {
			props[i] = s.Value
			continue
		}
		if s.Value != math.Trunc(s.Value) {
			return 0, 0, nil, apperrors.InvalidSample(i+1, s.Value, "count must be a whole number", nil)
		}
		if s.Value > float64(s.N) {
			return 0, 0, nil, apperrors.InvalidSample(i+1, s.Value, fmt.Sprintf("count exceeds n=%d", s.N), nil)
		}
		props[i] = s.Value / float64(s.N)
		if convention != stats.ConventionCounts {
			notices = append(notices, stats.Notice{
				Kind:    stats.NoticeCountNormalized,
				Level:   stats.LevelInfo,
				Sample:  i + 1,
				Value:   s.Value,
				Message: fmt.Sprintf("treating %g as a count of %d observations (proportion %g)", s.Value, s.N, props[i]),
			})
		}
	}

	return props[0], props[1], notices, nil
}

// SampleFromPair builds a sample from a two-element (value, n) structure.
// idx names the sample (1 or 2) in errors.
func SampleFromPair(idx int, pair []float64) (*stats.Sample, error) {
	if pair == nil {
		return nil, apperrors.MissingSample(idx)
	}
	if len(pair) != 2 {
		return nil, apperrors.InvalidSample(idx, float64(len(pair)), "expected (value, n) pair", core.ErrMalformedSample)
	}
	value, n := pair[0], pair[1]
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, apperrors.InvalidSample(idx, value, "value must be finite", nil)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) || n > math.MaxInt32 {
		return nil, apperrors.InvalidSample(idx, n, "n must be a whole number", nil)
	}
	return stats.NewSample(value, int(n)), nil
}
