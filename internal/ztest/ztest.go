// Package ztest implements the two-tailed, two-proportion z-test with a
// pooled variance estimate.
package ztest

import (
	"fmt"
	"math"

	"propztest/adapters/stats/distributions"
	"propztest/domain/core"
	"propztest/domain/stats"
	"propztest/internal"
	apperrors "propztest/internal/errors"
)

// Config holds the tester settings. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	Alpha            float64
	MinSampleSize    int
	StrictSampleSize bool // promote the low sample size notice to an error
	Convention       stats.Convention
}

// DefaultConfig returns alpha 0.05, a minimum n of 10 reported as a warning,
// and automatic count/proportion detection.
func DefaultConfig() Config {
	return Config{
		Alpha:         stats.DefaultAlpha,
		MinSampleSize: stats.DefaultMinSampleSize,
		Convention:    stats.ConventionAuto,
	}
}

// Tester evaluates sample pairs. It holds no mutable state and may be shared
// between goroutines.
type Tester struct {
	config Config
	normal *distributions.Normal
	logger *internal.Logger
}

// NewTester creates a tester. logger may be nil.
func NewTester(config Config, logger *internal.Logger) (*Tester, error) {
	if err := validateAlpha(config.Alpha); err != nil {
		return nil, err
	}
	if config.MinSampleSize < 1 {
		return nil, apperrors.InvalidInput(fmt.Sprintf("minimum sample size must be positive, got %d", config.MinSampleSize), nil)
	}
	if config.Convention == "" {
		config.Convention = stats.ConventionAuto
	}
	if _, err := stats.ParseConvention(string(config.Convention)); err != nil {
		return nil, apperrors.InvalidInput(err.Error(), nil)
	}
	return &Tester{
		config: config,
		normal: distributions.NewNormal(),
		logger: logger,
	}, nil
}

var defaultTester = &Tester{config: DefaultConfig(), normal: distributions.NewNormal()}

// Evaluate runs the test with default settings at the given significance level.
func Evaluate(sample1, sample2 *stats.Sample, alpha float64) (*stats.Result, error) {
	return defaultTester.EvaluateAt(sample1, sample2, alpha)
}

// Config returns the tester settings.
func (t *Tester) Config() Config {
	return t.config
}

// Evaluate runs the test at the tester's configured significance level.
func (t *Tester) Evaluate(sample1, sample2 *stats.Sample) (*stats.Result, error) {
	return t.EvaluateAt(sample1, sample2, t.config.Alpha)
}

// EvaluateAt runs the test at an explicit significance level.
func (t *Tester) EvaluateAt(sample1, sample2 *stats.Sample, alpha float64) (*stats.Result, error) {
	result, err := t.evaluate(sample1, sample2, alpha)
	if err != nil {
		t.logger.Debug("z-test failed: %v", err)
		return nil, err
	}
	for _, n := range result.Notices {
		switch n.Level {
		case stats.LevelWarn:
			t.logger.Warn("sample %d: %s", n.Sample, n.Message)
		default:
			t.logger.Info("sample %d: %s", n.Sample, n.Message)
		}
	}
	t.logger.Debug("z-test: %s", result.Summary())
	return result, nil
}

func (t *Tester) evaluate(sample1, sample2 *stats.Sample, alpha float64) (*stats.Result, error) {
	if sample1 == nil {
		return nil, apperrors.MissingSample(1)
	}
	if sample2 == nil {
		return nil, apperrors.MissingSample(2)
	}
	if err := validateAlpha(alpha); err != nil {
		return nil, err
	}
	if err := validateSample(1, sample1); err != nil {
		return nil, err
	}
	if err := validateSample(2, sample2); err != nil {
		return nil, err
	}

	result := &stats.Result{Alpha: alpha, N1: sample1.N, N2: sample2.N}

	for i, s := range []*stats.Sample{sample1, sample2} {
		if s.N >= t.config.MinSampleSize {
			continue
		}
		if t.config.StrictSampleSize {
			return nil, apperrors.LowSampleSize(i+1, s.N, t.config.MinSampleSize)
		}
		result.Notices = append(result.Notices, stats.Notice{
			Kind:    stats.NoticeLowSampleSize,
			Level:   stats.LevelWarn,
			Sample:  i + 1,
			Value:   float64(s.N),
			Message: fmt.Sprintf("n=%d is below %d; normal approximation may be unreliable", s.N, t.config.MinSampleSize),
		})
	}

	p1, p2, notices, err := normalize(sample1, sample2, t.config.Convention)
	if err != nil {
		return nil, err
	}
	result.Notices = append(result.Notices, notices...)
	result.P1, result.P2 = p1, p2

	n1, n2 := float64(sample1.N), float64(sample2.N)
	pooledP := (p1*n1 + p2*n2) / (n1 + n2)
	pooledSE := math.Sqrt(pooledP * (1 - pooledP) * (1/n1 + 1/n2))
	if pooledSE == 0 || math.IsNaN(pooledSE) || math.IsInf(pooledSE, 0) {
		return nil, apperrors.DegenerateVariance(pooledP)
	}
	z := (p1 - p2) / pooledSE

	low, high := t.normal.CriticalValues(alpha)

	result.PooledP = pooledP
	result.PooledSE = pooledSE
	result.ZStatistic = z
	result.PValue = t.normal.TwoTailedPValue(z)
	result.CriticalLow = low
	result.CriticalHigh = high
	result.Rejected = z < low || z > high

	return result, nil
}

func validateAlpha(alpha float64) error {
	if math.IsNaN(alpha) || alpha <= 0 || alpha >= 1 {
		return apperrors.InvalidInput(fmt.Sprintf("alpha must be in (0, 1), got %g", alpha), core.ErrInvalidAlpha)
	}
	return nil
}

func validateSample(idx int, s *stats.Sample) error {
	if s.N < 1 {
		return apperrors.InvalidSample(idx, float64(s.N), "n must be a positive number of observations", nil)
	}
	if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return apperrors.InvalidSample(idx, s.Value, "value must be finite", nil)
	}
	if s.Value < 0 {
		return apperrors.InvalidSample(idx, s.Value, "value must not be negative", nil)
	}
	return nil
}
