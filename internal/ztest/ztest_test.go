package ztest

import (
	"bytes"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propztest/domain/core"
	"propztest/domain/stats"
	"propztest/internal"
	apperrors "propztest/internal/errors"
)

func mustTester(t *testing.T, mutate func(*Config)) *Tester {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	tester, err := NewTester(cfg, nil)
	require.NoError(t, err)
	return tester
}

// TestEvaluate_DocumentedExample checks the usage example: 0.1 vs 0.5 at n=100.
func TestEvaluate_DocumentedExample(t *testing.T) {
	result, err := Evaluate(stats.NewSample(0.1, 100), stats.NewSample(0.5, 100), 0.05)
	require.NoError(t, err)

	assert.True(t, result.Rejected)
	assert.InDelta(t, 0.3, result.PooledP, 1e-12)
	assert.InDelta(t, math.Sqrt(0.0042), result.PooledSE, 1e-12)
	assert.InDelta(t, -6.172133998, result.ZStatistic, 1e-6)
	assert.Less(t, result.PValue, 1e-8)
	assert.Greater(t, result.PValue, 0.0)
	assert.InDelta(t, -1.959963985, result.CriticalLow, 1e-6)
	assert.InDelta(t, 1.959963985, result.CriticalHigh, 1e-6)
	assert.Empty(t, result.Notices)
}

func TestEvaluate_ModerateDifference(t *testing.T) {
	result, err := Evaluate(stats.NewSample(0.3, 100), stats.NewSample(0.5, 100), 0.05)
	require.NoError(t, err)

	assert.InDelta(t, -2.886751346, result.ZStatistic, 1e-6)
	assert.InDelta(t, 0.003892417, result.PValue, 1e-6)
	assert.True(t, result.Rejected)

	// Same data is not significant at a stricter level.
	strict, err := Evaluate(stats.NewSample(0.3, 100), stats.NewSample(0.5, 100), 0.001)
	require.NoError(t, err)
	assert.False(t, strict.Rejected)
	assert.Equal(t, result.ZStatistic, strict.ZStatistic)
	assert.Equal(t, result.PValue, strict.PValue)
}

func TestEvaluate_NullCase(t *testing.T) {
	result, err := Evaluate(stats.NewSample(0.5, 1000), stats.NewSample(0.5, 1000), 0.05)
	require.NoError(t, err)

	assert.InDelta(t, 0, result.ZStatistic, 1e-12)
	assert.InDelta(t, 1.0, result.PValue, 1e-12)
	assert.False(t, result.Rejected)
}

func TestEvaluate_Symmetry(t *testing.T) {
	a := stats.NewSample(0.42, 230)
	b := stats.NewSample(0.35, 180)

	ab, err := Evaluate(a, b, 0.05)
	require.NoError(t, err)
	ba, err := Evaluate(b, a, 0.05)
	require.NoError(t, err)

	assert.Equal(t, ab.Rejected, ba.Rejected)
	assert.InDelta(t, ab.PValue, ba.PValue, 1e-15)
	assert.InDelta(t, ab.ZStatistic, -ba.ZStatistic, 1e-15)
}

func TestEvaluate_TinyAlphaStaysSymmetric(t *testing.T) {
	const alpha = 1e-20
	high := stats.NewSample(0.9, 1000)
	low := stats.NewSample(0.1, 1000)

	ab, err := Evaluate(high, low, alpha)
	require.NoError(t, err)
	ba, err := Evaluate(low, high, alpha)
	require.NoError(t, err)

	assert.Greater(t, ab.ZStatistic, 0.0)
	assert.Less(t, ab.PValue, alpha)
	assert.True(t, ab.Rejected)
	assert.Equal(t, ab.Rejected, ba.Rejected)
	assert.Equal(t, -ab.CriticalLow, ab.CriticalHigh)
	assert.False(t, math.IsInf(ab.CriticalHigh, 0))
}

func TestEvaluate_CountsMatchProportions(t *testing.T) {
	counts, err := Evaluate(stats.NewSample(30, 100), stats.NewSample(50, 100), 0.05)
	require.NoError(t, err)
	props, err := Evaluate(stats.NewSample(0.3, 100), stats.NewSample(0.5, 100), 0.05)
	require.NoError(t, err)

	assert.Equal(t, props.Rejected, counts.Rejected)
	assert.Equal(t, props.PValue, counts.PValue)
	assert.Equal(t, props.ZStatistic, counts.ZStatistic)

	assert.True(t, counts.HasNotice(stats.NoticeCountNormalized))
	assert.False(t, props.HasNotice(stats.NoticeCountNormalized))
	assert.Len(t, counts.Notices, 2)
	assert.Equal(t, stats.LevelInfo, counts.Notices[0].Level)
}

func TestEvaluate_DegenerateVariance(t *testing.T) {
	tests := []struct {
		name   string
		s1, s2 *stats.Sample
	}{
		{"all failures", stats.NewSample(0, 50), stats.NewSample(0, 50)},
		{"all successes", stats.NewSample(1, 50), stats.NewSample(1, 50)},
		{"all successes as counts", stats.NewSample(50, 50), stats.NewSample(20, 20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Evaluate(tt.s1, tt.s2, 0.05)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, core.ErrDegenerateVariance))
			assert.True(t, core.IsDegenerateError(err))
			assert.Equal(t, apperrors.CodeDegenerateVariance, apperrors.GetCode(err))
		})
	}
}

func TestEvaluate_LowSampleSizeBoundary(t *testing.T) {
	atLimit, err := Evaluate(stats.NewSample(0.3, 10), stats.NewSample(0.6, 10), 0.05)
	require.NoError(t, err)
	assert.False(t, atLimit.HasNotice(stats.NoticeLowSampleSize))

	below, err := Evaluate(stats.NewSample(0.3, 9), stats.NewSample(0.6, 10), 0.05)
	require.NoError(t, err, "low sample size must not block the computation")
	require.True(t, below.HasNotice(stats.NoticeLowSampleSize))
	require.Len(t, below.Notices, 1)
	assert.Equal(t, 1, below.Notices[0].Sample)
	assert.Equal(t, 9.0, below.Notices[0].Value)
	assert.Equal(t, stats.LevelWarn, below.Notices[0].Level)
	assert.False(t, math.IsNaN(below.ZStatistic))
}

func TestEvaluate_StrictSampleSize(t *testing.T) {
	tester := mustTester(t, func(c *Config) { c.StrictSampleSize = true })

	_, err := tester.Evaluate(stats.NewSample(0.3, 20), stats.NewSample(0.6, 9))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrLowSampleSize))
	assert.Equal(t, apperrors.CodeLowSampleSize, apperrors.GetCode(err))

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 2, appErr.Sample)
	assert.Equal(t, 9.0, appErr.Value)

	_, err = tester.Evaluate(stats.NewSample(0.3, 10), stats.NewSample(0.6, 10))
	assert.NoError(t, err)
}

func TestEvaluate_MissingSamples(t *testing.T) {
	_, err := Evaluate(nil, stats.NewSample(0.5, 100), 0.05)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrMissingSample))
	assert.True(t, errors.Is(err, core.ErrInvalidInput))
	assert.Contains(t, err.Error(), "sample 1")

	_, err = Evaluate(stats.NewSample(0.5, 100), nil, 0.05)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample 2")
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

func TestEvaluate_InvalidSamples(t *testing.T) {
	tests := []struct {
		name   string
		s1, s2 *stats.Sample
		sample int
	}{
		{"zero n", stats.NewSample(0.5, 0), stats.NewSample(0.5, 100), 1},
		{"negative n", stats.NewSample(0.5, 100), stats.NewSample(0.5, -4), 2},
		{"negative value", stats.NewSample(-0.1, 100), stats.NewSample(0.5, 100), 1},
		{"nan value", stats.NewSample(0.5, 100), stats.NewSample(math.NaN(), 100), 2},
		{"infinite value", stats.NewSample(math.Inf(1), 100), stats.NewSample(0.5, 100), 1},
		{"fractional count", stats.NewSample(30.5, 100), stats.NewSample(50, 100), 1},
		{"count exceeds n", stats.NewSample(30, 100), stats.NewSample(150, 100), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.s1, tt.s2, 0.05)
			require.Error(t, err)
			assert.True(t, core.IsInputError(err))

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.sample, appErr.Sample)
		})
	}
}

func TestEvaluate_InvalidAlpha(t *testing.T) {
	for _, alpha := range []float64{0, 1, -0.05, 1.5, math.NaN()} {
		_, err := Evaluate(stats.NewSample(0.3, 100), stats.NewSample(0.5, 100), alpha)
		require.Error(t, err, "alpha=%v", alpha)
		assert.True(t, errors.Is(err, core.ErrInvalidAlpha))
	}
}

func TestEvaluate_MixedConventions(t *testing.T) {
	_, err := Evaluate(stats.NewSample(30, 100), stats.NewSample(0.5, 100), 0.05)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrMixedConvention))

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 2, appErr.Sample)
	assert.Equal(t, 0.5, appErr.Value)

	_, err = Evaluate(stats.NewSample(0.25, 100), stats.NewSample(40, 100), 0.05)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrMixedConvention))
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 1, appErr.Sample)
}

func TestEvaluate_ZeroOrOnePairedWithCountIsACount(t *testing.T) {
	result, err := Evaluate(stats.NewSample(30, 100), stats.NewSample(0, 100), 0.05)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.P2)
	assert.True(t, result.Rejected)

	result, err = Evaluate(stats.NewSample(1, 100), stats.NewSample(30, 100), 0.05)
	require.NoError(t, err)
	assert.InDelta(t, 0.01, result.P1, 1e-15)
	assert.InDelta(t, 0.3, result.P2, 1e-15)
	assert.Len(t, result.Notices, 2)
}

func TestEvaluate_ExplicitConventions(t *testing.T) {
	counts := mustTester(t, func(c *Config) { c.Convention = stats.ConventionCounts })

	result, err := counts.Evaluate(stats.NewSample(1, 100), stats.NewSample(1, 10))
	require.NoError(t, err)
	assert.InDelta(t, 0.01, result.P1, 1e-15)
	assert.InDelta(t, 0.1, result.P2, 1e-15)
	assert.Empty(t, result.Notices)

	_, err = counts.Evaluate(stats.NewSample(0.5, 100), stats.NewSample(1, 10))
	assert.True(t, core.IsInputError(err))

	props := mustTester(t, func(c *Config) { c.Convention = stats.ConventionProportions })

	_, err = props.Evaluate(stats.NewSample(30, 100), stats.NewSample(0.5, 100))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "proportion must lie in [0, 1]")

	result, err = props.Evaluate(stats.NewSample(1, 100), stats.NewSample(0.9, 100))
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.P1)
}

func TestNewTester_RejectsBadConfig(t *testing.T) {
	_, err := NewTester(Config{Alpha: 0, MinSampleSize: 10}, nil)
	assert.Error(t, err)

	_, err = NewTester(Config{Alpha: 0.05, MinSampleSize: 0}, nil)
	assert.Error(t, err)

	_, err = NewTester(Config{Alpha: 0.05, MinSampleSize: 10, Convention: "guess"}, nil)
	assert.Error(t, err)

	tester, err := NewTester(Config{Alpha: 0.01, MinSampleSize: 30}, nil)
	require.NoError(t, err)
	assert.Equal(t, stats.ConventionAuto, tester.Config().Convention)
}

func TestTester_LogsNotices(t *testing.T) {
	var buf bytes.Buffer
	tester, err := NewTester(DefaultConfig(), internal.NewLoggerTo(&buf, internal.LogLevelInfo))
	require.NoError(t, err)

	_, err = tester.Evaluate(stats.NewSample(3, 8), stats.NewSample(5, 100))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "[WARN] sample 1: n=8 is below 10")
	assert.Contains(t, out, "[INFO] sample 2: treating 5 as a count")
}

func TestTester_ConcurrentUse(t *testing.T) {
	tester := mustTester(t, nil)
	want, err := tester.Evaluate(stats.NewSample(120, 400), stats.NewSample(150, 410))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := tester.Evaluate(stats.NewSample(120, 400), stats.NewSample(150, 410))
			if err != nil {
				errs <- err
				return
			}
			if got.ZStatistic != want.ZStatistic || got.PValue != want.PValue {
				errs <- errors.New("concurrent result differs")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestSampleFromPair(t *testing.T) {
	s, err := SampleFromPair(1, []float64{0.1, 100})
	require.NoError(t, err)
	assert.Equal(t, stats.Sample{Value: 0.1, N: 100}, *s)

	_, err = SampleFromPair(2, nil)
	assert.True(t, errors.Is(err, core.ErrMissingSample))

	for _, pair := range [][]float64{{0.1}, {0.1, 100, 3}, {}} {
		_, err = SampleFromPair(1, pair)
		assert.True(t, errors.Is(err, core.ErrMalformedSample), "pair %v", pair)
	}

	_, err = SampleFromPair(1, []float64{0.1, 99.5})
	assert.Error(t, err)
	_, err = SampleFromPair(1, []float64{math.NaN(), 100})
	assert.Error(t, err)
}
