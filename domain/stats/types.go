package stats

import (
	"fmt"
	"strings"
)

// DefaultAlpha is the significance level used when none is given.
const DefaultAlpha = 0.05

// DefaultMinSampleSize is the smallest n for which the normal approximation
// is considered valid.
const DefaultMinSampleSize = 10

// Sample describes one binomial sample.
// Value is either a success count (> 1) or a success proportion in [0, 1].
type Sample struct {
	Value float64 `json:"value"`
	N     int     `json:"n"`
}

// NewSample creates a sample descriptor
func NewSample(value float64, n int) *Sample {
	return &Sample{Value: value, N: n}
}

func (s Sample) String() string {
	return fmt.Sprintf("(%g, %d)", s.Value, s.N)
}

// Convention selects how sample values are interpreted.
type Convention string

const (
	ConventionAuto        Convention = "auto"
	ConventionProportions Convention = "proportions"
	ConventionCounts      Convention = "counts"
)

// ParseConvention parses a convention name; the empty string means auto.
func ParseConvention(s string) (Convention, error) {
	switch Convention(strings.ToLower(strings.TrimSpace(s))) {
	case "", ConventionAuto:
		return ConventionAuto, nil
	case ConventionProportions:
		return ConventionProportions, nil
	case ConventionCounts:
		return ConventionCounts, nil
	}
	return "", fmt.Errorf("unknown convention %q (want auto|proportions|counts)", s)
}

// NoticeKind classifies a non-fatal diagnostic.
type NoticeKind string

const (
	NoticeLowSampleSize   NoticeKind = "low_sample_size"
	NoticeCountNormalized NoticeKind = "count_normalized"
)

// NoticeLevel mirrors the log level the notice would be reported at.
type NoticeLevel string

const (
	LevelInfo NoticeLevel = "info"
	LevelWarn NoticeLevel = "warn"
)

// Notice is a diagnostic returned alongside a result. It never aborts a test.
type Notice struct {
	Kind    NoticeKind  `json:"kind"`
	Level   NoticeLevel `json:"level"`
	Sample  int         `json:"sample"`
	Value   float64     `json:"value"`
	Message string      `json:"message"`
}

// Result is the outcome of a two-proportion z-test.
// INVARIANTS:
// - Rejected == (ZStatistic < CriticalLow || ZStatistic > CriticalHigh)
// - Rejected agrees with PValue < Alpha up to floating-point tolerance
type Result struct {
	Rejected     bool     `json:"rejected"`
	PValue       float64  `json:"p_value"`
	ZStatistic   float64  `json:"z_statistic"`
	Alpha        float64  `json:"alpha"`
	P1           float64  `json:"p1"`
	P2           float64  `json:"p2"`
	N1           int      `json:"n1"`
	N2           int      `json:"n2"`
	PooledP      float64  `json:"pooled_p"`
	PooledSE     float64  `json:"pooled_se"`
	CriticalLow  float64  `json:"critical_low"`
	CriticalHigh float64  `json:"critical_high"`
	Notices      []Notice `json:"notices,omitempty"`
}

// HasNotice reports whether a notice of the given kind was raised.
func (r *Result) HasNotice(kind NoticeKind) bool {
	for _, n := range r.Notices {
		if n.Kind == kind {
			return true
		}
	}
	return false
}

// Summary renders a one-line human-readable verdict.
func (r *Result) Summary() string {
	verdict := "fail to reject H0"
	if r.Rejected {
		verdict = "reject H0"
	}
	return fmt.Sprintf("%s at alpha=%g (z=%.4f, p=%.4g, p1=%.4f, p2=%.4f)", verdict, r.Alpha, r.ZStatistic, r.PValue, r.P1, r.P2)
}
