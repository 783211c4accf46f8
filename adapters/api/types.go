package api

import (
	"propztest/domain/stats"
)

// ZTestRequest is the body of POST /v1/ztest. Each sample is a
// [value, n] pair; Alpha, Convention and Strict override server defaults.
type ZTestRequest struct {
	Sample1    []float64 `json:"sample1"`
	Sample2    []float64 `json:"sample2"`
	Alpha      *float64  `json:"alpha,omitempty"`
	Convention string    `json:"convention,omitempty"`
	Strict     *bool     `json:"strict,omitempty"`
}

// ZTestResponse wraps a result with the id of the request that produced it.
type ZTestResponse struct {
	RequestID string        `json:"request_id"`
	Result    *stats.Result `json:"result"`
}

// ErrorResponse is returned for every non-2xx status.
type ErrorResponse struct {
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Sample    int    `json:"sample,omitempty"`
}
