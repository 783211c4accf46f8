package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"propztest/domain/stats"
	"propztest/internal"
	apperrors "propztest/internal/errors"
	"propztest/internal/ztest"
)

// Server exposes the z-test over HTTP
type Server struct {
	router   *chi.Mux
	defaults ztest.Config
	logger   *internal.Logger
}

// NewServer creates the HTTP surface. defaults apply to every request unless
// the request overrides them.
func NewServer(defaults ztest.Config, logger *internal.Logger) (*Server, error) {
	// Reject bad defaults at startup rather than on the first request.
	if _, err := ztest.NewTester(defaults, nil); err != nil {
		return nil, apperrors.Wrap(err, "invalid z-test defaults")
	}

	s := &Server{
		router:   chi.NewRouter(),
		defaults: defaults,
		logger:   logger,
	}
	s.router.Use(middleware.Recoverer)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/v1/ztest", s.handleZTest)
	return s, nil
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleZTest(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set("X-Request-ID", requestID)

	var req ZTestRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, requestID, apperrors.InvalidInput("malformed request body: "+err.Error(), nil))
		return
	}

	cfg := s.defaults
	if req.Alpha != nil {
		cfg.Alpha = *req.Alpha
	}
	if req.Strict != nil {
		cfg.StrictSampleSize = *req.Strict
	}
	if req.Convention != "" {
		convention, err := stats.ParseConvention(req.Convention)
		if err != nil {
			s.writeError(w, requestID, apperrors.InvalidInput(err.Error(), nil))
			return
		}
		cfg.Convention = convention
	}

	tester, err := ztest.NewTester(cfg, s.logger)
	if err != nil {
		s.writeError(w, requestID, err)
		return
	}

	sample1, err := ztest.SampleFromPair(1, req.Sample1)
	if err != nil {
		s.writeError(w, requestID, err)
		return
	}
	sample2, err := ztest.SampleFromPair(2, req.Sample2)
	if err != nil {
		s.writeError(w, requestID, err)
		return
	}

	result, err := tester.Evaluate(sample1, sample2)
	if err != nil {
		s.writeError(w, requestID, err)
		return
	}

	s.logger.Debug("request %s: %s", requestID, result.Summary())
	writeJSON(w, http.StatusOK, ZTestResponse{RequestID: requestID, Result: result})
}

func (s *Server) writeError(w http.ResponseWriter, requestID string, err error) {
	resp := ErrorResponse{
		RequestID: requestID,
		Code:      apperrors.GetCode(err),
		Message:   err.Error(),
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		resp.Sample = appErr.Sample
	}

	status := statusForCode(resp.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request %s: %v", requestID, err)
	}
	writeJSON(w, status, resp)
}

func statusForCode(code string) int {
	switch code {
	case apperrors.CodeInvalidInput, apperrors.CodeLowSampleSize:
		return http.StatusBadRequest
	case apperrors.CodeDegenerateVariance:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
