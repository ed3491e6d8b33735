// Package handlers provides HTTP handlers for constraint evaluation.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/sentinel-constraints/internal/modules/constraints"
	"github.com/aristath/sentinel-constraints/internal/modules/optimization"
	"github.com/aristath/sentinel-constraints/pkg/expr"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeMsgpack = "application/msgpack"

	maxRequestBytes = 1 << 20
)

// SetInfo describes the active constraint set
type SetInfo struct {
	Universe []string
	Hash     string
}

// Handler handles constraint HTTP requests
type Handler struct {
	aggregator *optimization.Aggregator
	info       SetInfo
	log        zerolog.Logger
}

// NewHandler creates a new constraint handler
func NewHandler(
	aggregator *optimization.Aggregator,
	info SetInfo,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		aggregator: aggregator,
		info:       info,
		log:        log.With().Str("handler", "constraints").Logger(),
	}
}

// EvaluateRequest is the body of POST /api/constraints/evaluate.
// Weight vectors carry one entry per universe asset followed by cash.
type EvaluateRequest struct {
	Period         string    `json:"period" msgpack:"period"` // RFC3339 or YYYY-MM-DD
	PostTrade      []float64 `json:"post_trade" msgpack:"post_trade"`
	Benchmark      []float64 `json:"benchmark,omitempty" msgpack:"benchmark,omitempty"`
	Trades         []float64 `json:"trades" msgpack:"trades"`
	PortfolioValue float64   `json:"portfolio_value" msgpack:"portfolio_value"`
	Tolerance      *float64  `json:"tolerance,omitempty" msgpack:"tolerance,omitempty"`
}

// EvaluateResponse is the feasibility report of one evaluation
type EvaluateResponse struct {
	EvaluationID string                   `json:"evaluation_id" msgpack:"evaluation_id"`
	Period       string                   `json:"period" msgpack:"period"`
	Feasible     bool                     `json:"feasible" msgpack:"feasible"`
	Checked      int                      `json:"checked" msgpack:"checked"`
	Violations   []optimization.Violation `json:"violations" msgpack:"violations"`
	Skipped      []string                 `json:"skipped,omitempty" msgpack:"skipped,omitempty"`
}

// HandleList handles GET /api/constraints
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts := h.aggregator.Options()
	response := map[string]interface{}{
		"data": map[string]interface{}{
			"constraints":   h.aggregator.Names(),
			"universe":      h.info.Universe,
			"config_hash":   h.info.Hash,
			"lookup_policy": opts.Policy.String(),
			"workers":       opts.Workers,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.write(w, r, http.StatusOK, response)
}

// HandleEvaluate handles POST /api/constraints/evaluate
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := h.decode(r, w, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	period, err := parsePeriod(req.Period)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	tol := expr.DefaultTolerance
	if req.Tolerance != nil {
		if *req.Tolerance < 0 {
			h.writeError(w, r, http.StatusBadRequest, "tolerance must be >= 0")
			return
		}
		tol = *req.Tolerance
	}

	state := constraints.State{
		PostTrade: constraints.ConstWeights(req.PostTrade...),
		Benchmark: constraints.ConstWeights(req.Benchmark...),
		Trades:    constraints.ConstWeights(req.Trades...),
		Value:     req.PortfolioValue,
	}

	id := uuid.New().String()
	log := h.log.With().Str("evaluation_id", id).Time("period", period).Logger()

	pc, err := h.aggregator.Collect(period, state)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Msg("Failed to collect constraints")
		} else {
			log.Debug().Err(err).Int("status", status).Msg("Rejected evaluation")
		}
		h.writeError(w, r, status, err.Error())
		return
	}

	report, err := pc.Check(nil, tol)
	if err != nil {
		log.Error().Err(err).Msg("Failed to check constraints")
		h.writeError(w, r, http.StatusInternalServerError, "Failed to check constraints")
		return
	}

	log.Info().
		Bool("feasible", report.Feasible).
		Int("violations", len(report.Violations)).
		Msg("Evaluated constraints")

	response := map[string]interface{}{
		"data": EvaluateResponse{
			EvaluationID: id,
			Period:       period.Format(time.RFC3339),
			Feasible:     report.Feasible,
			Checked:      report.Checked,
			Violations:   report.Violations,
			Skipped:      report.Skipped,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.write(w, r, http.StatusOK, response)
}

// statusFor maps collection errors to HTTP status codes
func statusFor(err error) int {
	var lookupErr *constraints.ParameterLookupError
	var dimErr *constraints.DimensionMismatchError
	switch {
	case errors.As(err, &lookupErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &dimErr), errors.Is(err, constraints.ErrNonPositiveValue):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func parsePeriod(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("period is required")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid period %q, want RFC3339 or YYYY-MM-DD", s)
}

func (h *Handler) decode(r *http.Request, w http.ResponseWriter, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if isMsgpack(r.Header.Get("Content-Type")) {
		return msgpack.NewDecoder(body).Decode(v)
	}
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func isMsgpack(header string) bool {
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return false
	}
	return mediaType == contentTypeMsgpack || mediaType == "application/x-msgpack"
}

func wantsMsgpack(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		if isMsgpack(strings.TrimSpace(part)) {
			return true
		}
	}
	return false
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.write(w, r, status, map[string]interface{}{"error": message})
}

// write encodes data as msgpack when the client accepts it, JSON otherwise
func (h *Handler) write(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if wantsMsgpack(r) {
		w.Header().Set("Content-Type", contentTypeMsgpack)
		w.WriteHeader(status)
		if err := msgpack.NewEncoder(w).Encode(data); err != nil {
			h.log.Error().Err(err).Msg("Failed to encode msgpack response")
		}
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
