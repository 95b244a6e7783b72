package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/godilite/astromatch/internal/service"
	"go.uber.org/zap"
)

const (
	defaultRequestTimeout = 10 * time.Second
	maxBodyBytes          = 1 << 20
)

type compatibilityRequest struct {
	PersonA service.BirthDetails `json:"person_a"`
	PersonB service.BirthDetails `json:"person_b"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

var errMalformedBody = errors.New("malformed request body")

// Handlers adapts SynastryService to JSON over HTTP.
type Handlers struct {
	synastry SynastryService
	logger   *zap.Logger
	timeout  time.Duration
}

func NewHandlers(synastry SynastryService, logger *zap.Logger) *Handlers {
	if synastry == nil {
		panic("nil SynastryService provided to NewHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		synastry: synastry,
		logger:   logger.Named("http-handler"),
		timeout:  defaultRequestTimeout,
	}
}

func (h *Handlers) BuildChart(w http.ResponseWriter, r *http.Request) {
	var details service.BirthDetails
	if err := decodeBody(w, r, &details); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	chart, err := h.synastry.BuildChart(ctx, details)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

func (h *Handlers) Compatibility(w http.ResponseWriter, r *http.Request) {
	var in compatibilityRequest
	if err := decodeBody(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	match, err := h.synastry.Match(ctx, in.PersonA, in.PersonB)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (h *Handlers) QuickCompatibility(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sign1, sign2 := strings.TrimSpace(q.Get("sign1")), strings.TrimSpace(q.Get("sign2"))
	if sign1 == "" || sign2 == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:     "sign1 and sign2 query parameters are required",
			RequestID: RequestIDFrom(r.Context()),
		})
		return
	}
	writeJSON(w, http.StatusOK, h.synastry.QuickMatch(sign1, sign2))
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return nil
}

// statusFor maps service errors to HTTP status codes.
func statusFor(ctx context.Context, err error) int {
	switch {
	case errors.Is(err, errMalformedBody),
		errors.Is(err, service.ErrInvalidBirthDate),
		errors.Is(err, service.ErrInvalidCoordinates):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrEphemerisUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// client went away; nobody reads the body
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(r.Context(), err)
	msg := err.Error()

	switch {
	case code == http.StatusServiceUnavailable:
		h.logger.Error("ephemeris unavailable", zap.String("path", r.URL.Path), zap.Error(err))
		msg = "ephemeris unavailable, retry later"
	case code >= http.StatusInternalServerError:
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal error"
	default:
		h.logger.Info("request rejected", zap.String("path", r.URL.Path), zap.Int("status", code), zap.Error(err))
	}

	writeJSON(w, code, errorResponse{Error: msg, RequestID: RequestIDFrom(r.Context())})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
