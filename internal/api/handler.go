package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/eugenenazirov/binpack/internal/mip"
	"github.com/eugenenazirov/binpack/internal/packing"
	"github.com/eugenenazirov/binpack/internal/session"
	"github.com/eugenenazirov/binpack/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// maxBodyBytes bounds request bodies; MaxItems sizes fit well within it.
const maxBodyBytes = 64 << 10

// SolveSettings are the per-phase parameters applied to every solve request.
type SolveSettings struct {
	Probe     mip.Params
	Commit    mip.Params
	TightBigM bool
	// SeedFFD seeds instances without a warm start with first-fit decreasing.
	SeedFFD bool
}

// Handler wires the solve runner and instance storage into HTTP handlers.
type Handler struct {
	runner   *session.Runner
	storage  storage.Storage
	settings SolveSettings

	clock func() time.Time

	mu                sync.RWMutex
	instanceUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithSolveSettings sets the probe and commit parameters.
func WithSolveSettings(settings SolveSettings) HandlerOption {
	return func(h *Handler) {
		h.settings = settings
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(runner *session.Runner, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		runner:  runner,
		storage: store,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.instanceUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Backend:   h.runner.Backend(),
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetInstance(w http.ResponseWriter, r *http.Request) {
	_ = r
	inst, err := h.storage.GetInstance()
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.instanceResponse(inst, ""))
}

func (h *Handler) handlePutInstance(w http.ResponseWriter, r *http.Request) {
	var req instanceRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if len(req.Sizes) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid instance", "sizes must contain at least one item")
		return
	}

	if err := h.storage.SetInstance(req.instance()); err != nil {
		if errors.Is(err, storage.ErrInvalidInstance) {
			writeError(w, http.StatusBadRequest, "Invalid instance", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markInstanceUpdated()

	inst, err := h.storage.GetInstance()
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.instanceResponse(inst, "Instance updated successfully"))
}

func (h *Handler) handleSolve(w http.ResponseWriter, r *http.Request) {
	m, out, elapsed, ok := h.solve(w, r)
	if !ok {
		return
	}

	sol := out.Solution
	bins := make([]binResponse, 0, sol.BinsUsed)
	for b := 0; b < m.NumBins; b++ {
		items := sol.ItemsIn(b)
		if len(items) == 0 {
			continue
		}
		bins = append(bins, binResponse{Bin: b, TotalSize: m.Load(sol, b), Items: items})
	}

	resp := solveResponse{
		Backend: h.runner.Backend(),
		Stats: statsResponse{
			Constraints:          out.Stats.Rows,
			Variables:            out.Stats.Cols,
			QuadraticConstraints: out.Stats.QuadraticConstraints,
			ProbeStatus:          out.Stats.Status.String(),
			ProbeObjective:       out.Stats.Objective,
		},
		Status:      sol.Status.String(),
		Capacity:    m.Capacity,
		BinsUsed:    sol.BinsUsed,
		LowerBound:  m.LowerBound(),
		Used:        sol.Used,
		Bins:        bins,
		Assignments: sol.Assign.Pairs(),
		SolveTimeMs: elapsed.Milliseconds(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	m, out, _, ok := h.solve(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, packing.Summary(out.Stats.Stats, out.Solution))
	_, _ = io.WriteString(w, packing.Report(m, out.Solution))
}

// solve resolves the instance (request body or stored), runs both phases and
// writes an error response on failure.
func (h *Handler) solve(w http.ResponseWriter, r *http.Request) (*packing.Model, *session.Outcome, time.Duration, bool) {
	var req instanceRequest
	if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeDecodeError(w, err)
		return nil, nil, 0, false
	}

	var inst storage.Instance
	if len(req.Sizes) > 0 {
		inst = req.instance()
		if err := storage.Validate(inst); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid instance", err.Error())
			return nil, nil, 0, false
		}
	} else {
		stored, err := h.storage.GetInstance()
		if err != nil {
			writeInternalError(w, err)
			return nil, nil, 0, false
		}
		inst = stored
	}

	m, err := packing.Build(inst.Sizes, packing.WithCapacity(inst.Capacity), packing.WithTightBigM(h.settings.TightBigM))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid instance", err.Error())
		return nil, nil, 0, false
	}
	warm, err := inst.WarmStartAssignment()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid warm start", err.Error())
		return nil, nil, 0, false
	}
	if warm == nil && h.settings.SeedFFD {
		if warm, err = packing.FirstFitDecreasing(m.Sizes, m.Capacity); err != nil {
			writeInternalError(w, err)
			return nil, nil, 0, false
		}
	}

	start := time.Now()
	out, err := h.runner.Run(r.Context(), m, warm, h.settings.Probe, h.settings.Commit)
	elapsed := time.Since(start)
	if err != nil {
		writeSolveError(w, err)
		return nil, nil, 0, false
	}
	return m, out, elapsed, true
}

func writeSolveError(w http.ResponseWriter, err error) {
	var phaseErr *session.PhaseError
	switch {
	case errors.Is(err, session.ErrInfeasible):
		writeError(w, http.StatusUnprocessableEntity, "Infeasible instance", err.Error())
	case errors.Is(err, packing.ErrNoSolution):
		writeError(w, http.StatusUnprocessableEntity, "No solution found", err.Error(),
			"Raise the commit node or time limit, or provide a warm start")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "Solve interrupted", err.Error())
	case errors.As(err, &phaseErr):
		writeError(w, http.StatusBadGateway, "Solver failed", err.Error())
	default:
		writeInternalError(w, err)
	}
}

func (h *Handler) instanceResponse(inst storage.Instance, message string) instanceResponse {
	return instanceResponse{
		Sizes:     inst.Sizes,
		Capacity:  inst.EffectiveCapacity(),
		WarmStart: inst.WarmStart,
		UpdatedAt: h.currentInstanceUpdatedAt(),
		Message:   message,
	}
}

func (h *Handler) currentInstanceUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.instanceUpdatedAt
}

func (h *Handler) markInstanceUpdated() {
	h.mu.Lock()
	h.instanceUpdatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type instanceRequest struct {
	Sizes     []int          `json:"sizes"`
	Capacity  int            `json:"capacity,omitempty"`
	WarmStart []packing.Pair `json:"warmStart,omitempty"`
}

func (r instanceRequest) instance() storage.Instance {
	return storage.Instance{Sizes: r.Sizes, Capacity: r.Capacity, WarmStart: r.WarmStart}
}

type instanceResponse struct {
	Sizes     []int          `json:"sizes"`
	Capacity  int            `json:"capacity"`
	WarmStart []packing.Pair `json:"warmStart,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Message   string         `json:"message,omitempty"`
}

type statsResponse struct {
	Constraints          int     `json:"constraints"`
	Variables            int     `json:"variables"`
	QuadraticConstraints int     `json:"quadraticConstraints"`
	ProbeStatus          string  `json:"probeStatus"`
	ProbeObjective       float64 `json:"probeObjective"`
}

type binResponse struct {
	Bin       int   `json:"bin"`
	TotalSize int   `json:"totalSize"`
	Items     []int `json:"items"`
}

type solveResponse struct {
	Backend     string         `json:"backend"`
	Stats       statsResponse  `json:"stats"`
	Status      string         `json:"status"`
	Capacity    int            `json:"capacity"`
	BinsUsed    int            `json:"binsUsed"`
	LowerBound  int            `json:"lowerBound"`
	Used        []int          `json:"used"`
	Bins        []binResponse  `json:"bins"`
	Assignments []packing.Pair `json:"assignments"`
	SolveTimeMs int64          `json:"solveTimeMs"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Backend   string    `json:"backend"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "Request too large", fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		return
	}
	writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
}
