package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/eugenenazirov/layout-planner/internal/planner"
	"github.com/eugenenazirov/layout-planner/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler wires planner and storage dependencies into HTTP handlers.
type Handler struct {
	planner  planner.Planner
	storage  storage.Storage
	defaults planner.Parameters

	clock func() time.Time

	mu               sync.RWMutex
	demandsUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies. The
// defaults apply to plan requests that do not override them.
func NewHandler(pl planner.Planner, store storage.Storage, defaults planner.Parameters, opts ...HandlerOption) *Handler {
	h := &Handler{
		planner:  pl,
		storage:  store,
		defaults: defaults,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.demandsUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetDemands(w http.ResponseWriter, r *http.Request) {
	_ = r
	items, err := h.storage.GetDemands()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := demandsResponse{
		Demands:   toDemandEntries(items),
		UpdatedAt: h.currentDemandsUpdatedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutDemands(w http.ResponseWriter, r *http.Request) {
	var req demandsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if len(req.Demands) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid demand catalog", "demands must contain at least one item")
		return
	}

	if err := h.storage.SetDemands(toItems(req.Demands)); err != nil {
		if errors.Is(err, storage.ErrInvalidDemands) {
			writeError(w, http.StatusBadRequest, "Invalid demand catalog", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markDemandsUpdated()

	items, err := h.storage.GetDemands()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := demandsResponse{
		Demands:   toDemandEntries(items),
		UpdatedAt: h.currentDemandsUpdatedAt(),
		Message:   "Demand catalog updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	items := toItems(req.Items)
	if len(items) == 0 {
		stored, err := h.storage.GetDemands()
		if err != nil {
			writeInternalError(w, err)
			return
		}
		items = stored
	}

	params := h.defaults
	if req.MaxLayouts != nil {
		params.MaxLayouts = *req.MaxLayouts
	}
	if req.Capacity != nil {
		params.Capacity = *req.Capacity
	}
	if req.MaxPrintRuns != nil {
		params.MaxPrintRuns = *req.MaxPrintRuns
	}
	if req.TimeBudgetSeconds != nil {
		params.TimeBudget = time.Duration(*req.TimeBudgetSeconds * float64(time.Second))
	}

	start := time.Now()
	plan, err := h.planner.Plan(r.Context(), items, params)
	elapsed := time.Since(start)

	if err != nil {
		switch {
		case errors.Is(err, planner.ErrNoItems),
			errors.Is(err, planner.ErrInvalidItem),
			errors.Is(err, planner.ErrNegativeDemand),
			errors.Is(err, planner.ErrInvalidParameters):
			writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
		default:
			writeInternalError(w, err)
		}
		return
	}

	if !plan.Solved() {
		writeJSON(w, http.StatusUnprocessableEntity, noPlanResponse{
			Status:     plan.Status,
			Message:    plan.Message,
			Suggestion: "Relax maxLayouts, capacity, or maxPrintRuns, or raise the time budget",
		})
		return
	}

	writeJSON(w, http.StatusOK, toPlanResponse(plan, elapsed))
}

func (h *Handler) currentDemandsUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.demandsUpdatedAt
}

func (h *Handler) markDemandsUpdated() {
	h.mu.Lock()
	h.demandsUpdatedAt = h.clock()
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

type demandEntry struct {
	Name   string `json:"name"`
	Demand int    `json:"demand"`
}

func toItems(entries []demandEntry) []planner.Item {
	items := make([]planner.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, planner.Item{Name: e.Name, Demand: e.Demand})
	}
	return items
}

func toDemandEntries(items []planner.Item) []demandEntry {
	entries := make([]demandEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, demandEntry{Name: item.Name, Demand: item.Demand})
	}
	return entries
}

type demandsRequest struct {
	Demands []demandEntry `json:"demands"`
}

type demandsResponse struct {
	Demands   []demandEntry `json:"demands"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Message   string        `json:"message,omitempty"`
}

type planRequest struct {
	Items             []demandEntry `json:"items,omitempty"`
	MaxLayouts        *int          `json:"maxLayouts,omitempty"`
	Capacity          *int          `json:"capacity,omitempty"`
	MaxPrintRuns      *int          `json:"maxPrintRuns,omitempty"`
	TimeBudgetSeconds *float64      `json:"timeBudgetSeconds,omitempty"`
}

type demandCheckBody struct {
	Printed  int  `json:"printed"`
	Required int  `json:"required"`
	Met      bool `json:"met"`
}

type planResponse struct {
	Status         string                     `json:"status"`
	UsedLayouts    []int                      `json:"usedLayouts"`
	PrintRuns      map[string]int             `json:"printRuns"`
	TotalPrintRuns int                        `json:"totalPrintRuns"`
	Layouts        map[string]map[string]int  `json:"layouts"`
	DemandReport   map[string]demandCheckBody `json:"demandReport"`
	SolveTimeMs    int64                      `json:"solveTimeMs"`
}

type noPlanResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

func toPlanResponse(plan *planner.Plan, elapsed time.Duration) planResponse {
	resp := planResponse{
		Status:         plan.Status,
		UsedLayouts:    plan.UsedLayouts,
		PrintRuns:      make(map[string]int, len(plan.PrintRuns)),
		TotalPrintRuns: plan.TotalPrintRuns,
		Layouts:        make(map[string]map[string]int, len(plan.Layouts)),
		DemandReport:   make(map[string]demandCheckBody, len(plan.Demand)),
		SolveTimeMs:    elapsed.Milliseconds(),
	}
	for k, runs := range plan.PrintRuns {
		resp.PrintRuns[strconv.Itoa(k)] = runs
	}
	for k, contents := range plan.Layouts {
		resp.Layouts[strconv.Itoa(k)] = contents
	}
	for name, check := range plan.Demand {
		resp.DemandReport[name] = demandCheckBody{
			Printed:  check.Printed,
			Required: check.Required,
			Met:      check.Met,
		}
	}
	return resp
}

type healthResponse struct {
	Status    string    `json:"status"`
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
