package analytics_api

import (
	"errors"
	"fmt"
	"net/http"
	"rental-location/internal/analytics"
	"rental-location/internal/logger"
	"rental-location/internal/utils"
	"time"

	"github.com/go-chi/chi/v5"
)

// Handler handles analytics HTTP endpoints
type Handler struct {
	Service *analytics.Service
	Logger  *logger.Logger
	now     func() time.Time
}

// NewHandler creates a new analytics handler
func NewHandler(service *analytics.Service, logger *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: logger, now: time.Now}
}

// RegisterRoutes registers the analytics routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/daily", h.GetDailyTrend)
		r.Get("/companies", h.GetCompanyTotals)
	})
}

func (h *Handler) resolveRange(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	from, to, err := analytics.ResolveRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"), h.now())
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid date range", err)
		return "", "", false
	}
	return from, to, true
}

// GetDailyTrend handles GET /analytics/daily?from=&to=&company=
func (h *Handler) GetDailyTrend(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.resolveRange(w, r)
	if !ok {
		return
	}

	trend, err := h.Service.GetDailyTrend(r.Context(), from, to, r.URL.Query().Get("company"))
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Daily trend", trend)
}

// GetCompanyTotals handles GET /analytics/companies?from=&to=
func (h *Handler) GetCompanyTotals(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.resolveRange(w, r)
	if !ok {
		return
	}

	totals, err := h.Service.GetCompanyTotals(r.Context(), from, to)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Company totals", totals)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, analytics.ErrInvalidRange) {
		utils.WriteError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}
	h.Logger.Error("ANALYTICS", fmt.Sprintf("Analytics query failed: %v", err))
	utils.WriteError(w, http.StatusInternalServerError, "Analytics unavailable", err)
}
