package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"rental-location/internal/auth"
	"rental-location/internal/live"
	"rental-location/internal/logger"
	"rental-location/internal/models"
	"rental-location/internal/qr"
	"rental-location/internal/rentals/service"
	"rental-location/internal/utils"
	"rental-location/internal/zones"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *service.RentalService
	Hub     *live.Hub
	Issuer  *auth.TokenIssuer
	QR      *qr.Generator
	Logger  *logger.Logger
	Limiter *RateLimiter

	// EditorSecret enables POST /auth/editor when set
	EditorSecret string
}

func NewHandler(svc *service.RentalService, hub *live.Hub, issuer *auth.TokenIssuer, qrGen *qr.Generator, log *logger.Logger) *Handler {
	return &Handler{Service: svc, Hub: hub, Issuer: issuer, QR: qrGen, Logger: log}
}

// RegisterRoutes registers the rental log routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(h.limitSubmissions).Post("/auth/anonymous", h.SignInAnonymously)
	r.With(h.limitSubmissions).Post("/auth/editor", h.SignInEditor)
	r.Get("/meta", h.GetMeta)

	r.Route("/rentals", func(r chi.Router) {
		r.With(h.limitSubmissions).Post("/", h.CreateRentalLog)
		r.Get("/", h.ListByDate)
		r.Get("/recent", h.ListRecent)
		r.Get("/stream", h.StreamByDate)
		r.Get("/company/{company}", h.ListByCompany)
		r.Get("/zone/{zone}", h.ListByZone)
		r.Get("/{id}", h.GetRentalLog)
		r.Put("/{id}", h.UpdateRentalLog)
		r.Delete("/{id}", h.DeleteRentalLog)
	})

	r.Get("/stats", h.GetStats)
	r.Get("/map", h.GetMapView)
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.UpdateSettings)
	r.Get("/qr", h.GetQRCode)
}

func (h *Handler) limitSubmissions(next http.Handler) http.Handler {
	if h.Limiter == nil {
		return next
	}
	return h.Limiter.Middleware(next)
}

// requestDate reads ?date=, defaulting to today
func requestDate(w http.ResponseWriter, r *http.Request) (string, bool) {
	date, err := utils.DateOrToday(r.URL.Query().Get("date"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid date", err)
		return "", false
	}
	return date, true
}

// writeServiceError maps service errors onto HTTP status codes
func (h *Handler) writeServiceError(w http.ResponseWriter, message string, err error) {
	switch {
	case service.IsValidationError(err):
		if errors.Is(err, service.ErrAnonymousNotAllowed) {
			utils.WriteError(w, http.StatusForbidden, message, err)
			return
		}
		if errors.Is(err, service.ErrDuplicateSubmission) {
			utils.WriteError(w, http.StatusConflict, message, err)
			return
		}
		utils.WriteError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, service.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, message, err)
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: %v", message, err))
		utils.WriteError(w, http.StatusInternalServerError, message, err)
	}
}

func (h *Handler) SignInAnonymously(w http.ResponseWriter, r *http.Request) {
	if !h.Service.GetSettings(r.Context()).AllowAnonymous {
		utils.WriteError(w, http.StatusForbidden, "Anonymous sign-in is disabled", service.ErrAnonymousNotAllowed)
		return
	}

	session, err := h.Issuer.IssueAnonymous()
	if err != nil {
		h.Logger.Error("AUTH", fmt.Sprintf("Failed to issue anonymous token: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Could not sign in", err)
		return
	}
	h.Logger.LogSecurity("ANONYMOUS_SIGN_IN", fmt.Sprintf("editor %s", session.EditorID))
	utils.WriteSuccess(w, http.StatusCreated, "Signed in anonymously", session)
}

// SignInEditor trades the shared editor secret for a signed-in editor token,
// which is what settings changes require when no identity provider is configured.
func (h *Handler) SignInEditor(w http.ResponseWriter, r *http.Request) {
	if h.EditorSecret == "" {
		utils.WriteError(w, http.StatusNotFound, "Editor sign-in is not enabled", nil)
		return
	}

	var req models.EditorSignIn
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !strings.Contains(email, "@") {
		utils.WriteError(w, http.StatusBadRequest, "A valid email is required", nil)
		return
	}
	if !auth.MatchesSecret(h.EditorSecret, req.Secret) {
		h.Logger.LogSecurity("EDITOR_SIGN_IN_REJECTED", email)
		utils.WriteError(w, http.StatusUnauthorized, "Invalid editor credentials", nil)
		return
	}

	editor := models.Editor{ID: email, Email: email}
	token, err := h.Issuer.IssueEditor(editor)
	if err != nil {
		h.Logger.Error("AUTH", fmt.Sprintf("Failed to issue editor token: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Could not sign in", err)
		return
	}
	h.Logger.LogSecurity("EDITOR_SIGN_IN", email)
	utils.WriteSuccess(w, http.StatusCreated, "Signed in", models.EditorSession{Token: token, Editor: editor})
}

type zoneMeta struct {
	zones.ZoneEntry
	Label string `json:"label"`
}

type metaResponse struct {
	Companies     []string          `json:"companies"`
	Floors        []string          `json:"floors"`
	Zones         []zoneMeta        `json:"zones"`
	CompanyColors map[string]string `json:"companyColors"`
	FormURL       string            `json:"formUrl,omitempty"`
}

// GetMeta returns the reference data the submission form and map need
func (h *Handler) GetMeta(w http.ResponseWriter, r *http.Request) {
	topo := h.Service.Topology
	entries := topo.Entries()
	zoneList := make([]zoneMeta, 0, len(entries))
	for _, e := range entries {
		zoneList = append(zoneList, zoneMeta{ZoneEntry: e, Label: topo.Label(e.ID)})
	}

	resp := metaResponse{
		Companies:     append([]string(nil), zones.Companies...),
		Floors:        zones.FloorOptions(),
		Zones:         zoneList,
		CompanyColors: zones.CompanyColors(),
	}
	if h.QR != nil {
		resp.FormURL, _ = h.QR.FormLink("")
	}
	utils.WriteSuccess(w, http.StatusOK, "Reference data", resp)
}

func (h *Handler) CreateRentalLog(w http.ResponseWriter, r *http.Request) {
	var req models.RentalLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := service.WithClientAddr(r.Context(), h.Limiter.clientKey(r))
	result := h.Service.SaveRentalLog(ctx, req, auth.EditorFromContext(ctx))
	if !result.Success {
		h.writeServiceError(w, "Could not save rental log", result.Cause)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Rental log saved", result)
}

func (h *Handler) ListByDate(w http.ResponseWriter, r *http.Request) {
	date, ok := requestDate(w, r)
	if !ok {
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Rental logs", h.Service.QueryEventsByDate(r.Context(), date))
}

func (h *Handler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			utils.WriteError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}
	utils.WriteSuccess(w, http.StatusOK, "Recent rental logs", h.Service.GetRecentLogs(r.Context(), limit))
}

func (h *Handler) ListByCompany(w http.ResponseWriter, r *http.Request) {
	company := chi.URLParam(r, "company")
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := utils.ParseWorkDate(d); err != nil {
			utils.WriteError(w, http.StatusBadRequest, "Invalid date range", err)
			return
		}
	}
	utils.WriteSuccess(w, http.StatusOK, "Rental logs", h.Service.GetLogsByCompany(r.Context(), company, from, to))
}

func (h *Handler) ListByZone(w http.ResponseWriter, r *http.Request) {
	zone := chi.URLParam(r, "zone")
	if !h.Service.Topology.Has(zone) {
		utils.WriteError(w, http.StatusNotFound, "Unknown zone", service.ErrUnknownZone)
		return
	}
	date, ok := requestDate(w, r)
	if !ok {
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Rental logs", h.Service.GetLogsByZone(r.Context(), zone, date))
}

func (h *Handler) GetRentalLog(w http.ResponseWriter, r *http.Request) {
	log, err := h.Service.GetRentalLog(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, "Rental log not found", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Rental log", log)
}

func (h *Handler) UpdateRentalLog(w http.ResponseWriter, r *http.Request) {
	var req models.RentalLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	log, err := h.Service.UpdateRentalLog(r.Context(), chi.URLParam(r, "id"), req, auth.EditorFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, "Could not update rental log", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Rental log updated", log)
}

func (h *Handler) DeleteRentalLog(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteRentalLog(r.Context(), chi.URLParam(r, "id"), auth.EditorFromContext(r.Context())); err != nil {
		h.writeServiceError(w, "Could not delete rental log", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	date, ok := requestDate(w, r)
	if !ok {
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Daily stats", h.Service.GetStatsByDate(r.Context(), date))
}

func (h *Handler) GetMapView(w http.ResponseWriter, r *http.Request) {
	date, ok := requestDate(w, r)
	if !ok {
		return
	}
	company := r.URL.Query().Get("company")
	utils.WriteSuccess(w, http.StatusOK, "Map view", h.Service.GetMapView(r.Context(), date, company))
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, "Settings", h.Service.GetSettings(r.Context()))
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	editor := auth.EditorFromContext(r.Context())
	if editor.Anonymous {
		utils.WriteError(w, http.StatusForbidden, "Settings require a signed-in editor", nil)
		return
	}

	var settings models.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Service.SaveSettings(r.Context(), settings); err != nil {
		h.writeServiceError(w, "Could not save settings", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Settings saved", h.Service.GetSettings(r.Context()))
}

// GetQRCode renders a PNG pointing at ?url=, or at the submission form
// (prefilled with ?zone=) when no url is given.
func (h *Handler) GetQRCode(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		link, err := h.QR.FormLink(r.URL.Query().Get("zone"))
		if err != nil {
			h.Logger.Error("QR", fmt.Sprintf("Form url is not usable: %v", err))
			utils.WriteError(w, http.StatusInternalServerError, "Form url not configured", err)
			return
		}
		target = link
	}

	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	png, err := h.QR.EncodeURL(target, size)
	if err != nil {
		if errors.Is(err, qr.ErrInvalidURL) {
			utils.WriteError(w, http.StatusBadRequest, "Invalid url", err)
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Could not render qr code", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(int(time.Hour.Seconds())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
