package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"html"
	"rental-location/internal/logger"
	"rental-location/internal/models"
	"rental-location/internal/rentals/db"
	"rental-location/internal/stats"
	"rental-location/internal/zones"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

type DBLayer interface {
	CreateRentalLog(ctx context.Context, log models.RentalLog) error
	GetRentalLogByID(ctx context.Context, id string) (*models.RentalLog, error)
	UpdateRentalLog(ctx context.Context, log models.RentalLog) error
	DeleteRentalLog(ctx context.Context, id string) error
	GetRentalLogsByDate(ctx context.Context, workDate string) ([]models.RentalLog, error)
	GetRentalLogsByCompany(ctx context.Context, company, from, to string) ([]models.RentalLog, error)
	GetRentalLogsByZone(ctx context.Context, zone, workDate string) ([]models.RentalLog, error)
	GetRecentLogs(ctx context.Context, limit int) ([]models.RentalLog, error)
	GetSettings(ctx context.Context) (*models.Settings, error)
	SaveSettings(ctx context.Context, settings models.Settings) error
}

type StatsCache interface {
	// Get returns the cached stats (nil on a miss) and the generation to fill under.
	Get(ctx context.Context, workDate string) (*stats.DailyStats, int64, error)
	Set(ctx context.Context, workDate string, gen int64, daily stats.DailyStats) error
	Invalidate(ctx context.Context, workDate string) error
}

// SubmissionGuard detects repeated submissions of the same form
type SubmissionGuard interface {
	Acquire(ctx context.Context, fingerprint string) (bool, error)
	Release(ctx context.Context, fingerprint string) error
}

// ChangePublisher notifies live subscribers
type ChangePublisher interface {
	Publish(ctx context.Context, change models.RentalLogChange) error
}

// AuditPublisher streams changes to the audit topic
type AuditPublisher interface {
	PublishRentalChange(ctx context.Context, change models.RentalLogChange) error
}

var ErrNotFound = db.ErrNotFound

const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 200
)

type RentalService struct {
	DB       DBLayer
	Cache    StatsCache
	Notifier ChangePublisher
	Audit    AuditPublisher
	Guard    SubmissionGuard
	Topology *zones.Topology
	log      *logger.Logger
	now      func() time.Time
}

func NewRentalService(store DBLayer, cache StatsCache, notifier ChangePublisher, audit AuditPublisher, topo *zones.Topology, log *logger.Logger) *RentalService {
	if topo == nil {
		topo = zones.DefaultTopology()
	}
	return &RentalService{
		DB:       store,
		Cache:    cache,
		Notifier: notifier,
		Audit:    audit,
		Topology: topo,
		log:      log,
		now:      time.Now,
	}
}

// SaveResult reports the outcome of a form submission
type SaveResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
	// Cause keeps the typed error for callers, it is not serialized
	Cause error `json:"-"`
}

func failed(err error) SaveResult {
	return SaveResult{Success: false, Error: err.Error(), Cause: err}
}

// ---------------- WRITES ----------------

// SaveRentalLog validates and stores a new rental log, then announces the change.
func (s *RentalService) SaveRentalLog(ctx context.Context, req models.RentalLogRequest, editor models.Editor) SaveResult {
	settings := s.GetSettings(ctx)
	if editor.Anonymous && !settings.AllowAnonymous {
		return failed(ErrAnonymousNotAllowed)
	}

	req, err := s.validate(req, settings)
	if err != nil {
		s.log.Warn("VALIDATION", fmt.Sprintf("Rejected rental log: %v", err))
		return failed(err)
	}

	editorID, editorEmail := editorFields(editor)
	submitter := editorID
	if editorID == models.AnonymousEditor {
		// token-less submissions are told apart by their client address
		submitter += "@" + clientAddr(ctx)
	}
	fingerprint := submissionFingerprint(submitter, req)
	if s.Guard != nil {
		acquired, err := s.Guard.Acquire(ctx, fingerprint)
		if err != nil {
			s.log.Warn("CACHE", fmt.Sprintf("Submit guard unavailable: %v", err))
		} else if !acquired {
			return failed(ErrDuplicateSubmission)
		}
	}

	now := s.now()
	log := models.RentalLog{
		ID:          uuid.New().String(),
		Company:     req.Company,
		Zone:        req.Zone,
		Floor:       req.Floor,
		DetailPlace: req.DetailPlace,
		Content:     req.Content,
		RentalCount: req.RentalCount,
		WorkDate:    req.WorkDate,
		Timestamp:   now,
		CreatedAt:   now,
		EditorID:    editorID,
		EditorEmail: editorEmail,
	}

	if err := s.DB.CreateRentalLog(ctx, log); err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to save rental log: %v", err))
		if s.Guard != nil {
			_ = s.Guard.Release(ctx, fingerprint)
		}
		return failed(fmt.Errorf("failed to save rental log: %w", err))
	}

	s.log.LogRental("CREATED", log.ID, fmt.Sprintf("%s zone %s %s, %d units on %s", log.Company, log.Zone, log.Floor, log.RentalCount, log.WorkDate))
	s.announce(ctx, models.ChangeCreated, &log, log.WorkDate)

	return SaveResult{Success: true, ID: log.ID}
}

// UpdateRentalLog replaces the editable fields of an existing log.
func (s *RentalService) UpdateRentalLog(ctx context.Context, id string, req models.RentalLogRequest, editor models.Editor) (*models.RentalLog, error) {
	settings := s.GetSettings(ctx)
	if editor.Anonymous && !settings.AllowAnonymous {
		return nil, ErrAnonymousNotAllowed
	}

	req, err := s.validate(req, settings)
	if err != nil {
		return nil, err
	}

	existing, err := s.DB.GetRentalLogByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("rental log %s: %w", id, err)
	}
	previousDate := existing.WorkDate

	now := s.now()
	existing.Company = req.Company
	existing.Zone = req.Zone
	existing.Floor = req.Floor
	existing.DetailPlace = req.DetailPlace
	existing.Content = req.Content
	existing.RentalCount = req.RentalCount
	existing.WorkDate = req.WorkDate
	existing.UpdatedAt = &now
	existing.EditorID, existing.EditorEmail = editorFields(editor)

	if err := s.DB.UpdateRentalLog(ctx, *existing); err != nil {
		return nil, fmt.Errorf("failed to update rental log: %w", err)
	}

	s.log.LogRental("UPDATED", id, fmt.Sprintf("work date %s", existing.WorkDate))
	s.announce(ctx, models.ChangeUpdated, existing, existing.WorkDate)
	if previousDate != existing.WorkDate {
		s.announce(ctx, models.ChangeUpdated, existing, previousDate)
	}
	return existing, nil
}

// DeleteRentalLog removes a log. Anonymous editors may only delete while
// anonymous access is allowed.
func (s *RentalService) DeleteRentalLog(ctx context.Context, id string, editor models.Editor) error {
	if editor.Anonymous && !s.GetSettings(ctx).AllowAnonymous {
		return ErrAnonymousNotAllowed
	}
	existing, err := s.DB.GetRentalLogByID(ctx, id)
	if err != nil {
		return fmt.Errorf("rental log %s: %w", id, err)
	}
	if err := s.DB.DeleteRentalLog(ctx, id); err != nil {
		return fmt.Errorf("failed to delete rental log: %w", err)
	}

	editorID, _ := editorFields(editor)
	s.log.LogRental("DELETED", id, fmt.Sprintf("work date %s by %s", existing.WorkDate, editorID))
	s.announce(ctx, models.ChangeDeleted, existing, existing.WorkDate)
	return nil
}

// announce invalidates the cached stats of workDate and publishes the change.
// Failures are logged; the write has already succeeded.
func (s *RentalService) announce(ctx context.Context, action string, log *models.RentalLog, workDate string) {
	change := models.RentalLogChange{
		Action:   action,
		LogID:    log.ID,
		WorkDate: workDate,
		Log:      log,
		At:       s.now(),
	}

	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx, workDate); err != nil {
			s.log.Warn("CACHE", fmt.Sprintf("Failed to invalidate stats for %s: %v", workDate, err))
		}
	}
	if s.Notifier != nil {
		if err := s.Notifier.Publish(ctx, change); err != nil {
			s.log.Warn("LIVE", fmt.Sprintf("Failed to publish change notice: %v", err))
		}
	}
	if s.Audit != nil {
		if err := s.Audit.PublishRentalChange(ctx, change); err != nil {
			s.log.LogKafka("PUBLISH_FAILED", "", err.Error())
		}
	}
}

type clientAddrKey struct{}

// WithClientAddr attaches the submitting client's address to ctx.
func WithClientAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, clientAddrKey{}, addr)
}

func clientAddr(ctx context.Context) string {
	addr, _ := ctx.Value(clientAddrKey{}).(string)
	return addr
}

// submissionFingerprint identifies a form submission by its editor and content
func submissionFingerprint(editorID string, req models.RentalLogRequest) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		editorID, req.Company, req.Zone, req.Floor, req.DetailPlace, req.Content,
		strconv.Itoa(req.RentalCount), req.WorkDate,
	}, "\x1f")))
	return hex.EncodeToString(sum[:])
}

func editorFields(editor models.Editor) (string, string) {
	id, email := editor.ID, editor.Email
	if id == "" {
		id = models.AnonymousEditor
	}
	if email == "" {
		email = models.AnonymousEditor
	}
	return id, email
}

// ---------------- READS ----------------

// QueryEventsByDate returns the logs of a work date, newest first. Store errors
// are logged and yield an empty slice.
func (s *RentalService) QueryEventsByDate(ctx context.Context, workDate string) []models.RentalLog {
	logs, err := s.QueryEventsByDateStrict(ctx, workDate)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to load logs for %s: %v", workDate, err))
		return []models.RentalLog{}
	}
	return logs
}

// QueryEventsByDateStrict is QueryEventsByDate without the empty fallback
func (s *RentalService) QueryEventsByDateStrict(ctx context.Context, workDate string) ([]models.RentalLog, error) {
	logs, err := s.DB.GetRentalLogsByDate(ctx, workDate)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []models.RentalLog{}
	}
	return logs, nil
}

// GetStatsByDate computes the daily stats, served from cache when possible.
// The cache generation is read before the logs, so a write landing mid-compute
// leaves this fill on a retired generation.
func (s *RentalService) GetStatsByDate(ctx context.Context, workDate string) stats.DailyStats {
	var gen int64
	fill := false
	if s.Cache != nil {
		cached, g, err := s.Cache.Get(ctx, workDate)
		switch {
		case err != nil:
			s.log.Warn("CACHE", fmt.Sprintf("Stats cache read failed: %v", err))
		case cached != nil:
			return *cached
		default:
			gen, fill = g, true
		}
	}

	logs, err := s.QueryEventsByDateStrict(ctx, workDate)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to load logs for %s: %v", workDate, err))
		return stats.Empty()
	}
	daily := stats.ComputeStats(logs)

	if fill {
		if err := s.Cache.Set(ctx, workDate, gen, daily); err != nil {
			s.log.Warn("CACHE", fmt.Sprintf("Stats cache write failed: %v", err))
		}
	}
	return daily
}

// GetMapView builds the marker and legend view of a date, optionally filtered by company.
func (s *RentalService) GetMapView(ctx context.Context, workDate, company string) stats.MapView {
	return stats.BuildMapView(s.Topology, workDate, s.GetStatsByDate(ctx, workDate), company)
}

// GetLogsByCompany lists a company's logs, optionally limited to [from, to].
func (s *RentalService) GetLogsByCompany(ctx context.Context, company, from, to string) []models.RentalLog {
	logs, err := s.DB.GetRentalLogsByCompany(ctx, company, from, to)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to load logs of %s: %v", company, err))
		return []models.RentalLog{}
	}
	return logs
}

func (s *RentalService) GetLogsByZone(ctx context.Context, zone, workDate string) []models.RentalLog {
	logs, err := s.DB.GetRentalLogsByZone(ctx, zone, workDate)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to load logs of zone %s: %v", zone, err))
		return []models.RentalLog{}
	}
	return logs
}

func (s *RentalService) GetRecentLogs(ctx context.Context, limit int) []models.RentalLog {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}
	logs, err := s.DB.GetRecentLogs(ctx, limit)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to load recent logs: %v", err))
		return []models.RentalLog{}
	}
	return logs
}

func (s *RentalService) GetRentalLog(ctx context.Context, id string) (*models.RentalLog, error) {
	return s.DB.GetRentalLogByID(ctx, id)
}

// ---------------- SETTINGS ----------------

// GetSettings returns the stored settings, or the defaults when none are stored
// or the store fails.
func (s *RentalService) GetSettings(ctx context.Context) models.Settings {
	settings, err := s.DB.GetSettings(ctx)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to load settings: %v", err))
		return models.DefaultSettings()
	}
	if settings == nil {
		return models.DefaultSettings()
	}
	return *settings
}

func (s *RentalService) SaveSettings(ctx context.Context, settings models.Settings) error {
	if settings.MaxRentalCount <= 0 {
		return fmt.Errorf("%w: max rental count must be positive", ErrInvalidSettings)
	}
	if err := s.DB.SaveSettings(ctx, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	s.log.Info("SETTINGS", fmt.Sprintf("Settings updated: max=%d anonymous=%t approval=%t",
		settings.MaxRentalCount, settings.AllowAnonymous, settings.RequireApproval))
	return nil
}

// IsValidationError reports whether err is a rejected input
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var markup = bluemonday.StrictPolicy()

// plainText drops any markup from free-text fields. Entities are decoded again
// so "A & B" is stored as typed.
func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(markup.Sanitize(s)))
}

func trimRequest(req models.RentalLogRequest) models.RentalLogRequest {
	req.Company = strings.TrimSpace(req.Company)
	req.Zone = strings.TrimSpace(req.Zone)
	req.Floor = strings.TrimSpace(req.Floor)
	req.DetailPlace = plainText(req.DetailPlace)
	req.Content = plainText(req.Content)
	req.WorkDate = strings.TrimSpace(req.WorkDate)
	return req
}
