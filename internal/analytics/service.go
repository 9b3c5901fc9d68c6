package analytics

import (
	"context"
	"errors"
	"fmt"
	"rental-location/internal/utils"
	"rental-location/internal/zones"
	"sort"
	"time"
)

// MaxRangeDays bounds a trend query
const MaxRangeDays = 366

var ErrInvalidRange = errors.New("invalid date range")

// Store is the part of DB the service needs
type Store interface {
	GetDailyTotals(ctx context.Context, from, to, company string) ([]DailyTotalsData, error)
	GetCompanyTotals(ctx context.Context, from, to string) ([]CompanyTotalsData, error)
}

// Service handles analytics operations
type Service struct {
	db Store
}

// NewService creates a new analytics service
func NewService(db Store) *Service {
	return &Service{db: db}
}

// DailyMetrics contains the totals of a single work date
type DailyMetrics struct {
	Date         string `json:"date"`
	LogCount     int    `json:"count"`
	RentalUnits  int    `json:"rental"`
	CompanyCount int    `json:"companyCount"`
}

// DailyTrend is the per-day series of a date range. Days without logs are included with zeros.
type DailyTrend struct {
	From        string         `json:"from"`
	To          string         `json:"to"`
	Company     string         `json:"company,omitempty"`
	TotalCount  int            `json:"totalCount"`
	TotalRental int            `json:"totalRental"`
	Days        []DailyMetrics `json:"days"`
}

// CompanyMetrics contains the totals of a company over a date range
type CompanyMetrics struct {
	Company     string `json:"company"`
	Color       string `json:"color"`
	LogCount    int    `json:"count"`
	RentalUnits int    `json:"rental"`
	ZoneCount   int    `json:"zoneCount"`
}

// ResolveRange validates from/to. Missing bounds default to the week ending today.
func ResolveRange(from, to string, today time.Time) (string, string, error) {
	if to == "" {
		to = today.Format(utils.DateLayout)
	}
	end, err := time.Parse(utils.DateLayout, to)
	if err != nil {
		return "", "", fmt.Errorf("%w: to: %v", ErrInvalidRange, err)
	}
	if from == "" {
		from = end.AddDate(0, 0, -6).Format(utils.DateLayout)
	}
	start, err := time.Parse(utils.DateLayout, from)
	if err != nil {
		return "", "", fmt.Errorf("%w: from: %v", ErrInvalidRange, err)
	}

	if start.After(end) {
		return "", "", fmt.Errorf("%w: from is after to", ErrInvalidRange)
	}
	if end.Sub(start) >= MaxRangeDays*24*time.Hour {
		return "", "", fmt.Errorf("%w: at most %d days", ErrInvalidRange, MaxRangeDays)
	}
	return from, to, nil
}

// GetDailyTrend returns per-day totals for [from, to], optionally for one company
func (s *Service) GetDailyTrend(ctx context.Context, from, to, company string) (*DailyTrend, error) {
	rows, err := s.db.GetDailyTotals(ctx, from, to, company)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily totals: %w", err)
	}

	byDate := make(map[string]DailyTotalsData, len(rows))
	for _, row := range rows {
		byDate[row.WorkDate] = row
	}

	trend := &DailyTrend{From: from, To: to, Company: company, Days: []DailyMetrics{}}
	start, _ := time.Parse(utils.DateLayout, from)
	end, _ := time.Parse(utils.DateLayout, to)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		date := day.Format(utils.DateLayout)
		row := byDate[date]
		trend.Days = append(trend.Days, DailyMetrics{
			Date:         date,
			LogCount:     row.LogCount,
			RentalUnits:  row.RentalUnits,
			CompanyCount: row.CompanyCount,
		})
		trend.TotalCount += row.LogCount
		trend.TotalRental += row.RentalUnits
	}
	return trend, nil
}

// GetCompanyTotals returns per-company totals for [from, to], largest rental first
func (s *Service) GetCompanyTotals(ctx context.Context, from, to string) ([]CompanyMetrics, error) {
	rows, err := s.db.GetCompanyTotals(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load company totals: %w", err)
	}

	out := make([]CompanyMetrics, 0, len(rows))
	for _, row := range rows {
		out = append(out, CompanyMetrics{
			Company:     row.Company,
			Color:       zones.CompanyColor(row.Company),
			LogCount:    row.LogCount,
			RentalUnits: row.RentalUnits,
			ZoneCount:   row.ZoneCount,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RentalUnits != out[j].RentalUnits {
			return out[i].RentalUnits > out[j].RentalUnits
		}
		return out[i].Company < out[j].Company
	})
	return out, nil
}
