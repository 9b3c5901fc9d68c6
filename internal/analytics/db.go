package analytics

import (
	"context"
	"rental-location/internal/models"

	"github.com/uptrace/bun"
)

// DB handles analytics database operations
type DB struct {
	bun *bun.DB
}

// NewDB creates a new analytics DB handler
func NewDB(db *bun.DB) *DB {
	return &DB{bun: db}
}

// DailyTotalsData represents raw per-date totals from the database
type DailyTotalsData struct {
	WorkDate     string `bun:"work_date"`
	LogCount     int    `bun:"log_count"`
	RentalUnits  int    `bun:"rental_units"`
	CompanyCount int    `bun:"company_count"`
}

// CompanyTotalsData represents raw per-company totals from the database
type CompanyTotalsData struct {
	Company     string `bun:"company"`
	LogCount    int    `bun:"log_count"`
	RentalUnits int    `bun:"rental_units"`
	ZoneCount   int    `bun:"zone_count"`
}

// Negative counts are stored as submitted and count as 0, like the daily stats.
const rentalUnitsExpr = "COALESCE(SUM(CASE WHEN rental_count > 0 THEN rental_count ELSE 0 END), 0) AS rental_units"

// GetDailyTotals groups the logs of [from, to] by work date, optionally for one company
func (db *DB) GetDailyTotals(ctx context.Context, from, to, company string) ([]DailyTotalsData, error) {
	rows := []DailyTotalsData{}
	q := db.bun.NewSelect().
		Model((*models.RentalLog)(nil)).
		ColumnExpr("work_date").
		ColumnExpr("COUNT(*) AS log_count").
		ColumnExpr(rentalUnitsExpr).
		ColumnExpr("COUNT(DISTINCT company) AS company_count").
		Where("work_date >= ?", from).
		Where("work_date <= ?", to)
	if company != "" {
		q = q.Where("company = ?", company)
	}
	err := q.Group("work_date").
		Order("work_date ASC").
		Scan(ctx, &rows)

	return rows, err
}

// GetCompanyTotals groups the logs of [from, to] by company
func (db *DB) GetCompanyTotals(ctx context.Context, from, to string) ([]CompanyTotalsData, error) {
	rows := []CompanyTotalsData{}
	err := db.bun.NewSelect().
		Model((*models.RentalLog)(nil)).
		ColumnExpr("company").
		ColumnExpr("COUNT(*) AS log_count").
		ColumnExpr(rentalUnitsExpr).
		ColumnExpr("COUNT(DISTINCT zone) AS zone_count").
		Where("work_date >= ?", from).
		Where("work_date <= ?", to).
		Group("company").
		Scan(ctx, &rows)

	return rows, err
}
