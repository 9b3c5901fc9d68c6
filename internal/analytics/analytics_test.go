package analytics_test

import (
	"context"
	"database/sql"
	"rental-location/internal/analytics"
	"rental-location/internal/models"
	"rental-location/internal/rentals/db"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	store := &db.DB{Bun: bunDB}
	require.NoError(t, store.CreateTables(context.Background()))
	t.Cleanup(func() { bunDB.Close() })
	return store, bunDB
}

func seed(t *testing.T, store *db.DB, company, zone, workDate string, count int) {
	now := time.Now()
	require.NoError(t, store.CreateRentalLog(context.Background(), models.RentalLog{
		ID:          uuid.New().String(),
		Company:     company,
		Zone:        zone,
		Floor:       "1F",
		Content:     "lift",
		RentalCount: count,
		WorkDate:    workDate,
		Timestamp:   now,
		CreatedAt:   now,
	}))
}

func TestGetDailyTrend(t *testing.T) {
	store, bunDB := setupTestDB(t)
	seed(t, store, "A", "1", "2024-02-01", 3)
	seed(t, store, "B", "2", "2024-02-01", -4)
	seed(t, store, "A", "1", "2024-02-03", 5)
	seed(t, store, "A", "1", "2024-02-10", 9)

	svc := analytics.NewService(analytics.NewDB(bunDB))
	trend, err := svc.GetDailyTrend(context.Background(), "2024-02-01", "2024-02-04", "")
	require.NoError(t, err)

	require.Len(t, trend.Days, 4)
	assert.Equal(t, analytics.DailyMetrics{Date: "2024-02-01", LogCount: 2, RentalUnits: 3, CompanyCount: 2}, trend.Days[0])
	assert.Equal(t, analytics.DailyMetrics{Date: "2024-02-02"}, trend.Days[1])
	assert.Equal(t, 5, trend.Days[2].RentalUnits)
	assert.Equal(t, 3, trend.TotalCount)
	assert.Equal(t, 8, trend.TotalRental)

	// Test case: company filter
	trend, err = svc.GetDailyTrend(context.Background(), "2024-02-01", "2024-02-01", "B")
	require.NoError(t, err)
	require.Len(t, trend.Days, 1)
	assert.Equal(t, 1, trend.Days[0].LogCount)
	assert.Equal(t, 0, trend.Days[0].RentalUnits)
}

func TestGetCompanyTotals(t *testing.T) {
	store, bunDB := setupTestDB(t)
	seed(t, store, "A", "1", "2024-02-01", 3)
	seed(t, store, "A", "2", "2024-02-02", 1)
	seed(t, store, "B", "2", "2024-02-01", 10)
	seed(t, store, "C", "9", "2024-03-01", 50)

	svc := analytics.NewService(analytics.NewDB(bunDB))
	totals, err := svc.GetCompanyTotals(context.Background(), "2024-02-01", "2024-02-28")
	require.NoError(t, err)

	require.Len(t, totals, 2)
	assert.Equal(t, "B", totals[0].Company)
	assert.Equal(t, 10, totals[0].RentalUnits)
	assert.Equal(t, "A", totals[1].Company)
	assert.Equal(t, 2, totals[1].LogCount)
	assert.Equal(t, 2, totals[1].ZoneCount)
	assert.Equal(t, "#666", totals[1].Color)
}

func TestResolveRange(t *testing.T) {
	today := time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local)

	from, to, err := analytics.ResolveRange("", "", today)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-04", from)
	assert.Equal(t, "2024-05-10", to)

	_, _, err = analytics.ResolveRange("2024-05-11", "2024-05-10", today)
	assert.ErrorIs(t, err, analytics.ErrInvalidRange)

	_, _, err = analytics.ResolveRange("2023-01-01", "2024-05-10", today)
	assert.ErrorIs(t, err, analytics.ErrInvalidRange)

	_, _, err = analytics.ResolveRange("May 1", "", today)
	assert.ErrorIs(t, err, analytics.ErrInvalidRange)
}
