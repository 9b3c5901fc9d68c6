package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"rental-location/internal/models"

	"github.com/uptrace/bun"
)

var ErrNotFound = errors.New("rental log not found")

type DB struct {
	Bun *bun.DB
}

func newestFirst(q *bun.SelectQuery) *bun.SelectQuery {
	return q.OrderExpr("? DESC", bun.Ident("timestamp"))
}

// CreateTables creates the tables when missing. Used for SQLite, where the
// golang-migrate postgres migrations do not apply.
func (d *DB) CreateTables(ctx context.Context) error {
	for _, model := range []interface{}{(*models.RentalLog)(nil), (*models.Settings)(nil)} {
		if _, err := d.Bun.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	_, err := d.Bun.NewCreateIndex().
		Model((*models.RentalLog)(nil)).
		Index("idx_rental_logs_work_date").
		IfNotExists().
		Column("work_date", "timestamp").
		Exec(ctx)
	return err
}

func (d *DB) CreateRentalLog(ctx context.Context, log models.RentalLog) error {
	_, err := d.Bun.NewInsert().Model(&log).Exec(ctx)
	return err
}

func (d *DB) GetRentalLogByID(ctx context.Context, id string) (*models.RentalLog, error) {
	var log models.RentalLog
	err := d.Bun.NewSelect().
		Model(&log).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (d *DB) UpdateRentalLog(ctx context.Context, log models.RentalLog) error {
	res, err := d.Bun.NewUpdate().
		Model(&log).
		Column("company", "zone", "floor", "detail_place", "content", "rental_count", "work_date", "updated_at").
		Where("id = ?", log.ID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (d *DB) DeleteRentalLog(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.RentalLog)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRentalLogsByDate returns every log of a work date, most recent first.
func (d *DB) GetRentalLogsByDate(ctx context.Context, workDate string) ([]models.RentalLog, error) {
	logs := []models.RentalLog{}
	err := newestFirst(d.Bun.NewSelect().
		Model(&logs).
		Where("work_date = ?", workDate)).
		Scan(ctx)
	return logs, err
}

// GetRentalLogsByCompany returns a company's logs. When both from and to are set the
// work date must fall inside [from, to].
func (d *DB) GetRentalLogsByCompany(ctx context.Context, company, from, to string) ([]models.RentalLog, error) {
	logs := []models.RentalLog{}
	q := d.Bun.NewSelect().
		Model(&logs).
		Where("company = ?", company)

	if from != "" && to != "" {
		q = q.Where("work_date >= ?", from).
			Where("work_date <= ?", to)
	}

	err := newestFirst(q.OrderExpr("work_date DESC")).Scan(ctx)
	return logs, err
}

func (d *DB) GetRentalLogsByZone(ctx context.Context, zone, workDate string) ([]models.RentalLog, error) {
	logs := []models.RentalLog{}
	err := newestFirst(d.Bun.NewSelect().
		Model(&logs).
		Where("zone = ?", zone).
		Where("work_date = ?", workDate)).
		Scan(ctx)
	return logs, err
}

// GetRecentLogs returns the latest logs across all dates.
func (d *DB) GetRecentLogs(ctx context.Context, limit int) ([]models.RentalLog, error) {
	logs := []models.RentalLog{}
	err := newestFirst(d.Bun.NewSelect().Model(&logs)).
		Limit(limit).
		Scan(ctx)
	return logs, err
}
