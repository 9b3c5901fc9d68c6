package db

import (
	"context"
	"database/sql"
	"errors"
	"rental-location/internal/models"
	"time"
)

// GetSettings returns the stored settings, or nil when none were saved yet.
func (d *DB) GetSettings(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	err := d.Bun.NewSelect().
		Model(&settings).
		Where("id = ?", models.SettingsID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveSettings upserts the single settings row.
func (d *DB) SaveSettings(ctx context.Context, settings models.Settings) error {
	settings.ID = models.SettingsID
	settings.UpdatedAt = time.Now()
	_, err := d.Bun.NewInsert().
		Model(&settings).
		On("CONFLICT (id) DO UPDATE").
		Set("max_rental_count = EXCLUDED.max_rental_count").
		Set("allow_anonymous = EXCLUDED.allow_anonymous").
		Set("require_approval = EXCLUDED.require_approval").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}
