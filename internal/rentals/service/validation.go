package service

import (
	"errors"
	"fmt"
	"rental-location/internal/models"
	"rental-location/internal/utils"
	"rental-location/internal/zones"
)

var (
	ErrInvalidCompany      = errors.New("unknown company")
	ErrUnknownZone         = errors.New("unknown zone")
	ErrInvalidFloor        = errors.New("unknown floor")
	ErrInvalidDate         = utils.ErrInvalidDate
	ErrEmptyContent        = errors.New("content is required")
	ErrNegativeCount       = errors.New("rental count must not be negative")
	ErrCountTooLarge       = errors.New("rental count exceeds the allowed maximum")
	ErrAnonymousNotAllowed = errors.New("anonymous submissions are disabled")
	ErrInvalidSettings     = errors.New("invalid settings")
	ErrDuplicateSubmission = errors.New("the same rental log was just submitted")
)

var validationErrors = []error{
	ErrInvalidCompany, ErrUnknownZone, ErrInvalidFloor, ErrInvalidDate, ErrEmptyContent,
	ErrNegativeCount, ErrCountTooLarge, ErrAnonymousNotAllowed, ErrInvalidSettings,
	ErrDuplicateSubmission,
}

// validate checks a submission against the site's reference data and settings
// and returns it trimmed. An empty work date means today.
func (s *RentalService) validate(req models.RentalLogRequest, settings models.Settings) (models.RentalLogRequest, error) {
	req = trimRequest(req)

	if !zones.IsKnownCompany(req.Company) {
		return req, fmt.Errorf("%w: %q", ErrInvalidCompany, req.Company)
	}
	if !s.Topology.Has(req.Zone) {
		return req, fmt.Errorf("%w: %q", ErrUnknownZone, req.Zone)
	}
	if !zones.IsValidFloor(req.Floor) {
		return req, fmt.Errorf("%w: %q", ErrInvalidFloor, req.Floor)
	}

	date, err := utils.DateOrToday(req.WorkDate)
	if err != nil {
		return req, err
	}
	req.WorkDate = date

	if req.Content == "" {
		return req, ErrEmptyContent
	}
	if req.RentalCount < 0 {
		return req, ErrNegativeCount
	}
	if settings.MaxRentalCount > 0 && req.RentalCount > settings.MaxRentalCount {
		return req, fmt.Errorf("%w (%d)", ErrCountTooLarge, settings.MaxRentalCount)
	}
	return req, nil
}
