package fiscal

import (
	"errors"
	"time"
)

var (
	// ErrNoCapitalAccount indicates the company has no CAPITAL-type account
	// to receive the closing profit. Fatal precondition; nothing is written.
	ErrNoCapitalAccount = errors.New("fiscal: no capital account for company")
	// ErrCloseDateOutsideYear indicates the closing date falls outside the
	// financial year being closed.
	ErrCloseDateOutsideYear = errors.New("fiscal: close date outside financial year")
)

// CloseYearInput bundles parameters for closing a financial year.
type CloseYearInput struct {
	CompanyID int64
	YearID    int64
	ActorID   int64
	// CloseDate defaults to the year's end date.
	CloseDate time.Time
}

// Validate ensures the close request is coherent.
func (in CloseYearInput) Validate() error {
	if in.CompanyID == 0 {
		return errors.New("fiscal: company id required")
	}
	if in.YearID == 0 {
		return errors.New("fiscal: year id required")
	}
	if in.ActorID == 0 {
		return errors.New("fiscal: actor id required")
	}
	return nil
}
