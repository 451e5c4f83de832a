package reporting

import "errors"

var (
	// ErrNoDataForPeriod is returned when a report period has no records.
	ErrNoDataForPeriod = errors.New("reporting: no data for period")
	// ErrReportNotFound is returned when a report does not exist.
	ErrReportNotFound = errors.New("reporting: report not found")
)
