package pipeline

import (
	"strings"
	"time"
)

// Plausibility window for expiry years. Dates before 2000 or more than ten
// years past the reference year are treated as data-entry errors.
const (
	minPlausibleYear    = 2000
	plausibleYearsAhead = 10
)

// SanitizeReport aggregates what Sanitize dropped and why. It is diagnostic
// only and never affects downstream stages.
type SanitizeReport struct {
	Total         int
	Kept          int
	InvalidDates  int
	AbnormalYears int
	Rejections    []Rejection
}

// Samples returns up to limit rejections for operator-facing logs
func (r SanitizeReport) Samples(limit int) []Rejection {
	if len(r.Rejections) <= limit {
		return r.Rejections
	}
	return r.Rejections[:limit]
}

// Sanitize parses each record's expiry-date string and keeps only records
// whose date is a real calendar date with a plausible year. Unparseable
// strings are classified invalid_date; parseable dates outside
// [2000, reference_year+10] are classified abnormal_year. Empty input yields
// empty output; nothing here is an error.
func Sanitize(records []InventoryRecord, refDate time.Time) ([]ValidatedRecord, SanitizeReport) {
	report := SanitizeReport{Total: len(records)}
	maxYear := refDate.Year() + plausibleYearsAhead

	validated := make([]ValidatedRecord, 0, len(records))
	for _, rec := range records {
		raw := strings.TrimSpace(strOrEmpty(rec.ExpiryDate))

		parsed, err := time.Parse(DateLayout, raw)
		if err != nil {
			report.InvalidDates++
			report.Rejections = append(report.Rejections, Rejection{
				ItemCode:    rec.ItemCode,
				BatchNumber: rec.BatchNumber,
				RawExpiry:   raw,
				Reason:      ReasonInvalidDate,
			})
			continue
		}

		if year := parsed.Year(); year < minPlausibleYear || year > maxYear {
			report.AbnormalYears++
			report.Rejections = append(report.Rejections, Rejection{
				ItemCode:    rec.ItemCode,
				BatchNumber: rec.BatchNumber,
				RawExpiry:   raw,
				Reason:      ReasonAbnormalYear,
			})
			continue
		}

		validated = append(validated, ValidatedRecord{
			InventoryRecord: rec,
			Expiry:          DateOnly(parsed),
		})
	}

	report.Kept = len(validated)
	return validated, report
}
