package pipeline

import "time"

// EvaluateReport aggregates what Evaluate kept and dropped
type EvaluateReport struct {
	// Expired counts records strictly past the reference date
	Expired int
	// Kept counts expired records that survived the overdue ceiling
	Kept int
	// CeilingFiltered counts records dropped as probable data-entry errors
	CeilingFiltered int
	Rejections      []Rejection
}

// Evaluate selects records whose expiry date is strictly earlier than the
// reference date (same-day expiry is not an alert), computes whole-day
// overdue counts, and drops entries whose overdue count exceeds
// maxOverdueDays. The result carries no ordering; that is a formatting
// concern. An empty result is a normal outcome, not an error.
func Evaluate(records []ValidatedRecord, refDate time.Time, maxOverdueDays int) ([]AlertEntry, EvaluateReport) {
	report := EvaluateReport{}
	ref := DateOnly(refDate)

	entries := make([]AlertEntry, 0, len(records))
	for _, rec := range records {
		if !rec.Expiry.Before(ref) {
			continue
		}
		report.Expired++

		// Both dates sit at UTC midnight, so the division is exact.
		overdueDays := int(ref.Sub(rec.Expiry) / (24 * time.Hour))

		if overdueDays > maxOverdueDays {
			report.CeilingFiltered++
			report.Rejections = append(report.Rejections, Rejection{
				ItemCode:    rec.ItemCode,
				BatchNumber: rec.BatchNumber,
				RawExpiry:   rec.Expiry.Format(DateLayout),
				Reason:      ReasonOverdueCeiling,
			})
			continue
		}

		entries = append(entries, toAlertEntry(rec, overdueDays))
	}

	report.Kept = len(entries)
	return entries, report
}

// toAlertEntry coerces a record to display form. Absent text fields become
// empty strings, absent numerics become zero.
func toAlertEntry(rec ValidatedRecord, overdueDays int) AlertEntry {
	return AlertEntry{
		ItemCode:         rec.ItemCode,
		ItemName:         strOrEmpty(rec.ItemName),
		Specification:    strOrEmpty(rec.Specification),
		BatchNumber:      rec.BatchNumber,
		WarehouseCode:    rec.WarehouseCode,
		Quantity:         rec.Quantity,
		InboundDate:      strOrEmpty(rec.InboundDate),
		ProductionDate:   strOrEmpty(rec.ProductionDate),
		ExpiryDate:       rec.Expiry.Format(DateLayout),
		OverdueDays:      overdueDays,
		ShelfLifeDays:    intOrZero(rec.ShelfLifeDays),
		GroupCode:        strOrEmpty(rec.GroupCode),
		GroupDescription: strOrEmpty(rec.GroupDescription),
	}
}
