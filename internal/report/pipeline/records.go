package pipeline

import "time"

// DateLayout is the calendar date format used by the source export columns.
const DateLayout = "2006-01-02"

// InventoryRecord is a raw batch/expiry row as fetched from the data source.
// Nullable columns map to pointers; the expiry string may be malformed and
// is only trusted after sanitization.
type InventoryRecord struct {
	ItemCode         string  `db:"item_code"`
	WarehouseCode    string  `db:"warehouse_code"`
	BatchNumber      string  `db:"batch_number"`
	Quantity         float64 `db:"quantity"`
	ItemName         *string `db:"item_name"`
	Specification    *string `db:"specification"`
	GroupCode        *string `db:"group_code"`
	InboundDate      *string `db:"inbound_date"`
	ProductionDate   *string `db:"production_date"`
	ExpiryDate       *string `db:"expiry_date"`
	GroupDescription *string `db:"group_description"`
	ShelfLifeDays    *int    `db:"shelf_life_days"`
}

// ValidatedRecord is an InventoryRecord whose expiry string parsed to a real
// calendar date inside the plausibility window.
type ValidatedRecord struct {
	InventoryRecord
	// Expiry is the parsed expiry date, truncated to UTC midnight
	Expiry time.Time
}

// AlertEntry is one expired batch in display form. All fields are coerced:
// absent text becomes "", absent numerics become 0.
type AlertEntry struct {
	ItemCode         string
	ItemName         string
	Specification    string
	BatchNumber      string
	WarehouseCode    string
	Quantity         float64
	InboundDate      string
	ProductionDate   string
	ExpiryDate       string
	OverdueDays      int
	ShelfLifeDays    int
	GroupCode        string
	GroupDescription string
}

// RejectReason classifies why a record was dropped from the pipeline
type RejectReason string

const (
	ReasonInvalidDate    RejectReason = "invalid_date"
	ReasonAbnormalYear   RejectReason = "abnormal_year"
	ReasonOverdueCeiling RejectReason = "overdue_ceiling"
)

// Rejection records one dropped record with enough context to diagnose it
type Rejection struct {
	ItemCode    string
	BatchNumber string
	RawExpiry   string
	Reason      RejectReason
}

// DateOnly truncates t to midnight UTC so day arithmetic is exact
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intOrZero(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
