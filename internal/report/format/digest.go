package format

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/leangjia/topgp-inventory-alert-webhook-email/internal/report/pipeline"
)

const (
	// warehouseStatsCap bounds the breakdown so the digest stays a
	// predictable size on very large runs
	warehouseStatsCap = 500
	topWorstCount     = 5
)

// Summarize renders the short human-readable digest sent to the chat channel
// and used as the email body. With no entries it still returns a valid
// zero-alert digest without the breakdown and top sections.
func Summarize(entries []pipeline.AlertEntry, generatedAt time.Time) string {
	var b strings.Builder

	b.WriteString("Inventory expiry alert\n\n")
	fmt.Fprintf(&b, "Generated: %s\n", generatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Expired batches: %d\n", len(entries))

	if len(entries) == 0 {
		return b.String()
	}

	writeWarehouseBreakdown(&b, entries)
	writeTopWorst(&b, entries)

	b.WriteString("\nThe full list has been sent by email, check the attachment.\n")
	b.WriteString("Please handle promptly.")

	return b.String()
}

// writeWarehouseBreakdown counts entries per warehouse over at most the
// first warehouseStatsCap entries in input order, listed by warehouse code
// ascending.
func writeWarehouseBreakdown(b *strings.Builder, entries []pipeline.AlertEntry) {
	capped := entries
	if len(capped) > warehouseStatsCap {
		capped = capped[:warehouseStatsCap]
	}

	counts := make(map[string]int)
	for _, e := range capped {
		counts[e.WarehouseCode]++
	}

	warehouses := make([]string, 0, len(counts))
	for w := range counts {
		warehouses = append(warehouses, w)
	}
	sort.Strings(warehouses)

	b.WriteString("\nWarehouse breakdown:\n")
	for _, w := range warehouses {
		fmt.Fprintf(b, "  %s: %d batches\n", w, counts[w])
	}
}

// writeTopWorst lists the entries with the highest overdue-day counts
func writeTopWorst(b *strings.Builder, entries []pipeline.AlertEntry) {
	worst := make([]pipeline.AlertEntry, len(entries))
	copy(worst, entries)
	sort.SliceStable(worst, func(i, j int) bool {
		return worst[i].OverdueDays > worst[j].OverdueDays
	})
	if len(worst) > topWorstCount {
		worst = worst[:topWorstCount]
	}

	fmt.Fprintf(b, "\nWorst overdue (top %d):\n", topWorstCount)
	for i, e := range worst {
		fmt.Fprintf(b, "%d. %s", i+1, e.ItemCode)
		if strings.TrimSpace(e.ItemName) != "" {
			fmt.Fprintf(b, " (%s)", e.ItemName)
		}
		b.WriteString("\n")
		fmt.Fprintf(b, "   Batch: %s, Warehouse: %s\n", e.BatchNumber, e.WarehouseCode)
		fmt.Fprintf(b, "   Expired: %s, overdue %d days\n", e.ExpiryDate, e.OverdueDays)
	}
}

// EmailBody renders the longer explanatory body attached to the email report
func EmailBody(alertCount, maxOverdueDays int, generatedAt time.Time) string {
	var b strings.Builder

	b.WriteString("Inventory expiry alert\n\n")
	fmt.Fprintf(&b, "Detection time: %s\n", generatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Expired batches: %d\n\n", alertCount)

	b.WriteString("Notes:\n")
	b.WriteString("1. Batches with an expiry date earlier than the detection date are flagged as expired.\n")
	b.WriteString("2. Overdue days = detection date - expiry date.\n")
	fmt.Fprintf(&b, "3. Implausible dates and batches overdue by more than %d days were filtered as data errors.\n", maxOverdueDays)
	b.WriteString("4. The full list is in the attached spreadsheet.\n\n")
	b.WriteString("Please handle the expired stock promptly.\n\n")
	b.WriteString("This message was sent automatically, do not reply.\n")

	return b.String()
}
