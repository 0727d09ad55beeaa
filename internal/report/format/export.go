package format

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/leangjia/topgp-inventory-alert-webhook-email/internal/report/pipeline"
)

// SheetName is the worksheet holding the full alert list
const SheetName = "Expired Batches"

// exportColumns is the fixed column order of the tabular export
var exportColumns = []string{
	"Item Code",
	"Item Name",
	"Specification",
	"Batch Number",
	"Warehouse",
	"Quantity",
	"Inbound Date",
	"Production Date",
	"Expiry Date",
	"Overdue Days",
	"Shelf Life Days",
	"Group Code",
	"Group Description",
}

// TabularExport is the full alert list ready for spreadsheet serialization
type TabularExport struct {
	Columns []string
	Rows    [][]interface{}
}

// Empty reports whether the export has no data rows
func (e TabularExport) Empty() bool {
	return len(e.Rows) == 0
}

// Tabulate converts entries to rows in the fixed column order, sorted by
// overdue days descending. The sort is stable: entries with equal overdue
// counts keep their input order.
func Tabulate(entries []pipeline.AlertEntry) TabularExport {
	sorted := make([]pipeline.AlertEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OverdueDays > sorted[j].OverdueDays
	})

	rows := make([][]interface{}, 0, len(sorted))
	for _, e := range sorted {
		rows = append(rows, []interface{}{
			e.ItemCode,
			e.ItemName,
			e.Specification,
			e.BatchNumber,
			e.WarehouseCode,
			e.Quantity,
			e.InboundDate,
			e.ProductionDate,
			e.ExpiryDate,
			e.OverdueDays,
			e.ShelfLifeDays,
			e.GroupCode,
			e.GroupDescription,
		})
	}

	return TabularExport{
		Columns: exportColumns,
		Rows:    rows,
	}
}

// BuildWorkbook serializes the export to an xlsx byte blob for the email
// attachment.
func BuildWorkbook(export TabularExport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	for col, heading := range export.Columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to build header cell name: %w", err)
		}
		if err := f.SetCellValue(SheetName, cell, heading); err != nil {
			return nil, fmt.Errorf("failed to write header cell: %w", err)
		}
	}

	for rowIdx, row := range export.Rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return nil, fmt.Errorf("failed to build cell name: %w", err)
			}
			if err := f.SetCellValue(SheetName, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write cell: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	return buf.Bytes(), nil
}
