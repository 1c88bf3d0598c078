package report

import (
	"bytes"
	"fmt"
	"time"

	"go-pos-billing/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet = "Summary"
	BillsSheet   = "Bills"
)

// ExportDaily writes the day's summary and bill list as an xlsx workbook.
func ExportDaily(day time.Time, summary Summary, bills []models.Bill, loc *time.Location) (*bytes.Buffer, error) {
	if loc == nil {
		loc = time.Local
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(BillsSheet); err != nil {
		return nil, err
	}

	rows := [][]interface{}{
		{"Date", day.In(loc).Format("2006-01-02")},
		{"Total Sales", summary.Total.InexactFloat64()},
		{"Bills", summary.Count},
		{"Average Bill", summary.Average.Round(2).InexactFloat64()},
		{"Highest Bill", summary.Max.InexactFloat64()},
		{"Lowest Bill", summary.Min.InexactFloat64()},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return nil, err
		}
	}

	header := []interface{}{"Bill No", "Time", "Total", "Cash", "UPI"}
	if err := f.SetSheetRow(BillsSheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, b := range bills {
		row := []interface{}{
			fmt.Sprintf("#%d", b.ID),
			b.CreatedAt.In(loc).Format("15:04"),
			b.Total.InexactFloat64(),
			b.Cash.InexactFloat64(),
			b.UPI.InexactFloat64(),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(BillsSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	return f.WriteToBuffer()
}
