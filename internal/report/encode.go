package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var header = []string{"ID", "Plate Number", "Entry Time", "Exit Time", "Duration"}

// WriteCSV encodes the report as CSV, header first.
func WriteCSV(w io.Writer, rep *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rep.Rows {
		record := []string{
			strconv.FormatUint(uint64(row.ID), 10),
			row.PlateNumber,
			row.EntryTime,
			row.ExitTime,
			row.Duration,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", row.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX encodes the report as an XLSX workbook with a single sheet.
func WriteXLSX(w io.Writer, rep *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	cols := []string{"A", "B", "C", "D", "E"}
	for i, title := range header {
		if err := f.SetCellValue(sheet, cols[i]+"1", title); err != nil {
			return fmt.Errorf("write xlsx header: %w", err)
		}
	}
	for i, row := range rep.Rows {
		line := fmt.Sprint(i + 2)
		f.SetCellValue(sheet, "A"+line, row.ID)
		f.SetCellValue(sheet, "B"+line, row.PlateNumber)
		f.SetCellValue(sheet, "C"+line, row.EntryTime)
		f.SetCellValue(sheet, "D"+line, row.ExitTime)
		f.SetCellValue(sheet, "E"+line, row.Duration)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// XLSXFilename converts a report's suggested CSV filename to its XLSX
// counterpart.
func XLSXFilename(rep *Report) string {
	return strings.TrimSuffix(rep.Filename, ".csv") + ".xlsx"
}
