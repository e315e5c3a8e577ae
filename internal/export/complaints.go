// Package export renders complaint lists as spreadsheets for administrators.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"complaint-service/internal/model"
)

const sheetName = "Complaints"

var complaintHeaders = []string{
	"Report Number",
	"Status",
	"Warranty Status",
	"Category",
	"Subcategory",
	"Brand",
	"Customer",
	"Assigned To",
	"Details",
	"Created At",
	"Updated At",
}

var columnWidths = []float64{16, 14, 18, 10, 12, 10, 38, 38, 60, 20, 20}

const timeLayout = "2006-01-02 15:04"

// ComplaintsXLSX writes one row per complaint below a frozen header row.
func ComplaintsXLSX(complaints []model.Complaint) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for col, header := range complaintHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("style header %s: %w", cell, err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetName, name, name, columnWidths[col]); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	for i, c := range complaints {
		assigned := ""
		if c.AssignedTo != nil {
			assigned = c.AssignedTo.String()
		}
		row := []interface{}{
			c.ReportNumber,
			string(c.Status),
			string(c.WarrantyStatus),
			c.CategoryID,
			c.SubcategoryID,
			c.BrandID,
			c.CustomerID.String(),
			assigned,
			c.Details,
			c.CreatedAt.Format(timeLayout),
			c.UpdatedAt.Format(timeLayout),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
