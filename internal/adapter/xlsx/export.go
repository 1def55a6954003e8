// Package xlsx renders property and tenant lists as Excel workbooks.
package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Strob0t/rentalmanager/internal/domain/maintenance"
	"github.com/Strob0t/rentalmanager/internal/domain/property"
	"github.com/Strob0t/rentalmanager/internal/domain/tenant"
)

// ContentType is the MIME type of the generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PropertyHeader lists the columns of the property export.
var PropertyHeader = []string{
	"Name", "Address", "Type", "Bedrooms", "Bathrooms", "Rent", "Status", "Last Payment", "Open Maintenance",
}

// TenantHeader lists the columns of the tenant export.
var TenantHeader = []string{
	"Name", "Email", "Phone", "Lease Start", "Lease End", "Property",
}

// WriteProperties writes one row per property to w.
func WriteProperties(w io.Writer, props []property.Property) error {
	rows := make([][]any, 0, len(props))
	for i := range props {
		p := &props[i]
		last := ""
		if p.LastPaymentDate != nil {
			last = *p.LastPaymentDate
		}
		open := 0
		for j := range p.MaintenanceRequests {
			if p.MaintenanceRequests[j].Status != maintenance.StatusCompleted {
				open++
			}
		}
		rows = append(rows, []any{
			p.Name, p.Address, string(p.Type), p.Bedrooms, p.Bathrooms, p.Rent, string(p.Status), last, open,
		})
	}
	return write(w, "Properties", PropertyHeader, []float64{24, 36, 12, 10, 10, 12, 14, 14, 16}, rows)
}

// WriteTenants writes one row per tenant to w.
func WriteTenants(w io.Writer, rows []tenant.Row) error {
	out := make([][]any, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		out = append(out, []any{r.Name, r.Email, r.Phone, r.LeaseStart, r.LeaseEnd, r.PropertyName})
	}
	return write(w, "Tenants", TenantHeader, []float64{24, 30, 16, 12, 12, 24}, out)
}

func write(w io.Writer, sheet string, header []string, widths []float64, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
