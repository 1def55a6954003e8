package xlsx

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/Strob0t/rentalmanager/internal/domain/maintenance"
	"github.com/Strob0t/rentalmanager/internal/domain/property"
	"github.com/Strob0t/rentalmanager/internal/domain/tenant"
)

func readRows(t *testing.T, data []byte, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	return rows
}

func TestWriteProperties(t *testing.T) {
	paid := "2024-03-01"
	props := []property.Property{
		{
			Name: "Oak House", Address: "22 Harbor Rd", Type: property.TypeHouse,
			Bedrooms: 3, Bathrooms: 2, Rent: 1800, Status: property.StatusRented, LastPaymentDate: &paid,
			MaintenanceRequests: []maintenance.Request{
				{Status: maintenance.StatusPending},
				{Status: maintenance.StatusCompleted},
			},
		},
	}
	var buf bytes.Buffer
	if err := WriteProperties(&buf, props); err != nil {
		t.Fatal(err)
	}

	rows := readRows(t, buf.Bytes(), "Properties")
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}
	if rows[0][0] != "Name" || len(rows[0]) != len(PropertyHeader) {
		t.Errorf("header = %v", rows[0])
	}
	want := []string{"Oak House", "22 Harbor Rd", "house", "3", "2", "1800", "rented", "2024-03-01", "1"}
	for i, w := range want {
		if rows[1][i] != w {
			t.Errorf("col %d = %q, want %q", i, rows[1][i], w)
		}
	}
}

func TestWriteTenants_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTenants(&buf, nil); err != nil {
		t.Fatal(err)
	}
	rows := readRows(t, buf.Bytes(), "Tenants")
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want header only", len(rows))
	}
}

func TestWriteTenants(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTenants(&buf, []tenant.Row{
		{Tenant: tenant.Tenant{Name: "Ada", Email: "ada@example.com", LeaseStart: "2024-01-01", LeaseEnd: "2024-12-31"}, PropertyName: "Oak House"},
	})
	if err != nil {
		t.Fatal(err)
	}
	rows := readRows(t, buf.Bytes(), "Tenants")
	if rows[1][5] != "Oak House" {
		t.Errorf("property = %q", rows[1][5])
	}
}
