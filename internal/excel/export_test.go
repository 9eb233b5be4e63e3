package excel_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"grocerymis/internal/domain"
	"grocerymis/internal/excel"
)

func TestWriteProducts(t *testing.T) {
	products := []domain.Product{
		{
			ProductID:    "P1",
			ProductName:  "Rice 5kg",
			CategoryID:   "1",
			SalesPrice:   decimal.NewFromFloat(12.50),
			CurrentStock: 40,
			IsActive:     true,
			CreatedDate:  time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		},
		{ProductID: "P2", ProductName: "Salt"},
	}

	var buf bytes.Buffer
	if err := excel.WriteProducts(&buf, products); err != nil {
		t.Fatalf("WriteProducts: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 1 || got[0] != "Products" {
		t.Fatalf("sheets = %v, want [Products]", got)
	}
	cells := map[string]string{
		"A1": "Product ID",
		"B1": "Name",
		"A2": "P1",
		"B2": "Rice 5kg",
		"F2": "40",
		"H2": "2026-03-01 09:30",
		"A3": "P2",
	}
	for cell, want := range cells {
		got, err := f.GetCellValue("Products", cell)
		if err != nil {
			t.Fatalf("read %s: %v", cell, err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", cell, got, want)
		}
	}
}

func TestWriteInvoicesEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := excel.WriteInvoices(&buf, nil); err != nil {
		t.Fatalf("WriteInvoices: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	got, err := f.GetCellValue("Invoices", "A1")
	if err != nil {
		t.Fatalf("read A1: %v", err)
	}
	if got != "Invoice ID" {
		t.Fatalf("A1 = %q, want %q", got, "Invoice ID")
	}
}

func TestWriteBillsRow(t *testing.T) {
	bills := []domain.Bill{
		{
			BillID:      "BILL7",
			SupplierID:  "2",
			BillDate:    "2026-04-10",
			Status:      "unpaid",
			Items:       []domain.LineItem{{ProductID: "P1", Quantity: 3}},
			TotalAmount: decimal.NewFromInt(45),
		},
	}

	var buf bytes.Buffer
	if err := excel.WriteBills(&buf, bills); err != nil {
		t.Fatalf("WriteBills: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	for cell, want := range map[string]string{"A2": "BILL7", "D2": "unpaid", "E2": "1", "F2": "45"} {
		got, err := f.GetCellValue("Bills", cell)
		if err != nil {
			t.Fatalf("read %s: %v", cell, err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", cell, got, want)
		}
	}
}
