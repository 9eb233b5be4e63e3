// Package excel renders register exports as xlsx workbooks.
package excel

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"grocerymis/internal/domain"
)

// WriteProducts writes the product register to w, one row per product.
func WriteProducts(w io.Writer, products []domain.Product) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Products"
	if err := renameDefaultSheet(f, sheet); err != nil {
		return err
	}
	headers := []string{"Product ID", "Name", "Category ID", "Supplier ID", "Sales Price", "Current Stock", "Active", "Created"}
	if err := writeHeader(f, sheet, headers); err != nil {
		return err
	}
	for i, p := range products {
		row := i + 2
		setRow(f, sheet, row,
			p.ProductID,
			p.ProductName,
			p.CategoryID,
			p.SupplierID,
			p.SalesPrice.InexactFloat64(),
			p.CurrentStock,
			p.IsActive,
			formatDate(p.CreatedDate),
		)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write products workbook: %w", err)
	}
	return nil
}

// WriteInvoices writes the invoice register, one row per document.
func WriteInvoices(w io.Writer, invoices []domain.Invoice) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Invoices"
	if err := renameDefaultSheet(f, sheet); err != nil {
		return err
	}
	headers := []string{"Invoice ID", "Customer ID", "Invoice Date", "Status", "Lines", "Total Amount", "Created"}
	if err := writeHeader(f, sheet, headers); err != nil {
		return err
	}
	for i, inv := range invoices {
		row := i + 2
		setRow(f, sheet, row,
			inv.InvoiceID,
			inv.CustomerID,
			inv.InvoiceDate,
			inv.Status,
			len(inv.Items),
			inv.TotalAmount.InexactFloat64(),
			formatDate(inv.CreatedDate),
		)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write invoices workbook: %w", err)
	}
	return nil
}

// WriteBills writes the bill register, one row per document.
func WriteBills(w io.Writer, bills []domain.Bill) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Bills"
	if err := renameDefaultSheet(f, sheet); err != nil {
		return err
	}
	headers := []string{"Bill ID", "Supplier ID", "Bill Date", "Status", "Lines", "Total Amount", "Created"}
	if err := writeHeader(f, sheet, headers); err != nil {
		return err
	}
	for i, bill := range bills {
		row := i + 2
		setRow(f, sheet, row,
			bill.BillID,
			bill.SupplierID,
			bill.BillDate,
			bill.Status,
			len(bill.Items),
			bill.TotalAmount.InexactFloat64(),
			formatDate(bill.CreatedDate),
		)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write bills workbook: %w", err)
	}
	return nil
}

func renameDefaultSheet(f *excelize.File, name string) error {
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("write header %q: %w", header, err)
		}
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return fmt.Errorf("header range: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values ...any) {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			continue
		}
		_ = f.SetCellValue(sheet, cell, value)
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
