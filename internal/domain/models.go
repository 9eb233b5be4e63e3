package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType distinguishes the two stock-moving document kinds. Invoices
// are sales and decrement stock; bills are purchases and increment it.
type DocumentType string

const (
	DocInvoice DocumentType = "invoice"
	DocBill    DocumentType = "bill"
)

// Sign is the direction a quantity of this document type moves stock in.
func (t DocumentType) Sign() int64 {
	if t == DocBill {
		return 1
	}
	return -1
}

const (
	StatusDraft     = "draft"
	StatusUnpaid    = "unpaid"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
	// Legacy default carried by old bill records. Accepted as-is.
	StatusActive = "active"
)

type Category struct {
	ID           string    `json:"id"`
	CategoryID   string    `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Description  string    `json:"description"`
	CreatedDate  time.Time `json:"created_date"`
}

type Supplier struct {
	ID              string    `json:"id"`
	SupplierID      string    `json:"supplier_id"`
	SupplierName    string    `json:"supplier_name"`
	SupplierPhone   string    `json:"supplier_phone"`
	SupplierEmail   string    `json:"supplier_email"`
	SupplierAddress string    `json:"supplier_address"`
	CreatedDate     time.Time `json:"created_date"`
}

type Customer struct {
	ID              string    `json:"id"`
	CustomerID      string    `json:"customer_id"`
	CustomerName    string    `json:"customer_name"`
	CustomerPhone   string    `json:"customer_phone"`
	CustomerEmail   string    `json:"customer_email"`
	CustomerAddress string    `json:"customer_address"`
	CreatedDate     time.Time `json:"created_date"`
}

type Product struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	CategoryID   string          `json:"category_id"`
	SupplierID   string          `json:"supplier_id"`
	SalesPrice   decimal.Decimal `json:"sales_price"`
	CurrentStock int64           `json:"current_stock"`
	IsActive     bool            `json:"is_active"`
	CreatedDate  time.Time       `json:"created_date"`
}

// LineItem references a product by its business id, not its record id.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type Invoice struct {
	ID          string          `json:"id"`
	InvoiceID   string          `json:"invoice_id"`
	CustomerID  string          `json:"customer_id"`
	UserID      string          `json:"user_id"`
	InvoiceDate string          `json:"invoice_date"`
	Status      string          `json:"status"`
	Items       []LineItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedDate time.Time       `json:"created_date"`
}

type Bill struct {
	ID          string          `json:"id"`
	BillID      string          `json:"bill_id"`
	SupplierID  string          `json:"supplier_id"`
	UserID      string          `json:"user_id"`
	BillDate    string          `json:"bill_date"`
	Status      string          `json:"status"`
	Items       []LineItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedDate time.Time       `json:"created_date"`
}

type Session struct {
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	LoggedInAt  time.Time `json:"logged_in_at"`
}

// RecomputeTotals rewrites every line's subtotal as round2(quantity*unitPrice)
// and returns the lines together with the rounded document total.
func RecomputeTotals(items []LineItem) ([]LineItem, decimal.Decimal) {
	out := make([]LineItem, len(items))
	total := decimal.Zero
	for i, item := range items {
		item.Subtotal = item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)).Round(2)
		total = total.Add(item.Subtotal)
		out[i] = item
	}
	return out, total.Round(2)
}
