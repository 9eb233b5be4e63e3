package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"grocerymis/internal/domain"
	"grocerymis/internal/excel"
	"grocerymis/internal/service"
	"grocerymis/internal/session"
	"grocerymis/internal/store"
)

type Handler struct {
	svc      *service.Service
	sessions *session.Manager
	validate *validator.Validate
	log      *zap.Logger
}

func NewHandler(svc *service.Service, sessions *session.Manager, log *zap.Logger) *Handler {
	return &Handler{
		svc:      svc,
		sessions: sessions,
		validate: validator.New(),
		log:      log,
	}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login records the local session flag. Any non-empty credentials are
// accepted; this is a convenience gate, not authentication.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	sess := domain.Session{
		Username:    req.Username,
		DisplayName: req.Username,
		LoggedInAt:  time.Now().UTC(),
	}
	if err := h.sessions.Set(r.Context(), sess); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": sess, "active": sess != nil})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type categoryRequest struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name" validate:"required"`
	Description  string `json:"description"`
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListCategories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !h.decode(w, r, &req) {
		return
	}
	created, err := h.svc.CreateCategory(r.Context(), domain.Category{
		CategoryID:   req.CategoryID,
		CategoryName: req.CategoryName,
		Description:  req.Description,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !h.decode(w, r, &req) {
		return
	}
	updated, err := h.svc.UpdateCategory(r.Context(), chi.URLParam(r, "id"), domain.Category{
		CategoryID:   req.CategoryID,
		CategoryName: req.CategoryName,
		Description:  req.Description,
	})
	if err != nil {
		h.writeServiceError(w, err, "category not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.svc.DeleteCategory)
}

type supplierRequest struct {
	SupplierID      string `json:"supplier_id"`
	SupplierName    string `json:"supplier_name" validate:"required"`
	SupplierPhone   string `json:"supplier_phone"`
	SupplierEmail   string `json:"supplier_email"`
	SupplierAddress string `json:"supplier_address"`
}

func (h *Handler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListSuppliers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *Handler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if !h.decode(w, r, &req) {
		return
	}
	created, err := h.svc.CreateSupplier(r.Context(), supplierFromRequest(req))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if !h.decode(w, r, &req) {
		return
	}
	updated, err := h.svc.UpdateSupplier(r.Context(), chi.URLParam(r, "id"), supplierFromRequest(req))
	if err != nil {
		h.writeServiceError(w, err, "supplier not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.svc.DeleteSupplier)
}

func supplierFromRequest(req supplierRequest) domain.Supplier {
	return domain.Supplier{
		SupplierID:      req.SupplierID,
		SupplierName:    req.SupplierName,
		SupplierPhone:   req.SupplierPhone,
		SupplierEmail:   req.SupplierEmail,
		SupplierAddress: req.SupplierAddress,
	}
}

type customerRequest struct {
	CustomerID      string `json:"customer_id"`
	CustomerName    string `json:"customer_name" validate:"required"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerEmail   string `json:"customer_email"`
	CustomerAddress string `json:"customer_address"`
}

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListCustomers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if !h.decode(w, r, &req) {
		return
	}
	created, err := h.svc.CreateCustomer(r.Context(), customerFromRequest(req))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if !h.decode(w, r, &req) {
		return
	}
	updated, err := h.svc.UpdateCustomer(r.Context(), chi.URLParam(r, "id"), customerFromRequest(req))
	if err != nil {
		h.writeServiceError(w, err, "customer not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.svc.DeleteCustomer)
}

func customerFromRequest(req customerRequest) domain.Customer {
	return domain.Customer{
		CustomerID:      req.CustomerID,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		CustomerAddress: req.CustomerAddress,
	}
}

type productRequest struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name" validate:"required"`
	CategoryID   string          `json:"category_id"`
	SupplierID   string          `json:"supplier_id"`
	SalesPrice   decimal.Decimal `json:"sales_price"`
	CurrentStock int64           `json:"current_stock"`
	IsActive     bool            `json:"is_active"`
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListProducts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *Handler) SuggestProductID(w http.ResponseWriter, r *http.Request) {
	next, err := h.svc.SuggestProductID(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"next_id": next})
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !h.decode(w, r, &req) {
		return
	}
	created, err := h.svc.CreateProduct(r.Context(), productFromRequest(req))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !h.decode(w, r, &req) {
		return
	}
	updated, err := h.svc.UpdateProduct(r.Context(), chi.URLParam(r, "id"), productFromRequest(req))
	if err != nil {
		h.writeServiceError(w, err, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.svc.DeleteProduct)
}

func productFromRequest(req productRequest) domain.Product {
	return domain.Product{
		ProductID:    req.ProductID,
		ProductName:  req.ProductName,
		CategoryID:   req.CategoryID,
		SupplierID:   req.SupplierID,
		SalesPrice:   req.SalesPrice,
		CurrentStock: req.CurrentStock,
		IsActive:     req.IsActive,
	}
}

// allocatorKinds are the kinds served by the persistent sequence allocator.
// The allocator itself panics on misuse, so the URL value is checked here.
var allocatorKinds = map[string]store.Kind{
	"categories": store.Categories,
	"suppliers":  store.Suppliers,
	"customers":  store.Customers,
	"invoices":   store.Invoices,
	"bills":      store.Bills,
}

func (h *Handler) NextID(w http.ResponseWriter, r *http.Request) {
	kind, ok := allocatorKinds[chi.URLParam(r, "kind")]
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid counter kind: %s", chi.URLParam(r, "kind")))
		return
	}
	next, err := h.svc.NextID(r.Context(), kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"next_id": next})
}

type invoiceRequest struct {
	InvoiceID   string            `json:"invoice_id"`
	CustomerID  string            `json:"customer_id"`
	UserID      string            `json:"user_id"`
	InvoiceDate string            `json:"invoice_date"`
	Status      string            `json:"status"`
	Items       []domain.LineItem `json:"items"`
}

func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListInvoices(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	invoice, err := h.svc.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err, "invoice not found")
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if !h.decode(w, r, &req) {
		return
	}
	created, err := h.svc.CreateInvoice(r.Context(), invoiceFromRequest(req))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if !h.decode(w, r, &req) {
		return
	}
	updated, err := h.svc.UpdateInvoice(r.Context(), chi.URLParam(r, "id"), invoiceFromRequest(req))
	if err != nil {
		h.writeServiceError(w, err, "invoice not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.svc.DeleteInvoice)
}

func invoiceFromRequest(req invoiceRequest) domain.Invoice {
	return domain.Invoice{
		InvoiceID:   req.InvoiceID,
		CustomerID:  req.CustomerID,
		UserID:      req.UserID,
		InvoiceDate: req.InvoiceDate,
		Status:      req.Status,
		Items:       req.Items,
	}
}

type billRequest struct {
	BillID     string            `json:"bill_id"`
	SupplierID string            `json:"supplier_id"`
	UserID     string            `json:"user_id"`
	BillDate   string            `json:"bill_date"`
	Status     string            `json:"status"`
	Items      []domain.LineItem `json:"items"`
}

func (h *Handler) ListBills(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListBills(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	bill, err := h.svc.GetBill(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err, "bill not found")
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func (h *Handler) CreateBill(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if !h.decode(w, r, &req) {
		return
	}
	created, err := h.svc.CreateBill(r.Context(), billFromRequest(req))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateBill(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if !h.decode(w, r, &req) {
		return
	}
	updated, err := h.svc.UpdateBill(r.Context(), chi.URLParam(r, "id"), billFromRequest(req))
	if err != nil {
		h.writeServiceError(w, err, "bill not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteBill(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.svc.DeleteBill)
}

func billFromRequest(req billRequest) domain.Bill {
	return domain.Bill{
		BillID:     req.BillID,
		SupplierID: req.SupplierID,
		UserID:     req.UserID,
		BillDate:   req.BillDate,
		Status:     req.Status,
		Items:      req.Items,
	}
}

func (h *Handler) ExportProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.ListProducts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeWorkbook(w, "products.xlsx", func(w http.ResponseWriter) error {
		return excel.WriteProducts(w, products)
	})
}

func (h *Handler) ExportInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.svc.ListInvoices(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeWorkbook(w, "invoices.xlsx", func(w http.ResponseWriter) error {
		return excel.WriteInvoices(w, invoices)
	})
}

func (h *Handler) ExportBills(w http.ResponseWriter, r *http.Request) {
	bills, err := h.svc.ListBills(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeWorkbook(w, "bills.xlsx", func(w http.ResponseWriter) error {
		return excel.WriteBills(w, bills)
	})
}

// decode reads the JSON body into dst and runs struct validation. It writes
// the error response itself and reports whether the handler may continue.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *Handler) deleteByID(w http.ResponseWriter, r *http.Request, del func(ctx context.Context, id string) (bool, error)) {
	removed, err := del(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": removed})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, notFoundMsg string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, notFoundMsg)
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeWorkbook(w http.ResponseWriter, filename string, write func(http.ResponseWriter) error) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	// Headers are already on the wire; a mid-stream failure truncates the file.
	_ = write(w)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
