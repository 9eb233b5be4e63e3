package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(handler *Handler, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(Recoverer(log))
	r.Use(Timeout)
	r.Use(CORS)

	r.Get("/healthz", handler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/session", handler.Login)
		r.Get("/session", handler.GetSession)
		r.Delete("/session", handler.Logout)

		r.Get("/categories", handler.ListCategories)
		r.Post("/categories", handler.CreateCategory)
		r.Patch("/categories/{id}", handler.UpdateCategory)
		r.Delete("/categories/{id}", handler.DeleteCategory)

		r.Get("/suppliers", handler.ListSuppliers)
		r.Post("/suppliers", handler.CreateSupplier)
		r.Patch("/suppliers/{id}", handler.UpdateSupplier)
		r.Delete("/suppliers/{id}", handler.DeleteSupplier)

		r.Get("/customers", handler.ListCustomers)
		r.Post("/customers", handler.CreateCustomer)
		r.Patch("/customers/{id}", handler.UpdateCustomer)
		r.Delete("/customers/{id}", handler.DeleteCustomer)

		r.Get("/products", handler.ListProducts)
		r.Get("/products/next-id", handler.SuggestProductID)
		r.Post("/products", handler.CreateProduct)
		r.Patch("/products/{id}", handler.UpdateProduct)
		r.Delete("/products/{id}", handler.DeleteProduct)

		r.Post("/sequence/{kind}", handler.NextID)

		r.Get("/invoices", handler.ListInvoices)
		r.Post("/invoices", handler.CreateInvoice)
		r.Get("/invoices/{id}", handler.GetInvoice)
		r.Put("/invoices/{id}", handler.UpdateInvoice)
		r.Delete("/invoices/{id}", handler.DeleteInvoice)

		r.Get("/bills", handler.ListBills)
		r.Post("/bills", handler.CreateBill)
		r.Get("/bills/{id}", handler.GetBill)
		r.Put("/bills/{id}", handler.UpdateBill)
		r.Delete("/bills/{id}", handler.DeleteBill)

		r.Get("/export/products.xlsx", handler.ExportProducts)
		r.Get("/export/invoices.xlsx", handler.ExportInvoices)
		r.Get("/export/bills.xlsx", handler.ExportBills)
	})

	return r
}
