package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"grocerymis/internal/domain"
	"grocerymis/internal/store"
)

// Document lifecycle. Ordering matters and mirrors the store of record: the
// stock movement is applied first, then the document itself is written.
// There is no transaction spanning the two writes; an interruption in
// between leaves the ledger ahead of the documents. A multi-writer port must
// wrap both in one transaction boundary.

func (s *Service) ListInvoices(ctx context.Context) ([]domain.Invoice, error) {
	return listAs[domain.Invoice](ctx, s.store, store.Invoices)
}

func (s *Service) GetInvoice(ctx context.Context, recordID string) (domain.Invoice, error) {
	return getAs[domain.Invoice](ctx, s.store, store.Invoices, recordID)
}

func (s *Service) CreateInvoice(ctx context.Context, draft domain.Invoice) (domain.Invoice, error) {
	if draft.InvoiceID == "" {
		n, err := s.seq.NextID(ctx, store.Invoices)
		if err != nil {
			return domain.Invoice{}, err
		}
		draft.InvoiceID = "INV" + strconv.FormatInt(n, 10)
	}
	draft.CreatedDate = s.now()
	draft.Items, draft.TotalAmount = domain.RecomputeTotals(draft.Items)
	if err := s.ledger.ApplyOnCreate(ctx, domain.DocInvoice, draft.Items); err != nil {
		return domain.Invoice{}, fmt.Errorf("apply invoice stock: %w", err)
	}
	stored, err := insertAs(ctx, s.store, store.Invoices, draft)
	if err != nil {
		return domain.Invoice{}, err
	}
	s.log.Info("invoice created",
		zap.String("invoice_id", stored.InvoiceID),
		zap.Int("lines", len(stored.Items)),
		zap.String("total", stored.TotalAmount.String()))
	return stored, nil
}

func (s *Service) UpdateInvoice(ctx context.Context, recordID string, draft domain.Invoice) (domain.Invoice, error) {
	existing, err := getAs[domain.Invoice](ctx, s.store, store.Invoices, recordID)
	if err != nil {
		return domain.Invoice{}, err
	}
	merged := existing
	if draft.InvoiceID != "" {
		merged.InvoiceID = draft.InvoiceID
	}
	merged.CustomerID = draft.CustomerID
	merged.UserID = draft.UserID
	merged.InvoiceDate = draft.InvoiceDate
	merged.Status = draft.Status
	merged.Items, merged.TotalAmount = domain.RecomputeTotals(draft.Items)
	if err := s.ledger.ApplyOnUpdate(ctx, domain.DocInvoice, existing.Items, merged.Items); err != nil {
		return domain.Invoice{}, fmt.Errorf("reconcile invoice stock: %w", err)
	}
	return updateAs(ctx, s.store, store.Invoices, recordID, merged)
}

func (s *Service) DeleteInvoice(ctx context.Context, recordID string) (bool, error) {
	existing, err := getAs[domain.Invoice](ctx, s.store, store.Invoices, recordID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.ledger.ApplyOnDelete(ctx, domain.DocInvoice, existing.Items); err != nil {
		return false, fmt.Errorf("reverse invoice stock: %w", err)
	}
	return s.store.Delete(ctx, store.Invoices, recordID)
}

func (s *Service) ListBills(ctx context.Context) ([]domain.Bill, error) {
	return listAs[domain.Bill](ctx, s.store, store.Bills)
}

func (s *Service) GetBill(ctx context.Context, recordID string) (domain.Bill, error) {
	return getAs[domain.Bill](ctx, s.store, store.Bills, recordID)
}

func (s *Service) CreateBill(ctx context.Context, draft domain.Bill) (domain.Bill, error) {
	if draft.BillID == "" {
		n, err := s.seq.NextID(ctx, store.Bills)
		if err != nil {
			return domain.Bill{}, err
		}
		draft.BillID = "BILL" + strconv.FormatInt(n, 10)
	}
	draft.CreatedDate = s.now()
	draft.Items, draft.TotalAmount = domain.RecomputeTotals(draft.Items)
	if err := s.ledger.ApplyOnCreate(ctx, domain.DocBill, draft.Items); err != nil {
		return domain.Bill{}, fmt.Errorf("apply bill stock: %w", err)
	}
	stored, err := insertAs(ctx, s.store, store.Bills, draft)
	if err != nil {
		return domain.Bill{}, err
	}
	s.log.Info("bill created",
		zap.String("bill_id", stored.BillID),
		zap.Int("lines", len(stored.Items)),
		zap.String("total", stored.TotalAmount.String()))
	return stored, nil
}

func (s *Service) UpdateBill(ctx context.Context, recordID string, draft domain.Bill) (domain.Bill, error) {
	existing, err := getAs[domain.Bill](ctx, s.store, store.Bills, recordID)
	if err != nil {
		return domain.Bill{}, err
	}
	merged := existing
	if draft.BillID != "" {
		merged.BillID = draft.BillID
	}
	merged.SupplierID = draft.SupplierID
	merged.UserID = draft.UserID
	merged.BillDate = draft.BillDate
	merged.Status = draft.Status
	merged.Items, merged.TotalAmount = domain.RecomputeTotals(draft.Items)
	if err := s.ledger.ApplyOnUpdate(ctx, domain.DocBill, existing.Items, merged.Items); err != nil {
		return domain.Bill{}, fmt.Errorf("reconcile bill stock: %w", err)
	}
	return updateAs(ctx, s.store, store.Bills, recordID, merged)
}

func (s *Service) DeleteBill(ctx context.Context, recordID string) (bool, error) {
	existing, err := getAs[domain.Bill](ctx, s.store, store.Bills, recordID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.ledger.ApplyOnDelete(ctx, domain.DocBill, existing.Items); err != nil {
		return false, fmt.Errorf("reverse bill stock: %w", err)
	}
	return s.store.Delete(ctx, store.Bills, recordID)
}
