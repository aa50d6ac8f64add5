package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"importledger/backend/internal/domain"
	"importledger/backend/internal/reconcile"
	"importledger/backend/internal/store"
)

func (s *Service) RecordSale(ctx context.Context, req domain.SaleCreateRequest) (domain.SaleResponse, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return domain.SaleResponse{}, err
	}

	req.SaleType = strings.ToLower(strings.TrimSpace(req.SaleType))
	req.SourceType = strings.ToLower(strings.TrimSpace(req.SourceType))
	req.SourceID = strings.TrimSpace(req.SourceID)
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	if req.SourceType == "" {
		req.SourceType = domain.SaleSourceOther
	}

	if req.SaleType != domain.SaleTypeCash && req.SaleType != domain.SaleTypeCredit {
		return domain.SaleResponse{}, fmt.Errorf("%w: sale_type must be cash or credit", store.ErrInvalidInput)
	}
	if req.SaleType == domain.SaleTypeCredit && req.CustomerID == "" {
		return domain.SaleResponse{}, fmt.Errorf("%w: credit sale requires a customer", store.ErrInvalidInput)
	}
	if req.SourceType != domain.SaleSourceContainer && req.SourceType != domain.SaleSourceOther {
		return domain.SaleResponse{}, fmt.Errorf("%w: unknown source_type", store.ErrInvalidInput)
	}
	if req.SourceType == domain.SaleSourceContainer && req.SourceID == "" {
		return domain.SaleResponse{}, fmt.Errorf("%w: container sale requires source_id", store.ErrInvalidInput)
	}

	items, err := saleItemsFromInput(req.Items)
	if err != nil {
		return domain.SaleResponse{}, err
	}

	if req.SourceType == domain.SaleSourceContainer {
		if _, err := s.repo.GetContainer(ctx, companyID, req.SourceID); err != nil {
			return domain.SaleResponse{}, err
		}
	}
	if req.CustomerID != "" {
		if _, err := s.repo.GetCustomer(ctx, companyID, req.CustomerID); err != nil {
			return domain.SaleResponse{}, err
		}
	}

	claimKey, existingID, err := s.claimIdempotency(ctx, "sale", companyID, req.IdempotencyKey)
	if err != nil {
		return domain.SaleResponse{}, err
	}
	if existingID != "" {
		existing, err := s.repo.GetSale(ctx, companyID, existingID)
		if err != nil {
			return domain.SaleResponse{}, err
		}
		return domain.SaleResponse{Sale: *existing, Duplicate: true}, nil
	}

	created, err := s.repo.CreateSale(ctx, domain.Sale{
		CompanyID:   companyID,
		SaleType:    req.SaleType,
		SourceType:  req.SourceType,
		SourceID:    req.SourceID,
		CustomerID:  req.CustomerID,
		TotalAmount: reconcile.SaleTotal(items),
		CreatedAt:   s.now(),
		Items:       items,
	})
	if err != nil {
		s.releaseIdempotency(ctx, claimKey)
		return domain.SaleResponse{}, err
	}
	s.rememberIdempotency(ctx, claimKey, created.ID)

	s.log.Info("sale recorded",
		zap.String("company_id", companyID),
		zap.String("sale_id", created.ID),
		zap.String("sale_type", created.SaleType),
		zap.String("source_type", created.SourceType),
		zap.Stringer("total_amount", created.TotalAmount),
	)
	return domain.SaleResponse{Sale: *created}, nil
}

func (s *Service) GetSale(ctx context.Context, saleID string) (domain.Sale, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return domain.Sale{}, err
	}
	sale, err := s.repo.GetSale(ctx, companyID, saleID)
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

func (s *Service) ListSales(ctx context.Context, from string, to string) ([]domain.Sale, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return nil, err
	}
	start, end, _, err := parseWindow(from, to)
	if err != nil {
		return nil, err
	}
	return s.repo.ListSales(ctx, store.SaleFilter{CompanyID: companyID, From: start, To: end})
}

// OverrideSaleTotal replaces a stored sale total. The caller is responsible for
// having checked the override PIN.
func (s *Service) OverrideSaleTotal(ctx context.Context, saleID string, req domain.SaleTotalOverrideRequest) (domain.Sale, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return domain.Sale{}, err
	}
	if req.Recompute == (req.TotalAmount != nil) {
		return domain.Sale{}, fmt.Errorf("%w: give either total_amount or recompute", store.ErrInvalidInput)
	}
	if req.TotalAmount != nil && req.TotalAmount.IsNegative() {
		return domain.Sale{}, fmt.Errorf("%w: total_amount must not be negative", store.ErrInvalidInput)
	}

	sale, err := s.repo.GetSale(ctx, companyID, saleID)
	if err != nil {
		return domain.Sale{}, err
	}

	total := reconcile.SaleTotal(sale.Items)
	if req.TotalAmount != nil {
		total = *req.TotalAmount
	}

	updated, err := s.repo.UpdateSaleTotal(ctx, companyID, saleID, total)
	if err != nil {
		return domain.Sale{}, err
	}

	actor, _ := ActorFromContext(ctx)
	s.log.Warn("sale total overridden",
		zap.String("company_id", companyID),
		zap.String("sale_id", saleID),
		zap.String("actor", actor.Subject),
		zap.Stringer("previous_total", sale.TotalAmount),
		zap.Stringer("new_total", updated.TotalAmount),
		zap.Bool("recomputed", req.Recompute),
	)
	return *updated, nil
}

func (s *Service) RecordPayment(ctx context.Context, customerID string, req domain.PaymentCreateRequest) (domain.PaymentResponse, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return domain.PaymentResponse{}, err
	}
	if !req.Amount.IsPositive() {
		return domain.PaymentResponse{}, fmt.Errorf("%w: amount must be positive", store.ErrInvalidInput)
	}
	if _, err := s.repo.GetCustomer(ctx, companyID, customerID); err != nil {
		return domain.PaymentResponse{}, err
	}

	claimKey, existingID, err := s.claimIdempotency(ctx, "payment", companyID, req.IdempotencyKey)
	if err != nil {
		return domain.PaymentResponse{}, err
	}
	if existingID != "" {
		existing, err := s.repo.GetPayment(ctx, companyID, existingID)
		if err != nil {
			return domain.PaymentResponse{}, err
		}
		return domain.PaymentResponse{Payment: *existing, Duplicate: true}, nil
	}

	created, err := s.repo.CreatePayment(ctx, domain.CustomerPayment{
		CompanyID:  companyID,
		CustomerID: customerID,
		Amount:     req.Amount,
		Note:       strings.TrimSpace(req.Note),
		CreatedAt:  s.now(),
	})
	if err != nil {
		s.releaseIdempotency(ctx, claimKey)
		return domain.PaymentResponse{}, err
	}
	s.rememberIdempotency(ctx, claimKey, created.ID)

	s.log.Info("payment recorded",
		zap.String("company_id", companyID),
		zap.String("customer_id", customerID),
		zap.String("payment_id", created.ID),
		zap.Stringer("amount", created.Amount),
	)
	return domain.PaymentResponse{Payment: *created}, nil
}

func (s *Service) ListCustomerPayments(ctx context.Context, customerID string) ([]domain.CustomerPayment, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetCustomer(ctx, companyID, customerID); err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, companyID, customerID)
}

func saleItemsFromInput(inputs []domain.SaleItemInput) ([]domain.SaleItem, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: sale needs at least one item", store.ErrInvalidInput)
	}
	items := make([]domain.SaleItem, 0, len(inputs))
	for _, input := range inputs {
		name := strings.TrimSpace(input.ItemName)
		if name == "" || input.Quantity < 1 || input.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: invalid sale item %q", store.ErrInvalidInput, input.ItemName)
		}
		items = append(items, domain.SaleItem{
			ItemName:  name,
			Quantity:  input.Quantity,
			UnitPrice: input.UnitPrice,
		})
	}
	return items, nil
}

// claimIdempotency returns the claim to settle after the write, or the id of
// the resource an earlier request already created under the same key. An
// empty key disables the guard.
func (s *Service) claimIdempotency(ctx context.Context, scope string, companyID string, key string) (claimKey string, existingID string, err error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", nil
	}
	claimKey = scope + ":" + companyID + ":" + key

	claimed, err := s.idempotency.Claim(ctx, claimKey, s.idempotencyTTL)
	if err != nil {
		s.log.Warn("idempotency claim failed, continuing unguarded", zap.String("key", claimKey), zap.Error(err))
		return "", "", nil
	}
	if claimed {
		return claimKey, "", nil
	}

	entry, err := s.idempotency.Lookup(ctx, claimKey)
	if err != nil {
		return "", "", fmt.Errorf("lookup idempotency key: %w", err)
	}
	if entry == nil || entry.Pending || entry.ResourceID == "" {
		return "", "", store.ErrDuplicateRequest
	}
	return "", entry.ResourceID, nil
}

func (s *Service) rememberIdempotency(ctx context.Context, claimKey string, resourceID string) {
	if claimKey == "" {
		return
	}
	if err := s.idempotency.Remember(ctx, claimKey, resourceID, s.idempotencyTTL); err != nil {
		s.log.Warn("failed to remember idempotency key", zap.String("key", claimKey), zap.String("resource_id", resourceID), zap.Error(err))
	}
}

func (s *Service) releaseIdempotency(ctx context.Context, claimKey string) {
	if claimKey == "" {
		return
	}
	if err := s.idempotency.Release(ctx, claimKey); err != nil {
		s.log.Warn("failed to release idempotency key", zap.String("key", claimKey), zap.Error(err))
	}
}
