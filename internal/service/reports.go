package service

import (
	"context"
	"time"

	"importledger/backend/internal/domain"
	"importledger/backend/internal/reconcile"
	"importledger/backend/internal/store"
)

func (s *Service) ContainerInventory(ctx context.Context, containerID string) (domain.ContainerInventoryReport, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return domain.ContainerInventoryReport{}, err
	}
	container, err := s.repo.GetContainer(ctx, companyID, containerID)
	if err != nil {
		return domain.ContainerInventoryReport{}, err
	}
	supplier, err := s.repo.GetSupplier(ctx, companyID, container.SupplierID)
	if err != nil {
		return domain.ContainerInventoryReport{}, err
	}
	sales, err := s.containerSales(ctx, companyID, []string{container.ID})
	if err != nil {
		return domain.ContainerInventoryReport{}, err
	}

	ledger := reconcile.ContainerInventory(*container, sales)
	lines := ledger.Lines()
	return domain.ContainerInventoryReport{
		ContainerID:     container.ID,
		ContainerNumber: container.ContainerNumber,
		Status:          container.Status,
		SupplierID:      supplier.ID,
		SupplierName:    supplier.Name,
		Items:           lines,
		Totals:          reconcile.Totals(lines),
		UnmatchedSales:  ledger.Unmatched(),
	}, nil
}

func (s *Service) SupplierInventory(ctx context.Context, supplierID string) (domain.SupplierInventoryReport, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return domain.SupplierInventoryReport{}, err
	}
	supplier, containers, sales, err := s.supplierScope(ctx, companyID, supplierID)
	if err != nil {
		return domain.SupplierInventoryReport{}, err
	}

	ledger := reconcile.SupplierInventory(containers, sales)
	lines := ledger.Lines()
	return domain.SupplierInventoryReport{
		SupplierID:     supplier.ID,
		SupplierName:   supplier.Name,
		ContainerCount: len(containers),
		Items:          lines,
		Totals:         reconcile.Totals(lines),
		UnmatchedSales: ledger.Unmatched(),
	}, nil
}

func (s *Service) ContainerAttribution(ctx context.Context, containerID string) (domain.ContainerAttributionResponse, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return domain.ContainerAttributionResponse{}, err
	}
	container, err := s.repo.GetContainer(ctx, companyID, containerID)
	if err != nil {
		return domain.ContainerAttributionResponse{}, err
	}
	supplier, err := s.repo.GetSupplier(ctx, companyID, container.SupplierID)
	if err != nil {
		return domain.ContainerAttributionResponse{}, err
	}
	catalogue, err := s.repo.ListSupplierItems(ctx, companyID, supplier.ID)
	if err != nil {
		return domain.ContainerAttributionResponse{}, err
	}

	return domain.ContainerAttributionResponse{
		ContainerID:  container.ID,
		SupplierID:   supplier.ID,
		SupplierName: supplier.Name,
		Items:        reconcile.AttributeContainer(*container, *supplier, catalogue),
	}, nil
}

func (s *Service) ContainerSalesSummary(ctx context.Context, containerID string) (domain.ContainerSalesSummary, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return domain.ContainerSalesSummary{}, err
	}
	container, err := s.repo.GetContainer(ctx, companyID, containerID)
	if err != nil {
		return domain.ContainerSalesSummary{}, err
	}
	sales, err := s.containerSales(ctx, companyID, []string{container.ID})
	if err != nil {
		return domain.ContainerSalesSummary{}, err
	}

	return domain.ContainerSalesSummary{
		ContainerID: container.ID,
		Summary:     reconcile.Summarize(sales),
	}, nil
}

func (s *Service) SupplierSalesSummary(ctx context.Context, supplierID string) (domain.SupplierSalesSummary, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return domain.SupplierSalesSummary{}, err
	}
	supplier, _, sales, err := s.supplierScope(ctx, companyID, supplierID)
	if err != nil {
		return domain.SupplierSalesSummary{}, err
	}

	return domain.SupplierSalesSummary{
		SupplierID:   supplier.ID,
		SupplierName: supplier.Name,
		Summary:      reconcile.Summarize(sales),
	}, nil
}

// SalesReport covers every sale of the company in the inclusive [from, to]
// day window. Empty bounds are open.
func (s *Service) SalesReport(ctx context.Context, from string, to string) (domain.SalesReport, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return domain.SalesReport{}, err
	}
	start, end, toDay, err := parseWindow(from, to)
	if err != nil {
		return domain.SalesReport{}, err
	}
	sales, err := s.repo.ListSales(ctx, store.SaleFilter{CompanyID: companyID, From: start, To: end})
	if err != nil {
		return domain.SalesReport{}, err
	}
	index, err := s.supplierIndex(ctx, companyID)
	if err != nil {
		return domain.SalesReport{}, err
	}

	return reconcile.CompanySalesReport(sales, index, start, toDay), nil
}

func (s *Service) SupplierSalesReport(ctx context.Context, from string, to string) (domain.SupplierSalesReport, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return domain.SupplierSalesReport{}, err
	}
	start, end, toDay, err := parseWindow(from, to)
	if err != nil {
		return domain.SupplierSalesReport{}, err
	}
	sales, err := s.repo.ListSales(ctx, store.SaleFilter{CompanyID: companyID, From: start, To: end})
	if err != nil {
		return domain.SupplierSalesReport{}, err
	}
	index, err := s.supplierIndex(ctx, companyID)
	if err != nil {
		return domain.SupplierSalesReport{}, err
	}

	report := domain.SupplierSalesReport{Suppliers: reconcile.SupplierSales(sales, index)}
	if !start.IsZero() {
		report.From = start.Format(time.DateOnly)
	}
	if !toDay.IsZero() {
		report.To = toDay.Format(time.DateOnly)
	}
	return report, nil
}

func (s *Service) CustomerStatement(ctx context.Context, customerID string) (domain.CustomerStatement, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return domain.CustomerStatement{}, err
	}
	customer, sales, payments, err := s.customerScope(ctx, companyID, customerID)
	if err != nil {
		return domain.CustomerStatement{}, err
	}

	entries := reconcile.Statement(sales, payments)
	return domain.CustomerStatement{
		Customer: *customer,
		Entries:  entries,
		Balance:  reconcile.StatementBalance(entries),
	}, nil
}

func (s *Service) CustomerBalance(ctx context.Context, customerID string) (domain.CustomerBalance, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return domain.CustomerBalance{}, err
	}
	customer, sales, payments, err := s.customerScope(ctx, companyID, customerID)
	if err != nil {
		return domain.CustomerBalance{}, err
	}

	return domain.CustomerBalance{
		CustomerID:       customer.ID,
		Credit:           reconcile.CreditBalance(sales, payments),
		StatementBalance: reconcile.StatementBalance(reconcile.Statement(sales, payments)),
	}, nil
}

// ListCustomersWithBalance reports the credit-only balance for each customer.
func (s *Service) ListCustomersWithBalance(ctx context.Context) ([]domain.CustomerWithBalance, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := s.repo.ListCustomers(ctx, companyID)
	if err != nil {
		return nil, err
	}
	sales, err := s.repo.ListSales(ctx, store.SaleFilter{CompanyID: companyID, SaleType: domain.SaleTypeCredit})
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPayments(ctx, companyID, "")
	if err != nil {
		return nil, err
	}

	salesByCustomer := make(map[string][]domain.Sale, len(customers))
	for _, sale := range sales {
		if sale.CustomerID != "" {
			salesByCustomer[sale.CustomerID] = append(salesByCustomer[sale.CustomerID], sale)
		}
	}
	paymentsByCustomer := make(map[string][]domain.CustomerPayment, len(customers))
	for _, payment := range payments {
		paymentsByCustomer[payment.CustomerID] = append(paymentsByCustomer[payment.CustomerID], payment)
	}

	out := make([]domain.CustomerWithBalance, 0, len(customers))
	for _, customer := range customers {
		balance := reconcile.CreditBalance(salesByCustomer[customer.ID], paymentsByCustomer[customer.ID])
		out = append(out, domain.CustomerWithBalance{
			Customer:      customer,
			CreditBalance: balance.Balance,
		})
	}
	return out, nil
}

func (s *Service) containerSales(ctx context.Context, companyID string, containerIDs []string) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx, store.SaleFilter{
		CompanyID:  companyID,
		SourceType: domain.SaleSourceContainer,
		SourceIDs:  containerIDs,
	})
}

// supplierScope loads a supplier with its containers and every sale made out
// of them. A supplier without containers yields no sales.
func (s *Service) supplierScope(ctx context.Context, companyID string, supplierID string) (*domain.Supplier, []domain.Container, []domain.Sale, error) {
	supplier, err := s.repo.GetSupplier(ctx, companyID, supplierID)
	if err != nil {
		return nil, nil, nil, err
	}
	containers, err := s.repo.ListContainers(ctx, companyID, supplier.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	ids := make([]string, 0, len(containers))
	for _, container := range containers {
		ids = append(ids, container.ID)
	}
	sales, err := s.containerSales(ctx, companyID, ids)
	if err != nil {
		return nil, nil, nil, err
	}
	return supplier, containers, sales, nil
}

func (s *Service) customerScope(ctx context.Context, companyID string, customerID string) (*domain.Customer, []domain.Sale, []domain.CustomerPayment, error) {
	customer, err := s.repo.GetCustomer(ctx, companyID, customerID)
	if err != nil {
		return nil, nil, nil, err
	}
	sales, err := s.repo.ListSales(ctx, store.SaleFilter{CompanyID: companyID, CustomerID: customer.ID})
	if err != nil {
		return nil, nil, nil, err
	}
	payments, err := s.repo.ListPayments(ctx, companyID, customer.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	return customer, sales, payments, nil
}

func (s *Service) supplierIndex(ctx context.Context, companyID string) (reconcile.SupplierIndex, error) {
	suppliers, err := s.repo.ListSuppliers(ctx, companyID)
	if err != nil {
		return reconcile.SupplierIndex{}, err
	}
	items, err := s.repo.ListSupplierItems(ctx, companyID, "")
	if err != nil {
		return reconcile.SupplierIndex{}, err
	}
	return reconcile.NewSupplierIndex(suppliers, items), nil
}
