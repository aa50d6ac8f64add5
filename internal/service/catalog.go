package service

import (
	"context"
	"strings"
	"time"

	"importledger/backend/internal/domain"
	"importledger/backend/internal/store"
)

func (s *Service) CreateSupplier(ctx context.Context, req domain.SupplierCreateRequest) (domain.Supplier, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return domain.Supplier{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Supplier{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreateSupplier(ctx, domain.Supplier{
		CompanyID: companyID,
		Name:      name,
		Phone:     strings.TrimSpace(req.Phone),
		CreatedAt: s.now(),
	})
	if err != nil {
		return domain.Supplier{}, err
	}
	return *created, nil
}

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListSuppliers(ctx, companyID)
}

func (s *Service) GetSupplier(ctx context.Context, supplierID string) (domain.Supplier, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return domain.Supplier{}, err
	}
	supplier, err := s.repo.GetSupplier(ctx, companyID, supplierID)
	if err != nil {
		return domain.Supplier{}, err
	}
	return *supplier, nil
}

func (s *Service) AddSupplierItem(ctx context.Context, supplierID string, req domain.SupplierItemCreateRequest) (domain.SupplierItem, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return domain.SupplierItem{}, err
	}
	name := strings.TrimSpace(req.ItemName)
	if name == "" || req.UnitPrice.IsNegative() {
		return domain.SupplierItem{}, store.ErrInvalidInput
	}
	if _, err := s.repo.GetSupplier(ctx, companyID, supplierID); err != nil {
		return domain.SupplierItem{}, err
	}

	created, err := s.repo.CreateSupplierItem(ctx, domain.SupplierItem{
		CompanyID:  companyID,
		SupplierID: supplierID,
		ItemName:   name,
		UnitPrice:  req.UnitPrice,
		CreatedAt:  s.now(),
	})
	if err != nil {
		return domain.SupplierItem{}, err
	}
	return *created, nil
}

func (s *Service) ListSupplierItems(ctx context.Context, supplierID string) ([]domain.SupplierItem, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetSupplier(ctx, companyID, supplierID); err != nil {
		return nil, err
	}
	return s.repo.ListSupplierItems(ctx, companyID, supplierID)
}

func (s *Service) CreateContainer(ctx context.Context, req domain.ContainerCreateRequest) (domain.Container, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return domain.Container{}, err
	}
	number := strings.TrimSpace(req.ContainerNumber)
	if number == "" || strings.TrimSpace(req.SupplierID) == "" {
		return domain.Container{}, store.ErrInvalidInput
	}

	var arrival time.Time
	if strings.TrimSpace(req.ArrivalDate) != "" {
		arrival, err = time.Parse(time.DateOnly, strings.TrimSpace(req.ArrivalDate))
		if err != nil {
			return domain.Container{}, store.ErrInvalidInput
		}
	}

	items := make([]domain.ContainerItem, 0, len(req.Items))
	for _, input := range req.Items {
		item, err := containerItemFromInput(input)
		if err != nil {
			return domain.Container{}, err
		}
		items = append(items, item)
	}

	if _, err := s.repo.GetSupplier(ctx, companyID, req.SupplierID); err != nil {
		return domain.Container{}, err
	}

	created, err := s.repo.CreateContainer(ctx, domain.Container{
		CompanyID:       companyID,
		SupplierID:      req.SupplierID,
		ContainerNumber: number,
		ArrivalDate:     arrival,
		Status:          domain.ContainerStatusIncomplete,
		CreatedAt:       s.now(),
		Items:           items,
	})
	if err != nil {
		return domain.Container{}, err
	}
	return *created, nil
}

func (s *Service) ListContainers(ctx context.Context, supplierID string) ([]domain.Container, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListContainers(ctx, companyID, supplierID)
}

func (s *Service) GetContainer(ctx context.Context, containerID string) (domain.Container, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return domain.Container{}, err
	}
	container, err := s.repo.GetContainer(ctx, companyID, containerID)
	if err != nil {
		return domain.Container{}, err
	}
	return *container, nil
}

func (s *Service) AddContainerItem(ctx context.Context, containerID string, input domain.ContainerItemInput) (domain.ContainerItem, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return domain.ContainerItem{}, err
	}
	item, err := containerItemFromInput(input)
	if err != nil {
		return domain.ContainerItem{}, err
	}
	item.ContainerID = containerID

	created, err := s.repo.AddContainerItem(ctx, companyID, item)
	if err != nil {
		return domain.ContainerItem{}, err
	}
	return *created, nil
}

// OffloadContainer records received quantities. Without an explicit status the
// container becomes Received once every item has arrived in full, Incomplete
// otherwise.
func (s *Service) OffloadContainer(ctx context.Context, containerID string, req domain.OffloadRequest) (domain.Container, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return domain.Container{}, err
	}
	if len(req.Items) == 0 {
		return domain.Container{}, store.ErrInvalidInput
	}
	if req.Status != nil && !req.Status.Valid() {
		return domain.Container{}, store.ErrInvalidInput
	}

	container, err := s.repo.GetContainer(ctx, companyID, containerID)
	if err != nil {
		return domain.Container{}, err
	}

	received := make(map[string]int64, len(req.Items))
	for _, line := range req.Items {
		if line.ItemID == "" || line.ReceivedQty < 0 {
			return domain.Container{}, store.ErrInvalidInput
		}
		if _, dup := received[line.ItemID]; dup {
			return domain.Container{}, store.ErrInvalidInput
		}
		received[line.ItemID] = line.ReceivedQty
	}

	status := deriveStatus(container.Items, received)
	if req.Status != nil {
		status = *req.Status
	}

	updated, err := s.repo.OffloadContainer(ctx, companyID, containerID, received, status, s.now())
	if err != nil {
		return domain.Container{}, err
	}
	return *updated, nil
}

func (s *Service) UpdateContainerStatus(ctx context.Context, containerID string, status domain.ContainerStatus) (domain.Container, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return domain.Container{}, err
	}
	if !status.Valid() {
		return domain.Container{}, store.ErrInvalidInput
	}
	updated, err := s.repo.UpdateContainerStatus(ctx, companyID, containerID, status)
	if err != nil {
		return domain.Container{}, err
	}
	return *updated, nil
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return domain.Customer{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Customer{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreateCustomer(ctx, domain.Customer{
		CompanyID: companyID,
		Name:      name,
		Phone:     strings.TrimSpace(req.Phone),
		CreatedAt: s.now(),
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return *created, nil
}

func (s *Service) GetCustomer(ctx context.Context, customerID string) (domain.Customer, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return domain.Customer{}, err
	}
	customer, err := s.repo.GetCustomer(ctx, companyID, customerID)
	if err != nil {
		return domain.Customer{}, err
	}
	return *customer, nil
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListCustomers(ctx, companyID)
}

func containerItemFromInput(input domain.ContainerItemInput) (domain.ContainerItem, error) {
	name := strings.TrimSpace(input.ItemName)
	if name == "" || input.ExpectedQty < 0 || input.UnitPrice.IsNegative() {
		return domain.ContainerItem{}, store.ErrInvalidInput
	}
	return domain.ContainerItem{
		ItemName:    name,
		ExpectedQty: input.ExpectedQty,
		UnitPrice:   input.UnitPrice,
	}, nil
}

func deriveStatus(items []domain.ContainerItem, received map[string]int64) domain.ContainerStatus {
	for _, item := range items {
		qty := item.ReceivedQty
		if updated, ok := received[item.ID]; ok {
			qty = updated
		}
		if qty < item.ExpectedQty {
			return domain.ContainerStatusIncomplete
		}
	}
	return domain.ContainerStatusReceived
}
