package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"importledger/backend/internal/domain"
	"importledger/backend/internal/store"
	"importledger/backend/internal/xid"
)

type Store struct {
	mu            sync.RWMutex
	suppliersByID map[string]domain.Supplier
	supplierItems []domain.SupplierItem
	containerByID map[string]domain.Container
	containerIDs  []string
	customersByID map[string]domain.Customer
	customerIDs   []string
	salesByID     map[string]domain.Sale
	saleIDs       []string
	payments      []domain.CustomerPayment
	supplierIDs   []string
}

func New() *Store {
	return &Store{
		suppliersByID: make(map[string]domain.Supplier),
		containerByID: make(map[string]domain.Container),
		customersByID: make(map[string]domain.Customer),
		salesByID:     make(map[string]domain.Sale),
	}
}

// NewSeeded returns a store holding one demo company, used when no database
// is configured.
func NewSeeded(companyID string) *Store {
	s := New()
	ctx := context.Background()
	base := time.Now().UTC().AddDate(0, 0, -14).Truncate(time.Hour)

	textiles, _ := s.CreateSupplier(ctx, domain.Supplier{CompanyID: companyID, Name: "Anatolia Textiles", Phone: "+90 212 555 0101", CreatedAt: base})
	harbor, _ := s.CreateSupplier(ctx, domain.Supplier{CompanyID: companyID, Name: "Harbor Goods", Phone: "+971 4 555 0199", CreatedAt: base.Add(time.Minute)})

	for i, name := range []string{"Red Shoes", "Leather Belt", "Wool Scarf"} {
		_, _ = s.CreateSupplierItem(ctx, domain.SupplierItem{CompanyID: companyID, SupplierID: textiles.ID, ItemName: name, UnitPrice: decimal.NewFromInt(int64(12 + 3*i)), CreatedAt: base.Add(time.Duration(i) * time.Second)})
	}
	for i, name := range []string{"Blue Hat", "Umbrella"} {
		_, _ = s.CreateSupplierItem(ctx, domain.SupplierItem{CompanyID: companyID, SupplierID: harbor.ID, ItemName: name, UnitPrice: decimal.NewFromInt(int64(6 + 2*i)), CreatedAt: base.Add(time.Minute + time.Duration(i)*time.Second)})
	}

	offloadedAt := base.AddDate(0, 0, 2)
	container, _ := s.CreateContainer(ctx, domain.Container{
		CompanyID:       companyID,
		SupplierID:      textiles.ID,
		ContainerNumber: "MSKU-4410021",
		ArrivalDate:     base.AddDate(0, 0, 1),
		Status:          domain.ContainerStatusIncomplete,
		CreatedAt:       base,
		Items: []domain.ContainerItem{
			{ItemName: "Red Shoes", ExpectedQty: 100, ReceivedQty: 90, UnitPrice: decimal.NewFromInt(12), OffloadedAt: &offloadedAt},
			{ItemName: "Leather Belt", ExpectedQty: 40, ReceivedQty: 40, UnitPrice: decimal.NewFromInt(15), OffloadedAt: &offloadedAt},
			{ItemName: "Silk Tie", ExpectedQty: 25, ReceivedQty: 25, UnitPrice: decimal.NewFromInt(9), OffloadedAt: &offloadedAt},
		},
	})

	customer, _ := s.CreateCustomer(ctx, domain.Customer{CompanyID: companyID, Name: "Kemal Market", Phone: "+90 532 555 0133", CreatedAt: base})
	items := []domain.SaleItem{
		{ItemName: "red shoes", Quantity: 30, UnitPrice: decimal.NewFromInt(20)},
		{ItemName: "Leather belt", Quantity: 5, UnitPrice: decimal.NewFromInt(25)},
	}
	_, _ = s.CreateSale(ctx, domain.Sale{
		CompanyID:   companyID,
		SaleType:    domain.SaleTypeCredit,
		SourceType:  domain.SaleSourceContainer,
		SourceID:    container.ID,
		CustomerID:  customer.ID,
		TotalAmount: decimal.NewFromInt(725),
		CreatedAt:   base.AddDate(0, 0, 3),
		Items:       items,
	})
	_, _ = s.CreatePayment(ctx, domain.CustomerPayment{
		CompanyID:  companyID,
		CustomerID: customer.ID,
		Amount:     decimal.NewFromInt(300),
		Note:       "bank transfer",
		CreatedAt:  base.AddDate(0, 0, 5),
	})
	return s
}

func (s *Store) CreateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.CompanyID == "" || supplier.Name == "" {
		return nil, store.ErrInvalidInput
	}
	if supplier.ID == "" {
		supplier.ID = xid.New("sup")
	}
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.suppliersByID[supplier.ID]; exists {
		return nil, store.ErrInvalidInput
	}
	s.suppliersByID[supplier.ID] = supplier
	s.supplierIDs = append(s.supplierIDs, supplier.ID)

	saved := supplier
	return &saved, nil
}

func (s *Store) GetSupplier(_ context.Context, companyID string, supplierID string) (*domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	supplier, ok := s.suppliersByID[supplierID]
	if !ok || supplier.CompanyID != companyID {
		return nil, store.ErrNotFound
	}
	return &supplier, nil
}

func (s *Store) ListSuppliers(_ context.Context, companyID string) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Supplier, 0, len(s.supplierIDs))
	for _, id := range s.supplierIDs {
		supplier := s.suppliersByID[id]
		if supplier.CompanyID == companyID {
			result = append(result, supplier)
		}
	}
	return result, nil
}

func (s *Store) CreateSupplierItem(_ context.Context, item domain.SupplierItem) (*domain.SupplierItem, error) {
	if item.CompanyID == "" || item.SupplierID == "" || strings.TrimSpace(item.ItemName) == "" {
		return nil, store.ErrInvalidInput
	}
	if item.ID == "" {
		item.ID = xid.New("si")
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	supplier, ok := s.suppliersByID[item.SupplierID]
	if !ok || supplier.CompanyID != item.CompanyID {
		return nil, store.ErrNotFound
	}
	s.supplierItems = append(s.supplierItems, item)

	saved := item
	return &saved, nil
}

func (s *Store) ListSupplierItems(_ context.Context, companyID string, supplierID string) ([]domain.SupplierItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.SupplierItem, 0, len(s.supplierItems))
	for _, item := range s.supplierItems {
		if item.CompanyID != companyID {
			continue
		}
		if supplierID != "" && item.SupplierID != supplierID {
			continue
		}
		result = append(result, item)
	}
	slices.SortStableFunc(result, func(a, b domain.SupplierItem) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return result, nil
}

func (s *Store) CreateContainer(_ context.Context, container domain.Container) (*domain.Container, error) {
	container.ContainerNumber = strings.TrimSpace(container.ContainerNumber)
	if container.CompanyID == "" || container.SupplierID == "" || container.ContainerNumber == "" {
		return nil, store.ErrInvalidInput
	}
	if container.ID == "" {
		container.ID = xid.New("ctr")
	}
	if container.CreatedAt.IsZero() {
		container.CreatedAt = time.Now().UTC()
	}
	if container.Status == "" {
		container.Status = domain.ContainerStatusIncomplete
	}
	items := make([]domain.ContainerItem, 0, len(container.Items))
	for _, item := range container.Items {
		if item.ID == "" {
			item.ID = xid.New("ci")
		}
		item.ContainerID = container.ID
		items = append(items, item)
	}
	container.Items = items

	s.mu.Lock()
	defer s.mu.Unlock()
	supplier, ok := s.suppliersByID[container.SupplierID]
	if !ok || supplier.CompanyID != container.CompanyID {
		return nil, store.ErrNotFound
	}
	if _, exists := s.containerByID[container.ID]; exists {
		return nil, store.ErrInvalidInput
	}
	s.containerByID[container.ID] = container
	s.containerIDs = append(s.containerIDs, container.ID)

	saved := cloneContainer(container)
	return &saved, nil
}

func (s *Store) GetContainer(_ context.Context, companyID string, containerID string) (*domain.Container, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	container, ok := s.containerByID[containerID]
	if !ok || container.CompanyID != companyID {
		return nil, store.ErrNotFound
	}
	saved := cloneContainer(container)
	return &saved, nil
}

func (s *Store) ListContainers(_ context.Context, companyID string, supplierID string) ([]domain.Container, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Container, 0, len(s.containerIDs))
	for _, id := range s.containerIDs {
		container := s.containerByID[id]
		if container.CompanyID != companyID {
			continue
		}
		if supplierID != "" && container.SupplierID != supplierID {
			continue
		}
		result = append(result, cloneContainer(container))
	}
	return result, nil
}

func (s *Store) AddContainerItem(_ context.Context, companyID string, item domain.ContainerItem) (*domain.ContainerItem, error) {
	if strings.TrimSpace(item.ItemName) == "" || item.ExpectedQty < 0 {
		return nil, store.ErrInvalidInput
	}
	if item.ID == "" {
		item.ID = xid.New("ci")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	container, ok := s.containerByID[item.ContainerID]
	if !ok || container.CompanyID != companyID {
		return nil, store.ErrNotFound
	}
	container.Items = append(cloneContainer(container).Items, item)
	s.containerByID[container.ID] = container

	saved := item
	return &saved, nil
}

func (s *Store) OffloadContainer(_ context.Context, companyID string, containerID string, received map[string]int64, status domain.ContainerStatus, at time.Time) (*domain.Container, error) {
	if !status.Valid() {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	container, ok := s.containerByID[containerID]
	if !ok || container.CompanyID != companyID {
		return nil, store.ErrNotFound
	}

	updated := cloneContainer(container)
	matched := 0
	for i := range updated.Items {
		qty, ok := received[updated.Items[i].ID]
		if !ok {
			continue
		}
		if qty < 0 {
			return nil, store.ErrInvalidInput
		}
		offloadedAt := at
		updated.Items[i].ReceivedQty = qty
		updated.Items[i].OffloadedAt = &offloadedAt
		matched++
	}
	if matched != len(received) {
		return nil, store.ErrInvalidInput
	}
	updated.Status = status
	s.containerByID[containerID] = updated

	saved := cloneContainer(updated)
	return &saved, nil
}

func (s *Store) UpdateContainerStatus(_ context.Context, companyID string, containerID string, status domain.ContainerStatus) (*domain.Container, error) {
	if !status.Valid() {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	container, ok := s.containerByID[containerID]
	if !ok || container.CompanyID != companyID {
		return nil, store.ErrNotFound
	}
	container.Status = status
	s.containerByID[containerID] = container

	saved := cloneContainer(container)
	return &saved, nil
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	customer.Name = strings.TrimSpace(customer.Name)
	if customer.CompanyID == "" || customer.Name == "" {
		return nil, store.ErrInvalidInput
	}
	if customer.ID == "" {
		customer.ID = xid.New("cus")
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.customersByID[customer.ID]; exists {
		return nil, store.ErrInvalidInput
	}
	s.customersByID[customer.ID] = customer
	s.customerIDs = append(s.customerIDs, customer.ID)

	saved := customer
	return &saved, nil
}

func (s *Store) GetCustomer(_ context.Context, companyID string, customerID string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, ok := s.customersByID[customerID]
	if !ok || customer.CompanyID != companyID {
		return nil, store.ErrNotFound
	}
	return &customer, nil
}

func (s *Store) ListCustomers(_ context.Context, companyID string) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Customer, 0, len(s.customerIDs))
	for _, id := range s.customerIDs {
		customer := s.customersByID[id]
		if customer.CompanyID == companyID {
			result = append(result, customer)
		}
	}
	return result, nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.CompanyID == "" || sale.SaleType == "" || sale.SourceType == "" || len(sale.Items) == 0 {
		return nil, store.ErrInvalidInput
	}
	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	items := make([]domain.SaleItem, 0, len(sale.Items))
	for _, item := range sale.Items {
		if item.ID == "" {
			item.ID = xid.New("sli")
		}
		item.SaleID = sale.ID
		items = append(items, item)
	}
	sale.Items = items

	s.mu.Lock()
	defer s.mu.Unlock()
	if sale.CustomerID != "" {
		customer, ok := s.customersByID[sale.CustomerID]
		if !ok || customer.CompanyID != sale.CompanyID {
			return nil, store.ErrNotFound
		}
	}
	if _, exists := s.salesByID[sale.ID]; exists {
		return nil, store.ErrInvalidInput
	}
	s.salesByID[sale.ID] = sale
	s.saleIDs = append(s.saleIDs, sale.ID)

	saved := cloneSale(sale)
	return &saved, nil
}

func (s *Store) GetSale(_ context.Context, companyID string, saleID string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.salesByID[saleID]
	if !ok || sale.CompanyID != companyID {
		return nil, store.ErrNotFound
	}
	saved := cloneSale(sale)
	return &saved, nil
}

func (s *Store) ListSales(_ context.Context, filter store.SaleFilter) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Sale, 0, len(s.saleIDs))
	for _, id := range s.saleIDs {
		sale := s.salesByID[id]
		if !matchesSaleFilter(sale, filter) {
			continue
		}
		result = append(result, cloneSale(sale))
	}
	slices.SortStableFunc(result, func(a, b domain.Sale) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return result, nil
}

func (s *Store) UpdateSaleTotal(_ context.Context, companyID string, saleID string, total decimal.Decimal) (*domain.Sale, error) {
	if total.IsNegative() {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sale, ok := s.salesByID[saleID]
	if !ok || sale.CompanyID != companyID {
		return nil, store.ErrNotFound
	}
	sale.TotalAmount = total
	s.salesByID[saleID] = sale

	saved := cloneSale(sale)
	return &saved, nil
}

func (s *Store) CreatePayment(_ context.Context, payment domain.CustomerPayment) (*domain.CustomerPayment, error) {
	if payment.CompanyID == "" || payment.CustomerID == "" || !payment.Amount.IsPositive() {
		return nil, store.ErrInvalidInput
	}
	if payment.ID == "" {
		payment.ID = xid.New("pay")
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	customer, ok := s.customersByID[payment.CustomerID]
	if !ok || customer.CompanyID != payment.CompanyID {
		return nil, store.ErrNotFound
	}
	s.payments = append(s.payments, payment)

	saved := payment
	return &saved, nil
}

func (s *Store) GetPayment(_ context.Context, companyID string, paymentID string) (*domain.CustomerPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, payment := range s.payments {
		if payment.ID == paymentID && payment.CompanyID == companyID {
			saved := payment
			return &saved, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListPayments(_ context.Context, companyID string, customerID string) ([]domain.CustomerPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.CustomerPayment, 0, len(s.payments))
	for _, payment := range s.payments {
		if payment.CompanyID != companyID {
			continue
		}
		if customerID != "" && payment.CustomerID != customerID {
			continue
		}
		result = append(result, payment)
	}
	slices.SortStableFunc(result, func(a, b domain.CustomerPayment) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return result, nil
}

func matchesSaleFilter(sale domain.Sale, filter store.SaleFilter) bool {
	if sale.CompanyID != filter.CompanyID {
		return false
	}
	if !filter.From.IsZero() && sale.CreatedAt.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && !sale.CreatedAt.Before(filter.To) {
		return false
	}
	if filter.SaleType != "" && sale.SaleType != filter.SaleType {
		return false
	}
	if filter.SourceType != "" && sale.SourceType != filter.SourceType {
		return false
	}
	if filter.SourceIDs != nil && !slices.Contains(filter.SourceIDs, sale.SourceID) {
		return false
	}
	if filter.CustomerID != "" && sale.CustomerID != filter.CustomerID {
		return false
	}
	return true
}

func cloneContainer(src domain.Container) domain.Container {
	dst := src
	dst.Items = make([]domain.ContainerItem, len(src.Items))
	for i, item := range src.Items {
		if item.OffloadedAt != nil {
			at := *item.OffloadedAt
			item.OffloadedAt = &at
		}
		dst.Items[i] = item
	}
	return dst
}

func cloneSale(src domain.Sale) domain.Sale {
	dst := src
	dst.Items = append([]domain.SaleItem(nil), src.Items...)
	return dst
}

var _ store.Repository = (*Store)(nil)
