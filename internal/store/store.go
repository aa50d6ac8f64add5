package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"importledger/backend/internal/domain"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrDuplicateRequest = errors.New("duplicate request in progress")
)

// SaleFilter narrows ListSales. Zero values do not filter; the window is
// half-open, [From, To).
type SaleFilter struct {
	CompanyID  string
	From       time.Time
	To         time.Time
	SaleType   string
	SourceType string
	SourceIDs  []string
	CustomerID string
}

// Repository reads are always scoped to one company. Lists come back in
// creation order (created_at, id).
type Repository interface {
	CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	GetSupplier(ctx context.Context, companyID string, supplierID string) (*domain.Supplier, error)
	ListSuppliers(ctx context.Context, companyID string) ([]domain.Supplier, error)
	CreateSupplierItem(ctx context.Context, item domain.SupplierItem) (*domain.SupplierItem, error)
	// ListSupplierItems returns every supplier's rows when supplierID is empty.
	ListSupplierItems(ctx context.Context, companyID string, supplierID string) ([]domain.SupplierItem, error)

	CreateContainer(ctx context.Context, container domain.Container) (*domain.Container, error)
	GetContainer(ctx context.Context, companyID string, containerID string) (*domain.Container, error)
	ListContainers(ctx context.Context, companyID string, supplierID string) ([]domain.Container, error)
	AddContainerItem(ctx context.Context, companyID string, item domain.ContainerItem) (*domain.ContainerItem, error)
	OffloadContainer(ctx context.Context, companyID string, containerID string, received map[string]int64, status domain.ContainerStatus, at time.Time) (*domain.Container, error)
	UpdateContainerStatus(ctx context.Context, companyID string, containerID string, status domain.ContainerStatus) (*domain.Container, error)

	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	GetCustomer(ctx context.Context, companyID string, customerID string) (*domain.Customer, error)
	ListCustomers(ctx context.Context, companyID string) ([]domain.Customer, error)

	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	GetSale(ctx context.Context, companyID string, saleID string) (*domain.Sale, error)
	ListSales(ctx context.Context, filter SaleFilter) ([]domain.Sale, error)
	UpdateSaleTotal(ctx context.Context, companyID string, saleID string, total decimal.Decimal) (*domain.Sale, error)

	CreatePayment(ctx context.Context, payment domain.CustomerPayment) (*domain.CustomerPayment, error)
	GetPayment(ctx context.Context, companyID string, paymentID string) (*domain.CustomerPayment, error)
	// ListPayments returns every customer's payments when customerID is empty.
	ListPayments(ctx context.Context, companyID string, customerID string) ([]domain.CustomerPayment, error)
}
