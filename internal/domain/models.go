package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ContainerStatus string

const (
	ContainerStatusReceived   ContainerStatus = "Received"
	ContainerStatusIncomplete ContainerStatus = "Incomplete"
	ContainerStatusDone       ContainerStatus = "Done"
)

func (s ContainerStatus) Valid() bool {
	switch s {
	case ContainerStatusReceived, ContainerStatusIncomplete, ContainerStatusDone:
		return true
	default:
		return false
	}
}

const (
	SaleTypeCash   = "cash"
	SaleTypeCredit = "credit"
)

const (
	SaleSourceContainer = "container"
	SaleSourceOther     = "other"
)

const (
	StatementKindSale    = "sale"
	StatementKindPayment = "payment"
)

// UnknownSupplier labels items that no supplier catalogue claims.
const UnknownSupplier = "Unknown"

type Actor struct {
	Subject   string
	CompanyID string
}

type Supplier struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type SupplierCreateRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type SupplierItem struct {
	ID         string          `json:"id"`
	CompanyID  string          `json:"company_id"`
	SupplierID string          `json:"supplier_id"`
	ItemName   string          `json:"item_name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	CreatedAt  time.Time       `json:"created_at"`
}

type SupplierItemCreateRequest struct {
	ItemName  string          `json:"item_name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type Container struct {
	ID              string          `json:"id"`
	CompanyID       string          `json:"company_id"`
	SupplierID      string          `json:"supplier_id"`
	ContainerNumber string          `json:"container_number"`
	ArrivalDate     time.Time       `json:"arrival_date"`
	Status          ContainerStatus `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	Items           []ContainerItem `json:"items"`
}

// ContainerItem.ReceivedQty stays zero until the container is offloaded.
type ContainerItem struct {
	ID          string          `json:"id"`
	ContainerID string          `json:"container_id"`
	ItemName    string          `json:"item_name"`
	ExpectedQty int64           `json:"expected_qty"`
	ReceivedQty int64           `json:"received_qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	OffloadedAt *time.Time      `json:"offloaded_at,omitempty"`
}

type ContainerItemInput struct {
	ItemName    string          `json:"item_name"`
	ExpectedQty int64           `json:"expected_qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type ContainerCreateRequest struct {
	SupplierID      string               `json:"supplier_id"`
	ContainerNumber string               `json:"container_number"`
	ArrivalDate     string               `json:"arrival_date"`
	Items           []ContainerItemInput `json:"items"`
}

type OffloadLine struct {
	ItemID      string `json:"item_id"`
	ReceivedQty int64  `json:"received_qty"`
}

type OffloadRequest struct {
	Items  []OffloadLine    `json:"items"`
	Status *ContainerStatus `json:"status,omitempty"`
}

type ContainerStatusRequest struct {
	Status ContainerStatus `json:"status"`
}

type Customer struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CustomerCreateRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type Sale struct {
	ID          string          `json:"id"`
	CompanyID   string          `json:"company_id"`
	SaleType    string          `json:"sale_type"`
	SourceType  string          `json:"source_type"`
	SourceID    string          `json:"source_id,omitempty"`
	CustomerID  string          `json:"customer_id,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
	Items       []SaleItem      `json:"items"`
}

type SaleItem struct {
	ID        string          `json:"id"`
	SaleID    string          `json:"sale_id"`
	ItemName  string          `json:"item_name"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type SaleItemInput struct {
	ItemName  string          `json:"item_name"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type SaleCreateRequest struct {
	SaleType       string          `json:"sale_type"`
	SourceType     string          `json:"source_type"`
	SourceID       string          `json:"source_id"`
	CustomerID     string          `json:"customer_id"`
	Items          []SaleItemInput `json:"items"`
	IdempotencyKey string          `json:"-"`
}

type SaleResponse struct {
	Sale      Sale `json:"sale"`
	Duplicate bool `json:"duplicate"`
}

// SaleTotalOverrideRequest either replaces the stored total with TotalAmount
// or, when Recompute is set, recomputes it from the sale items.
type SaleTotalOverrideRequest struct {
	TotalAmount *decimal.Decimal `json:"total_amount,omitempty"`
	Recompute   bool             `json:"recompute"`
	OverridePIN string           `json:"override_pin"`
}

type CustomerPayment struct {
	ID         string          `json:"id"`
	CompanyID  string          `json:"company_id"`
	CustomerID string          `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type PaymentCreateRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	Note           string          `json:"note"`
	IdempotencyKey string          `json:"-"`
}

type PaymentResponse struct {
	Payment   CustomerPayment `json:"payment"`
	Duplicate bool            `json:"duplicate"`
}

type InventoryLine struct {
	ItemName     string `json:"item_name"`
	ExpectedQty  int64  `json:"expected_qty"`
	ReceivedQty  int64  `json:"received_qty"`
	SoldQty      int64  `json:"sold_qty"`
	RemainingQty int64  `json:"remaining_qty"`
}

type InventoryTotals struct {
	ExpectedQty  int64 `json:"expected_qty"`
	ReceivedQty  int64 `json:"received_qty"`
	SoldQty      int64 `json:"sold_qty"`
	RemainingQty int64 `json:"remaining_qty"`
}

type UnmatchedSale struct {
	ItemName string `json:"item_name"`
	SoldQty  int64  `json:"sold_qty"`
}

type ContainerInventoryReport struct {
	ContainerID     string          `json:"container_id"`
	ContainerNumber string          `json:"container_number"`
	Status          ContainerStatus `json:"status"`
	SupplierID      string          `json:"supplier_id"`
	SupplierName    string          `json:"supplier_name"`
	Items           []InventoryLine `json:"items"`
	Totals          InventoryTotals `json:"totals"`
	UnmatchedSales  []UnmatchedSale `json:"unmatched_sales"`
}

type SupplierInventoryReport struct {
	SupplierID     string          `json:"supplier_id"`
	SupplierName   string          `json:"supplier_name"`
	ContainerCount int             `json:"container_count"`
	Items          []InventoryLine `json:"items"`
	Totals         InventoryTotals `json:"totals"`
	UnmatchedSales []UnmatchedSale `json:"unmatched_sales"`
}

type AttributedItem struct {
	ItemID   string `json:"item_id"`
	ItemName string `json:"item_name"`
	Supplier string `json:"supplier"`
	Matched  bool   `json:"matched"`
}

type ContainerAttributionResponse struct {
	ContainerID  string           `json:"container_id"`
	SupplierID   string           `json:"supplier_id"`
	SupplierName string           `json:"supplier_name"`
	Items        []AttributedItem `json:"items"`
}

type ItemSalesTotal struct {
	ItemName    string          `json:"item_name"`
	Supplier    string          `json:"supplier,omitempty"`
	SoldQty     int64           `json:"sold_qty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type SupplierSalesTotal struct {
	Supplier    string          `json:"supplier"`
	SoldQty     int64           `json:"sold_qty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type SalesSummary struct {
	SaleCount     int              `json:"sale_count"`
	TotalQuantity int64            `json:"total_quantity"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
	Items         []ItemSalesTotal `json:"items"`
}

type ContainerSalesSummary struct {
	ContainerID string       `json:"container_id"`
	Summary     SalesSummary `json:"summary"`
}

type SupplierSalesSummary struct {
	SupplierID   string       `json:"supplier_id"`
	SupplierName string       `json:"supplier_name"`
	Summary      SalesSummary `json:"summary"`
}

// SalesReport.TotalAmount sums the stored sale totals while TotalQuantity sums
// item quantities; an overridden sale total makes them disagree.
type SalesReport struct {
	From          string               `json:"from,omitempty"`
	To            string               `json:"to,omitempty"`
	SaleCount     int                  `json:"sale_count"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	TotalQuantity int64                `json:"total_quantity"`
	Items         []ItemSalesTotal     `json:"items"`
	BySupplier    []SupplierSalesTotal `json:"by_supplier"`
}

type SupplierSalesReport struct {
	From      string               `json:"from,omitempty"`
	To        string               `json:"to,omitempty"`
	Suppliers []SupplierSalesTotal `json:"suppliers"`
}

type StatementEntry struct {
	Date      time.Time       `json:"date"`
	Kind      string          `json:"kind"`
	Reference string          `json:"reference"`
	SaleType  string          `json:"sale_type,omitempty"`
	Note      string          `json:"note,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Balance   decimal.Decimal `json:"balance"`
}

type CustomerStatement struct {
	Customer Customer         `json:"customer"`
	Entries  []StatementEntry `json:"entries"`
	Balance  decimal.Decimal  `json:"balance"`
}

type CreditBalance struct {
	TotalCreditSales decimal.Decimal `json:"total_credit_sales"`
	TotalPayments    decimal.Decimal `json:"total_payments"`
	Balance          decimal.Decimal `json:"balance"`
}

// CustomerBalance reports both balance definitions side by side.
type CustomerBalance struct {
	CustomerID       string          `json:"customer_id"`
	Credit           CreditBalance   `json:"credit"`
	StatementBalance decimal.Decimal `json:"statement_balance"`
}

type CustomerWithBalance struct {
	Customer
	CreditBalance decimal.Decimal `json:"credit_balance"`
}
