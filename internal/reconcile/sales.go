package reconcile

import (
	"time"

	"github.com/shopspring/decimal"

	"importledger/backend/internal/domain"
)

// SaleTotal is Σ quantity × unit price over the sale items.
func SaleTotal(items []domain.SaleItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(lineAmount(item))
	}
	return total
}

// ItemRollup groups sale items by item key. Like InventoryLedger it is owned
// by a single computation.
type ItemRollup struct {
	totals map[string]*domain.ItemSalesTotal
}

func NewItemRollup() *ItemRollup {
	return &ItemRollup{totals: make(map[string]*domain.ItemSalesTotal)}
}

func (r *ItemRollup) Add(sales []domain.Sale) {
	for _, sale := range sales {
		for _, item := range sale.Items {
			key := ItemKey(item.ItemName)
			total, ok := r.totals[key]
			if !ok {
				total = &domain.ItemSalesTotal{ItemName: item.ItemName, TotalAmount: decimal.Zero}
				r.totals[key] = total
			}
			total.SoldQty += item.Quantity
			total.TotalAmount = total.TotalAmount.Add(lineAmount(item))
		}
	}
}

// Items returns the per-item totals ordered by item key.
func (r *ItemRollup) Items() []domain.ItemSalesTotal {
	keys := sortedKeys(r.totals)
	out := make([]domain.ItemSalesTotal, 0, len(keys))
	for _, key := range keys {
		out = append(out, *r.totals[key])
	}
	return out
}

func RollupItems(sales []domain.Sale) []domain.ItemSalesTotal {
	rollup := NewItemRollup()
	rollup.Add(sales)
	return rollup.Items()
}

// Summarize backs the container and supplier sales summaries. Its total is
// the sum of item line amounts, not of stored sale totals.
func Summarize(sales []domain.Sale) domain.SalesSummary {
	items := RollupItems(sales)
	summary := domain.SalesSummary{
		SaleCount:   len(sales),
		TotalAmount: decimal.Zero,
		Items:       items,
	}
	for _, item := range items {
		summary.TotalQuantity += item.SoldQty
		summary.TotalAmount = summary.TotalAmount.Add(item.TotalAmount)
	}
	return summary
}

// SupplierSales attributes every sold item through index and totals per
// supplier name, domain.UnknownSupplier included.
func SupplierSales(sales []domain.Sale, index SupplierIndex) []domain.SupplierSalesTotal {
	bySupplier := make(map[string]*domain.SupplierSalesTotal)
	for _, sale := range sales {
		for _, item := range sale.Items {
			name := index.SupplierFor(item.ItemName)
			total, ok := bySupplier[name]
			if !ok {
				total = &domain.SupplierSalesTotal{Supplier: name, TotalAmount: decimal.Zero}
				bySupplier[name] = total
			}
			total.SoldQty += item.Quantity
			total.TotalAmount = total.TotalAmount.Add(lineAmount(item))
		}
	}

	out := make([]domain.SupplierSalesTotal, 0, len(bySupplier))
	for _, name := range sortedKeys(bySupplier) {
		out = append(out, *bySupplier[name])
	}
	return out
}

// CompanySalesReport computes the detailed report over sales already limited
// to the [from, to) window. TotalAmount and TotalQuantity are independent sums.
func CompanySalesReport(sales []domain.Sale, index SupplierIndex, from time.Time, to time.Time) domain.SalesReport {
	report := domain.SalesReport{
		SaleCount:   len(sales),
		TotalAmount: decimal.Zero,
	}
	if !from.IsZero() {
		report.From = from.Format(time.DateOnly)
	}
	if !to.IsZero() {
		report.To = to.Format(time.DateOnly)
	}

	for _, sale := range sales {
		report.TotalAmount = report.TotalAmount.Add(sale.TotalAmount)
		for _, item := range sale.Items {
			report.TotalQuantity += item.Quantity
		}
	}

	report.Items = RollupItems(sales)
	for i := range report.Items {
		report.Items[i].Supplier = index.SupplierFor(report.Items[i].ItemName)
	}
	report.BySupplier = SupplierSales(sales, index)
	return report
}

func lineAmount(item domain.SaleItem) decimal.Decimal {
	return item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity))
}
