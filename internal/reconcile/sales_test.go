package reconcile

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"importledger/backend/internal/domain"
)

func TestSaleTotal(t *testing.T) {
	total := SaleTotal([]domain.SaleItem{
		saleItem("Red Shoes", 3, "12.50"),
		saleItem("Belt", 2, "4.25"),
	})

	assert.Equal(t, "46", total.String())
	assert.True(t, SaleTotal(nil).IsZero())
}

func TestRollupItemsGroupsByKey(t *testing.T) {
	sales := []domain.Sale{
		{ID: "sale-1", Items: []domain.SaleItem{saleItem("Red Shoes", 2, "10"), saleItem("Belt", 1, "5")}},
		{ID: "sale-2", Items: []domain.SaleItem{saleItem(" red shoes", 3, "12")}},
	}

	items := RollupItems(sales)

	require.Len(t, items, 2)
	assert.Equal(t, "Belt", items[0].ItemName)
	assert.Equal(t, int64(1), items[0].SoldQty)
	assert.Equal(t, "5", items[0].TotalAmount.String())
	assert.Equal(t, "Red Shoes", items[1].ItemName)
	assert.Equal(t, int64(5), items[1].SoldQty)
	assert.Equal(t, "56", items[1].TotalAmount.String())
}

func TestSummarize(t *testing.T) {
	sales := []domain.Sale{
		{ID: "sale-1", Items: []domain.SaleItem{saleItem("Lamp", 2, "7.5")}},
		{ID: "sale-2", Items: []domain.SaleItem{saleItem("lamp", 1, "7.5"), saleItem("Bulb", 10, "0.3")}},
	}

	summary := Summarize(sales)

	assert.Equal(t, 2, summary.SaleCount)
	assert.Equal(t, int64(13), summary.TotalQuantity)
	assert.Equal(t, "25.5", summary.TotalAmount.String())
	assert.Len(t, summary.Items, 2)

	empty := Summarize(nil)
	assert.Equal(t, 0, empty.SaleCount)
	assert.True(t, empty.TotalAmount.IsZero())
	assert.Empty(t, empty.Items)
}

func TestCompanySalesReportTotalsAreIndependent(t *testing.T) {
	index := NewSupplierIndex([]domain.Supplier{supplierS1, supplierS2}, catalogueRows())
	sales := []domain.Sale{
		{ID: "sale-1", TotalAmount: decimal.NewFromInt(20), Items: []domain.SaleItem{saleItem("red shoes", 2, "10")}},
		// total overridden after recording: items still add up to 9
		{ID: "sale-2", TotalAmount: decimal.NewFromInt(5), Items: []domain.SaleItem{saleItem("Blue Hat", 3, "3")}},
		{ID: "sale-3", TotalAmount: decimal.NewFromInt(4), Items: []domain.SaleItem{saleItem("Umbrella", 1, "4")}},
	}
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	report := CompanySalesReport(sales, index, from, to)

	assert.Equal(t, "2024-03-01", report.From)
	assert.Equal(t, "2024-04-01", report.To)
	assert.Equal(t, 3, report.SaleCount)
	assert.Equal(t, "29", report.TotalAmount.String())
	assert.Equal(t, int64(6), report.TotalQuantity)

	require.Len(t, report.Items, 3)
	assert.Equal(t, "Blue Hat", report.Items[0].ItemName)
	assert.Equal(t, supplierS2.Name, report.Items[0].Supplier)
	assert.Equal(t, "9", report.Items[0].TotalAmount.String())
	assert.Equal(t, supplierS1.Name, report.Items[1].Supplier)
	assert.Equal(t, domain.UnknownSupplier, report.Items[2].Supplier)

	require.Len(t, report.BySupplier, 3)
	bySupplier := map[string]domain.SupplierSalesTotal{}
	for _, total := range report.BySupplier {
		bySupplier[total.Supplier] = total
	}
	assert.Equal(t, int64(2), bySupplier[supplierS1.Name].SoldQty)
	assert.Equal(t, "20", bySupplier[supplierS1.Name].TotalAmount.String())
	assert.Equal(t, int64(3), bySupplier[supplierS2.Name].SoldQty)
	assert.Equal(t, int64(1), bySupplier[domain.UnknownSupplier].SoldQty)
}

func TestCompanySalesReportWithoutWindow(t *testing.T) {
	report := CompanySalesReport(nil, SupplierIndex{}, time.Time{}, time.Time{})

	assert.Empty(t, report.From)
	assert.Empty(t, report.To)
	assert.True(t, report.TotalAmount.IsZero())
	assert.Empty(t, report.Items)
	assert.Empty(t, report.BySupplier)
}
