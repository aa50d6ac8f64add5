package reconcile

import (
	"sort"

	"importledger/backend/internal/domain"
)

type inventoryAccumulator struct {
	name     string
	expected int64
	received int64
	sold     int64
}

// InventoryLedger accumulates expected, received and sold quantities per item
// key. A ledger belongs to one computation; build a new one per call.
type InventoryLedger struct {
	items     map[string]*inventoryAccumulator
	unmatched map[string]*inventoryAccumulator
}

func NewInventoryLedger() *InventoryLedger {
	return &InventoryLedger{
		items:     make(map[string]*inventoryAccumulator),
		unmatched: make(map[string]*inventoryAccumulator),
	}
}

func (l *InventoryLedger) AddContainerItems(items []domain.ContainerItem) {
	for _, item := range items {
		key := ItemKey(item.ItemName)
		acc, ok := l.items[key]
		if !ok {
			acc = &inventoryAccumulator{name: item.ItemName}
			l.items[key] = acc
		}
		acc.expected += item.ExpectedQty
		acc.received += item.ReceivedQty
	}
}

// AddSales counts sale items sold out of one of containerIDs. Sales with any
// other source are ignored. Call after every container item has been added:
// a sold key unknown at that point is tracked as unmatched.
func (l *InventoryLedger) AddSales(sales []domain.Sale, containerIDs map[string]struct{}) {
	for _, sale := range sales {
		if sale.SourceType != domain.SaleSourceContainer {
			continue
		}
		if _, ok := containerIDs[sale.SourceID]; !ok {
			continue
		}
		for _, item := range sale.Items {
			key := ItemKey(item.ItemName)
			if acc, ok := l.items[key]; ok {
				acc.sold += item.Quantity
				continue
			}
			acc, ok := l.unmatched[key]
			if !ok {
				acc = &inventoryAccumulator{name: item.ItemName}
				l.unmatched[key] = acc
			}
			acc.sold += item.Quantity
		}
	}
}

// Lines returns one line per container item key, ordered by key.
// RemainingQty is received minus sold and goes negative when oversold.
func (l *InventoryLedger) Lines() []domain.InventoryLine {
	keys := sortedKeys(l.items)
	lines := make([]domain.InventoryLine, 0, len(keys))
	for _, key := range keys {
		acc := l.items[key]
		lines = append(lines, domain.InventoryLine{
			ItemName:     acc.name,
			ExpectedQty:  acc.expected,
			ReceivedQty:  acc.received,
			SoldQty:      acc.sold,
			RemainingQty: acc.received - acc.sold,
		})
	}
	return lines
}

func (l *InventoryLedger) Unmatched() []domain.UnmatchedSale {
	keys := sortedKeys(l.unmatched)
	out := make([]domain.UnmatchedSale, 0, len(keys))
	for _, key := range keys {
		acc := l.unmatched[key]
		out = append(out, domain.UnmatchedSale{ItemName: acc.name, SoldQty: acc.sold})
	}
	return out
}

func ContainerInventory(container domain.Container, sales []domain.Sale) *InventoryLedger {
	return SupplierInventory([]domain.Container{container}, sales)
}

// SupplierInventory merges the items of every given container by key before
// matching sales made out of any of them.
func SupplierInventory(containers []domain.Container, sales []domain.Sale) *InventoryLedger {
	ledger := NewInventoryLedger()
	ids := make(map[string]struct{}, len(containers))
	for _, container := range containers {
		ids[container.ID] = struct{}{}
		ledger.AddContainerItems(container.Items)
	}
	ledger.AddSales(sales, ids)
	return ledger
}

func Totals(lines []domain.InventoryLine) domain.InventoryTotals {
	var totals domain.InventoryTotals
	for _, line := range lines {
		totals.ExpectedQty += line.ExpectedQty
		totals.ReceivedQty += line.ReceivedQty
		totals.SoldQty += line.SoldQty
		totals.RemainingQty += line.RemainingQty
	}
	return totals
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
