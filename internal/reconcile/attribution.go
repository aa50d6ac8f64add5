package reconcile

import (
	"sort"

	"importledger/backend/internal/domain"
)

// Catalogue is the set of item keys one supplier lists.
type Catalogue struct {
	supplier domain.Supplier
	keys     map[string]struct{}
}

// NewCatalogue keeps only rows belonging to supplier, so passing a
// company-wide item list cannot leak another supplier's names in.
func NewCatalogue(supplier domain.Supplier, items []domain.SupplierItem) Catalogue {
	keys := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.SupplierID != supplier.ID {
			continue
		}
		keys[ItemKey(item.ItemName)] = struct{}{}
	}
	return Catalogue{supplier: supplier, keys: keys}
}

func (c Catalogue) Contains(name string) bool {
	_, ok := c.keys[ItemKey(name)]
	return ok
}

// Attribute returns the supplier name when the catalogue lists name, and
// domain.UnknownSupplier otherwise.
func (c Catalogue) Attribute(name string) string {
	if c.Contains(name) {
		return c.supplier.Name
	}
	return domain.UnknownSupplier
}

// AttributeContainer labels each container item against the catalogue of the
// container's own supplier only.
func AttributeContainer(container domain.Container, supplier domain.Supplier, items []domain.SupplierItem) []domain.AttributedItem {
	catalogue := NewCatalogue(supplier, items)
	if supplier.ID != container.SupplierID {
		catalogue = Catalogue{}
	}

	out := make([]domain.AttributedItem, 0, len(container.Items))
	for _, item := range container.Items {
		matched := catalogue.Contains(item.ItemName)
		label := domain.UnknownSupplier
		if matched {
			label = supplier.Name
		}
		out = append(out, domain.AttributedItem{
			ItemID:   item.ID,
			ItemName: item.ItemName,
			Supplier: label,
			Matched:  matched,
		})
	}
	return out
}

// SupplierIndex maps item keys to supplier names across every supplier of a
// company.
type SupplierIndex struct {
	byKey map[string]string
}

// NewSupplierIndex orders rows by (CreatedAt, ID) before indexing. When two
// suppliers list the same key, the row last in that order wins, whatever the
// order of items.
func NewSupplierIndex(suppliers []domain.Supplier, items []domain.SupplierItem) SupplierIndex {
	names := make(map[string]string, len(suppliers))
	for _, supplier := range suppliers {
		names[supplier.ID] = supplier.Name
	}

	ordered := make([]domain.SupplierItem, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	byKey := make(map[string]string, len(ordered))
	for _, item := range ordered {
		name, ok := names[item.SupplierID]
		if !ok {
			continue
		}
		byKey[ItemKey(item.ItemName)] = name
	}
	return SupplierIndex{byKey: byKey}
}

func (x SupplierIndex) SupplierFor(itemName string) string {
	if name, ok := x.byKey[ItemKey(itemName)]; ok {
		return name
	}
	return domain.UnknownSupplier
}
