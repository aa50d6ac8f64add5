// Package reconcile derives inventory, attribution, sales and ledger views
// from rows already fetched for a single request. Nothing here touches the
// store or keeps state between calls.
package reconcile

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ItemKey is the join key for item names across container, supplier and sale
// rows: surrounding whitespace trimmed, every character lower-cased.
func ItemKey(name string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(name))
}
