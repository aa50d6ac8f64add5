package reconcile

import (
	"sort"

	"github.com/shopspring/decimal"

	"importledger/backend/internal/domain"
)

// Statement interleaves a customer's sales (debits) and payments (credits) by
// date and annotates each entry with the running balance after it. Every sale
// type counts.
//
// Entries sharing a timestamp keep concatenation order: all sales first, in
// input order, then payments. Callers should not build on that order.
func Statement(sales []domain.Sale, payments []domain.CustomerPayment) []domain.StatementEntry {
	entries := make([]domain.StatementEntry, 0, len(sales)+len(payments))
	for _, sale := range sales {
		entries = append(entries, domain.StatementEntry{
			Date:      sale.CreatedAt,
			Kind:      domain.StatementKindSale,
			Reference: sale.ID,
			SaleType:  sale.SaleType,
			Amount:    sale.TotalAmount,
		})
	}
	for _, payment := range payments {
		entries = append(entries, domain.StatementEntry{
			Date:      payment.CreatedAt,
			Kind:      domain.StatementKindPayment,
			Reference: payment.ID,
			Note:      payment.Note,
			Amount:    payment.Amount,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})

	balance := decimal.Zero
	for i := range entries {
		if entries[i].Kind == domain.StatementKindSale {
			balance = balance.Add(entries[i].Amount)
		} else {
			balance = balance.Sub(entries[i].Amount)
		}
		entries[i].Balance = balance
	}
	return entries
}

func StatementBalance(entries []domain.StatementEntry) decimal.Decimal {
	if len(entries) == 0 {
		return decimal.Zero
	}
	return entries[len(entries)-1].Balance
}

// CreditBalance is the receivable view: credit sales minus payments. Cash
// sales are ignored, so it differs from StatementBalance whenever a customer
// has bought for cash.
func CreditBalance(sales []domain.Sale, payments []domain.CustomerPayment) domain.CreditBalance {
	result := domain.CreditBalance{
		TotalCreditSales: decimal.Zero,
		TotalPayments:    decimal.Zero,
	}
	for _, sale := range sales {
		if sale.SaleType != domain.SaleTypeCredit {
			continue
		}
		result.TotalCreditSales = result.TotalCreditSales.Add(sale.TotalAmount)
	}
	for _, payment := range payments {
		result.TotalPayments = result.TotalPayments.Add(payment.Amount)
	}
	result.Balance = result.TotalCreditSales.Sub(result.TotalPayments)
	return result
}
