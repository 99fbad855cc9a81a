package report

import (
	"time"

	"github.com/garyjia/freelance-billing/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// MethodTotal is the completed payments received through one method
type MethodTotal struct {
	Method entity.PaymentMethod `json:"method"`
	Label  string               `json:"label"`
	Count  int                  `json:"count"`
	Amount decimal.Decimal      `json:"amount"`
}

// PaymentSummary totals completed payments dated within a range
type PaymentSummary struct {
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	Count       int             `json:"total_payments"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalFees   decimal.Decimal `json:"total_fees"`
	NetAmount   decimal.Decimal `json:"net_amount"`
	Average     decimal.Decimal `json:"average_payment"`
	ByMethod    []MethodTotal   `json:"by_method"`
}

// SummarizePayments folds completed payments dated within [from, to].
// Methods appear in entity.PaymentMethods order; methods with no payments are omitted.
func SummarizePayments(payments []*entity.Payment, from, to time.Time) PaymentSummary {
	from, to = entity.Date(from), entity.Date(to)
	s := PaymentSummary{
		From:        from,
		To:          to,
		TotalAmount: decimal.Zero,
		TotalFees:   decimal.Zero,
		NetAmount:   decimal.Zero,
		ByMethod:    []MethodTotal{},
	}

	byMethod := make(map[entity.PaymentMethod]*MethodTotal)
	for _, p := range payments {
		if p.Status != entity.PaymentCompleted {
			continue
		}
		day := entity.Date(p.PaymentDate)
		if day.Before(from) || day.After(to) {
			continue
		}
		s.Count++
		s.TotalAmount = s.TotalAmount.Add(p.Amount)
		s.TotalFees = s.TotalFees.Add(p.TransactionFee)
		s.NetAmount = s.NetAmount.Add(p.NetAmount())

		m, ok := byMethod[p.Method]
		if !ok {
			m = &MethodTotal{Method: p.Method, Label: p.Method.Label(), Amount: decimal.Zero}
			byMethod[p.Method] = m
		}
		m.Count++
		m.Amount = m.Amount.Add(p.Amount)
	}

	s.Average = average(s.TotalAmount, s.Count)
	for _, method := range entity.PaymentMethods {
		if m, ok := byMethod[method]; ok {
			s.ByMethod = append(s.ByMethod, *m)
		}
	}
	return s
}
