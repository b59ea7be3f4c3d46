package payments

import (
	"context"
	"time"

	"foodcourt-backoffice/internal/domain"
)

type PayoutLine struct {
	PaymentID       string               `json:"paymentId"`
	OrderID         string               `json:"orderId"`
	Method          domain.PaymentMethod `json:"method"`
	Status          domain.PaymentStatus `json:"status"`
	GrossMinor      int64                `json:"grossMinor"`
	CommissionMinor int64                `json:"commissionMinor"`
	NetMinor        int64                `json:"netMinor"`
}

type PayoutSummary struct {
	RestaurantID         string       `json:"restaurantId"`
	From                 time.Time    `json:"from"`
	To                   time.Time    `json:"to"`
	Lines                []PayoutLine `json:"lines"`
	TotalGrossMinor      int64        `json:"totalGrossMinor"`
	TotalCommissionMinor int64        `json:"totalCommissionMinor"`
	TotalNetMinor        int64        `json:"totalNetMinor"`
}

// SettlementSplit is how a payment settles against the restaurant. A refunded
// payment returned the money, so its gross, commission and net are all zero
// regardless of what was frozen at creation.
func SettlementSplit(status domain.PaymentStatus, amountMinor, commissionMinor, netMinor int64) (gross, commission, net int64) {
	if status == domain.PaymentRefunded {
		return 0, 0, 0
	}
	return amountMinor, commissionMinor, netMinor
}

// Payout rolls up the restaurant's settled payments over [from, to).
func (b *Broker) Payout(ctx context.Context, restaurantID string, from, to time.Time) (*PayoutSummary, error) {
	rows, err := b.Pool.Query(ctx, `
		select p.id, p.order_id, p.method, p.status,
		       p.amount_minor, p.commission_minor, p.net_minor
		from payment p
		join "order" o on o.id = p.order_id
		where o.restaurant_id = $1
		  and p.status in ('COMPLETED', 'REFUNDED')
		  and p.created_at >= $2
		  and p.created_at < $3
		order by p.created_at asc
	`, restaurantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := PayoutSummary{
		RestaurantID: restaurantID,
		From:         from,
		To:           to,
		Lines:        make([]PayoutLine, 0),
	}
	for rows.Next() {
		var line PayoutLine
		var method, status string
		var amount, commission, net int64
		if err := rows.Scan(&line.PaymentID, &line.OrderID, &method, &status,
			&amount, &commission, &net); err != nil {
			return nil, err
		}
		line.Method = domain.PaymentMethod(method)
		line.Status = domain.PaymentStatus(status)
		line.GrossMinor, line.CommissionMinor, line.NetMinor =
			SettlementSplit(line.Status, amount, commission, net)

		summary.Lines = append(summary.Lines, line)
		summary.TotalGrossMinor += line.GrossMinor
		summary.TotalCommissionMinor += line.CommissionMinor
		summary.TotalNetMinor += line.NetMinor
	}
	return &summary, rows.Err()
}
