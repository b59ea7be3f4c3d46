package payments

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"foodcourt-backoffice/internal/db"
	"foodcourt-backoffice/internal/domain"
	"foodcourt-backoffice/internal/events"
)

// Broker owns the Payment aggregate and dispatches to provider adapters.
type Broker struct {
	Pool          db.DB
	Logger        *zap.Logger
	Adapters      map[domain.PaymentMethod]Adapter
	Providers     map[string]Adapter
	PublicBaseURL string
	Timeout       time.Duration
	Now           func() time.Time
}

func (b *Broker) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

type orderForPayment struct {
	ID             string
	RestaurantID   string
	RestaurantName string
	Status         string
	TotalMinor     int64
	CommissionRate float64
	Currency       string
}

func loadOrderForPayment(ctx context.Context, tx pgx.Tx, orderID string) (*orderForPayment, error) {
	var o orderForPayment
	err := tx.QueryRow(ctx, `
		select o.id, o.restaurant_id, r.name, o.status, o.total_minor, r.commission_rate, r.currency
		from "order" o
		join restaurant r on r.id = o.restaurant_id
		where o.id = $1
		for update of o
	`, orderID).Scan(&o.ID, &o.RestaurantID, &o.RestaurantName, &o.Status, &o.TotalMinor, &o.CommissionRate, &o.Currency)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.NotFound("Order not found")
		}
		return nil, err
	}
	if strings.TrimSpace(o.Currency) == "" {
		o.Currency = "RUB"
	}
	return &o, nil
}

func ensureNoPayment(ctx context.Context, tx pgx.Tx, orderID string) error {
	var exists bool
	if err := tx.QueryRow(ctx, `select exists(select 1 from payment where order_id = $1)`, orderID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return domain.PaymentAlreadyExists(orderID)
	}
	return nil
}

func insertPayment(ctx context.Context, tx pgx.Tx, p *domain.Payment) error {
	metadata, err := json.Marshal(p.ProviderMetadata)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		insert into payment (id, order_id, amount_minor, currency, method, status,
			commission_minor, net_minor, provider_ref, redirect_url, provider_metadata,
			created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, p.ID, p.OrderID, p.AmountMinor, p.Currency, string(p.Method), string(p.Status),
		p.CommissionMinor, p.NetMinor, p.ProviderRef, p.RedirectURL, metadata,
		p.CreatedAt, p.UpdatedAt)
	return err
}

// CreateAsync creates a card payment: the Payment row is inserted Pending
// with the frozen commission split, then the provider charge is created in
// the same transaction. A failing provider call rolls everything back.
func (b *Broker) CreateAsync(ctx context.Context, orderID string, method domain.PaymentMethod) (*domain.Payment, error) {
	adapter, ok := b.Adapters[method]
	if !ok {
		return nil, domain.Validation("Unsupported payment method")
	}

	var created *domain.Payment
	err := db.WithSerializableTx(ctx, b.Pool, func(ctx context.Context, tx pgx.Tx) error {
		order, err := loadOrderForPayment(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := ensureNoPayment(ctx, tx, orderID); err != nil {
			return err
		}

		now := b.now()
		commission := CommissionMinor(order.TotalMinor, order.CommissionRate)
		payment := domain.Payment{
			ID:              uuid.NewString(),
			OrderID:         order.ID,
			AmountMinor:     order.TotalMinor,
			Currency:        order.Currency,
			Method:          method,
			Status:          domain.PaymentPending,
			CommissionMinor: commission,
			NetMinor:        order.TotalMinor - commission,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := insertPayment(ctx, tx, &payment); err != nil {
			return err
		}

		chargeCtx, cancel := context.WithTimeout(ctx, b.Timeout)
		defer cancel()
		result, err := adapter.CreateCharge(chargeCtx, ChargeDraft{
			PaymentID:   payment.ID,
			OrderID:     order.ID,
			AmountMinor: payment.AmountMinor,
			Currency:    payment.Currency,
			Description: "Order at " + order.RestaurantName,
			ReturnURL:   b.PublicBaseURL + "/orders/" + order.ID,
		})
		if err != nil {
			return err
		}

		payment.ProviderRef = &result.ProviderRef
		if result.RedirectURL != "" {
			payment.RedirectURL = &result.RedirectURL
		}
		if _, err := tx.Exec(ctx, `
			update payment set provider_ref = $1, redirect_url = $2, updated_at = $3 where id = $4
		`, payment.ProviderRef, payment.RedirectURL, b.now(), payment.ID); err != nil {
			return err
		}

		if err := events.Append(ctx, tx, events.New(events.PaymentCreated, "payment", payment.ID, map[string]any{
			"orderId":     order.ID,
			"method":      string(method),
			"amountMinor": payment.AmountMinor,
		})); err != nil {
			return err
		}

		created = &payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

type CashInput struct {
	OrderID              string `json:"orderId"`
	AmountReceivedMinor  int64  `json:"amountReceivedMinor"`
	ChangeGivenMinor     int64  `json:"changeGivenMinor"`
	ProcessedByPrincipal string `json:"-"`
}

type TerminalInput struct {
	OrderID              string  `json:"orderId"`
	TerminalTxID         string  `json:"terminalTxId"`
	TerminalID           string  `json:"terminalId"`
	CardLast4            *string `json:"cardLast4,omitempty"`
	CardBrand            *string `json:"cardBrand,omitempty"`
	ProcessedByPrincipal string  `json:"-"`
}

// ProcessCash records a synchronous cash payment: Completed at insertion.
func (b *Broker) ProcessCash(ctx context.Context, in CashInput) (*domain.Payment, error) {
	if in.AmountReceivedMinor <= 0 {
		return nil, domain.Validation("amountReceivedMinor must be positive")
	}
	return b.processSync(ctx, in.OrderID, domain.MethodCash, map[string]any{
		"amountReceived": in.AmountReceivedMinor,
		"changeGiven":    in.ChangeGivenMinor,
		"processedBy":    in.ProcessedByPrincipal,
	})
}

// ProcessTerminal records a synchronous card-terminal payment.
func (b *Broker) ProcessTerminal(ctx context.Context, in TerminalInput) (*domain.Payment, error) {
	if strings.TrimSpace(in.TerminalTxID) == "" || strings.TrimSpace(in.TerminalID) == "" {
		return nil, domain.Validation("terminalTxId and terminalId are required")
	}
	metadata := map[string]any{
		"terminalTxId": in.TerminalTxID,
		"terminalId":   in.TerminalID,
		"processedBy":  in.ProcessedByPrincipal,
	}
	if in.CardLast4 != nil {
		metadata["cardLast4"] = *in.CardLast4
	}
	if in.CardBrand != nil {
		metadata["cardBrand"] = *in.CardBrand
	}
	return b.processSync(ctx, in.OrderID, domain.MethodTerminal, metadata)
}

func (b *Broker) processSync(ctx context.Context, orderID string, method domain.PaymentMethod, metadata map[string]any) (*domain.Payment, error) {
	var created *domain.Payment
	err := db.WithSerializableTx(ctx, b.Pool, func(ctx context.Context, tx pgx.Tx) error {
		order, err := loadOrderForPayment(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := ensureNoPayment(ctx, tx, orderID); err != nil {
			return err
		}

		now := b.now()
		commission := CommissionMinor(order.TotalMinor, order.CommissionRate)
		payment := domain.Payment{
			ID:               uuid.NewString(),
			OrderID:          order.ID,
			AmountMinor:      order.TotalMinor,
			Currency:         order.Currency,
			Method:           method,
			Status:           domain.PaymentCompleted,
			CommissionMinor:  commission,
			NetMinor:         order.TotalMinor - commission,
			ProviderMetadata: metadata,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := insertPayment(ctx, tx, &payment); err != nil {
			return err
		}

		if err := events.Append(ctx, tx, events.New(events.PaymentCreated, "payment", payment.ID, map[string]any{
			"orderId":     order.ID,
			"method":      string(method),
			"amountMinor": payment.AmountMinor,
		})); err != nil {
			return err
		}
		if err := events.Append(ctx, tx, events.New(events.PaymentSettled, "payment", payment.ID, map[string]any{
			"orderId":     order.ID,
			"amountMinor": payment.AmountMinor,
		})); err != nil {
			return err
		}

		created = &payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Refund refunds up to the remaining refundable amount. amountMinor <= 0
// means a full refund of what is left.
func (b *Broker) Refund(ctx context.Context, paymentID string, amountMinor int64, reason string) (*domain.Refund, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.Validation("Refund reason is required")
	}

	var created *domain.Refund
	err := db.WithSerializableTx(ctx, b.Pool, func(ctx context.Context, tx pgx.Tx) error {
		refund, err := b.refundTx(ctx, tx, paymentID, amountMinor, reason)
		if err != nil {
			return err
		}
		created = refund
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// RefundInTx satisfies the order engine's Refunder: a cancel-with-refund runs
// the refund in the caller's transaction so both commit or neither does.
func (b *Broker) RefundInTx(ctx context.Context, tx pgx.Tx, paymentID string, amountMinor int64, reason string) error {
	_, err := b.refundTx(ctx, tx, paymentID, amountMinor, reason)
	return err
}

func (b *Broker) refundTx(ctx context.Context, tx pgx.Tx, paymentID string, amountMinor int64, reason string) (*domain.Refund, error) {
	var (
		orderID     string
		status      string
		method      string
		totalMinor  int64
		providerRef *string
	)
	err := tx.QueryRow(ctx, `
		select order_id, status, method, amount_minor, provider_ref
		from payment where id = $1 for update
	`, paymentID).Scan(&orderID, &status, &method, &totalMinor, &providerRef)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.NotFound("Payment not found")
		}
		return nil, err
	}
	if status != string(domain.PaymentCompleted) {
		return nil, domain.RefundFailed("Only completed payments can be refunded")
	}

	var refundedMinor int64
	if err := tx.QueryRow(ctx, `
		select coalesce(sum(amount_minor), 0) from refund where payment_id = $1
	`, paymentID).Scan(&refundedMinor); err != nil {
		return nil, err
	}
	remaining := totalMinor - refundedMinor
	if amountMinor <= 0 {
		amountMinor = remaining
	}
	if amountMinor > remaining {
		return nil, domain.ValidationDetails("Refund exceeds the remaining refundable amount", map[string]any{
			"remainingMinor": remaining,
		})
	}

	var refundRef *string
	if adapter, ok := b.Adapters[domain.PaymentMethod(method)]; ok {
		if providerRef == nil {
			return nil, domain.RefundFailed("Payment has no provider reference")
		}
		refundCtx, cancel := context.WithTimeout(ctx, b.Timeout)
		defer cancel()
		result, err := adapter.Refund(refundCtx, *providerRef, amountMinor, reason)
		if err != nil {
			b.Logger.Warn("provider refund failed", zap.String("paymentId", paymentID), zap.Error(err))
			return nil, domain.RefundFailed("Provider refund failed")
		}
		refundRef = &result.RefundRef
	}

	now := b.now()
	refund := domain.Refund{
		ID:          uuid.NewString(),
		PaymentID:   paymentID,
		AmountMinor: amountMinor,
		Reason:      reason,
		RefundRef:   refundRef,
		CreatedAt:   now,
	}
	if _, err := tx.Exec(ctx, `
		insert into refund (id, payment_id, amount_minor, reason, refund_ref, created_at)
		values ($1,$2,$3,$4,$5,$6)
	`, refund.ID, refund.PaymentID, refund.AmountMinor, refund.Reason, refund.RefundRef, refund.CreatedAt); err != nil {
		return nil, err
	}

	if refundedMinor+amountMinor >= totalMinor {
		if _, err := tx.Exec(ctx, `
			update payment set status = $1, updated_at = $2 where id = $3
		`, string(domain.PaymentRefunded), now, paymentID); err != nil {
			return nil, err
		}
	}

	if err := events.Append(ctx, tx, events.New(events.PaymentRefunded, "payment", paymentID, map[string]any{
		"orderId":     orderID,
		"amountMinor": amountMinor,
	})); err != nil {
		return nil, err
	}
	return &refund, nil
}

// Get loads one payment with its refunds.
func (b *Broker) Get(ctx context.Context, paymentID string) (*domain.Payment, []domain.Refund, error) {
	var p domain.Payment
	var method, status string
	var metadata []byte
	err := b.Pool.QueryRow(ctx, `
		select id, order_id, amount_minor, currency, method, status, commission_minor,
		       net_minor, provider_ref, redirect_url, provider_metadata, created_at, updated_at
		from payment where id = $1
	`, paymentID).Scan(&p.ID, &p.OrderID, &p.AmountMinor, &p.Currency, &method, &status,
		&p.CommissionMinor, &p.NetMinor, &p.ProviderRef, &p.RedirectURL, &metadata,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, domain.NotFound("Payment not found")
		}
		return nil, nil, err
	}
	p.Method = domain.PaymentMethod(method)
	p.Status = domain.PaymentStatus(status)
	if len(metadata) > 0 {
		_ = json.Unmarshal(metadata, &p.ProviderMetadata)
	}

	rows, err := b.Pool.Query(ctx, `
		select id, payment_id, amount_minor, reason, refund_ref, created_at
		from refund where payment_id = $1 order by created_at asc
	`, paymentID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	refunds := make([]domain.Refund, 0)
	for rows.Next() {
		var r domain.Refund
		if err := rows.Scan(&r.ID, &r.PaymentID, &r.AmountMinor, &r.Reason, &r.RefundRef, &r.CreatedAt); err != nil {
			return nil, nil, err
		}
		refunds = append(refunds, r)
	}
	return &p, refunds, rows.Err()
}
