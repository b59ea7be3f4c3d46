package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"foodcourt-backoffice/internal/catalog"
	"foodcourt-backoffice/internal/db"
	"foodcourt-backoffice/internal/domain"
	"foodcourt-backoffice/internal/events"
	"foodcourt-backoffice/internal/utils"
)

// Refunder lets the cancel flow delegate to the payment broker inside the
// same transaction without importing it.
type Refunder interface {
	RefundInTx(ctx context.Context, tx pgx.Tx, paymentID string, amountMinor int64, reason string) error
}

type Engine struct {
	Pool     db.DB
	Logger   *zap.Logger
	Refunder Refunder
	Now      func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

type CreateItemInput struct {
	ProductID           string  `json:"productId"`
	VariantLabel        *string `json:"variantLabel,omitempty"`
	Quantity            int     `json:"quantity"`
	SpecialInstructions *string `json:"specialInstructions,omitempty"`
}

type CreateInput struct {
	RestaurantID        string              `json:"restaurantId"`
	TableID             *string             `json:"tableId,omitempty"`
	Items               []CreateItemInput   `json:"items"`
	CustomerName        string              `json:"customerName"`
	CustomerPhone       string              `json:"customerPhone"`
	DeliveryType        domain.DeliveryType `json:"deliveryType"`
	CustomerPrincipalID *string             `json:"-"`
	SpecialInstructions *string             `json:"specialInstructions,omitempty"`
}

func (in CreateInput) validate() error {
	if strings.TrimSpace(in.RestaurantID) == "" {
		return domain.Validation("restaurantId is required")
	}
	if strings.TrimSpace(in.CustomerName) == "" || strings.TrimSpace(in.CustomerPhone) == "" {
		return domain.Validation("Customer name and phone are required")
	}
	if in.DeliveryType != domain.DeliveryDineIn && in.DeliveryType != domain.DeliveryTakeaway {
		return domain.Validation("deliveryType must be DINE_IN or TAKEAWAY")
	}
	if len(in.Items) == 0 {
		return domain.Validation("Order must have at least one item")
	}
	for _, item := range in.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return domain.Validation("Every item needs a productId")
		}
		if item.Quantity < 1 {
			return domain.Validation("Item quantity must be at least 1")
		}
	}
	return nil
}

// Create runs the whole creation pipeline in one serializable transaction:
// restaurant/table checks, price snapshotting, server-side total, number
// allocation and the OrderCreated outbox append.
func (e *Engine) Create(ctx context.Context, in CreateInput) (*domain.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var created *domain.Order
	err := db.WithSerializableTx(ctx, e.Pool, func(ctx context.Context, tx pgx.Tx) error {
		restaurant, err := catalog.LoadRestaurant(ctx, tx, in.RestaurantID)
		if err != nil {
			return err
		}
		if !restaurant.Published || !restaurant.FoodcourtActive {
			return domain.ValidationDetails("Restaurant is not accepting orders", map[string]any{"reason": "RestaurantNotActive"})
		}

		if in.TableID != nil && strings.TrimSpace(*in.TableID) != "" {
			ok, err := catalog.TableInFoodcourt(ctx, tx, *in.TableID, restaurant.FoodcourtID)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ValidationDetails("Table does not belong to this foodcourt", map[string]any{"reason": "TableMismatch"})
			}
		}

		productIDs := make([]string, 0, len(in.Items))
		for _, item := range in.Items {
			productIDs = append(productIDs, item.ProductID)
		}
		products, err := catalog.LoadProducts(ctx, tx, restaurant.ID, productIDs)
		if err != nil {
			return err
		}

		now := e.now()
		orderID := uuid.NewString()
		items := make([]domain.OrderItem, 0, len(in.Items))
		var totalMinor int64
		for _, item := range in.Items {
			product, ok := products[item.ProductID]
			if !ok || !product.Available {
				return domain.ValidationDetails("Product is unavailable", map[string]any{
					"reason":    "ProductUnavailable",
					"productId": item.ProductID,
				})
			}
			label := ""
			if item.VariantLabel != nil {
				label = strings.TrimSpace(*item.VariantLabel)
			}
			unitPrice, ok := product.UnitPriceMinor(label)
			if !ok {
				return domain.ValidationDetails("Unknown product variant", map[string]any{
					"reason":    "UnknownVariant",
					"productId": item.ProductID,
					"variant":   label,
				})
			}
			lineTotal := unitPrice * int64(item.Quantity)
			totalMinor += lineTotal
			var variant *string
			if label != "" {
				variant = &label
			}
			items = append(items, domain.OrderItem{
				ID:                  uuid.NewString(),
				OrderID:             orderID,
				ProductID:           product.ID,
				ProductName:         product.Name,
				VariantLabel:        variant,
				Quantity:            item.Quantity,
				UnitPriceMinor:      unitPrice,
				LineTotalMinor:      lineTotal,
				SpecialInstructions: item.SpecialInstructions,
			})
		}
		if totalMinor <= 0 {
			return domain.Validation("Order total must be positive")
		}

		localDate := utils.LocalDate(now, restaurant.Timezone)
		orderNumber, err := allocateOrderNumber(ctx, tx, restaurant.ID, localDate)
		if err != nil {
			return err
		}

		order := domain.Order{
			ID:                  orderID,
			OrderNumber:         orderNumber,
			RestaurantID:        restaurant.ID,
			TableID:             in.TableID,
			CustomerPrincipalID: in.CustomerPrincipalID,
			CustomerName:        strings.TrimSpace(in.CustomerName),
			CustomerPhone:       strings.TrimSpace(in.CustomerPhone),
			DeliveryType:        in.DeliveryType,
			TotalMinor:          totalMinor,
			Status:              domain.OrderPending,
			Items:               items,
			SpecialInstructions: in.SpecialInstructions,
			CreatedAt:           now,
			UpdatedAt:           now,
		}

		if _, err := tx.Exec(ctx, `
			insert into "order" (id, order_number, restaurant_id, table_id, customer_principal_id,
				customer_name, customer_phone, delivery_type, total_minor, status,
				special_instructions, created_at, updated_at)
			values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		`, order.ID, order.OrderNumber, order.RestaurantID, order.TableID, order.CustomerPrincipalID,
			order.CustomerName, order.CustomerPhone, string(order.DeliveryType), order.TotalMinor,
			string(order.Status), order.SpecialInstructions, order.CreatedAt, order.UpdatedAt); err != nil {
			return err
		}
		for _, item := range items {
			if _, err := tx.Exec(ctx, `
				insert into order_item (id, order_id, product_id, product_name, variant_label,
					quantity, unit_price_minor, line_total_minor, special_instructions)
				values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			`, item.ID, item.OrderID, item.ProductID, item.ProductName, item.VariantLabel,
				item.Quantity, item.UnitPriceMinor, item.LineTotalMinor, item.SpecialInstructions); err != nil {
				return err
			}
		}

		if err := events.Append(ctx, tx, events.New(events.OrderCreated, "order", order.ID, map[string]any{
			"restaurantId": order.RestaurantID,
			"orderNumber":  order.OrderNumber,
			"totalMinor":   order.TotalMinor,
		})); err != nil {
			return err
		}

		created = &order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Transition applies one step of the lifecycle table.
func (e *Engine) Transition(ctx context.Context, orderID string, to domain.OrderStatus, estimatedMinutes *int) (*domain.Order, error) {
	if !ValidStatus(to) {
		return nil, domain.Validation("Unknown target status")
	}
	if estimatedMinutes != nil && *estimatedMinutes < 0 {
		return nil, domain.Validation("estimatedMinutes must not be negative")
	}

	var updated *domain.Order
	err := db.WithSerializableTx(ctx, e.Pool, func(ctx context.Context, tx pgx.Tx) error {
		var from string
		var restaurantID string
		err := tx.QueryRow(ctx, `
			select status, restaurant_id from "order" where id = $1 for update
		`, orderID).Scan(&from, &restaurantID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return domain.NotFound("Order not found")
			}
			return err
		}

		if !CanTransition(domain.OrderStatus(from), to) {
			return domain.IllegalTransition(from, string(to))
		}

		now := e.now()
		if _, err := tx.Exec(ctx, `
			update "order" set status = $1, estimated_minutes = coalesce($2, estimated_minutes), updated_at = $3
			where id = $4
		`, string(to), estimatedMinutes, now, orderID); err != nil {
			return err
		}

		if err := events.Append(ctx, tx, events.New(events.OrderStatusChanged, "order", orderID, map[string]any{
			"restaurantId": restaurantID,
			"from":         from,
			"to":           string(to),
		})); err != nil {
			return err
		}

		order, err := loadOrderTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Cancel moves a non-terminal order to Cancelled. When the order holds a
// completed payment and the caller asked for a refund, the refund runs inside
// the same transaction; its failure rejects the whole cancel.
func (e *Engine) Cancel(ctx context.Context, orderID, reason string, refund bool) (*domain.Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.Validation("Cancellation reason is required")
	}

	var updated *domain.Order
	err := db.WithSerializableTx(ctx, e.Pool, func(ctx context.Context, tx pgx.Tx) error {
		var from string
		var restaurantID string
		err := tx.QueryRow(ctx, `
			select status, restaurant_id from "order" where id = $1 for update
		`, orderID).Scan(&from, &restaurantID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return domain.NotFound("Order not found")
			}
			return err
		}
		if !CanTransition(domain.OrderStatus(from), domain.OrderCancelled) {
			return domain.IllegalTransition(from, string(domain.OrderCancelled))
		}

		if refund {
			var paymentID string
			var paymentStatus string
			var amountMinor int64
			err := tx.QueryRow(ctx, `
				select id, status, amount_minor from payment where order_id = $1 for update
			`, orderID).Scan(&paymentID, &paymentStatus, &amountMinor)
			switch {
			case err == pgx.ErrNoRows:
				// nothing to refund
			case err != nil:
				return err
			case paymentStatus == string(domain.PaymentCompleted):
				if e.Refunder == nil {
					return domain.RefundFailed("Refunds are not configured")
				}
				if err := e.Refunder.RefundInTx(ctx, tx, paymentID, amountMinor, reason); err != nil {
					e.Logger.Warn("cancel refund failed", zap.String("orderId", orderID), zap.Error(err))
					var derr *domain.Error
					if asDomain(err, &derr) && derr.Code == domain.CodeRefundFailed {
						return err
					}
					return domain.RefundFailed("Refund could not be completed")
				}
			}
		}

		now := e.now()
		if _, err := tx.Exec(ctx, `
			update "order" set status = $1, cancellation_reason = $2, updated_at = $3 where id = $4
		`, string(domain.OrderCancelled), reason, now, orderID); err != nil {
			return err
		}

		if err := events.Append(ctx, tx, events.New(events.OrderCancelled, "order", orderID, map[string]any{
			"restaurantId": restaurantID,
			"from":         from,
			"reason":       reason,
		})); err != nil {
			return err
		}

		order, err := loadOrderTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

type BulkResult struct {
	OrderID string `json:"orderId"`
	OK      bool   `json:"ok"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// BulkTransition processes every order in its own transaction; one failure
// never touches its neighbours.
func (e *Engine) BulkTransition(ctx context.Context, orderIDs []string, to domain.OrderStatus) []BulkResult {
	results := make([]BulkResult, 0, len(orderIDs))
	for _, id := range orderIDs {
		_, err := e.Transition(ctx, id, to, nil)
		if err != nil {
			result := BulkResult{OrderID: id, OK: false, Code: string(domain.CodeInternal), Message: "Unexpected error"}
			var derr *domain.Error
			if asDomain(err, &derr) {
				result.Code = string(derr.Code)
				result.Message = derr.Message
			}
			results = append(results, result)
			continue
		}
		results = append(results, BulkResult{OrderID: id, OK: true})
	}
	return results
}
