package orders

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"foodcourt-backoffice/internal/catalog"
	"foodcourt-backoffice/internal/domain"
)

func asDomain(err error, target **domain.Error) bool {
	return errors.As(err, target)
}

func scanOrder(row pgx.Row, order *domain.Order) error {
	var deliveryType, status string
	err := row.Scan(
		&order.ID, &order.OrderNumber, &order.RestaurantID, &order.TableID,
		&order.CustomerPrincipalID, &order.CustomerName, &order.CustomerPhone,
		&deliveryType, &order.TotalMinor, &status, &order.SpecialInstructions,
		&order.EstimatedMinutes, &order.CancellationReason,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return err
	}
	order.DeliveryType = domain.DeliveryType(deliveryType)
	order.Status = domain.OrderStatus(status)
	return nil
}

const orderColumns = `id, order_number, restaurant_id, table_id, customer_principal_id,
	customer_name, customer_phone, delivery_type, total_minor, status,
	special_instructions, estimated_minutes, cancellation_reason, created_at, updated_at`

func loadOrderTx(ctx context.Context, q catalog.Querier, orderID string) (*domain.Order, error) {
	var order domain.Order
	err := scanOrder(q.QueryRow(ctx, `select `+orderColumns+` from "order" where id = $1`, orderID), &order)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.NotFound("Order not found")
		}
		return nil, err
	}

	rows, err := q.Query(ctx, `
		select id, order_id, product_id, product_name, variant_label, quantity,
		       unit_price_minor, line_total_minor, special_instructions
		from order_item
		where order_id = $1
		order by id asc
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.VariantLabel, &item.Quantity, &item.UnitPriceMinor, &item.LineTotalMinor,
			&item.SpecialInstructions); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	order.Items = items
	return &order, rows.Err()
}

// Get loads a fully hydrated order aggregate.
func (e *Engine) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	return loadOrderTx(ctx, e.Pool, orderID)
}

type ListFilter struct {
	RestaurantID string
	Status       string
	LocalDate    string // YYYYMMDD in the restaurant's timezone, optional
}

// List returns the orders for a restaurant, newest first, without items.
func (e *Engine) List(ctx context.Context, filter ListFilter) ([]domain.Order, error) {
	query := `select ` + orderColumns + ` from "order" where restaurant_id = $1`
	args := []any{filter.RestaurantID}

	if strings.TrimSpace(filter.Status) != "" {
		args = append(args, strings.ToUpper(strings.TrimSpace(filter.Status)))
		query += ` and status = $2`
	}
	if strings.TrimSpace(filter.LocalDate) != "" {
		args = append(args, strings.TrimSpace(filter.LocalDate)+"-%")
		query += ` and order_number like $` + strconv.Itoa(len(args))
	}
	query += ` order by created_at desc limit 200`

	rows, err := e.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Order, 0)
	for rows.Next() {
		var order domain.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, rows.Err()
}
