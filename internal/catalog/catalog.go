package catalog

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"foodcourt-backoffice/internal/domain"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx, so snapshot loads
// can run inside the caller's transaction.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Restaurant is the read-side snapshot the order and payment engines consume.
// The core never mutates catalog state.
type Restaurant struct {
	ID               string
	Name             string
	OwnerPrincipalID string
	FoodcourtID      string
	FoodcourtActive  bool
	CommissionRate   float64
	Published        bool
	Timezone         string
	Currency         string
}

type Variant struct {
	Label              string
	PriceModifierMinor int64
}

type Product struct {
	ID             string
	RestaurantID   string
	Name           string
	BasePriceMinor int64
	Available      bool
	Variants       []Variant
}

// UnitPriceMinor resolves the frozen price for an order line. The zero label
// means the base product.
func (p Product) UnitPriceMinor(variantLabel string) (int64, bool) {
	if strings.TrimSpace(variantLabel) == "" {
		return p.BasePriceMinor, true
	}
	for _, v := range p.Variants {
		if v.Label == variantLabel {
			return p.BasePriceMinor + v.PriceModifierMinor, true
		}
	}
	return 0, false
}

func LoadRestaurant(ctx context.Context, q Querier, restaurantID string) (*Restaurant, error) {
	var r Restaurant
	err := q.QueryRow(ctx, `
		select r.id, r.name, r.owner_principal_id, r.foodcourt_id, f.active,
		       r.commission_rate, r.published, r.timezone, r.currency
		from restaurant r
		join foodcourt f on f.id = r.foodcourt_id
		where r.id = $1
	`, restaurantID).Scan(
		&r.ID, &r.Name, &r.OwnerPrincipalID, &r.FoodcourtID, &r.FoodcourtActive,
		&r.CommissionRate, &r.Published, &r.Timezone, &r.Currency,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.NotFound("Restaurant not found")
		}
		return nil, err
	}
	if strings.TrimSpace(r.Timezone) == "" {
		r.Timezone = "UTC"
	}
	if strings.TrimSpace(r.Currency) == "" {
		r.Currency = "RUB"
	}
	return &r, nil
}

// TableInFoodcourt verifies the table belongs to the restaurant's foodcourt.
func TableInFoodcourt(ctx context.Context, q Querier, tableID, foodcourtID string) (bool, error) {
	var ok bool
	err := q.QueryRow(ctx, `
		select exists(select 1 from foodcourt_table where id = $1 and foodcourt_id = $2)
	`, tableID, foodcourtID).Scan(&ok)
	return ok, err
}

// LoadProducts hydrates the product snapshots for the requested ids,
// restricted to the given restaurant. Missing or unavailable products are
// simply absent from the result map.
func LoadProducts(ctx context.Context, q Querier, restaurantID string, productIDs []string) (map[string]Product, error) {
	if len(productIDs) == 0 {
		return map[string]Product{}, nil
	}

	products := make(map[string]Product)
	rows, err := q.Query(ctx, `
		select id, restaurant_id, name, base_price_minor, available
		from product
		where restaurant_id = $1 and id = any($2)
	`, restaurantID, productIDs)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.RestaurantID, &p.Name, &p.BasePriceMinor, &p.Available); err != nil {
			rows.Close()
			return nil, err
		}
		products[p.ID] = p
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	variantRows, err := q.Query(ctx, `
		select product_id, label, price_modifier_minor
		from product_variant
		where product_id = any($2) and exists(select 1 from product p where p.id = product_id and p.restaurant_id = $1)
	`, restaurantID, productIDs)
	if err != nil {
		return nil, err
	}
	defer variantRows.Close()
	for variantRows.Next() {
		var productID string
		var v Variant
		if err := variantRows.Scan(&productID, &v.Label, &v.PriceModifierMinor); err != nil {
			return nil, err
		}
		p, ok := products[productID]
		if !ok {
			continue
		}
		p.Variants = append(p.Variants, v)
		products[productID] = p
	}
	return products, variantRows.Err()
}
