package orders

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// FormatOrderNumber renders YYYYMMDD-NNN with zero-padded NNN starting at 1.
func FormatOrderNumber(localDate string, value int64) string {
	return fmt.Sprintf("%s-%03d", localDate, value)
}

// allocateOrderNumber increments the per-(restaurant, local day) counter and
// returns the formatted number. The upsert takes the counter row lock, so the
// sequence is gapless within the creating transaction: a crash before commit
// rolls the increment back together with the order insert.
func allocateOrderNumber(ctx context.Context, tx pgx.Tx, restaurantID, localDate string) (string, error) {
	var value int64
	err := tx.QueryRow(ctx, `
		insert into order_number_counter (restaurant_id, local_date, value)
		values ($1, $2, 1)
		on conflict (restaurant_id, local_date)
		do update set value = order_number_counter.value + 1
		returning value
	`, restaurantID, localDate).Scan(&value)
	if err != nil {
		return "", err
	}
	return FormatOrderNumber(localDate, value), nil
}
