package payments

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"foodcourt-backoffice/internal/db/dbtest"
	"foodcourt-backoffice/internal/domain"
)

func TestSettlementSplit(t *testing.T) {
	tests := []struct {
		name                         string
		status                       domain.PaymentStatus
		gross, commission, net       int64
		wantGross, wantComm, wantNet int64
	}{
		{"completed keeps frozen split", domain.PaymentCompleted, 1500, 150, 1350, 1500, 150, 1350},
		{"refunded settles to zero", domain.PaymentRefunded, 1500, 150, 1350, 0, 0, 0},
		{"zero commission passes through", domain.PaymentCompleted, 1000, 0, 1000, 1000, 0, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gross, comm, net := SettlementSplit(tt.status, tt.gross, tt.commission, tt.net)
			if gross != tt.wantGross || comm != tt.wantComm || net != tt.wantNet {
				t.Fatalf("SettlementSplit = (%d, %d, %d), expected (%d, %d, %d)",
					gross, comm, net, tt.wantGross, tt.wantComm, tt.wantNet)
			}
		})
	}
}

// A fully refunded payment appears in the payout with zero gross, commission
// and net; the frozen amounts on the row do not leak into the totals.
func TestPayoutRefundedPaymentsSettleToZero(t *testing.T) {
	fake := &dbtest.Fake{
		QueryFn: func(sql string, args []any) (pgx.Rows, error) {
			if !strings.Contains(sql, "from payment p") {
				return &dbtest.Rows{}, nil
			}
			return &dbtest.Rows{Data: [][]any{
				{"pay-1", "ord-1", "CARD_PSP_A", string(domain.PaymentCompleted), int64(2000), int64(200), int64(1800)},
				{"pay-2", "ord-2", "CARD_PSP_A", string(domain.PaymentRefunded), int64(1500), int64(150), int64(1350)},
			}}, nil
		},
	}
	broker := &Broker{Pool: fake, Logger: zap.NewNop()}

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	summary, err := broker.Payout(context.Background(), "rest-1", from, from.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(summary.Lines) != 2 {
		t.Fatalf("lines = %d, expected 2", len(summary.Lines))
	}
	refunded := summary.Lines[1]
	if refunded.GrossMinor != 0 || refunded.CommissionMinor != 0 || refunded.NetMinor != 0 {
		t.Fatalf("refunded line = %+v, expected all-zero settlement", refunded)
	}
	if summary.TotalGrossMinor != 2000 || summary.TotalCommissionMinor != 200 || summary.TotalNetMinor != 1800 {
		t.Fatalf("totals = (%d, %d, %d), expected only the completed payment to count",
			summary.TotalGrossMinor, summary.TotalCommissionMinor, summary.TotalNetMinor)
	}
}
