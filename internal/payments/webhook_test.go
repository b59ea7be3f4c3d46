package payments

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"foodcourt-backoffice/internal/db/dbtest"
	"foodcourt-backoffice/internal/domain"
)

// A redelivered provider event must settle the payment exactly once: the
// second delivery hits the processed_webhook guard and changes nothing.
func TestHandleWebhookReplayGuard(t *testing.T) {
	seen := map[string]bool{}
	fake := &dbtest.Fake{
		ExecFn: func(sql string, args []any) (pgconn.CommandTag, error) {
			if strings.Contains(sql, "insert into processed_webhook") {
				key := args[0].(string) + "/" + args[1].(string)
				if seen[key] {
					return pgconn.NewCommandTag("INSERT 0 0"), nil
				}
				seen[key] = true
				return pgconn.NewCommandTag("INSERT 0 1"), nil
			}
			return pgconn.NewCommandTag("OK"), nil
		},
		QueryRowFn: func(sql string, args []any) pgx.Row {
			if strings.Contains(sql, "from payment") {
				return &dbtest.Row{Values: []any{"pay-1", "ord-1", string(domain.PaymentPending)}}
			}
			return &dbtest.Row{}
		},
	}

	broker := &Broker{
		Pool:      fake,
		Logger:    zap.NewNop(),
		Providers: map[string]Adapter{"pspa": NewPSPA("sk_test", "", time.Second)},
	}

	body := []byte(`{"id":"evt_1","type":"charge.succeeded","data":{"intent":"pi_1","amount":1500}}`)
	headers := http.Header{}
	headers.Set("Pspa-Signature", signPSPA("sk_test", time.Now().Unix(), body))

	for i := 0; i < 2; i++ {
		if err := broker.HandleWebhook(context.Background(), "pspa", body, headers); err != nil {
			t.Fatalf("delivery %d: unexpected error: %v", i+1, err)
		}
	}

	var statusUpdates, outboxAppends int
	for _, stmt := range fake.Stmts {
		if strings.Contains(stmt.SQL, "update payment set status") {
			statusUpdates++
		}
		if strings.Contains(stmt.SQL, "insert into outbox") {
			outboxAppends++
		}
	}
	if statusUpdates != 1 {
		t.Fatalf("payment status updated %d times, expected once", statusUpdates)
	}
	if outboxAppends != 1 {
		t.Fatalf("outbox appended %d times, expected once", outboxAppends)
	}
	if fake.Commits != 2 {
		t.Fatalf("commits = %d, expected 2 (the replay still commits its guard check)", fake.Commits)
	}
}
