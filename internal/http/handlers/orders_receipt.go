package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/phpdave11/gofpdf"

	"foodcourt-backoffice/internal/auth"
	"foodcourt-backoffice/internal/domain"
	"foodcourt-backoffice/pkg/response"
)

// formatMinor renders an integer minor-unit amount in major units. This is
// the only place amounts are divided by 100.
func formatMinor(amountMinor int64, currency string) string {
	sign := ""
	if amountMinor < 0 {
		sign = "-"
		amountMinor = -amountMinor
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amountMinor/100, amountMinor%100, currency)
}

// OrderReceipt renders the order as a PDF receipt.
func (h *Handler) OrderReceipt(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := caller(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "orderId")

	scope, err := h.orderScope(r.Context(), authCtx, orderID)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	if !auth.Allowed(authCtx.Role, auth.VerbReadOrder, scope.Resource) {
		response.DomainError(w, domain.Forbidden("You cannot view this order"))
		return
	}

	order, err := h.Orders.Get(r.Context(), orderID)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	var restaurantName, currency string
	if err := h.DB.QueryRow(r.Context(), `
		select name, coalesce(currency, 'RUB') from restaurant where id = $1
	`, order.RestaurantID).Scan(&restaurantName, &currency); err != nil {
		response.DomainError(w, err)
		return
	}

	var paymentLine string
	var method, status string
	err = h.DB.QueryRow(r.Context(), `
		select method, status from payment where order_id = $1
	`, order.ID).Scan(&method, &status)
	switch {
	case err == pgx.ErrNoRows:
		// unpaid order: receipt still renders
	case err != nil:
		response.DomainError(w, err)
		return
	default:
		paymentLine = fmt.Sprintf("%s (%s)", method, status)
	}

	buf, err := renderReceiptPDF(restaurantName, currency, order, paymentLine)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=receipt_%s.pdf", order.OrderNumber))
	_, _ = w.Write(buf.Bytes())
}

func renderReceiptPDF(restaurantName, currency string, order *domain.Order, paymentLine string) (*bytes.Buffer, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, restaurantName, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Order %s", order.OrderNumber), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, string(order.DeliveryType), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Placed: %s", order.CreatedAt.Format("2006-01-02 15:04")), "", 1, "C", false, 0, "")
	if order.CustomerName != "" {
		pdf.CellFormat(0, 5, order.CustomerName, "", 1, "C", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Items", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, item := range order.Items {
		name := item.ProductName
		if item.VariantLabel != nil {
			name = fmt.Sprintf("%s (%s)", name, *item.VariantLabel)
		}
		pdf.CellFormat(0, 5, fmt.Sprintf("%dx %s", item.Quantity, name), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("  %s each, %s", formatMinor(item.UnitPriceMinor, currency), formatMinor(item.LineTotalMinor, currency)), "", 1, "L", false, 0, "")
		if item.SpecialInstructions != nil {
			pdf.MultiCell(0, 4, fmt.Sprintf("  Notes: %s", *item.SpecialInstructions), "", "L", false)
		}
	}

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total: %s", formatMinor(order.TotalMinor, currency)), "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	if paymentLine != "" {
		pdf.CellFormat(0, 5, fmt.Sprintf("Payment: %s", paymentLine), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 5, fmt.Sprintf("Status: %s", order.Status), "", 1, "L", false, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
