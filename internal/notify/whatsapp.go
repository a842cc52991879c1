// Package notify builds WhatsApp deep links with pre-filled pt-BR messages.
// The API returns the link; opening it is the operator's click away.
package notify

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/lavapp/api/internal/enum"
	"github.com/lavapp/api/internal/service"
)

// WhatsApp builds notification links for a configured company number.
type WhatsApp struct {
	companyPhone string
	trackingURL  string
}

// NewWhatsApp normalizes the company phone once at startup. trackingURL is
// printed in customer messages so they can follow their order.
func NewWhatsApp(companyPhone, trackingURL string) *WhatsApp {
	return &WhatsApp{
		companyPhone: NormalizePhone(companyPhone),
		trackingURL:  trackingURL,
	}
}

// NormalizePhone strips non-digits and prefixes the Brazil country code for
// local 10 and 11 digit numbers.
func NormalizePhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	cleaned := digits.String()
	if len(cleaned) == 10 || len(cleaned) == 11 {
		return "55" + cleaned
	}
	return cleaned
}

// Link builds a wa.me URL for the given phone with a pre-filled message.
func Link(phone, message string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", phone, url.QueryEscape(message))
}

// OrderCreatedLink returns the deep link announcing a new order.
func (w *WhatsApp) OrderCreatedLink(order service.OrderDetail) string {
	return Link(w.companyPhone, w.OrderCreatedMessage(order))
}

// OrderReadyLink returns the deep link announcing a ready order.
func (w *WhatsApp) OrderReadyLink(order service.OrderDetail) string {
	return Link(w.companyPhone, w.OrderReadyMessage(order))
}

// OrderCreatedMessage renders the pt-BR confirmation for a new order.
func (w *WhatsApp) OrderCreatedMessage(order service.OrderDetail) string {
	var items []string
	for _, item := range order.Items {
		items = append(items, fmt.Sprintf("  • %dx %s - %s",
			item.Quantity, item.PieceName, formatCurrency(numericToDecimal(item.Subtotal))))
	}

	deliveryInfo := "📍 Retirada na loja"
	if order.Order.DeliveryType == enum.DeliveryTypeDelivery {
		deliveryInfo = "📍 Entrega no endereço cadastrado"
	}

	return fmt.Sprintf(`🧺 *LavApp - Novo Pedido*

Olá%s! Seu pedido foi registrado.

📋 *Código:* %s

📦 *Itens:*
%s

💰 *Total:* %s

📅 *Previsão de entrega:* %s às %s
%s

Acompanhe seu pedido em: %s

Obrigado por escolher a LavApp! 🧺`,
		greetingName(order),
		order.Order.Code,
		strings.Join(items, "\n"),
		formatCurrency(numericToDecimal(order.Order.Total)),
		order.Order.DeliveryDate.Format("02/01/2006"), order.Order.DeliveryTime,
		deliveryInfo,
		w.trackingURL)
}

// OrderReadyMessage renders the pt-BR message for a ready order.
func (w *WhatsApp) OrderReadyMessage(order service.OrderDetail) string {
	pickupInfo := "📍 Retire seu pedido na loja."
	if order.Order.DeliveryType == enum.DeliveryTypeDelivery {
		pickupInfo = "🚚 Seu pedido será entregue no endereço cadastrado."
	}

	return fmt.Sprintf(`✅ *LavApp - Pedido Pronto!*

Olá%s!

Seu pedido *%s* está pronto! 🎉

%s

💰 *Total a pagar:* %s

Obrigado por escolher a LavApp! 🧺`,
		greetingName(order),
		order.Order.Code,
		pickupInfo,
		formatCurrency(numericToDecimal(order.Order.Total)))
}

// greetingName yields ", <first name>" for identified customers, empty for
// anonymous orders.
func greetingName(order service.OrderDetail) string {
	if order.Customer == nil || order.Customer.Name == "" {
		return ""
	}
	first := strings.Fields(order.Customer.Name)[0]
	return ", " + first
}

func formatCurrency(d decimal.Decimal) string {
	return "R$ " + strings.ReplaceAll(d.StringFixed(2), ".", ",")
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}
