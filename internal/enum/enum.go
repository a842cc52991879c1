package enum

// ── State machines (CHECK constrained in DB) ──

const (
	OrderStatusReceived  = "RECEIVED"
	OrderStatusWashing   = "WASHING"
	OrderStatusReady     = "READY"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCancelled = "CANCELLED"
)

// OrderStatusLabels are the pt-BR labels used in history descriptions and
// customer-facing messages.
var OrderStatusLabels = map[string]string{
	OrderStatusReceived:  "Recebido",
	OrderStatusWashing:   "Em lavagem",
	OrderStatusReady:     "Pronto",
	OrderStatusDelivered: "Entregue",
	OrderStatusCancelled: "Cancelado",
}

const (
	HistoryActionCreated              = "CREATED"
	HistoryActionStatusChanged        = "STATUS_CHANGED"
	HistoryActionItemsUpdated         = "ITEMS_UPDATED"
	HistoryActionDeliveryUpdated      = "DELIVERY_UPDATED"
	HistoryActionPaymentStatusChanged = "PAYMENT_STATUS_CHANGED"
)

// ── Order attributes (CHECK constrained in DB) ──

const (
	DeliveryTypePickup   = "PICKUP"
	DeliveryTypeDelivery = "DELIVERY"
)

var DeliveryTypeLabels = map[string]string{
	DeliveryTypePickup:   "Retirada",
	DeliveryTypeDelivery: "Entrega",
}

const (
	PaymentMethodCash       = "CASH"
	PaymentMethodCreditCard = "CREDIT_CARD"
	PaymentMethodDebitCard  = "DEBIT_CARD"
	PaymentMethodPix        = "PIX"
)

var PaymentMethodLabels = map[string]string{
	PaymentMethodCash:       "Dinheiro",
	PaymentMethodCreditCard: "Cartão de Crédito",
	PaymentMethodDebitCard:  "Cartão de Débito",
	PaymentMethodPix:        "PIX",
}

const (
	UnitTypeUnit = "UNIT"
	UnitTypePair = "PAIR"
)

const (
	UserRoleAdmin    = "admin"
	UserRoleEmployee = "employee"
)

// IsValidOrderStatus reports whether s is one of the five order statuses.
func IsValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusReceived, OrderStatusWashing, OrderStatusReady,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminalOrderStatus reports whether s is DELIVERED or CANCELLED.
func IsTerminalOrderStatus(s string) bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// IsValidDeliveryType reports whether s is PICKUP or DELIVERY.
func IsValidDeliveryType(s string) bool {
	return s == DeliveryTypePickup || s == DeliveryTypeDelivery
}

// IsValidPaymentMethod reports whether s is a known payment method.
func IsValidPaymentMethod(s string) bool {
	switch s {
	case PaymentMethodCash, PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodPix:
		return true
	}
	return false
}

// IsValidUnitType reports whether s is UNIT or PAIR.
func IsValidUnitType(s string) bool {
	return s == UnitTypeUnit || s == UnitTypePair
}
