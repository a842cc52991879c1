// Package wizard holds the four-step order draft: customer, items, delivery,
// confirmation. Drafts live server-side so a half-built order survives page
// reloads; submitting one goes through the order service.
package wizard

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/lavapp/api/internal/database"
	"github.com/lavapp/api/internal/enum"
)

// Wizard steps.
const (
	StepCustomer = 1
	StepItems    = 2
	StepDelivery = 3
	StepConfirm  = 4
)

// ItemDraft is a piece added to the draft with its quantity and running
// subtotal at the catalog price.
type ItemDraft struct {
	Piece    database.Piece
	Quantity int32
	Subtotal decimal.Decimal
}

// Draft is the in-progress order state.
type Draft struct {
	ID          uuid.UUID
	CurrentStep int

	Customer    *database.Customer
	IsAnonymous bool

	Items []ItemDraft

	DeliveryType        string
	PickupDate          string // YYYY-MM-DD
	PickupTime          string // HH:MM
	DeliveryDate        string
	DeliveryTime        string
	DeliveryAddress     string
	Notes               string
	SpecialInstructions string
}

// NewDraft starts an empty draft at the customer step with PICKUP preselected.
func NewDraft() *Draft {
	return &Draft{
		ID:           uuid.New(),
		CurrentStep:  StepCustomer,
		DeliveryType: enum.DeliveryTypePickup,
	}
}

// SetCustomer selects the customer (or anonymous mode) and advances to the
// items step when a choice was made.
func (d *Draft) SetCustomer(customer *database.Customer, isAnonymous bool) {
	d.Customer = customer
	d.IsAnonymous = isAnonymous
	if customer != nil || isAnonymous {
		d.CurrentStep = StepItems
	}
}

// AddItem adds one unit of a piece. Adding a piece already on the draft
// increments its quantity instead of creating a second line.
func (d *Draft) AddItem(piece database.Piece) {
	price := numericToDecimal(piece.Price)
	for i, item := range d.Items {
		if item.Piece.ID == piece.ID {
			qty := item.Quantity + 1
			d.Items[i].Quantity = qty
			d.Items[i].Subtotal = price.Mul(decimal.NewFromInt32(qty))
			return
		}
	}
	d.Items = append(d.Items, ItemDraft{Piece: piece, Quantity: 1, Subtotal: price})
}

// RemoveItem drops a piece's line from the draft.
func (d *Draft) RemoveItem(pieceID uuid.UUID) {
	for i, item := range d.Items {
		if item.Piece.ID == pieceID {
			d.Items = append(d.Items[:i], d.Items[i+1:]...)
			return
		}
	}
}

// SetItemQuantity sets a line's quantity, removing the line when quantity
// drops to zero or below.
func (d *Draft) SetItemQuantity(pieceID uuid.UUID, quantity int32) {
	if quantity <= 0 {
		d.RemoveItem(pieceID)
		return
	}
	for i, item := range d.Items {
		if item.Piece.ID == pieceID {
			d.Items[i].Quantity = quantity
			d.Items[i].Subtotal = numericToDecimal(item.Piece.Price).Mul(decimal.NewFromInt32(quantity))
			return
		}
	}
}

// Total sums the line subtotals.
func (d *Draft) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range d.Items {
		total = total.Add(item.Subtotal)
	}
	return total
}

// CanProceed reports whether the current step is complete enough to advance.
func (d *Draft) CanProceed() bool {
	switch d.CurrentStep {
	case StepCustomer:
		return d.Customer != nil || d.IsAnonymous
	case StepItems:
		return len(d.Items) > 0
	case StepDelivery:
		return d.PickupDate != "" && d.PickupTime != "" &&
			d.DeliveryDate != "" && d.DeliveryTime != "" &&
			(d.DeliveryType == enum.DeliveryTypePickup || d.DeliveryAddress != "")
	case StepConfirm:
		return true
	}
	return false
}

// Advance moves to the next step if the current one is complete.
func (d *Draft) Advance() bool {
	if d.CurrentStep >= StepConfirm || !d.CanProceed() {
		return false
	}
	d.CurrentStep++
	return true
}

// Back moves to the previous step.
func (d *Draft) Back() bool {
	if d.CurrentStep <= StepCustomer {
		return false
	}
	d.CurrentStep--
	return true
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
