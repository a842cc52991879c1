package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Customer struct {
	ID        uuid.UUID
	Code      string
	Name      string
	Phone     string
	Email     pgtype.Text
	Address   pgtype.Text
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Piece struct {
	ID        uuid.UUID
	Name      string
	Price     pgtype.Numeric
	UnitType  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Order struct {
	ID                  uuid.UUID
	Code                string
	CustomerID          pgtype.UUID
	IsAnonymous         bool
	Total               pgtype.Numeric
	Status              string
	DeliveryType        string
	PickupDate          time.Time
	PickupTime          string
	DeliveryDate        time.Time
	DeliveryTime        string
	DeliveryAddress     pgtype.Text
	Notes               pgtype.Text
	SpecialInstructions pgtype.Text
	PaymentMethod       pgtype.Text
	IsPaid              bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	PieceID   uuid.UUID
	Quantity  int32
	UnitPrice pgtype.Numeric
	Subtotal  pgtype.Numeric
}

// OrderItemWithPiece is an order item joined with its piece for the
// name/unit-type snapshot used in responses.
type OrderItemWithPiece struct {
	OrderItem
	PieceName     string
	PieceUnitType string
}

type OrderHistory struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	Action      string
	Description string
	CreatedAt   time.Time
}

type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Role         string
	PasswordHash string
	IsActive     bool
}

type CompanySettings struct {
	ID        uuid.UUID
	Name      string
	Phone     pgtype.Text
	Address   pgtype.Text
	LogoURL   pgtype.Text
	CreatedAt time.Time
	UpdatedAt time.Time
}
