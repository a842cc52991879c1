package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lavapp/api/internal/database"
)

const maxCustomerCodeRetries = 3

// ErrCustomerCodeExhausted is returned when code generation keeps colliding.
var ErrCustomerCodeExhausted = errors.New("could not generate a unique customer code")

// CustomerCreator is the single write the customer service needs.
// Satisfied by *database.Queries.
type CustomerCreator interface {
	CreateCustomer(ctx context.Context, arg database.CreateCustomerParams) (database.Customer, error)
}

// GenerateCustomerCode builds a short lookup code from the customer's name:
// the first letter of up to three words, uppercased, plus three random digits.
func GenerateCustomerCode(name string) string {
	var initials strings.Builder
	for _, word := range strings.Fields(name) {
		if initials.Len() == 3 {
			break
		}
		r := []rune(word)[0]
		initials.WriteRune(unicode.ToUpper(r))
	}
	return fmt.Sprintf("%s%03d", initials.String(), rand.Intn(1000))
}

// CreateCustomer generates a code and inserts the customer, regenerating on
// the rare code collision.
func CreateCustomer(ctx context.Context, store CustomerCreator, name, phone string, email, address string) (database.Customer, error) {
	for attempt := 0; attempt < maxCustomerCodeRetries; attempt++ {
		customer, err := store.CreateCustomer(ctx, database.CreateCustomerParams{
			Code:    GenerateCustomerCode(name),
			Name:    name,
			Phone:   phone,
			Email:   textOrNull(email),
			Address: textOrNull(address),
		})
		if err == nil {
			return customer, nil
		}
		if isCustomerCodeConflict(err) {
			continue
		}
		return database.Customer{}, err
	}
	return database.Customer{}, ErrCustomerCodeExhausted
}

func isCustomerCodeConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "customers_code_key"
	}
	return false
}
