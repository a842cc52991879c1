package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lavapp/api/internal/database"
)

type mockCustomerCreator struct {
	fn func(ctx context.Context, arg database.CreateCustomerParams) (database.Customer, error)
}

func (m *mockCustomerCreator) CreateCustomer(ctx context.Context, arg database.CreateCustomerParams) (database.Customer, error) {
	return m.fn(ctx, arg)
}

func TestGenerateCustomerCode(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
	}{
		{"João Silva", `^JS\d{3}$`},
		{"Maria", `^M\d{3}$`},
		{"Ana Paula de Souza", `^APD\d{3}$`},
		{"josé carlos", `^JC\d{3}$`},
	}
	for _, tt := range tests {
		code := GenerateCustomerCode(tt.name)
		if !regexp.MustCompile(tt.pattern).MatchString(code) {
			t.Errorf("GenerateCustomerCode(%q) = %q, want match %s", tt.name, code, tt.pattern)
		}
	}
}

func TestCreateCustomerRetriesOnCodeCollision(t *testing.T) {
	attempts := 0
	store := &mockCustomerCreator{fn: func(ctx context.Context, arg database.CreateCustomerParams) (database.Customer, error) {
		attempts++
		if attempts == 1 {
			return database.Customer{}, &pgconn.PgError{Code: "23505", ConstraintName: "customers_code_key"}
		}
		return database.Customer{Code: arg.Code, Name: arg.Name, Phone: arg.Phone}, nil
	}}

	customer, err := CreateCustomer(context.Background(), store, "João Silva", "11999998888", "", "")
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if customer.Name != "João Silva" {
		t.Errorf("name = %q", customer.Name)
	}
}

func TestCreateCustomerGivesUp(t *testing.T) {
	store := &mockCustomerCreator{fn: func(ctx context.Context, arg database.CreateCustomerParams) (database.Customer, error) {
		return database.Customer{}, &pgconn.PgError{Code: "23505", ConstraintName: "customers_code_key"}
	}}

	if _, err := CreateCustomer(context.Background(), store, "João Silva", "11999998888", "", ""); !errors.Is(err, ErrCustomerCodeExhausted) {
		t.Errorf("err = %v, want ErrCustomerCodeExhausted", err)
	}
}

func TestCreateCustomerPropagatesOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	store := &mockCustomerCreator{fn: func(ctx context.Context, arg database.CreateCustomerParams) (database.Customer, error) {
		return database.Customer{}, boom
	}}

	if _, err := CreateCustomer(context.Background(), store, "João Silva", "11999998888", "", ""); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}
