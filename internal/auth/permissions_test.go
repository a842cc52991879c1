package auth

import (
	"testing"

	"github.com/lavapp/api/internal/enum"
)

func TestCanAccessRoute(t *testing.T) {
	tests := []struct {
		role string
		path string
		want bool
	}{
		{enum.UserRoleAdmin, "/orders", true},
		{enum.UserRoleAdmin, "/orders/123", true},
		{enum.UserRoleAdmin, "/reports", true},
		{enum.UserRoleEmployee, "/orders", false},
		{enum.UserRoleEmployee, "/orders/123", false},
		{enum.UserRoleEmployee, "/calendar", true},
		{enum.UserRoleEmployee, "/calendar/month", true},
		{enum.UserRoleEmployee, "/dashboard", true},
		{enum.UserRoleEmployee, "/reports", false},
		{enum.UserRoleEmployee, "/settings", false},
		// Unknown paths are denied regardless of role.
		{enum.UserRoleAdmin, "/unknown", false},
		{enum.UserRoleEmployee, "", false},
		// Prefix must match on a path boundary.
		{enum.UserRoleEmployee, "/calendarx", false},
	}
	for _, tt := range tests {
		if got := CanAccessRoute(tt.role, tt.path); got != tt.want {
			t.Errorf("CanAccessRoute(%q, %q) = %v, want %v", tt.role, tt.path, got, tt.want)
		}
	}
}

func TestCanViewPrices(t *testing.T) {
	if !CanViewPrices(enum.UserRoleAdmin) {
		t.Error("admin should view prices")
	}
	if CanViewPrices(enum.UserRoleEmployee) {
		t.Error("employee should not view prices")
	}
}
