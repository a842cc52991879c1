package auth

import (
	"strings"

	"github.com/lavapp/api/internal/enum"
)

// RoutePermissions maps API route prefixes to the roles allowed to use them.
// Routes not listed here are denied to everyone.
var RoutePermissions = map[string][]string{
	"/dashboard": {enum.UserRoleAdmin, enum.UserRoleEmployee},
	"/calendar":  {enum.UserRoleAdmin, enum.UserRoleEmployee},
	"/orders":    {enum.UserRoleAdmin},
	"/customers": {enum.UserRoleAdmin},
	"/pieces":    {enum.UserRoleAdmin},
	"/reports":   {enum.UserRoleAdmin},
	"/settings":  {enum.UserRoleAdmin},
	"/wizard":    {enum.UserRoleAdmin},
}

// CanAccessRoute reports whether role may use the given path. The longest
// matching prefix in RoutePermissions wins; unknown paths are denied.
func CanAccessRoute(role, path string) bool {
	var matched string
	for prefix := range RoutePermissions {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			if len(prefix) > len(matched) {
				matched = prefix
			}
		}
	}
	if matched == "" {
		return false
	}
	for _, r := range RoutePermissions[matched] {
		if r == role {
			return true
		}
	}
	return false
}

// CanViewPrices reports whether role may see monetary values. Employees work
// with orders and the calendar without seeing prices.
func CanViewPrices(role string) bool {
	return role == enum.UserRoleAdmin
}
