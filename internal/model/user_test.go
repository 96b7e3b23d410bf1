package model

import (
	"errors"
	"testing"
)

func TestRoleCan(t *testing.T) {
	tests := []struct {
		role     string
		cap      Capability
		expected bool
	}{
		{RoleOwner, CapViewPrices, true},
		{RoleOwner, CapManageCatalog, true},
		{RoleOwner, CapManageUsers, true},
		{RoleOperator, CapViewPrices, false},
		{RoleOperator, CapManageCatalog, false},
		{RoleOperator, CapManageUsers, false},
		// Unknown roles fail-closed.
		{"unknown", CapViewPrices, false},
		{"", CapViewPrices, false},
		{RoleOwner, "unknown", false},
	}

	for _, tt := range tests {
		got := RoleCan(tt.role, tt.cap)
		if got != tt.expected {
			t.Errorf("RoleCan(%q, %q) = %v, want %v", tt.role, tt.cap, got, tt.expected)
		}
	}
}

func TestValidRole(t *testing.T) {
	if !ValidRole(RoleOwner) || !ValidRole(RoleOperator) {
		t.Error("expected owner and operator to be valid roles")
	}
	if ValidRole("BOSS") {
		t.Error("expected BOSS to be rejected")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"", true},
		{"short", true},
		{"1234567", true},
		{"12345678", false},
		{"a-valid-password", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ValidatePassword(%q) error should wrap ErrInvalidInput", tt.password)
		}
	}
}
