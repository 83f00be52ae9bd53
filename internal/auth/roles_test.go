package auth

import "testing"

func TestSubstringRoleMatch(t *testing.T) {
	tests := []struct {
		expected string
		actual   string
		want     bool
	}{
		{expected: "admin", actual: "admin", want: true},
		{expected: "admin", actual: "user;admin", want: true},
		{expected: "admin", actual: "administrator", want: true},
		{expected: "admin", actual: "superadmin", want: true},
		{expected: "admin", actual: "user", want: false},
		{expected: "admin", actual: "", want: false},
		{expected: "admin", actual: "ADMIN", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.actual, func(t *testing.T) {
			if got := SubstringRoleMatch(tt.expected, tt.actual); got != tt.want {
				t.Errorf("SubstringRoleMatch(%q, %q) = %v, want %v", tt.expected, tt.actual, got, tt.want)
			}
		})
	}
}

func TestExactRoleMatch(t *testing.T) {
	tests := []struct {
		expected string
		actual   string
		want     bool
	}{
		{expected: "admin", actual: "admin", want: true},
		{expected: "admin", actual: "administrator", want: false},
		{expected: "admin", actual: "user;admin", want: false},
		{expected: "admin", actual: "superadmin", want: false},
		{expected: "admin", actual: "user", want: false},
		{expected: "user", actual: "user", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.expected+"/"+tt.actual, func(t *testing.T) {
			if got := ExactRoleMatch(tt.expected, tt.actual); got != tt.want {
				t.Errorf("ExactRoleMatch(%q, %q) = %v, want %v", tt.expected, tt.actual, got, tt.want)
			}
		})
	}
}

func TestParseRoleMatcher(t *testing.T) {
	sub, err := ParseRoleMatcher(" Substring ")
	if err != nil {
		t.Fatalf("ParseRoleMatcher(substring) error = %v", err)
	}
	if !sub("admin", "superadmin") {
		t.Error("substring matcher should accept superadmin")
	}

	exact, err := ParseRoleMatcher("exact")
	if err != nil {
		t.Fatalf("ParseRoleMatcher(exact) error = %v", err)
	}
	if exact("admin", "superadmin") {
		t.Error("exact matcher should reject superadmin")
	}

	if _, err := ParseRoleMatcher("prefix"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
