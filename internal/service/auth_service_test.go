package service

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"sitebuilder-backend/internal/constants"
	"sitebuilder-backend/internal/models"
)

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return string(hash)
}

func TestParseAccounts(t *testing.T) {
	hash := hashPassword(t, "secret")

	accounts, err := ParseAccounts([]string{
		"owner@example.com:admin:" + hash,
		"writer@example.com::" + hash,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if accounts[0].Role != constants.RoleAdmin {
		t.Fatalf("expected admin role, got %q", accounts[0].Role)
	}
	if accounts[1].Role != constants.RoleEditor {
		t.Fatalf("expected default editor role, got %q", accounts[1].Role)
	}

	invalid := []string{
		"missing-parts",
		"owner@example.com:root:" + hash,
		"owner@example.com:admin:not-a-hash",
	}
	for _, entry := range invalid {
		if _, err := ParseAccounts([]string{entry}); err == nil {
			t.Fatalf("expected error for %q", entry)
		}
	}
}

func TestAuthServiceLogin(t *testing.T) {
	svc := NewAuthService([]models.EditorAccount{{
		Email:        "Owner@Example.com",
		Role:         constants.RoleAdmin,
		PasswordHash: hashPassword(t, "secret"),
	}}, "test-secret")

	token, account, err := svc.Login(models.LoginRequest{Email: "owner@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" || account.Role != constants.RoleAdmin {
		t.Fatalf("expected admin token, got %q %+v", token, account)
	}

	if _, _, err := svc.Login(models.LoginRequest{Email: "owner@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(models.LoginRequest{Email: "nobody@example.com", Password: "secret"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
