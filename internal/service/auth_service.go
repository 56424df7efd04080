package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"sitebuilder-backend/internal/constants"
	"sitebuilder-backend/internal/middleware"
	"sitebuilder-backend/internal/models"
)

const authTokenTTL = 72 * time.Hour

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	accounts  map[string]models.EditorAccount
	jwtSecret string
}

func NewAuthService(accounts []models.EditorAccount, jwtSecret string) *AuthService {
	index := make(map[string]models.EditorAccount, len(accounts))
	for _, account := range accounts {
		index[strings.ToLower(account.Email)] = account
	}
	return &AuthService{accounts: index, jwtSecret: jwtSecret}
}

// ParseAccounts reads "email:role:bcrypt-hash" entries. Role defaults to
// editor when empty.
func ParseAccounts(entries []string) ([]models.EditorAccount, error) {
	accounts := make([]models.EditorAccount, 0, len(entries))
	for _, entry := range entries {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 3)
		if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
			return nil, fmt.Errorf("invalid editor account %q", entry)
		}

		role := strings.ToLower(strings.TrimSpace(parts[1]))
		switch role {
		case "":
			role = constants.RoleEditor
		case constants.RoleEditor, constants.RoleAdmin:
		default:
			return nil, fmt.Errorf("invalid role %q for %s", role, parts[0])
		}

		if _, err := bcrypt.Cost([]byte(parts[2])); err != nil {
			return nil, fmt.Errorf("invalid password hash for %s: %w", parts[0], err)
		}

		accounts = append(accounts, models.EditorAccount{
			Email:        strings.TrimSpace(parts[0]),
			Role:         role,
			PasswordHash: parts[2],
		})
	}
	return accounts, nil
}

func (s *AuthService) Login(req models.LoginRequest) (string, *models.EditorAccount, error) {
	account, ok := s.accounts[strings.ToLower(strings.TrimSpace(req.Email))]
	if !ok {
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := middleware.IssueToken(s.jwtSecret, account.Email, account.Role, authTokenTTL)
	if err != nil {
		return "", nil, err
	}

	return token, &account, nil
}

func (s *AuthService) TokenTTL() time.Duration {
	return authTokenTTL
}
