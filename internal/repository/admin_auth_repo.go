package repository

import (
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

type Admin struct {
	Email        string
	PasswordHash string
}

type AdminAuthRepository interface {
	GetByEmail(email string) (*Admin, error)
	CreateNewUser(email, password string) error
}

type adminAuthRepository struct {
	mu     sync.RWMutex
	admins map[string]Admin
}

// NewAdminAuthRepository seeds the repository with the operator account from
// configuration. passwordHash must already be a bcrypt hash.
func NewAdminAuthRepository(email, passwordHash string) AdminAuthRepository {
	repo := &adminAuthRepository{admins: make(map[string]Admin)}
	if email != "" && passwordHash != "" {
		key := normalizeEmail(email)
		repo.admins[key] = Admin{Email: key, PasswordHash: passwordHash}
	}
	return repo
}

// GetByEmail returns nil, nil when no admin matches.
func (r *adminAuthRepository) GetByEmail(email string) (*Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	admin, ok := r.admins[normalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	return &admin, nil
}

func (r *adminAuthRepository) CreateNewUser(email, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	key := normalizeEmail(email)
	r.mu.Lock()
	r.admins[key] = Admin{Email: key, PasswordHash: string(hashedPassword)}
	r.mu.Unlock()
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
