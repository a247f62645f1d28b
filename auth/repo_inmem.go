package auth

import (
	"context"
	"sync"
	"time"
)

type accountRepository struct {
	mu       sync.RWMutex
	accounts map[ID]*Account
	byEmail  map[string]ID
	byToken  map[string]ID
}

func NewAccountRepository() Repository {
	return &accountRepository{
		accounts: map[ID]*Account{},
		byEmail:  map[string]ID{},
		byToken:  map[string]ID{},
	}
}

func (repo *accountRepository) Create(_ context.Context, email, name, passwordHash, verificationToken string) (*Account, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.byEmail[email]; ok {
		return nil, ErrDuplicateEmail
	}

	token := verificationToken
	acc := &Account{
		ID:                     NewID(),
		Email:                  email,
		Name:                   name,
		PasswordHash:           passwordHash,
		EmailVerificationToken: &token,
		CreatedAt:              time.Now().UTC(),
	}
	repo.accounts[acc.ID] = acc
	repo.byEmail[email] = acc.ID
	repo.byToken[token] = acc.ID

	return copyAccount(acc), nil
}

func (repo *accountRepository) Save(_ context.Context, acc *Account) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	stored, ok := repo.accounts[acc.ID]
	if !ok || stored.IsEmailVerified {
		return ErrNotFound
	}

	if stored.EmailVerificationToken != nil {
		delete(repo.byToken, *stored.EmailVerificationToken)
	}
	stored.IsEmailVerified = acc.IsEmailVerified
	stored.EmailVerificationToken = nil
	if acc.EmailVerificationToken != nil {
		t := *acc.EmailVerificationToken
		stored.EmailVerificationToken = &t
		repo.byToken[t] = stored.ID
	}
	return nil
}

func (repo *accountRepository) FindByID(_ context.Context, id ID) (*Account, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if acc, ok := repo.accounts[id]; ok {
		return copyAccount(acc), nil
	}
	return nil, ErrNotFound
}

func (repo *accountRepository) FindByEmail(_ context.Context, email string) (*Account, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	return repo.lookup(repo.byEmail, email)
}

func (repo *accountRepository) FindByVerificationToken(_ context.Context, token string) (*Account, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	return repo.lookup(repo.byToken, token)
}

func (repo *accountRepository) lookup(index map[string]ID, key string) (*Account, error) {
	if id, ok := index[key]; ok {
		return copyAccount(repo.accounts[id]), nil
	}
	return nil, ErrNotFound
}
