// Package postgres implements auth.Repository on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jimiolaniyan/accounts/auth"
)

const emailConstraint = "accounts_email_key"

// DBTX is the subset of *pgxpool.Pool used by AccountRepository.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository implements auth.Repository using PostgreSQL.
type AccountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

const selectAccount = `
	SELECT id, email, name, password_hash, is_email_verified,
	       email_verification_token, created_at
	FROM accounts
`

func (r *AccountRepository) FindByID(ctx context.Context, id auth.ID) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, selectAccount+`WHERE id = $1`, string(id))
	return r.scan(row, "find account by id")
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, selectAccount+`WHERE email = $1`, email)
	return r.scan(row, "find account by email")
}

func (r *AccountRepository) FindByVerificationToken(ctx context.Context, token string) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, selectAccount+`WHERE email_verification_token = $1`, token)
	return r.scan(row, "find account by verification token")
}

func (r *AccountRepository) scan(row pgx.Row, op string) (*auth.Account, error) {
	var (
		acc   auth.Account
		id    string
		token *string
	)
	err := row.Scan(&id, &acc.Email, &acc.Name, &acc.PasswordHash, &acc.IsEmailVerified, &token, &acc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, auth.StoreError(op, err)
	}
	acc.ID = auth.ID(id)
	acc.EmailVerificationToken = token
	return &acc, nil
}

func (r *AccountRepository) Create(ctx context.Context, email, name, passwordHash, verificationToken string) (*auth.Account, error) {
	token := verificationToken
	acc := &auth.Account{
		ID:                     auth.NewID(),
		Email:                  email,
		Name:                   name,
		PasswordHash:           passwordHash,
		EmailVerificationToken: &token,
		CreatedAt:              time.Now().UTC(),
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO accounts (
			id, email, name, password_hash, is_email_verified,
			email_verification_token, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		string(acc.ID),
		acc.Email,
		acc.Name,
		acc.PasswordHash,
		acc.IsEmailVerified,
		acc.EmailVerificationToken,
		acc.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == emailConstraint {
			return nil, auth.ErrDuplicateEmail
		}
		return nil, auth.StoreError("insert account", err)
	}
	return acc, nil
}

// Save only updates rows that are still unverified, so one of two
// concurrent confirmations wins and the other sees auth.ErrNotFound.
func (r *AccountRepository) Save(ctx context.Context, acc *auth.Account) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE accounts
		SET is_email_verified = $2, email_verification_token = $3
		WHERE id = $1 AND is_email_verified = FALSE
	`, string(acc.ID), acc.IsEmailVerified, acc.EmailVerificationToken)
	if err != nil {
		return auth.StoreError("update account", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrNotFound
	}
	return nil
}
