package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/samber/oops"
)

type service struct {
	accounts    Repository
	hasher      Hasher
	tokens      TokenGenerator
	sessions    SessionIssuer
	mailer      Mailer
	frontendURL string
	logger      *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewService(accounts Repository, hasher Hasher, tokens TokenGenerator, sessions SessionIssuer,
	mailer Mailer, frontendURL string, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		accounts:    accounts,
		hasher:      hasher,
		tokens:      tokens,
		sessions:    sessions,
		mailer:      mailer,
		frontendURL: frontendURL,
		logger:      logger.With("component", "auth"),
	}
}

func (svc *service) Register(ctx context.Context, r RegisterRequest) (Message, error) {
	if _, err := svc.accounts.FindByEmail(ctx, r.Email); err == nil {
		return Message{}, ErrEmailInUse
	} else if !errors.Is(err, ErrNotFound) {
		return Message{}, err
	}

	hash, err := svc.hasher.Hash(r.Password)
	if err != nil {
		return Message{}, oops.Code("REGISTER_FAILED").With("operation", "hash password").Wrap(err)
	}

	token, err := svc.tokens.Generate()
	if err != nil {
		return Message{}, oops.Code("REGISTER_FAILED").With("operation", "generate verification token").Wrap(err)
	}

	acc, err := svc.accounts.Create(ctx, r.Email, r.Name, hash, token)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return Message{}, ErrEmailInUse
		}
		return Message{}, err
	}
	svc.logger.InfoContext(ctx, "account registered", "account_id", acc.ID, "email", acc.Email)

	if err := svc.sendVerification(ctx, acc.Email, acc.Name, token); err != nil {
		svc.logger.ErrorContext(ctx, "verification email dispatch failed",
			"account_id", acc.ID, "email", acc.Email, "error", err)
		return Message{}, notificationError(acc.Email, err)
	}

	return Message{Message: msgSignupSuccessful}, nil
}

func (svc *service) sendVerification(ctx context.Context, email, name, token string) error {
	body, err := VerificationEmail(name, VerificationLink(svc.frontendURL, token))
	if err != nil {
		return err
	}
	return svc.mailer.Send(ctx, email, verificationSubject, body)
}

func (svc *service) Confirm(ctx context.Context, token string) (Message, error) {
	if token == "" {
		return Message{}, ErrInvalidOrExpiredToken
	}

	acc, err := svc.accounts.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Message{}, ErrInvalidOrExpiredToken
		}
		return Message{}, err
	}

	acc.IsEmailVerified = true
	acc.EmailVerificationToken = nil

	if err := svc.accounts.Save(ctx, acc); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Message{}, ErrInvalidOrExpiredToken
		}
		return Message{}, err
	}
	svc.logger.InfoContext(ctx, "email verified", "account_id", acc.ID)

	return Message{Message: msgEmailVerified}, nil
}

func (svc *service) Authenticate(ctx context.Context, email, password string) (Token, error) {
	acc, err := svc.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Same bcrypt work as a wrong password on a known email.
			svc.hasher.Verify(password, svc.dummyDigest())
			return Token{}, ErrInvalidCredentials
		}
		return Token{}, err
	}

	if !acc.IsEmailVerified {
		return Token{}, ErrEmailNotVerified
	}

	if !svc.hasher.Verify(password, acc.PasswordHash) {
		svc.logger.InfoContext(ctx, "login rejected", "account_id", acc.ID)
		return Token{}, ErrInvalidCredentials
	}

	token, err := svc.sessions.Issue(acc.ID, acc.Email)
	if err != nil {
		return Token{}, oops.Code("LOGIN_FAILED").With("operation", "issue session token").Wrap(err)
	}
	svc.logger.InfoContext(ctx, "login succeeded", "account_id", acc.ID)

	return Token{Token: token}, nil
}

func (svc *service) GetProfile(ctx context.Context, id ID) (Profile, error) {
	acc, err := svc.accounts.FindByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	return Profile{Name: acc.Name, Email: acc.Email}, nil
}

// dummyDigest is a digest of a random value at the configured cost. It is
// never stored and matches no password a client can send.
func (svc *service) dummyDigest() string {
	svc.dummyOnce.Do(func() {
		seed, err := NewTokenGenerator().Generate()
		if err != nil {
			return
		}
		svc.dummyHash, _ = svc.hasher.Hash(seed)
	})
	return svc.dummyHash
}
