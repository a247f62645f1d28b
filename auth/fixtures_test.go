package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const testFrontendURL = "http://frontend.test"

var (
	testSecret  = []byte("test-secret")
	errDatabase = errors.New("connection refused")
	tokenInLink = regexp.MustCompile(`verify-email\?token=([0-9a-f]+)`)
)

type sentMail struct {
	to, subject, body string
}

type mailerSpy struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *mailerSpy) Send(_ context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to, subject, htmlBody})
	return m.err
}

func (m *mailerSpy) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// lastToken returns the verification token embedded in the last message.
func (m *mailerSpy) lastToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	match := tokenInLink.FindStringSubmatch(m.sent[len(m.sent)-1].body)
	if match == nil {
		return ""
	}
	return match[1]
}

// brokenRepository fails every operation as an unreachable store would.
type brokenRepository struct{}

func (brokenRepository) FindByID(context.Context, ID) (*Account, error) {
	return nil, StoreError("find account by id", errDatabase)
}

func (brokenRepository) FindByEmail(context.Context, string) (*Account, error) {
	return nil, StoreError("find account by email", errDatabase)
}

func (brokenRepository) FindByVerificationToken(context.Context, string) (*Account, error) {
	return nil, StoreError("find account by token", errDatabase)
}

func (brokenRepository) Create(context.Context, string, string, string, string) (*Account, error) {
	return nil, StoreError("insert account", errDatabase)
}

func (brokenRepository) Save(context.Context, *Account) error {
	return StoreError("update account", errDatabase)
}

// racingRepository hides existing accounts from FindByEmail, as if a
// concurrent registration committed between the check and the insert.
type racingRepository struct {
	Repository
}

func (racingRepository) FindByEmail(context.Context, string) (*Account, error) {
	return nil, ErrNotFound
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(accounts Repository, mailer Mailer) (Service, *JWTIssuer) {
	issuer, err := NewJWTIssuer(testSecret)
	if err != nil {
		panic(err)
	}
	svc := NewService(accounts, NewBcryptHasher(bcrypt.MinCost), NewTokenGenerator(), issuer,
		mailer, testFrontendURL, discardLogger())
	return svc, issuer
}
