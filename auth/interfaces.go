package auth

import "context"

type Service interface {
	Register(ctx context.Context, r RegisterRequest) (Message, error)
	Confirm(ctx context.Context, token string) (Message, error)
	Authenticate(ctx context.Context, email, password string) (Token, error)
	GetProfile(ctx context.Context, id ID) (Profile, error)
}

// Repository is the durable store of accounts. Absent records are reported
// with ErrNotFound and infrastructure failures with errors matching
// ErrStoreUnavailable.
type Repository interface {
	FindByID(ctx context.Context, id ID) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByVerificationToken(ctx context.Context, token string) (*Account, error)
	// Create inserts a new unverified account. It fails with
	// ErrDuplicateEmail when the email is already held, atomically.
	Create(ctx context.Context, email, name, passwordHash, verificationToken string) (*Account, error)
	// Save persists the verification state of acc. The write only applies
	// while the stored account is still unverified; otherwise Save returns
	// ErrNotFound.
	Save(ctx context.Context, acc *Account) error
}

type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type TokenGenerator interface {
	Generate() (string, error)
}

type SessionIssuer interface {
	Issue(subject ID, email string) (string, error)
}

// Mailer delivers an HTML message to a single recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
