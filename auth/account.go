package auth

import (
	"time"

	"github.com/rs/xid"
)

type Account struct {
	ID              ID
	Email           string
	Name            string
	PasswordHash    string
	IsEmailVerified bool
	// EmailVerificationToken is nil once the email has been verified.
	EmailVerificationToken *string
	CreatedAt              time.Time
}

type ID string

// Profile is the public view of an account.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Message struct {
	Message string `json:"message"`
}

type Token struct {
	Token string `json:"token"`
}

const (
	msgSignupSuccessful = "Signup successful! Please verify your email."
	msgEmailVerified    = "Email successfully verified!"
)

func NewID() ID {
	return ID(xid.New().String())
}

func IsValidID(id string) bool {
	if _, err := xid.FromString(id); err != nil {
		return false
	}
	return true
}

// copyAccount returns a deep copy so callers never share the token pointer.
func copyAccount(acc *Account) *Account {
	c := *acc
	if acc.EmailVerificationToken != nil {
		t := *acc.EmailVerificationToken
		c.EmailVerificationToken = &t
	}
	return &c
}
