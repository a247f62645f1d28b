package auth

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/samber/oops"
)

const (
	SessionTokenExpiry = 24 * time.Hour
	sessionIssuer      = "accounts"
)

// SessionClaims are the claims carried by a session token. Subject holds
// the account id.
type SessionClaims struct {
	Email string `json:"email"`
	jwt.StandardClaims
}

// JWTIssuer signs and verifies HS256 session tokens.
type JWTIssuer struct {
	key []byte
	now func() time.Time
}

func NewJWTIssuer(secret []byte) (*JWTIssuer, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSigningKey
	}
	return &JWTIssuer{key: secret, now: time.Now}, nil
}

func (s *JWTIssuer) Issue(subject ID, email string) (string, error) {
	now := s.now()
	claims := SessionClaims{
		Email: email,
		StandardClaims: jwt.StandardClaims{
			Subject:   string(subject),
			Issuer:    sessionIssuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(SessionTokenExpiry).Unix(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", oops.Code("SESSION_SIGN_FAILED").With("subject", string(subject)).Wrap(err)
	}
	return token, nil
}

// Verify checks the signature and expiry of token and returns its claims.
func (s *JWTIssuer) Verify(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSession
		}
		return s.key, nil
	})
	if err != nil || !t.Valid {
		return nil, ErrInvalidSession
	}
	if claims.Subject == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
