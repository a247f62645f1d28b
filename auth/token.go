package auth

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/samber/oops"
)

// VerificationTokenBytes is the entropy of a verification token.
const VerificationTokenBytes = 32

type randomTokenGenerator struct {
	size int
}

func NewTokenGenerator() TokenGenerator {
	return &randomTokenGenerator{size: VerificationTokenBytes}
}

// Generate returns size random bytes, hex encoded.
func (g *randomTokenGenerator) Generate() (string, error) {
	b := make([]byte, g.size)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("TOKEN_GENERATION_FAILED").Wrap(err)
	}
	return hex.EncodeToString(b), nil
}
