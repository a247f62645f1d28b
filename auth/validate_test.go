package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRegisterRequest(t *testing.T) {
	valid := RegisterRequest{Email: "a@x.com", Name: "Ann", Password: "Secret@123"}

	tests := []struct {
		name       string
		mutate     func(r *RegisterRequest)
		wantFields []string
	}{
		{name: "valid", mutate: func(r *RegisterRequest) {}},
		{name: "empty request", mutate: func(r *RegisterRequest) { *r = RegisterRequest{} },
			wantFields: []string{"email", "name", "password"}},
		{name: "email without domain", mutate: func(r *RegisterRequest) { r.Email = "a@b" }, wantFields: []string{"email"}},
		{name: "email without at", mutate: func(r *RegisterRequest) { r.Email = "ab.com" }, wantFields: []string{"email"}},
		{name: "short name", mutate: func(r *RegisterRequest) { r.Name = "Al" }, wantFields: []string{"name"}},
		{name: "blank name", mutate: func(r *RegisterRequest) { r.Name = "     " }, wantFields: []string{"name"}},
		{name: "padded short name", mutate: func(r *RegisterRequest) { r.Name = "  ab" }},
		{name: "short password", mutate: func(r *RegisterRequest) { r.Password = "Se@1" }, wantFields: []string{"password"}},
		{name: "no digit", mutate: func(r *RegisterRequest) { r.Password = "Secret@abc" }, wantFields: []string{"password"}},
		{name: "no letter", mutate: func(r *RegisterRequest) { r.Password = "12345678@" }, wantFields: []string{"password"}},
		{name: "no symbol", mutate: func(r *RegisterRequest) { r.Password = "Secret1234" }, wantFields: []string{"password"}},
		{name: "symbol outside set", mutate: func(r *RegisterRequest) { r.Password = "Secret#123" }, wantFields: []string{"password"}},
		{name: "too long", mutate: func(r *RegisterRequest) { r.Password = "S@1" + strings.Repeat("a", 70) }, wantFields: []string{"password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)

			err := ValidateRegisterRequest(r)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Len(t, verr.Fields, len(tt.wantFields))
			for _, f := range tt.wantFields {
				assert.Contains(t, verr.Fields, f)
			}
		})
	}
}

func TestValidateLoginRequest(t *testing.T) {
	assert.NoError(t, ValidateLoginRequest(LoginRequest{Email: "a@x.com", Password: "x"}))

	err := ValidateLoginRequest(LoginRequest{Email: "nope"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be a valid email address", verr.Fields["email"])
	assert.Equal(t, "must not be empty", verr.Fields["password"])
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"name": "too short", "email": "invalid"}}

	assert.Equal(t, "invalid request: email: invalid; name: too short", err.Error())
}
