package auth

import (
	"errors"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestOutcome(t *testing.T) {
	tests := map[string]error{
		"success":             nil,
		"invalid_request":     &ValidationError{Fields: map[string]string{"email": "bad"}},
		"email_in_use":        ErrEmailInUse,
		"invalid_token":       ErrInvalidOrExpiredToken,
		"invalid_credentials": ErrInvalidCredentials,
		"email_not_verified":  ErrEmailNotVerified,
		"invalid_session":     ErrInvalidSession,
		"not_found":           ErrNotFound,
		"store_unavailable":   StoreError("insert account", errDatabase),
		"notification_failed": notificationError("a@x.com", errors.New("smtp down")),
		"error":               errors.New("boom"),
	}

	for want, err := range tests {
		assert.Equal(t, want, outcome(err))
	}
}

func TestMetrics_CountsHandledRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	svc, _ := newTestService(NewAccountRepository(), &mailerSpy{})
	signup := RegisterAccountHandler(svc, m)
	body := `{"email": "a@x.com", "name": "Ann", "password": "Secret@123"}`

	serve(signup, http.MethodPost, "/user/signup", body)
	serve(signup, http.MethodPost, "/user/signup", body)
	serve(signup, http.MethodPost, "/user/signup", `{}`)
	serve(VerifyEmailHandler(svc, m), http.MethodPost, "/user/verify-email?token=nope", "")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("register", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("register", "email_in_use")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("register", "invalid_request")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("verify_email", "invalid_token")))
	assert.Equal(t, 4, testutil.CollectAndCount(reg, "accounts_requests_total"))
}

func TestMetrics_CountsProfileWithoutSubject(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	svc, _ := newTestService(NewAccountRepository(), &mailerSpy{})

	w := serve(GetProfileHandler(svc, m), http.MethodGet, "/user/profile", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("profile", "invalid_session")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.observe("login", nil) })
}
