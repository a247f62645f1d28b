package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey string

const subjectKey contextKey = "subject"

// SessionVerifier checks a bearer token presented on a request.
type SessionVerifier interface {
	Verify(token string) (*SessionClaims, error)
}

func RegisterAccountHandler(svc Service, m *Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		req, err := decodeRegisterAccountRequest(r.Body)
		if err != nil {
			m.observe("register", err)
			encodeError(w, err)
			return
		}
		if err := ValidateRegisterRequest(req); err != nil {
			m.observe("register", err)
			encodeError(w, err)
			return
		}

		res, err := svc.Register(r.Context(), req)
		m.observe("register", err)
		if err != nil {
			encodeError(w, err)
			return
		}
		encodeResponse(w, http.StatusCreated, res)
	})
}

func VerifyEmailHandler(svc Service, m *Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		token := r.URL.Query().Get("token")
		if token == "" {
			m.observe("verify_email", ErrMissingVerifyToken)
			encodeError(w, ErrMissingVerifyToken)
			return
		}

		res, err := svc.Confirm(r.Context(), token)
		m.observe("verify_email", err)
		if err != nil {
			encodeError(w, err)
			return
		}
		encodeResponse(w, http.StatusOK, res)
	})
}

func LoginHandler(svc Service, m *Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		req, err := decodeLoginRequest(r.Body)
		if err != nil {
			m.observe("login", err)
			encodeError(w, err)
			return
		}
		if err := ValidateLoginRequest(req); err != nil {
			m.observe("login", err)
			encodeError(w, err)
			return
		}

		res, err := svc.Authenticate(r.Context(), req.Email, req.Password)
		m.observe("login", err)
		if err != nil {
			encodeError(w, err)
			return
		}
		encodeResponse(w, http.StatusOK, res)
	})
}

// GetProfileHandler must be wrapped by RequireAuth.
func GetProfileHandler(svc Service, m *Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		id, ok := SubjectFromContext(r.Context())
		if !ok {
			m.observe("profile", ErrInvalidSession)
			encodeError(w, ErrInvalidSession)
			return
		}

		profile, err := svc.GetProfile(r.Context(), id)
		m.observe("profile", err)
		if err != nil {
			encodeError(w, err)
			return
		}
		encodeResponse(w, http.StatusOK, profile)
	})
}

// RequireAuth rejects requests without a valid bearer session token or
// whose subject is not an account id, and stores the subject in the request
// context.
func RequireAuth(next http.Handler, sessions SessionVerifier) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			w.Header().Set("Content-Type", "application/json")
			encodeError(w, ErrInvalidSession)
			return
		}

		claims, err := sessions.Verify(token)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			encodeError(w, err)
			return
		}
		if !IsValidID(claims.Subject) {
			w.Header().Set("Content-Type", "application/json")
			encodeError(w, ErrInvalidSession)
			return
		}

		ctx := context.WithValue(r.Context(), subjectKey, ID(claims.Subject))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func SubjectFromContext(ctx context.Context) (ID, bool) {
	id, ok := ctx.Value(subjectKey).(ID)
	return id, ok && id != ""
}

func encodeResponse(w http.ResponseWriter, code int, v interface{}) {
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("encode response", "error", err)
	}
}

func encodeError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	msg := err.Error()
	body := map[string]interface{}{}

	switch {
	case errors.As(err, &verr):
		w.WriteHeader(http.StatusUnprocessableEntity)
		body["fields"] = verr.Fields
	case errors.Is(err, ErrMalformedRequest), errors.Is(err, ErrMissingVerifyToken),
		errors.Is(err, ErrInvalidOrExpiredToken):
		w.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidSession):
		w.WriteHeader(http.StatusUnauthorized)
	case errors.Is(err, ErrEmailNotVerified):
		w.WriteHeader(http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, ErrEmailInUse):
		w.WriteHeader(http.StatusConflict)
	case errors.Is(err, ErrNotificationFailed):
		w.WriteHeader(http.StatusBadGateway)
		msg = ErrNotificationFailed.Error()
	case errors.Is(err, ErrStoreUnavailable):
		w.WriteHeader(http.StatusServiceUnavailable)
		msg = ErrStoreUnavailable.Error()
	default:
		slog.Default().Error("unhandled request error", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		msg = "internal server error"
	}

	body["error"] = msg
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Error("encode error response", "error", err)
	}
}

func decodeRegisterAccountRequest(body io.ReadCloser) (RegisterRequest, error) {
	req := RegisterRequest{}
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return RegisterRequest{}, ErrMalformedRequest
	}
	return req, nil
}

func decodeLoginRequest(body io.ReadCloser) (LoginRequest, error) {
	req := LoginRequest{}
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return LoginRequest{}, ErrMalformedRequest
	}
	return req, nil
}
