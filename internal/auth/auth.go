// Package auth turns request credentials into a typed Principal and gates
// routes on its roles. Every credential scheme implements Authenticator.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"booking-service/internal/apperr"
	"booking-service/internal/respond"
	"booking-service/pkg/jwt"
	"booking-service/pkg/logger"
)

const (
	RoleAdmin  = "admin"
	RoleDriver = "driver"
)

// Principal is the authenticated caller.
type Principal struct {
	Subject string
	Roles   []string
}

func (p Principal) Has(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// DriverID is the subject when the principal acts as a driver.
func (p Principal) DriverID() (string, bool) {
	if p.Subject == "" || !p.Has(RoleDriver) {
		return "", false
	}
	return p.Subject, true
}

// ErrNoCredentials means the scheme found nothing to check on the request.
var ErrNoCredentials = errors.New("no credentials")

// Authenticator extracts a principal from a request. It returns
// ErrNoCredentials when its scheme is absent and another error when the
// credentials are present but bad.
type Authenticator interface {
	Authenticate(r *http.Request) (Principal, error)
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the principal attached by Gate.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

// Gate tries each authenticator in order and attaches the first principal
// found. Requests without valid credentials pass through anonymously.
func Gate(log logger.ILogger, authenticators ...Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, a := range authenticators {
				p, err := a.Authenticate(r)
				if errors.Is(err, ErrNoCredentials) {
					continue
				}
				if err != nil {
					log.Debug("credentials rejected", logger.String("path", r.URL.Path), logger.Error(err))
					continue
				}
				r = r.WithContext(WithPrincipal(r.Context(), p))
				break
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Require rejects requests whose principal lacks role.
func Require(log logger.ILogger, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := FromContext(r.Context())
			if !ok || !p.Has(role) {
				respond.Error(w, r, log, apperr.Forbidden("forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminKey checks the X-Admin-Key header against a shared key.
type AdminKey struct {
	key []byte
}

func NewAdminKey(key string) *AdminKey { return &AdminKey{key: []byte(key)} }

func (a *AdminKey) Authenticate(r *http.Request) (Principal, error) {
	got := r.Header.Get("X-Admin-Key")
	if got == "" || len(a.key) == 0 {
		return Principal{}, ErrNoCredentials
	}
	if subtle.ConstantTimeCompare([]byte(got), a.key) != 1 {
		return Principal{}, errors.New("admin key mismatch")
	}
	return Principal{Subject: "admin", Roles: []string{RoleAdmin}}, nil
}

// SignedSession accepts a Bearer JWT.
type SignedSession struct {
	signer *jwt.Signer
}

func NewSignedSession(s *jwt.Signer) *SignedSession { return &SignedSession{signer: s} }

func (s *SignedSession) Authenticate(r *http.Request) (Principal, error) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return Principal{}, ErrNoCredentials
	}
	claims, err := s.signer.Validate(strings.TrimSpace(h[7:]))
	if err != nil {
		return Principal{}, err
	}
	switch claims.Role {
	case RoleDriver, RoleAdmin:
	default:
		return Principal{}, errors.New("unknown role " + claims.Role)
	}
	return Principal{Subject: claims.Subject, Roles: []string{claims.Role}}, nil
}
