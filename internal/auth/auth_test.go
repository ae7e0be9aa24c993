package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"booking-service/pkg/jwt"
	"booking-service/pkg/logger"
)

func principalEcho(t *testing.T) (http.Handler, *Principal) {
	t.Helper()
	var got Principal
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}), &got
}

func TestGateResolvesPrincipal(t *testing.T) {
	signer, err := jwt.NewSigner("secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	driverTok, _ := signer.Generate("drv-1", "", RoleDriver)
	riderTok, _ := signer.Generate("u-1", "", "rider")

	cookies := NewCookieSession("0123456789abcdef0123456789abcdef", "", time.Hour)
	rec := httptest.NewRecorder()
	if err := cookies.Set(rec, httptest.NewRequest(http.MethodPost, "/", nil), "admin"); err != nil {
		t.Fatal(err)
	}
	sessionCookie := rec.Result().Cookies()[0]

	cases := []struct {
		name    string
		prepare func(r *http.Request)
		subject string
		role    string
	}{
		{"anonymous", func(r *http.Request) {}, "", ""},
		{"admin key", func(r *http.Request) { r.Header.Set("X-Admin-Key", "k3y") }, "admin", RoleAdmin},
		{"wrong admin key", func(r *http.Request) { r.Header.Set("X-Admin-Key", "nope") }, "", ""},
		{"driver token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+driverTok) }, "drv-1", RoleDriver},
		{"unknown role", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+riderTok) }, "", ""},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer xyz") }, "", ""},
		{"session cookie", func(r *http.Request) { r.AddCookie(sessionCookie) }, "admin", RoleAdmin},
		{"tampered cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: cookieName, Value: sessionCookie.Value + "x"})
		}, "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, got := principalEcho(t)
			h := Gate(logger.NewNop(), NewAdminKey("k3y"), NewSignedSession(signer), cookies)(next)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.prepare(req)
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got.Subject != tc.subject {
				t.Errorf("subject = %q, want %q", got.Subject, tc.subject)
			}
			if tc.role != "" && !got.Has(tc.role) {
				t.Errorf("roles = %v, want %s", got.Roles, tc.role)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Require(logger.NewNop(), RoleAdmin)(ok)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("anonymous: status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok":false`) {
		t.Errorf("body = %s", rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithPrincipal(req.Context(), Principal{Subject: "drv", Roles: []string{RoleDriver}}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("driver on admin route: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithPrincipal(req.Context(), Principal{Subject: "admin", Roles: []string{RoleAdmin}}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("admin: status = %d", rec.Code)
	}
}

func TestPrincipalDriverID(t *testing.T) {
	if _, ok := (Principal{Subject: "admin", Roles: []string{RoleAdmin}}).DriverID(); ok {
		t.Error("admin should not act as a driver")
	}
	if id, ok := (Principal{Subject: "d1", Roles: []string{RoleDriver}}).DriverID(); !ok || id != "d1" {
		t.Errorf("DriverID = %q, %v", id, ok)
	}
}

func TestAdminSessionLogin(t *testing.T) {
	cookies := NewCookieSession("", "", time.Hour)
	h := NewSessionHandler("k3y", cookies, logger.NewNop()).Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(`{"key":"bad"}`)))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("bad key: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(`{"key":"k3y"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("good key: status = %d", rec.Code)
	}
	cs := rec.Result().Cookies()
	if len(cs) != 1 {
		t.Fatalf("cookies = %v", cs)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cs[0])
	p, err := cookies.Authenticate(req)
	if err != nil || !p.Has(RoleAdmin) {
		t.Fatalf("Authenticate = %+v, %v", p, err)
	}
}
