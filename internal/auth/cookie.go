package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const cookieName = "booking_admin"

// CookieSession is the back-office session cookie. It only ever carries the
// admin role.
type CookieSession struct {
	sc     *securecookie.SecureCookie
	maxAge time.Duration
}

// NewCookieSession builds the codec. An empty hash key gets a random one,
// which invalidates sessions on restart.
func NewCookieSession(hashKey, blockKey string, maxAge time.Duration) *CookieSession {
	hk := []byte(hashKey)
	if len(hk) == 0 {
		hk = securecookie.GenerateRandomKey(32)
	}
	var bk []byte
	if blockKey != "" {
		bk = []byte(blockKey)
	}
	sc := securecookie.New(hk, bk)
	sc.MaxAge(int(maxAge.Seconds()))
	return &CookieSession{sc: sc, maxAge: maxAge}
}

func (c *CookieSession) Set(w http.ResponseWriter, r *http.Request, subject string) error {
	encoded, err := c.sc.Encode(cookieName, map[string]string{"sub": subject, "role": RoleAdmin})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   int(c.maxAge.Seconds()),
	})
	return nil
}

func (c *CookieSession) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name: cookieName, Value: "", Path: "/", MaxAge: -1,
		HttpOnly: true, SameSite: http.SameSiteLaxMode,
	})
}

func (c *CookieSession) Authenticate(r *http.Request) (Principal, error) {
	ck, err := r.Cookie(cookieName)
	if err != nil {
		return Principal{}, ErrNoCredentials
	}
	val := map[string]string{}
	if err := c.sc.Decode(cookieName, ck.Value, &val); err != nil {
		return Principal{}, err
	}
	if val["sub"] == "" || val["role"] != RoleAdmin {
		return Principal{}, errors.New("malformed session")
	}
	return Principal{Subject: val["sub"], Roles: []string{RoleAdmin}}, nil
}
