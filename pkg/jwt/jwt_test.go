package jwt

import (
	"testing"
	"time"
)

func TestSignerRoundTrip(t *testing.T) {
	s, err := NewSigner("secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	tok, err := s.Generate("drv-1", "d@example.com", "driver")
	if err != nil {
		t.Fatal(err)
	}
	c, err := s.Validate(tok)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if c.Subject != "drv-1" || c.Role != "driver" || c.Email != "d@example.com" {
		t.Errorf("claims = %+v", c)
	}
}

func TestSignerRejects(t *testing.T) {
	if _, err := NewSigner("", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}

	a, _ := NewSigner("one", time.Hour)
	b, _ := NewSigner("two", time.Hour)
	tok, _ := a.Generate("drv-1", "", "driver")
	if _, err := b.Validate(tok); err == nil {
		t.Error("token signed with another secret was accepted")
	}

	past := time.Now().Add(-2 * time.Hour)
	a.now = func() time.Time { return past }
	old, _ := a.Generate("drv-1", "", "driver")
	a.now = time.Now
	if _, err := a.Validate(old); err == nil {
		t.Error("expired token was accepted")
	}

	if _, err := a.Validate("not-a-token"); err == nil {
		t.Error("garbage was accepted")
	}
}
