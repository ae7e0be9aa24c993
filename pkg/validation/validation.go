package validation

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9 ().\-]{6,24}$`)
	plateRegex = regexp.MustCompile(`^[A-Z0-9\- ]{2,12}$`)
)

func ValidateEmail(email string) bool {
	email = strings.TrimSpace(email)
	return email != "" && emailRegex.MatchString(email) && len(email) <= 200
}

func ValidatePhone(phone string) bool {
	phone = strings.TrimSpace(phone)
	return phone != "" && phoneRegex.MatchString(phone) && len(phone) <= 50
}

func ValidateName(name string) bool {
	name = strings.TrimSpace(name)
	return len(name) >= 2 && len(name) <= 200
}

func ValidatePassword(password string) bool {
	return len(password) >= 8 && len(password) <= 100
}

func ValidateCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func ValidatePlate(plate string) bool {
	return plate == "" || plateRegex.MatchString(strings.ToUpper(strings.TrimSpace(plate)))
}

// ValidateDate accepts ISO calendar dates (YYYY-MM-DD).
func ValidateDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// ValidateClock accepts HH:mm.
func ValidateClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

// ValidateUUID accepts the canonical textual form used for every primary key.
func ValidateUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// Blank reports whether s is empty after trimming.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// NilIfBlank drops empty optional strings so they are stored as NULL.
func NilIfBlank(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
