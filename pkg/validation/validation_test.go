package validation

import "testing"

func TestValidators(t *testing.T) {
	cases := []struct {
		name string
		got  bool
		want bool
	}{
		{"email ok", ValidateEmail("rider@example.com"), true},
		{"email missing tld", ValidateEmail("rider@example"), false},
		{"phone us formatted", ValidatePhone("+1 (305) 555-0100"), true},
		{"phone letters", ValidatePhone("call me"), false},
		{"name too short", ValidateName("A"), false},
		{"date iso", ValidateDate("2026-12-01"), true},
		{"date us", ValidateDate("12/01/2026"), false},
		{"clock", ValidateClock("07:45"), true},
		{"clock 12h", ValidateClock("7:45pm"), false},
		{"plate", ValidatePlate("abc-1234"), true},
		{"coords", ValidateCoordinates(25.79, -80.13), true},
		{"coords out of range", ValidateCoordinates(91, 0), false},
		{"uuid", ValidateUUID("3f6c1e2a-8d4b-4c7e-9a1f-2b5d7e9c0a11"), true},
		{"uuid word", ValidateUUID("abc"), false},
		{"uuid braces", ValidateUUID("{3f6c1e2a-8d4b-4c7e-9a1f-2b5d7e9c0a11}"), false},
		{"uuid bad hex", ValidateUUID("3f6c1e2a-8d4b-4c7e-9a1f-2b5d7e9c0a1z"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}
}

func TestNilIfBlank(t *testing.T) {
	blank := "   "
	if NilIfBlank(&blank) != nil {
		t.Error("blank should become nil")
	}
	v := " a@b.co "
	if got := NilIfBlank(&v); got == nil || *got != "a@b.co" {
		t.Errorf("got %v", got)
	}
	if NilIfBlank(nil) != nil {
		t.Error("nil should stay nil")
	}
}
