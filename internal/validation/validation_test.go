package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateLocation_EmptyAndWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"spaces", "   "},
		{"tab", "\t"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateLocation(tc.input, 1, 100)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrLocationEmpty) {
				t.Errorf("error = %v, want ErrLocationEmpty", err)
			}
		})
	}
}

func TestValidateLocation_TooShort(t *testing.T) {
	_, err := ValidateLocation("x", 2, 100)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrLocationTooShort) {
		t.Errorf("error = %v, want ErrLocationTooShort", err)
	}
}

func TestValidateLocation_TooLong(t *testing.T) {
	long := ""
	for i := 0; i < 101; i++ {
		long += "a"
	}
	_, err := ValidateLocation(long, 1, 100)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrLocationTooLong) {
		t.Errorf("error = %v, want ErrLocationTooLong", err)
	}
}

func TestValidateLocation_InvalidChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"slash", "syd/ney"},
		{"backslash", "syd\\ney"},
		{"question", "syd?ney"},
		{"hash", "syd#ney"},
		{"control", "syd\x00ney"},
		{"percent", "syd%ney"},
		{"ampersand", "syd&ney"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateLocation(tc.input, 1, 100)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrLocationInvalidChars) {
				t.Errorf("error = %v, want ErrLocationInvalidChars", err)
			}
		})
	}
}

func TestValidateLocation_Valid(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantNorm string
	}{
		{"simple", "Perth", "Perth"},
		{"with space", "Gold Coast", "Gold Coast"},
		{"comma", "Sydney,NSW", "Sydney,NSW"},
		{"hyphen", "Alice-Springs", "Alice-Springs"},
		{"trimmed", "  Hobart  ", "Hobart"},
		{"unicode", "Zürich", "Zürich"},
		{"digits", "Area51", "Area51"},
		{"parentheses", "Melbourne (CBD)", "Melbourne (CBD)"},
		{"apostrophe and period", "St. George's", "St. George's"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateLocation(tc.input, 1, 100)
			if err != nil {
				t.Fatalf("ValidateLocation() err = %v", err)
			}
			if got != tc.wantNorm {
				t.Errorf("normalized = %q, want %q", got, tc.wantNorm)
			}
		})
	}
}

func TestValidateLocation_LengthBoundaries(t *testing.T) {
	// Exactly min length
	got, err := ValidateLocation("ab", 2, 100)
	if err != nil {
		t.Fatalf("min boundary: err = %v", err)
	}
	if got != "ab" {
		t.Errorf("min boundary: got %q", got)
	}
	// Exactly max length (100 runes)
	s100 := ""
	for i := 0; i < 100; i++ {
		s100 += "a"
	}
	got, err = ValidateLocation(s100, 1, 100)
	if err != nil {
		t.Fatalf("max boundary: err = %v", err)
	}
	if len([]rune(got)) != 100 {
		t.Errorf("max boundary: rune count = %d, want 100", len([]rune(got)))
	}
	// One over max
	s101 := s100 + "a"
	_, err = ValidateLocation(s101, 1, 100)
	if err == nil || !errors.Is(err, ErrLocationTooLong) {
		t.Errorf("over max: err = %v, want ErrLocationTooLong", err)
	}
}

func TestValidatePostcode(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"2000", "2000", false},
		{" 0800 ", "0800", false},
		{"", "", true},
		{"200", "", true},
		{"20000", "", true},
		{"20a0", "", true},
		{"+200", "", true},
		{"2.00", "", true},
		{"２０００", "", true},
	}
	for _, tc := range tests {
		got, err := ValidatePostcode(tc.input)
		if tc.wantErr {
			if !errors.Is(err, ErrPostcodeInvalid) {
				t.Errorf("ValidatePostcode(%q) error = %v, want ErrPostcodeInvalid", tc.input, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ValidatePostcode(%q) = %q, %v, want %q, nil", tc.input, got, err, tc.want)
		}
	}
}

func TestValidateSearchName(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr error
	}{
		{"Perth", "Perth", nil},
		{"  Perth!  ", "Perth!", nil},
		{"50%_off", "50%_off", nil},
		{"", "", nil},
		{strings.Repeat("é", 10), strings.Repeat("é", 10), nil},
		{strings.Repeat("a", 11), "", ErrLocationTooLong},
	}
	for _, tt := range tests {
		got, err := ValidateSearchName(tt.input, 10)
		if !errors.Is(err, tt.wantErr) || got != tt.want {
			t.Errorf("ValidateSearchName(%q) = %q, %v, want %q, %v", tt.input, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		lat     string
		lng     string
		wantLat float64
		wantLng float64
		wantErr error
	}{
		{"sydney", "-33.87", "151.21", -33.87, 151.21, nil},
		{"zero", "0", "0", 0, 0, nil},
		{"bounds", "-90", "180", -90, 180, nil},
		{"trimmed", " -37.8 ", " 144.9 ", -37.8, 144.9, nil},
		{"missing lat", "", "151", 0, 0, ErrCoordinatesRequired},
		{"missing lng", "-33", "  ", 0, 0, ErrCoordinatesRequired},
		{"non numeric", "abc", "151", 0, 0, ErrCoordinatesInvalid},
		{"nan", "NaN", "151", 0, 0, ErrCoordinatesInvalid},
		{"inf", "-33", "Inf", 0, 0, ErrCoordinatesInvalid},
		{"lat too high", "90.5", "151", 0, 0, ErrCoordinatesOutOfRange},
		{"lng too low", "-33", "-180.1", 0, 0, ErrCoordinatesOutOfRange},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lat, lng, err := ParseCoordinates(tc.lat, tc.lng)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("ParseCoordinates() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCoordinates() error = %v", err)
			}
			if lat != tc.wantLat || lng != tc.wantLng {
				t.Errorf("ParseCoordinates() = %v, %v, want %v, %v", lat, lng, tc.wantLat, tc.wantLng)
			}
		})
	}
}
