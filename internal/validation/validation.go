package validation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// ErrLocationEmpty is returned when location is empty or whitespace-only after trim.
var ErrLocationEmpty = errors.New("location is required")

// ErrLocationTooShort is returned when location length is below the minimum.
var ErrLocationTooShort = errors.New("location too short")

// ErrLocationTooLong is returned when location length exceeds the maximum.
var ErrLocationTooLong = errors.New("location too long")

// ErrLocationInvalidChars is returned when location contains disallowed characters.
var ErrLocationInvalidChars = errors.New("location contains invalid characters")

var (
	ErrPostcodeInvalid       = errors.New("postcode must be 4 digits")
	ErrCoordinatesRequired   = errors.New("lat and lng are required")
	ErrCoordinatesInvalid    = errors.New("lat and lng must be numbers")
	ErrCoordinatesOutOfRange = errors.New("lat must be within [-90, 90] and lng within [-180, 180]")
)

var validate = validator.New()

// ValidateLocation trims the input, enforces length bounds (minLen, maxLen in runes),
// and restricts to characters that appear in Australian place names: letters,
// digits, space, comma, hyphen, apostrophe, period and parentheses.
// Returns the trimmed string or an error suitable for a 400 response.
func ValidateLocation(input string, minLen, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	n := len(r)
	if n == 0 {
		return "", ErrLocationEmpty
	}
	if minLen > 0 && n < minLen {
		return "", ErrLocationTooShort
	}
	if maxLen > 0 && n > maxLen {
		return "", ErrLocationTooLong
	}
	for _, c := range r {
		if !isAllowedLocationRune(c) {
			return "", ErrLocationInvalidChars
		}
	}
	return s, nil
}

func isAllowedLocationRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', ',', '-', '\'', '.', '(', ')':
		return true
	}
	return false
}

// ValidateSearchName trims input and bounds its length in runes. Any
// characters are allowed; the search query binds the name as a parameter.
func ValidateSearchName(input string, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	if maxLen > 0 && len([]rune(s)) > maxLen {
		return "", ErrLocationTooLong
	}
	return s, nil
}

type postcodeInput struct {
	Postcode string `validate:"len=4,numeric"`
}

// ValidatePostcode trims input and requires exactly four ASCII digits.
func ValidatePostcode(input string) (string, error) {
	s := strings.TrimSpace(input)
	if err := validate.Struct(postcodeInput{Postcode: s}); err != nil {
		return "", ErrPostcodeInvalid
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return "", ErrPostcodeInvalid
		}
	}
	return s, nil
}

// Coordinates is a validated latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat *float64 `validate:"required,gte=-90,lte=90"`
	Lng *float64 `validate:"required,gte=-180,lte=180"`
}

// ParseCoordinates parses and range-checks the lat and lng query values.
func ParseCoordinates(latRaw, lngRaw string) (lat, lng float64, err error) {
	latRaw, lngRaw = strings.TrimSpace(latRaw), strings.TrimSpace(lngRaw)
	if latRaw == "" || lngRaw == "" {
		return 0, 0, ErrCoordinatesRequired
	}

	lat, err = parseFinite(latRaw)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: lat %q", ErrCoordinatesInvalid, latRaw)
	}
	lng, err = parseFinite(lngRaw)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: lng %q", ErrCoordinatesInvalid, lngRaw)
	}

	if err := validate.Struct(Coordinates{Lat: &lat, Lng: &lng}); err != nil {
		return 0, 0, ErrCoordinatesOutOfRange
	}
	return lat, lng, nil
}

func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return v, nil
}
