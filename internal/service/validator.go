package service

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// destinationPattern matches one absolute http(s) URL: DNS name, localhost or
// IPv4 host, optional port, optional path, query and fragment.
var destinationPattern = regexp.MustCompile(
	`(?i)https?://` +
		`(?:(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,63}|localhost|\d{1,3}(?:\.\d{1,3}){3})` +
		`(?::\d{1,5})?` +
		`(?:[/?#]\S*)?`,
)

// schemePattern counts URL starts anywhere in the input, including inside
// another URL's path or query.
var schemePattern = regexp.MustCompile(`(?i)https?://`)

// dateLayout is accepted for expiration dates without a time of day.
const dateLayout = "2006-01-02"

// Validator checks user input before anything is persisted.
type Validator struct {
	checker          *UniquenessChecker
	validate         *validator.Validate
	maxCustomCodeLen int
}

func NewValidator(checker *UniquenessChecker, maxCustomCodeLen int) *Validator {
	return &Validator{
		checker:          checker,
		validate:         validator.New(),
		maxCustomCodeLen: maxCustomCodeLen,
	}
}

// ValidateDestination returns the trimmed destination. The input must be
// exactly one URL: zero matches, several matches or surrounding text are rejected.
func (v *Validator) ValidateDestination(raw string) (string, error) {
	dest := strings.TrimSpace(raw)
	if dest == "" {
		return "", invalid(FieldDestination, ErrMissingDestination)
	}

	if len(schemePattern.FindAllStringIndex(dest, 2)) != 1 {
		return "", invalid(FieldDestination, ErrInvalidURL)
	}

	matches := destinationPattern.FindAllString(dest, -1)
	if len(matches) != 1 || matches[0] != dest {
		return "", invalid(FieldDestination, ErrInvalidURL)
	}

	if err := v.validate.Var(dest, "http_url"); err != nil {
		return "", invalid(FieldDestination, ErrInvalidURL)
	}

	return dest, nil
}

// ValidateCustomCode rejects codes longer than the limit (counted in characters)
// and codes already in use.
func (v *Validator) ValidateCustomCode(ctx context.Context, code string) error {
	if !storableCode(code) {
		return invalid(FieldCustomShortCode, ErrInvalidCode)
	}
	if utf8.RuneCountInString(code) > v.maxCustomCodeLen {
		return invalid(FieldCustomShortCode, ErrCodeTooLong)
	}

	taken, err := v.checker.IsTaken(ctx, code)
	if err != nil {
		return err
	}
	if taken {
		return invalid(FieldCustomShortCode, ErrCodeTaken)
	}

	return nil
}

// storableCode reports whether code can be used as a store key: Postgres
// text rejects invalid UTF-8 and NUL bytes.
func storableCode(code string) bool {
	return utf8.ValidString(code) && !strings.ContainsRune(code, 0)
}

// ParseExpiration accepts RFC 3339 timestamps and YYYY-MM-DD dates (midnight UTC).
// A nil or blank value means the link never expires. Past dates are accepted.
func ParseExpiration(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}

	value := strings.TrimSpace(*raw)
	if value == "" {
		return nil, nil
	}

	for _, layout := range []string{time.RFC3339Nano, dateLayout} {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}

	return nil, invalid(FieldExpirationDate, ErrInvalidExpiration)
}
