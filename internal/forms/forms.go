// Package forms runs declarative per-field validation over submitted form
// values. Each field carries an ordered list of named checks; the first
// failing check of a field records one message, and every field is evaluated
// before the aggregate is returned.
package forms

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string
	Message string
}

// Check pairs a predicate with the message recorded when it fails. A check
// returns an error only for infrastructure failures (e.g. a uniqueness
// lookup hitting the database); a plain "no" is ok=false.
type Check struct {
	Name    string
	Message string
	Test    func(ctx context.Context, v url.Values) (bool, error)
}

type Field struct {
	Name   string
	Checks []Check
}

type Form struct {
	Fields []Field
}

func (f Form) Validate(ctx context.Context, v url.Values) ([]FieldError, error) {
	var errs []FieldError
	for _, field := range f.Fields {
		for _, c := range field.Checks {
			ok, err := c.Test(ctx, v)
			if err != nil {
				return nil, err
			}
			if !ok {
				errs = append(errs, FieldError{Field: field.Name, Message: c.Message})
				break
			}
		}
	}
	return errs, nil
}

var validate = validator.New()

func Required(field, msg string) Check {
	return Check{Name: "required", Message: msg, Test: func(_ context.Context, v url.Values) (bool, error) {
		return strings.TrimSpace(v.Get(field)) != "", nil
	}}
}

func MinLen(field string, n int, msg string) Check {
	return Check{Name: "min_len", Message: msg, Test: func(_ context.Context, v url.Values) (bool, error) {
		return len(strings.TrimSpace(v.Get(field))) >= n, nil
	}}
}

func MaxLen(field string, n int, msg string) Check {
	return Check{Name: "max_len", Message: msg, Test: func(_ context.Context, v url.Values) (bool, error) {
		return len(strings.TrimSpace(v.Get(field))) <= n, nil
	}}
}

func Matches(field string, re *regexp.Regexp, msg string) Check {
	return Check{Name: "matches", Message: msg, Test: func(_ context.Context, v url.Values) (bool, error) {
		return re.MatchString(strings.TrimSpace(v.Get(field))), nil
	}}
}

func Email(field, msg string) Check {
	return Check{Name: "email", Message: msg, Test: func(_ context.Context, v url.Values) (bool, error) {
		value := strings.ToLower(strings.TrimSpace(v.Get(field)))
		return validate.Var(value, "required,email") == nil, nil
	}}
}

// EqualsField fails when the two raw values differ (password confirmation).
func EqualsField(field, other, msg string) Check {
	return Check{Name: "equals_field", Message: msg, Test: func(_ context.Context, v url.Values) (bool, error) {
		return v.Get(field) == v.Get(other), nil
	}}
}

// Unique passes the normalized value to a lookup that reports whether it is
// already taken.
func Unique(field, msg string, taken func(ctx context.Context, value string) (bool, error)) Check {
	return Check{Name: "unique", Message: msg, Test: func(ctx context.Context, v url.Values) (bool, error) {
		exists, err := taken(ctx, strings.ToLower(strings.TrimSpace(v.Get(field))))
		if err != nil {
			return false, err
		}
		return !exists, nil
	}}
}

// Custom wraps an arbitrary predicate over the whole submission.
func Custom(name, msg string, fn func(ctx context.Context, v url.Values) (bool, error)) Check {
	return Check{Name: name, Message: msg, Test: fn}
}

// Optional makes checks pass vacuously when the field is blank, so a field
// may be omitted but is validated once present.
func Optional(field string, checks ...Check) []Check {
	wrapped := make([]Check, len(checks))
	for i, c := range checks {
		inner := c.Test
		wrapped[i] = Check{Name: c.Name, Message: c.Message, Test: func(ctx context.Context, v url.Values) (bool, error) {
			if v.Get(field) == "" {
				return true, nil
			}
			return inner(ctx, v)
		}}
	}
	return wrapped
}
