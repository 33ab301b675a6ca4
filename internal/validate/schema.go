package validate

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"
)

type Format int

const (
	FormatAny Format = iota
	FormatEmail
	FormatAlphanumeric
)

// Rule describes one expected scalar field.
type Rule struct {
	Field    string
	Required bool
	Max      int // in characters; 0 means unbounded
	MaxBytes int // encoded length cap; bcrypt takes at most 72 bytes
	Format   Format
	Trim     bool
}

// Schema is an ordered list of rules. Validation stops at the first failure.
type Schema []Rule

// ValidationError names the field and the rule it broke. Injection is set when
// the field arrived in a non-scalar shape (sub-keys or repeated values).
type ValidationError struct {
	Field     string
	Reason    string
	Injection bool
}

func (e *ValidationError) Error() string { return e.Reason }

// Validate checks values against the schema and returns the accepted scalars
// keyed by field name. Structural checks run for every field before any
// content rule, so an operator-shaped field is reported as such even when an
// earlier field is also invalid.
func (s Schema) Validate(values url.Values) (map[string]string, error) {
	for _, r := range s {
		if err := scalarShape(values, r.Field); err != nil {
			return nil, err
		}
	}

	out := make(map[string]string, len(s))
	for _, r := range s {
		v, err := r.check(values)
		if err != nil {
			return nil, err
		}
		if v != "" {
			out[r.Field] = v
		}
	}
	return out, nil
}

// scalarShape rejects field[...] / field.x keys, which a document-store query
// would decode into an operator object, and repeated keys, which decode into
// an array.
func scalarShape(values url.Values, field string) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.HasPrefix(k, field+"[") || strings.HasPrefix(k, field+".") {
			return &ValidationError{Field: field, Reason: fmt.Sprintf("%q must be a string", field), Injection: true}
		}
	}
	if len(values[field]) > 1 {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("%q must be a string", field), Injection: true}
	}
	return nil
}

func (r Rule) check(values url.Values) (string, error) {
	vs, present := values[r.Field]
	if !present || len(vs) == 0 {
		if r.Required {
			return "", r.fail("%q is required", r.Field)
		}
		return "", nil
	}
	v := vs[0]
	if r.Trim {
		v = strings.TrimSpace(v)
	}
	if v == "" {
		if r.Required {
			return "", r.fail("%q is not allowed to be empty", r.Field)
		}
		return "", nil
	}
	if r.Max > 0 && utf8.RuneCountInString(v) > r.Max {
		return "", r.fail("%q length must be less than or equal to %d characters long", r.Field, r.Max)
	}
	if r.MaxBytes > 0 && len(v) > r.MaxBytes {
		return "", r.fail("%q length must be less than or equal to %d bytes long", r.Field, r.MaxBytes)
	}
	switch r.Format {
	case FormatEmail:
		if _, ok := Email(v); !ok {
			return "", r.fail("%q must be a valid email", r.Field)
		}
	case FormatAlphanumeric:
		if !reAlnum.MatchString(v) {
			return "", r.fail("%q must only contain alpha-numeric characters", r.Field)
		}
	}
	return v, nil
}

func (r Rule) fail(format string, args ...any) error {
	return &ValidationError{Field: r.Field, Reason: fmt.Sprintf(format, args...)}
}
