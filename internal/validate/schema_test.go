package validate_test

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membersite/internal/validate"
)

func vErr(t *testing.T, err error) *validate.ValidationError {
	t.Helper()
	var ve *validate.ValidationError
	require.True(t, errors.As(err, &ve), "want *ValidationError, got %T", err)
	return ve
}

func TestSignupAcceptsWellFormed(t *testing.T) {
	got, err := validate.Signup.Validate(url.Values{
		"email":    {" a@b.com "},
		"name":     {"Ann"},
		"password": {"Secret1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", got["email"])
	assert.Equal(t, "Ann", got["name"])
	assert.Equal(t, "Secret1", got["password"])
}

func TestSignupRules(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
		field  string
		reason string
	}{
		{
			name:   "missing email",
			values: url.Values{"name": {"Ann"}, "password": {"x"}},
			field:  "email",
			reason: `"email" is required`,
		},
		{
			name:   "empty email",
			values: url.Values{"email": {""}, "name": {"Ann"}, "password": {"x"}},
			field:  "email",
			reason: `"email" is not allowed to be empty`,
		},
		{
			name:   "bad email",
			values: url.Values{"email": {"not-an-email"}, "name": {"Ann"}, "password": {"x"}},
			field:  "email",
			reason: `"email" must be a valid email`,
		},
		{
			name:   "non alphanumeric name",
			values: url.Values{"email": {"a@b.com"}, "name": {"Ann!"}, "password": {"x"}},
			field:  "name",
			reason: `"name" must only contain alpha-numeric characters`,
		},
		{
			name:   "long name",
			values: url.Values{"email": {"a@b.com"}, "name": {strings.Repeat("a", 21)}, "password": {"x"}},
			field:  "name",
			reason: `"name" length must be less than or equal to 20 characters long`,
		},
		{
			name:   "long password",
			values: url.Values{"email": {"a@b.com"}, "name": {"Ann"}, "password": {strings.Repeat("p", 21)}},
			field:  "password",
			reason: `"password" length must be less than or equal to 20 characters long`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validate.Signup.Validate(tt.values)
			ve := vErr(t, err)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, tt.reason, ve.Reason)
			assert.False(t, ve.Injection)
		})
	}
}

func TestStructuredInputIsInjection(t *testing.T) {
	tests := map[string]url.Values{
		"bracket operator": {"user[$ne]": {"x"}},
		"dot operator":     {"user.$gt": {""}},
		"array shape":      {"user": {"a", "b"}},
		"empty brackets":   {"user[]": {"a"}},
	}
	for name, values := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := validate.Lookup.Validate(values)
			ve := vErr(t, err)
			assert.True(t, ve.Injection)
			assert.Equal(t, "user", ve.Field)
		})
	}
}

func TestInjectionReportedBeforeContentRules(t *testing.T) {
	// email is malformed, but password is operator-shaped; the shape wins
	_, err := validate.Login.Validate(url.Values{
		"email":         {"nope"},
		"password[$gt]": {""},
	})
	ve := vErr(t, err)
	assert.True(t, ve.Injection)
	assert.Equal(t, "password", ve.Field)
}

func TestUnrelatedKeysIgnored(t *testing.T) {
	got, err := validate.Lookup.Validate(url.Values{"user": {"ann"}, "username[$ne]": {"x"}, "csrf": {"t"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"user": "ann"}, got)
}

func TestHelpers(t *testing.T) {
	_, ok := validate.Color("#ff00aa")
	assert.True(t, ok)
	_, ok = validate.Color("red;background:url(x)")
	assert.False(t, ok)
	_, ok = validate.ID("cat-2")
	assert.True(t, ok)
	_, ok = validate.ID("../etc")
	assert.False(t, ok)
	_, ok = validate.Name("Ann")
	assert.True(t, ok)
}

func TestContactSchema(t *testing.T) {
	out, err := validate.Contact.Validate(url.Values{"email": {" a@b.com "}})
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", out["email"])

	_, err = validate.Contact.Validate(url.Values{"email": {""}})
	var ve *validate.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, `"email" is not allowed to be empty`, ve.Reason)
}

func TestPasswordByteCap(t *testing.T) {
	long := strings.Repeat("😀", 20)
	for name, schema := range map[string]validate.Schema{"signup": validate.Signup, "login": validate.Login} {
		t.Run(name, func(t *testing.T) {
			_, err := schema.Validate(url.Values{
				"email": {"a@b.com"}, "name": {"Ann"}, "password": {long},
			})
			ve := vErr(t, err)
			assert.Equal(t, "password", ve.Field)
			assert.False(t, ve.Injection)
			assert.Equal(t, `"password" length must be less than or equal to 72 bytes long`, ve.Reason)
		})
	}

	_, err := validate.Signup.Validate(url.Values{
		"email": {"a@b.com"}, "name": {"Ann"}, "password": {strings.Repeat("é", 20)},
	})
	assert.NoError(t, err)
}

func TestLookupUserIsOptional(t *testing.T) {
	for _, values := range []url.Values{{}, {"user": {""}}, {"foo": {"bar"}}} {
		got, err := validate.Lookup.Validate(values)
		require.NoError(t, err)
		assert.Empty(t, got["user"])
	}
}
