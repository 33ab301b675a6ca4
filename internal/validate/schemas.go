package validate

// Signup covers the account creation form.
var Signup = Schema{
	{Field: "email", Required: true, Max: 254, Format: FormatEmail, Trim: true},
	{Field: "name", Required: true, Max: 20, Format: FormatAlphanumeric, Trim: true},
	{Field: "password", Required: true, Max: 20, MaxBytes: 72},
}

// Login checks the email shape; the password only gets the generic length rule.
var Login = Schema{
	{Field: "email", Required: true, Max: 254, Format: FormatEmail, Trim: true},
	{Field: "password", Required: true, Max: 20, MaxBytes: 72},
}

// Lookup guards the exact-match user lookup.
var Lookup = Schema{
	{Field: "user", Max: 20},
}

// Contact is the newsletter form on the contact page.
var Contact = Schema{
	{Field: "email", Required: true, Max: 254, Format: FormatEmail, Trim: true},
}
