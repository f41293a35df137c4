package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatorEmail(t *testing.T) {
	valid := []string{"a@b.com", "first.last@example.co.uk", "user+tag@domain.io"}
	for _, email := range valid {
		v := newValidator()
		v.checkEmail(email)
		require.False(t, v.hasErrors(), "email %q", email)
	}

	invalid := []string{"", "plain", "missing@tld", "@nolocal.com", "spaces in@b.com"}
	for _, email := range invalid {
		v := newValidator()
		v.checkEmail(email)
		require.True(t, v.hasErrors(), "email %q", email)
	}
}

func TestValidatorPassword(t *testing.T) {
	v := newValidator()
	v.checkPassword("secret1")
	require.False(t, v.hasErrors())

	v = newValidator()
	v.checkPassword("12345")
	require.True(t, v.hasErrors())

	v = newValidator()
	v.checkPassword("")
	require.True(t, v.hasErrors())
}
