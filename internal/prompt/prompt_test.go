package prompt

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlert(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader(""), &out)

	p.Alert("Sign In Error", "Invalid login credentials")
	p.Alert("Please check your inbox for email verification!", "")
	p.Alert("", "only a message")
	p.Alert("", "")

	assert.Equal(t,
		"! Sign In Error\n  Invalid login credentials\n"+
			"! Please check your inbox for email verification!\n"+
			"! only a message\n",
		out.String())
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"delete\n", true},
		{"DELETE\n", true},
		{"y\n", true},
		{" yes \r\n", true},
		{"n\n", false},
		{"cancel\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		p := New(strings.NewReader(tt.input), &out)
		got := p.Confirm("Confirm Delete", "Are you sure?", "Cancel", "Delete")
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Contains(t, out.String(), "Confirm Delete\nAre you sure? [Cancel/Delete]: ")
	}
}

func TestConfirm_AssumeYes(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader(""), &out)
	p.AssumeYes = true

	assert.True(t, p.Confirm("Sign Out", "Are you sure you want to sign out?", "Cancel", "Sign Out"))
	assert.Empty(t, out.String())
}

func TestReadLine(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("juan@example.com\r\nsecret\nlast"), &out)

	email, err := p.ReadLine("Email")
	require.NoError(t, err)
	assert.Equal(t, "juan@example.com", email)

	// Not a terminal: read as a plain line from the same buffer.
	pw, err := p.ReadPassword("Password")
	require.NoError(t, err)
	assert.Equal(t, "secret", pw)

	last, err := p.ReadLine("")
	require.NoError(t, err)
	assert.Equal(t, "last", last)

	_, err = p.ReadLine("More")
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "Email: Password: More: ", out.String())
}
