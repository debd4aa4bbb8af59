package main

import (
	"bytes"
	"strings"
	"testing"

	"spendtrack/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, hashPassword(strings.NewReader("hunter2\n"), &out))

	hash := strings.TrimSpace(out.String())
	creds := auth.Credentials{{Username: "demo", Secret: hash}}
	user, ok := creds.Check("demo", "hunter2")
	assert.True(t, ok)
	assert.Equal(t, "demo", user)
	_, ok = creds.Check("demo", "hunter2\n")
	assert.False(t, ok)
}

func TestHashPasswordEmpty(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, hashPassword(strings.NewReader("\n"), &out))
	assert.Empty(t, out.String())
}
