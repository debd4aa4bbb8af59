package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadCredentials(t *testing.T) {
	creds := LoadCredentials(env(map[string]string{
		"ST_USERNAME":   "alice",
		"ST_PASSWORD":   "secret",
		"ST_USERNAME_2": "bob",
		"ST_PASSWORD_2": "hunter2",
		"ST_USERNAME_4": "carol",
		"ST_PASSWORD_4": "skipped",
	}))
	require.Len(t, creds, 2)
	assert.Equal(t, "bob", creds[1].Username)

	assert.Empty(t, LoadCredentials(env(map[string]string{"ST_USERNAME": "alice"})))

	only2 := LoadCredentials(env(map[string]string{"ST_USERNAME_2": "bob", "ST_PASSWORD_2": "x"}))
	require.Len(t, only2, 1)
	assert.Equal(t, "bob", only2[0].Username)
}

func TestCredentialsCheck(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	creds := Credentials{
		{Username: "alice", Secret: "plain"},
		{Username: "bob", Secret: string(hash)},
	}

	cases := []struct {
		user, pass string
		want       bool
	}{
		{"alice", "plain", true},
		{"alice", "Plain", false},
		{"bob", "s3cret", true},
		{"bob", string(hash), false},
		{"carol", "plain", false},
		{"", "", false},
	}
	for _, tc := range cases {
		user, ok := creds.Check(tc.user, tc.pass)
		assert.Equal(t, tc.want, ok, "%s/%s", tc.user, tc.pass)
		if tc.want {
			assert.Equal(t, tc.user, user)
		}
	}
}

func TestHashSecret(t *testing.T) {
	h, err := HashSecret("pw")
	require.NoError(t, err)
	assert.True(t, isBcrypt(h))
	assert.False(t, isBcrypt("pw"))
}

func TestGateLockout(t *testing.T) {
	g := NewGate(Credentials{{Username: "alice", Secret: "pw"}}, 3, 5*time.Minute)
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewSession()
	require.NotEmpty(t, s.ID)

	var res Result
	for i := 1; i <= 3; i++ {
		s, res = g.Attempt(s, "alice", "wrong", start.Add(time.Duration(i)*time.Second))
		assert.Equal(t, StatusInvalid, res.Status)
		assert.Equal(t, i, res.Attempts)
	}
	assert.Equal(t, "Invalid username or password. Attempt 3/3", res.Message())

	// Correct credentials are refused while locked.
	locked, res := g.Attempt(s, "alice", "pw", start.Add(63*time.Second))
	assert.Equal(t, StatusLocked, res.Status)
	assert.Equal(t, 4*time.Minute, res.Remaining)
	assert.False(t, locked.Authenticated)
	assert.Equal(t, s, locked)
	assert.Contains(t, res.Message(), "240 seconds")

	// After the lockout the counter resets and the login succeeds.
	s, res = g.Attempt(s, "alice", "pw", start.Add(3*time.Second+5*time.Minute))
	assert.Equal(t, StatusSuccess, res.Status)
	assert.True(t, s.Authenticated)
	assert.Equal(t, "alice", s.Username)
	assert.Zero(t, s.LoginAttempts)
}

func TestGateFailureAfterLockoutStartsAtOne(t *testing.T) {
	g := NewGate(Credentials{{Username: "alice", Secret: "pw"}}, 0, 0)
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := Session{LoginAttempts: 3, LastAttempt: at}

	s, res := g.Attempt(s, "alice", "nope", at.Add(DefaultLockout))
	assert.Equal(t, StatusInvalid, res.Status)
	assert.Equal(t, 1, s.LoginAttempts)
	assert.Equal(t, at.Add(DefaultLockout), s.LastAttempt)
}

func TestGateUnconfigured(t *testing.T) {
	g := NewGate(nil, 3, time.Minute)
	assert.False(t, g.Configured())
	s, res := g.Attempt(Session{}, "a", "b", time.Now())
	assert.Equal(t, StatusUnconfigured, res.Status)
	assert.Zero(t, s.LoginAttempts)
	assert.Contains(t, res.Message(), "ST_USERNAME")
}

func TestLogout(t *testing.T) {
	s := Session{ID: "x", Authenticated: true, Username: "alice", LoginAttempts: 1}
	out := Logout(s)
	assert.False(t, out.Authenticated)
	assert.Empty(t, out.Username)
	assert.Equal(t, "x", out.ID)
	assert.Equal(t, 1, out.LoginAttempts)
	assert.True(t, s.Authenticated)
}
