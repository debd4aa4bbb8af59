// Package auth implements the shared-secret login gate.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// EnvUsername and EnvPassword name the first credential pair.
	// Further pairs use a numeric suffix starting at 2.
	EnvUsername = "ST_USERNAME"
	EnvPassword = "ST_PASSWORD"
)

// Credential is one configured username and secret. The secret is either
// a bcrypt hash or a plain value.
type Credential struct {
	Username string
	Secret   string
}

// Credentials is the set of accepted logins.
type Credentials []Credential

// LoadCredentials reads ST_USERNAME/ST_PASSWORD and then ST_USERNAME_2,
// ST_PASSWORD_2 and so on until the first pair with a missing half.
// A nil lookup reads the process environment.
func LoadCredentials(lookup func(string) string) Credentials {
	if lookup == nil {
		lookup = os.Getenv
	}
	var creds Credentials
	if c, ok := pair(lookup, EnvUsername, EnvPassword); ok {
		creds = append(creds, c)
	}
	for i := 2; ; i++ {
		suffix := "_" + strconv.Itoa(i)
		c, ok := pair(lookup, EnvUsername+suffix, EnvPassword+suffix)
		if !ok {
			break
		}
		creds = append(creds, c)
	}
	return creds
}

func pair(lookup func(string) string, userKey, passKey string) (Credential, bool) {
	user := strings.TrimSpace(lookup(userKey))
	pass := lookup(passKey)
	if user == "" || pass == "" {
		return Credential{}, false
	}
	return Credential{Username: user, Secret: pass}, true
}

// Configured reports whether at least one login exists.
func (c Credentials) Configured() bool {
	return len(c) > 0
}

// Check reports whether username and password match any credential.
// Every credential is examined so timing does not reveal which matched.
func (c Credentials) Check(username, password string) (string, bool) {
	matched := ""
	for _, cred := range c {
		userOK := equalDigest(cred.Username, username)
		passOK := cred.matchSecret(password)
		if userOK && passOK && matched == "" {
			matched = cred.Username
		}
	}
	return matched, matched != ""
}

func (c Credential) matchSecret(password string) bool {
	if isBcrypt(c.Secret) {
		return bcrypt.CompareHashAndPassword([]byte(c.Secret), []byte(password)) == nil
	}
	return equalDigest(c.Secret, password)
}

func isBcrypt(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}

func equalDigest(a, b string) bool {
	da := sha256.Sum256([]byte(a))
	db := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(da[:], db[:]) == 1
}

// HashSecret returns a bcrypt hash suitable for ST_PASSWORD.
func HashSecret(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
