package auth

import (
	"crypto/rand"
	"encoding/base64"
)

// sessionTokenBytes of entropy encode to sessionTokenLen base64url chars.
const (
	sessionTokenBytes = 32
	sessionTokenLen   = 43
)

// NewSessionToken returns an opaque, URL-safe session identifier.
func NewSessionToken() (string, error) {
	var b [sessionTokenBytes]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}

// WellFormedSessionToken reports whether s could have come from
// NewSessionToken. Cookies failing it are dropped before any lookup.
func WellFormedSessionToken(s string) bool {
	if len(s) != sessionTokenLen {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(s)
	return err == nil
}
