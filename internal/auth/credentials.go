package auth

import (
	"crypto/sha256"
	"crypto/subtle"
)

// Credentials is the configured admin identity.
type Credentials struct {
	ID       string
	Password string
}

// Match compares both values in constant time. Inputs are hashed first so
// the comparison does not leak the configured lengths.
func (c Credentials) Match(id, password string) bool {
	idOK := equal(id, c.ID)
	pwOK := equal(password, c.Password)
	return idOK && pwOK && c.ID != ""
}

func equal(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}
