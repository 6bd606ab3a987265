package app

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/sha3"
)

// Digester turns a raw password into a stored digest and checks candidates
// against it.
type Digester interface {
	Digest(password string) (string, error)
	Matches(digest, password string) bool
}

// BcryptDigester produces salted bcrypt digests.
type BcryptDigester struct {
	Cost int
}

// Digest hashes password with bcrypt.
func (b BcryptDigester) Digest(password string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Matches reports whether password hashes to digest.
func (BcryptDigester) Matches(digest, password string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// SHA3Digester produces deterministic hex SHA3-256 digests compared in
// constant time.
type SHA3Digester struct{}

// Digest hashes password with SHA3-256.
func (SHA3Digester) Digest(password string) (string, error) {
	sum := sha3.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

// Matches reports whether password hashes to digest.
func (d SHA3Digester) Matches(digest, password string) bool {
	if digest == "" {
		return false
	}
	got, _ := d.Digest(password)
	return ConstantTimeCompare(got, digest)
}

// NewDigester returns the digester for the named algorithm ("bcrypt" or "sha3").
func NewDigester(name string) (Digester, error) {
	switch name {
	case "", "bcrypt":
		return BcryptDigester{}, nil
	case "sha3":
		return SHA3Digester{}, nil
	default:
		return nil, fmt.Errorf("unknown password digest %q", name)
	}
}

// ConstantTimeCompare performs a constant-time comparison of two strings.
func ConstantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
