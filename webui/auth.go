// Package webui provides the HTTP control surface. This file contains
// optional basic-auth protection for the API.
package webui

import (
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// BasicAuth protects handlers with HTTP basic auth against a single
// configured password. The password is hashed at construction so the
// plaintext is not retained.
type BasicAuth struct {
	hash []byte
}

// NewBasicAuth creates a BasicAuth guard for the given password.
func NewBasicAuth(password string) (*BasicAuth, error) {
	if password == "" {
		return nil, fmt.Errorf("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &BasicAuth{hash: hash}, nil
}

// MiddlewareFunc wraps a handler function with the auth check. The
// username is ignored; only the password is verified.
func (a *BasicAuth) MiddlewareFunc(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, password, ok := r.BasicAuth()
		if !ok || bcrypt.CompareHashAndPassword(a.hash, []byte(password)) != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="focuswatch"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
