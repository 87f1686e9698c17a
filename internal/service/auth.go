package service

import "crypto/subtle"

// Authenticator checks the shared-secret credential carried on each request
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an authenticator for the configured secret
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Authorize reports whether credential equals the configured secret.
// Empty credentials and an empty configured secret never authorize.
func (a *Authenticator) Authorize(credential string) bool {
	if len(a.secret) == 0 || credential == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(credential), a.secret) == 1
}
