package service

import (
	"veriscan/internal/domain"
)

// Session is the authenticated identity decoded from a bearer token.
type Session struct {
	IdentityID domain.IdentityID
	Phone      string
}

// TokenService signs and verifies stateless session tokens. Verification is
// pure: no store lookup is involved.
type TokenService interface {
	Issue(identity *domain.Identity) (string, error)
	Verify(token string) (*Session, error)
}
