package impl

import (
	"errors"
	"time"

	"veriscan/internal/domain"
	"veriscan/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenConfig struct {
	Issuer     string
	TTL        time.Duration // e.g. 7 * 24h
	SigningKey []byte        // HS256 shared secret
}

type sessionClaims struct {
	Phone string `json:"phone"`
	jwt.RegisteredClaims
}

type TokenServiceImpl struct {
	cfg TokenConfig
	now func() time.Time
}

func NewTokenServiceHS256(cfg TokenConfig) *TokenServiceImpl {
	return &TokenServiceImpl{cfg: cfg, now: time.Now}
}

func (t *TokenServiceImpl) Issue(identity *domain.Identity) (string, error) {
	now := t.now().UTC()
	claims := sessionClaims{
		Phone: identity.Phone,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.cfg.Issuer,
			Subject:   identity.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.cfg.SigningKey)
}

func (t *TokenServiceImpl) Verify(tokenStr string) (*service.Session, error) {
	claims := &sessionClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	tok, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.cfg.SigningKey, nil
	})
	if err != nil || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	if t.cfg.Issuer != "" && claims.Issuer != t.cfg.Issuer {
		return nil, errors.New("bad issuer")
	}
	identityID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.New("bad subject")
	}
	if claims.Phone == "" {
		return nil, errors.New("missing phone claim")
	}
	return &service.Session{IdentityID: identityID, Phone: claims.Phone}, nil
}
