package impl

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"veriscan/internal/domain"
	"veriscan/internal/notify"
	"veriscan/internal/observability/metrics"
	obsmw "veriscan/internal/observability/middleware"
	"veriscan/internal/service"
	"veriscan/internal/store"

	"github.com/google/uuid"
)

type AuthServiceImpl struct {
	Store    dataStore
	Tokens   service.TokenService
	Notifier notify.Notifier
	OTPTTL   time.Duration

	now func() time.Time
}

func NewAuthServiceImpl(st *store.Store, tokens service.TokenService, notifier notify.Notifier, otpTTL time.Duration) *AuthServiceImpl {
	return &AuthServiceImpl{
		Store:    gormStoreAdapter{store: st},
		Tokens:   tokens,
		Notifier: notifier,
		OTPTTL:   otpTTL,
		now:      time.Now,
	}
}

type dataStore interface {
	WithTx(ctx context.Context, fn func(tx storeTx) error) error
}

type storeTx interface {
	Identities() identityStore
	Challenges() challengeStore
}

type identityStore interface {
	Create(ctx context.Context, id *domain.Identity) error
	GetByPhone(ctx context.Context, phone string) (*domain.Identity, error)
}

type challengeStore interface {
	Upsert(ctx context.Context, ch *domain.OTPChallenge) error
	GetByIdentity(ctx context.Context, identityID domain.IdentityID) (*domain.OTPChallenge, error)
	Clear(ctx context.Context, identityID domain.IdentityID) error
}

type gormStoreAdapter struct {
	store *store.Store
}

func (g gormStoreAdapter) WithTx(ctx context.Context, fn func(tx storeTx) error) error {
	if g.store == nil {
		return errors.New("nil store")
	}
	return g.store.WithTx(ctx, func(tx *store.Store) error {
		return fn(gormTxAdapter{tx: tx})
	})
}

type gormTxAdapter struct {
	tx *store.Store
}

func (g gormTxAdapter) Identities() identityStore { return g.tx.Identities() }

func (g gormTxAdapter) Challenges() challengeStore { return g.tx.Challenges() }

func (a *AuthServiceImpl) RequestChallenge(ctx context.Context, phone string) error {
	result := "success"
	defer func() {
		metrics.OTPRequestsTotal.WithLabelValues(result).Inc()
	}()

	phone = strings.TrimSpace(phone)
	if phone == "" {
		result = "failure"
		return ErrEmptyPhone
	}

	code, err := generateCode()
	if err != nil {
		result = "failure"
		return err
	}
	now := a.now().UTC()
	expiresAt := now.Add(a.OTPTTL)

	// One transaction: ensure the identity exists, replace any pending
	// challenge. Last writer wins for concurrent requests on the same phone.
	err = a.Store.WithTx(ctx, func(tx storeTx) error {
		identity, err := tx.Identities().GetByPhone(ctx, phone)
		if errors.Is(err, store.ErrRecordNotFound) {
			identity = &domain.Identity{
				ID:        uuid.New(),
				Phone:     phone,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Identities().Create(ctx, identity); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		return tx.Challenges().Upsert(ctx, &domain.OTPChallenge{
			IdentityID: identity.ID,
			Code:       code,
			ExpiresAt:  expiresAt,
		})
	})
	if err != nil {
		result = "failure"
		return err
	}

	// Delivery is best-effort: a notifier failure is logged and counted but
	// does not undo issuance. The caller still gets a success confirmation.
	msg := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(a.OTPTTL.Minutes()))
	if err := a.Notifier.Send(ctx, phone, msg); err != nil {
		metrics.NotifierDispatchesTotal.WithLabelValues("failure").Inc()
		slog.Warn("otp dispatch failed", "error", err, "phone", phone,
			"request_id", obsmw.RequestIDFromContext(ctx))
	} else {
		metrics.NotifierDispatchesTotal.WithLabelValues("success").Inc()
	}

	slog.Info("otp challenge issued", "phone", phone, "expires_at", expiresAt,
		"request_id", obsmw.RequestIDFromContext(ctx))
	return nil
}

func (a *AuthServiceImpl) VerifyChallenge(ctx context.Context, phone, code string) (string, error) {
	result := "success"
	defer func() {
		metrics.OTPVerificationsTotal.WithLabelValues(result).Inc()
	}()

	phone = strings.TrimSpace(phone)
	code = strings.TrimSpace(code)
	if phone == "" {
		result = "failure"
		return "", ErrEmptyPhone
	}
	if code == "" {
		result = "failure"
		return "", ErrEmptyCode
	}

	var token string

	// Clearing the challenge and minting the token are one logical unit: the
	// conditional delete means two racing verifications cannot both succeed.
	err := a.Store.WithTx(ctx, func(tx storeTx) error {
		identity, err := tx.Identities().GetByPhone(ctx, phone)
		if errors.Is(err, store.ErrRecordNotFound) {
			return domain.ErrIdentityNotFound
		} else if err != nil {
			return err
		}

		ch, err := tx.Challenges().GetByIdentity(ctx, identity.ID)
		if errors.Is(err, store.ErrRecordNotFound) {
			return domain.ErrInvalidChallenge
		} else if err != nil {
			return err
		}

		if ch.Code != code {
			return domain.ErrInvalidChallenge
		}
		if !a.now().UTC().Before(ch.ExpiresAt) {
			return domain.ErrChallengeExpired
		}

		if err := tx.Challenges().Clear(ctx, identity.ID); err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return domain.ErrInvalidChallenge
			}
			return err
		}

		token, err = a.Tokens.Issue(identity)
		return err
	})
	if err != nil {
		result = "failure"
		return "", err
	}

	slog.Info("otp verified, session issued", "phone", phone,
		"request_id", obsmw.RequestIDFromContext(ctx))
	return token, nil
}

// generateCode draws a uniformly random 6-digit numeric code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
