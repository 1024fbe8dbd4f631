package service

import "context"

type AuthService interface {
	// RequestChallenge issues a fresh OTP for the phone, replacing any pending
	// one, and dispatches it through the notifier. The code never leaves the
	// server in the response.
	RequestChallenge(ctx context.Context, phone string) error

	// VerifyChallenge consumes the pending challenge and returns a signed
	// session token on success.
	VerifyChallenge(ctx context.Context, phone, code string) (string, error)
}
