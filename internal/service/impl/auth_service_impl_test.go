package impl

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"veriscan/internal/domain"
	"veriscan/internal/service"
	"veriscan/internal/store"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu         sync.Mutex
	identities map[uuid.UUID]*domain.Identity
	phoneIndex map[string]uuid.UUID
	challenges map[uuid.UUID]*domain.OTPChallenge
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		identities: make(map[uuid.UUID]*domain.Identity),
		phoneIndex: make(map[string]uuid.UUID),
		challenges: make(map[uuid.UUID]*domain.OTPChallenge),
	}
}

type storeSnapshot struct {
	identities map[uuid.UUID]*domain.Identity
	phoneIndex map[string]uuid.UUID
	challenges map[uuid.UUID]*domain.OTPChallenge
}

func (m *memoryStore) WithTx(ctx context.Context, fn func(tx storeTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	if err := fn(&memoryTx{store: m}); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

func (m *memoryStore) snapshot() storeSnapshot {
	ids := make(map[uuid.UUID]*domain.Identity, len(m.identities))
	for k, v := range m.identities {
		cp := *v
		ids[k] = &cp
	}
	phones := make(map[string]uuid.UUID, len(m.phoneIndex))
	for k, v := range m.phoneIndex {
		phones[k] = v
	}
	chs := make(map[uuid.UUID]*domain.OTPChallenge, len(m.challenges))
	for k, v := range m.challenges {
		cp := *v
		chs[k] = &cp
	}
	return storeSnapshot{identities: ids, phoneIndex: phones, challenges: chs}
}

func (m *memoryStore) restore(s storeSnapshot) {
	m.identities = s.identities
	m.phoneIndex = s.phoneIndex
	m.challenges = s.challenges
}

func (m *memoryStore) challengeFor(phone string) (*domain.OTPChallenge, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.phoneIndex[phone]
	if !ok {
		return nil, false
	}
	ch, ok := m.challenges[id]
	if !ok {
		return nil, false
	}
	cp := *ch
	return &cp, true
}

type memoryTx struct {
	store *memoryStore
}

func (m *memoryTx) Identities() identityStore { return &memoryIdentityStore{store: m.store} }

func (m *memoryTx) Challenges() challengeStore { return &memoryChallengeStore{store: m.store} }

type memoryIdentityStore struct {
	store *memoryStore
}

func (s *memoryIdentityStore) Create(ctx context.Context, id *domain.Identity) error {
	cp := *id
	s.store.identities[id.ID] = &cp
	s.store.phoneIndex[id.Phone] = id.ID
	return nil
}

func (s *memoryIdentityStore) GetByPhone(ctx context.Context, phone string) (*domain.Identity, error) {
	id, ok := s.store.phoneIndex[phone]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	cp := *s.store.identities[id]
	return &cp, nil
}

type memoryChallengeStore struct {
	store *memoryStore
}

func (s *memoryChallengeStore) Upsert(ctx context.Context, ch *domain.OTPChallenge) error {
	cp := *ch
	s.store.challenges[ch.IdentityID] = &cp
	return nil
}

func (s *memoryChallengeStore) GetByIdentity(ctx context.Context, identityID domain.IdentityID) (*domain.OTPChallenge, error) {
	ch, ok := s.store.challenges[identityID]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	cp := *ch
	return &cp, nil
}

func (s *memoryChallengeStore) Clear(ctx context.Context, identityID domain.IdentityID) error {
	if _, ok := s.store.challenges[identityID]; !ok {
		return store.ErrRecordNotFound
	}
	delete(s.store.challenges, identityID)
	return nil
}

type recordingNotifier struct {
	err      error
	messages []string
	phones   []string
}

func (n *recordingNotifier) Send(ctx context.Context, phone, message string) error {
	n.phones = append(n.phones, phone)
	n.messages = append(n.messages, message)
	return n.err
}

func newTestAuthService(ms *memoryStore, tokens *tokenStub, notifier *recordingNotifier) *AuthServiceImpl {
	return &AuthServiceImpl{
		Store:    ms,
		Tokens:   tokens,
		Notifier: notifier,
		OTPTTL:   10 * time.Minute,
		now:      time.Now,
	}
}

// tokenStub satisfies service.TokenService.
type tokenStub struct {
	token  string
	err    error
	issued []*domain.Identity
}

func (s *tokenStub) Issue(identity *domain.Identity) (string, error) {
	s.issued = append(s.issued, identity)
	if s.err != nil {
		return "", s.err
	}
	return s.token, nil
}

func (s *tokenStub) Verify(token string) (*service.Session, error) { panic("not used") }

var codeRe = regexp.MustCompile(`\d{6}`)

func TestRequestChallengeStoresCodeAndNotifies(t *testing.T) {
	ms := newMemoryStore()
	notifier := &recordingNotifier{}
	svc := newTestAuthService(ms, &tokenStub{token: "tok"}, notifier)

	if err := svc.RequestChallenge(context.Background(), "+15551234567"); err != nil {
		t.Fatalf("request challenge: %v", err)
	}

	ch, ok := ms.challengeFor("+15551234567")
	if !ok {
		t.Fatal("expected a stored challenge")
	}
	if len(ch.Code) != 6 || !codeRe.MatchString(ch.Code) {
		t.Fatalf("expected 6-digit code, got %q", ch.Code)
	}
	until := time.Until(ch.ExpiresAt)
	if until < 9*time.Minute || until > 11*time.Minute {
		t.Fatalf("expected ~10m expiry, got %v", until)
	}
	if len(notifier.messages) != 1 || !strings.Contains(notifier.messages[0], ch.Code) {
		t.Fatalf("expected notifier message carrying the code, got %v", notifier.messages)
	}
}

func TestRequestChallengeEmptyPhone(t *testing.T) {
	svc := newTestAuthService(newMemoryStore(), &tokenStub{}, &recordingNotifier{})
	if err := svc.RequestChallenge(context.Background(), "  "); !errors.Is(err, ErrEmptyPhone) {
		t.Fatalf("expected ErrEmptyPhone, got %v", err)
	}
}

func TestVerifyChallengeConsumesCode(t *testing.T) {
	ms := newMemoryStore()
	svc := newTestAuthService(ms, &tokenStub{token: "session-token"}, &recordingNotifier{})

	if err := svc.RequestChallenge(context.Background(), "+1555"); err != nil {
		t.Fatalf("request: %v", err)
	}
	ch, _ := ms.challengeFor("+1555")

	token, err := svc.VerifyChallenge(context.Background(), "+1555", ch.Code)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if token != "session-token" {
		t.Fatalf("unexpected token %q", token)
	}

	// Replay must fail: the challenge was consumed with token issuance.
	if _, err := svc.VerifyChallenge(context.Background(), "+1555", ch.Code); !errors.Is(err, domain.ErrInvalidChallenge) {
		t.Fatalf("expected ErrInvalidChallenge on replay, got %v", err)
	}
}

func TestVerifyChallengeWrongCode(t *testing.T) {
	ms := newMemoryStore()
	svc := newTestAuthService(ms, &tokenStub{token: "tok"}, &recordingNotifier{})

	if err := svc.RequestChallenge(context.Background(), "+1555"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := svc.VerifyChallenge(context.Background(), "+1555", "000000"); !errors.Is(err, domain.ErrInvalidChallenge) {
		t.Fatalf("expected ErrInvalidChallenge, got %v", err)
	}
	// The real code must still work afterwards.
	ch, _ := ms.challengeFor("+1555")
	if _, err := svc.VerifyChallenge(context.Background(), "+1555", ch.Code); err != nil {
		t.Fatalf("verify with real code: %v", err)
	}
}

func TestVerifyChallengeExpired(t *testing.T) {
	ms := newMemoryStore()
	svc := newTestAuthService(ms, &tokenStub{token: "tok"}, &recordingNotifier{})

	if err := svc.RequestChallenge(context.Background(), "+1555"); err != nil {
		t.Fatalf("request: %v", err)
	}
	ch, _ := ms.challengeFor("+1555")

	svc.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	if _, err := svc.VerifyChallenge(context.Background(), "+1555", ch.Code); !errors.Is(err, domain.ErrChallengeExpired) {
		t.Fatalf("expected ErrChallengeExpired, got %v", err)
	}
}

func TestVerifyChallengeExactlyAtExpiry(t *testing.T) {
	ms := newMemoryStore()
	svc := newTestAuthService(ms, &tokenStub{token: "tok"}, &recordingNotifier{})

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	if err := svc.RequestChallenge(context.Background(), "+1555"); err != nil {
		t.Fatalf("request: %v", err)
	}
	ch, _ := ms.challengeFor("+1555")

	// now == expiry is already rejected.
	svc.now = func() time.Time { return base.Add(10 * time.Minute) }
	if _, err := svc.VerifyChallenge(context.Background(), "+1555", ch.Code); !errors.Is(err, domain.ErrChallengeExpired) {
		t.Fatalf("expected ErrChallengeExpired at the boundary, got %v", err)
	}
}

func TestVerifyChallengeUnknownPhone(t *testing.T) {
	svc := newTestAuthService(newMemoryStore(), &tokenStub{}, &recordingNotifier{})
	if _, err := svc.VerifyChallenge(context.Background(), "+1999", "123456"); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}
}

func TestNewChallengeInvalidatesPrevious(t *testing.T) {
	ms := newMemoryStore()
	svc := newTestAuthService(ms, &tokenStub{token: "tok"}, &recordingNotifier{})

	if err := svc.RequestChallenge(context.Background(), "+1555"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	first, _ := ms.challengeFor("+1555")

	if err := svc.RequestChallenge(context.Background(), "+1555"); err != nil {
		t.Fatalf("second request: %v", err)
	}
	second, _ := ms.challengeFor("+1555")

	if first.Code == second.Code {
		t.Skip("codes collided; cannot distinguish replacement")
	}
	if _, err := svc.VerifyChallenge(context.Background(), "+1555", first.Code); !errors.Is(err, domain.ErrInvalidChallenge) {
		t.Fatalf("expected first code rejected, got %v", err)
	}
	if _, err := svc.VerifyChallenge(context.Background(), "+1555", second.Code); err != nil {
		t.Fatalf("second code should verify: %v", err)
	}
}

func TestNotifierFailureStillIssues(t *testing.T) {
	ms := newMemoryStore()
	notifier := &recordingNotifier{err: errors.New("gateway down")}
	svc := newTestAuthService(ms, &tokenStub{token: "tok"}, notifier)

	if err := svc.RequestChallenge(context.Background(), "+1555"); err != nil {
		t.Fatalf("issuance must not fail on notifier error: %v", err)
	}
	if _, ok := ms.challengeFor("+1555"); !ok {
		t.Fatal("challenge should be stored despite notifier failure")
	}
}
