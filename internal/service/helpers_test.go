package service

import (
	"context"
	"crypto/ecdsa"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/templui/walletauth/internal/db"
	"github.com/templui/walletauth/internal/repository"
	"github.com/templui/walletauth/internal/security"
)

const testAppURL = "http://localhost:8090"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentEmail struct {
	to   string
	link string
}

// recordingSender keeps every verification email instead of sending it.
type recordingSender struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (s *recordingSender) SendVerification(ctx context.Context, toEmail, verificationLink string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentEmail{to: toEmail, link: verificationLink})
	return nil
}

func (s *recordingSender) lastToken(t *testing.T) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		t.Fatalf("no verification email was sent")
	}
	link := s.sent[len(s.sent)-1].link
	prefix := testAppURL + "/verify-email/"
	if !strings.HasPrefix(link, prefix) {
		t.Fatalf("unexpected verification link %q", link)
	}
	return strings.TrimPrefix(link, prefix)
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type testEnv struct {
	store        repository.Store
	clock        *fakeClock
	mail         *recordingSender
	tokens       *TokenIssuer
	verification *VerificationService
	wallets      *WalletVerifier
	sessions     *SessionIssuer
	identity     *IdentityService
}

func newTestStore(t *testing.T) repository.Store {
	t.Helper()

	conn, err := db.Init("sqlite", filepath.Join(t.TempDir(), "walletauth.db"))
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(conn) })

	err = db.RunMigrations(conn.DB, "sqlite")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repository.NewStore(conn)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newTestStore(t)
	clock := newFakeClock()
	mail := &recordingSender{}

	tokens := NewTokenIssuer(store, DefaultTokenTTL, DefaultResendInterval)
	tokens.now = clock.Now
	verification := NewVerificationService(store, tokens)
	verification.now = clock.Now
	wallets := NewWalletVerifier(store, "Walletauth", DefaultChallengeTTL)
	wallets.now = clock.Now
	sessions := NewSessionIssuer("test-secret", time.Hour)
	sessions.now = clock.Now

	identity := NewIdentityService(store, security.BcryptHasher{Cost: 4}, tokens, verification, wallets, sessions, mail, testAppURL)

	return &testEnv{
		store:        store,
		clock:        clock,
		mail:         mail,
		tokens:       tokens,
		verification: verification,
		wallets:      wallets,
		sessions:     sessions,
		identity:     identity,
	}
}

func (e *testEnv) register(t *testing.T, email string) string {
	t.Helper()
	result, err := e.identity.Register(context.Background(), RegisterRequest{Email: email, Password: "Secret123!"})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return result.Account.ID
}

func newEthereumKey(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key, crypto.PubkeyToAddress(key.PublicKey).Hex()
}

// signPersonal produces a personal_sign style signature with v in {27, 28}.
func signPersonal(t *testing.T, key *ecdsa.PrivateKey, message string) string {
	t.Helper()
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig)
}
