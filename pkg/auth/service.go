package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/instapay/payment-core/pkg/events"
	"github.com/instapay/payment-core/pkg/ledger"
	"github.com/instapay/payment-core/pkg/models"
	"github.com/instapay/payment-core/pkg/security"
	"github.com/instapay/payment-core/pkg/storage"
	"github.com/instapay/payment-core/pkg/validation"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// DefaultStartingBalance is credited to newly registered accounts.
var DefaultStartingBalance = decimal.NewFromInt(1000)

// Config tunes the service policy.
type Config struct {
	StartingBalance decimal.Decimal
	Simulator       ledger.SimulatorConfig
}

// LoginResult is returned on a successful authentication.
type LoginResult struct {
	Token    string          `json:"token"`
	Identity models.Identity `json:"user"`
}

// WithdrawResult pairs the committed withdrawal with the resulting balance.
type WithdrawResult struct {
	Transaction models.Transaction `json:"transaction"`
	NewBalance  decimal.Decimal    `json:"new_balance"`
}

// activeSession bundles everything owned by one login.
type activeSession struct {
	email       string
	token       string
	ledger      *ledger.Ledger
	simulator   *ledger.Simulator
	unsubscribe func()
	watcherStop chan struct{}
}

// Service is the composition root: it orchestrates the validator, the login
// limiter, the session manager and the per-identity ledgers to implement
// login, registration and the payment operations against the in-memory
// identity set. At most one session is active at a time.
type Service struct {
	store       storage.Store
	limiter     *security.LoginLimiter
	sessions    *security.SessionManager
	broadcaster *events.Broadcaster
	cfg         Config
	logger      *slog.Logger

	mu      sync.Mutex
	ledgers map[string]*ledger.Ledger
	current *activeSession

	now func() time.Time
}

// NewService wires the collaborators together. The session monitors start on
// login, not construction.
func NewService(store storage.Store, limiter *security.LoginLimiter, sessions *security.SessionManager, broadcaster *events.Broadcaster, cfg Config, logger *slog.Logger) *Service {
	if cfg.StartingBalance.LessThanOrEqual(decimal.Zero) {
		cfg.StartingBalance = DefaultStartingBalance
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:       store,
		limiter:     limiter,
		sessions:    sessions,
		broadcaster: broadcaster,
		cfg:         cfg,
		logger:      logger,
		ledgers:     make(map[string]*ledger.Ledger),
		now:         time.Now,
	}
}

// Login authenticates an identity. The limiter is consulted before the
// credential check, so a locked account is rejected regardless of
// correctness; failures are recorded, success clears the attempt record and
// starts a fresh session with its simulator and liveness monitor.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	decision := s.limiter.Check(email)
	if !decision.Allowed {
		s.logger.Warn("login rejected by limiter", "email", email, "retry_after", decision.RetryAfter)
		return nil, &AccountLockedError{RetryAfter: decision.RetryAfter}
	}

	identity, err := s.store.GetIdentity(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrIdentityNotFound) {
			s.limiter.Record(email, false)
			return nil, ErrAuthenticationFailed
		}
		return nil, fmt.Errorf("failed to look up identity: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(identity.SecretHash), []byte(password)) != nil {
		s.limiter.Record(email, false)
		s.logger.Warn("login failed", "email", email, "attempts_remaining", decision.AttemptsRemaining-1)
		return nil, ErrAuthenticationFailed
	}

	s.limiter.Record(email, true)

	token, err := s.sessions.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin session: %w", err)
	}

	s.mu.Lock()
	s.teardownLocked(ctx, false)

	led := s.ledgers[identity.Email]
	if led == nil {
		led = ledger.New(identity.ID, identity.Balance)
		s.ledgers[identity.Email] = led
	}

	sess := &activeSession{
		email:       identity.Email,
		token:       token,
		ledger:      led,
		simulator:   ledger.NewSimulator(led, s.cfg.Simulator, s.logger),
		watcherStop: make(chan struct{}),
	}
	sess.unsubscribe = led.Subscribe(func(update models.BalanceUpdate) {
		_ = s.broadcaster.Publish(context.Background(), events.Message{
			Type:    events.MessageTypeBalanceUpdate,
			Payload: update,
		})
	})
	s.current = sess
	s.mu.Unlock()

	sess.simulator.Start()
	go s.watchExpiry(sess)

	snapshot := *identity
	snapshot.Balance = led.Balance()
	s.logger.Info("login succeeded", "email", identity.Email)
	return &LoginResult{Token: token, Identity: snapshot}, nil
}

// Register creates a new identity with the configured starting balance and a
// generated account number. Input is validated structurally before any state
// changes; duplicate emails surface storage.ErrDuplicateIdentity.
func (s *Service) Register(ctx context.Context, input models.RegistrationInput) (*models.Identity, error) {
	if !validation.ValidateEmail(input.Email) {
		return nil, &ValidationError{Field: "email", Reason: "malformed email address"}
	}
	if !validation.ValidatePhoneNumber(input.CellNumber) {
		return nil, &ValidationError{Field: "cell_number", Reason: "not a valid cell number"}
	}
	if !validation.ValidateIDNumber(input.IdentityNumber) {
		return nil, &ValidationError{Field: "identity_number", Reason: "checksum validation failed"}
	}
	if strength := validation.CheckPasswordStrength(input.Password); !strength.IsValid {
		return nil, &ValidationError{Field: "password", Reason: fmt.Sprintf("too weak (%s)", strength.Strength)}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	identity := &models.Identity{
		ID:              uuid.NewString(),
		Email:           input.Email,
		SecretHash:      string(hash),
		FirstName:       validation.SanitizeInput(input.FirstName),
		LastName:        validation.SanitizeInput(input.LastName),
		CellNumber:      input.CellNumber,
		IdentityNumber:  input.IdentityNumber,
		PhysicalAddress: validation.SanitizeInput(input.PhysicalAddress),
		AccountNumber:   generateAccountNumber(),
		Balance:         s.cfg.StartingBalance,
		CreatedAt:       s.now(),
	}

	created, err := s.store.CreateIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.ledgers[created.Email] = ledger.New(created.ID, created.Balance)
	s.mu.Unlock()

	s.logger.Info("identity registered", "email", created.Email, "account_number", created.AccountNumber)
	return created, nil
}

// Logout ends the active session: the simulator and the liveness monitor are
// both stopped before it returns, and the ledger balance is written back to
// the identity record. Logging out twice is harmless.
func (s *Service) Logout(ctx context.Context) {
	s.mu.Lock()
	sess := s.teardownLocked(ctx, true)
	s.mu.Unlock()

	if sess != nil {
		s.logger.Info("logged out", "email", sess.email)
	}
}

// teardownLocked detaches and dismantles the current session. Caller must
// hold s.mu. When stopSessions is false the session manager is left alone
// because the caller (login) has already superseded it.
func (s *Service) teardownLocked(ctx context.Context, stopSessions bool) *activeSession {
	sess := s.current
	s.current = nil
	if sess == nil {
		return nil
	}

	close(sess.watcherStop)
	sess.simulator.Stop()
	sess.unsubscribe()
	if stopSessions {
		s.sessions.Stop()
	}

	if identity, err := s.store.GetIdentity(ctx, sess.email); err == nil {
		identity.Balance = sess.ledger.Balance()
		if _, err := s.store.UpdateIdentity(ctx, identity); err != nil {
			s.logger.Error("failed to persist balance on logout", "email", sess.email, "error", err)
		}
	}
	return sess
}

// watchExpiry consumes the session manager's expiry signal and forces a
// logout, publishing the expiry so the UI layer can react. The forced logout
// only applies to the session that expired; a login that superseded it in the
// meantime is left alone.
func (s *Service) watchExpiry(sess *activeSession) {
	select {
	case <-sess.watcherStop:
		return
	case reason := <-s.sessions.Expired():
		s.logger.Info("session expired", "email", sess.email, "reason", reason)
		_ = s.broadcaster.Publish(context.Background(), events.Message{
			Type:    events.MessageTypeSessionExpired,
			Payload: events.SessionExpiredPayload{Reason: reason},
		})

		ctx := context.Background()
		s.mu.Lock()
		if s.current == sess {
			s.teardownLocked(ctx, true)
		}
		s.mu.Unlock()
	}
}

// Authorize checks a bearer token against the active session.
func (s *Service) Authorize(token string) error {
	s.mu.Lock()
	sess := s.current
	s.mu.Unlock()

	if sess == nil || sess.token != token || !s.sessions.Validate(token) {
		return ErrNotAuthenticated
	}
	return nil
}

// Touch reports a user interaction to the inactivity monitor.
func (s *Service) Touch() {
	s.sessions.Touch()
}

// CurrentIdentity returns a snapshot of the logged-in identity with its live
// balance.
func (s *Service) CurrentIdentity(ctx context.Context) (*models.Identity, error) {
	s.mu.Lock()
	sess := s.current
	s.mu.Unlock()
	if sess == nil {
		return nil, ErrNotAuthenticated
	}

	identity, err := s.store.GetIdentity(ctx, sess.email)
	if err != nil {
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}
	identity.Balance = sess.ledger.Balance()
	return identity, nil
}

// Balance returns the active ledger's current balance.
func (s *Service) Balance() (decimal.Decimal, error) {
	sess, err := s.session()
	if err != nil {
		return decimal.Zero, err
	}
	s.sessions.Touch()
	return sess.ledger.Balance(), nil
}

// TransactionHistory returns the active ledger's history, most recent first.
func (s *Service) TransactionHistory() ([]models.Transaction, error) {
	sess, err := s.session()
	if err != nil {
		return nil, err
	}
	s.sessions.Touch()
	return sess.ledger.History(), nil
}

// SendMoney debits the sender's ledger in favor of an external recipient.
func (s *Service) SendMoney(recipient string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	sess, err := s.session()
	if err != nil {
		return nil, err
	}
	s.sessions.Touch()

	if !validation.ValidateEmail(recipient) {
		return nil, &ValidationError{Field: "recipient", Reason: "malformed email address"}
	}
	if err := s.checkAmount(sess, amount); err != nil {
		return nil, err
	}

	tx, err := sess.ledger.SendMoney(recipient, amount, validation.SanitizeInput(description))
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// Withdraw debits the given amount, or the whole balance when full is true.
func (s *Service) Withdraw(amount decimal.Decimal, full bool) (*WithdrawResult, error) {
	sess, err := s.session()
	if err != nil {
		return nil, err
	}
	s.sessions.Touch()

	if !full {
		if err := s.checkAmount(sess, amount); err != nil {
			return nil, err
		}
	}

	tx, newBalance, err := sess.ledger.Withdraw(amount, full)
	if err != nil {
		return nil, err
	}
	return &WithdrawResult{Transaction: tx, NewBalance: newBalance}, nil
}

// SubscribeToBalanceUpdates delivers every balance change of the active
// ledger, foreground or simulated, until the returned unsubscribe is called.
func (s *Service) SubscribeToBalanceUpdates(fn func(models.BalanceUpdate)) (func(), error) {
	sess, err := s.session()
	if err != nil {
		return nil, err
	}
	return sess.ledger.Subscribe(ledger.Subscriber(fn)), nil
}

// UpdateProfile applies non-nil, non-financial field changes to the active
// identity.
func (s *Service) UpdateProfile(ctx context.Context, changes models.ProfileUpdate) (*models.Identity, error) {
	sess, err := s.session()
	if err != nil {
		return nil, err
	}
	s.sessions.Touch()

	identity, err := s.store.GetIdentity(ctx, sess.email)
	if err != nil {
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}

	if changes.FirstName != nil {
		identity.FirstName = validation.SanitizeInput(*changes.FirstName)
	}
	if changes.LastName != nil {
		identity.LastName = validation.SanitizeInput(*changes.LastName)
	}
	if changes.CellNumber != nil {
		if !validation.ValidatePhoneNumber(*changes.CellNumber) {
			return nil, &ValidationError{Field: "cell_number", Reason: "not a valid cell number"}
		}
		identity.CellNumber = *changes.CellNumber
	}
	if changes.PhysicalAddress != nil {
		identity.PhysicalAddress = validation.SanitizeInput(*changes.PhysicalAddress)
	}

	updated, err := s.store.UpdateIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}
	updated.Balance = sess.ledger.Balance()
	return updated, nil
}

// ChangePassword verifies the current secret and replaces it, requiring the
// replacement to pass the strength rules.
func (s *Service) ChangePassword(ctx context.Context, current, next string) error {
	sess, err := s.session()
	if err != nil {
		return err
	}
	s.sessions.Touch()

	identity, err := s.store.GetIdentity(ctx, sess.email)
	if err != nil {
		return fmt.Errorf("failed to load identity: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(identity.SecretHash), []byte(current)) != nil {
		return ErrAuthenticationFailed
	}
	if strength := validation.CheckPasswordStrength(next); !strength.IsValid {
		return &ValidationError{Field: "password", Reason: fmt.Sprintf("too weak (%s)", strength.Strength)}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	identity.SecretHash = string(hash)

	if _, err := s.store.UpdateIdentity(ctx, identity); err != nil {
		return err
	}
	s.logger.Info("password changed", "email", sess.email)
	return nil
}

// SubmitEnquiry records a support enquiry for the active identity and
// returns it with its generated reference.
func (s *Service) SubmitEnquiry(ctx context.Context, subject, message string) (*models.Enquiry, error) {
	sess, err := s.session()
	if err != nil {
		return nil, err
	}
	s.sessions.Touch()

	subject = validation.SanitizeInput(subject)
	message = validation.SanitizeInput(message)
	if subject == "" {
		return nil, &ValidationError{Field: "subject", Reason: "must not be empty"}
	}

	enquiry := &models.Enquiry{
		ID:        fmt.Sprintf("ENQ%d", s.now().UnixMilli()),
		Email:     sess.email,
		Subject:   subject,
		Message:   message,
		CreatedAt: s.now(),
	}
	return s.store.CreateEnquiry(ctx, enquiry)
}

// Enquiries lists the enquiries submitted by the active identity, in the
// order they were recorded.
func (s *Service) Enquiries(ctx context.Context) ([]models.Enquiry, error) {
	sess, err := s.session()
	if err != nil {
		return nil, err
	}
	s.sessions.Touch()

	all, err := s.store.ListEnquiries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list enquiries: %w", err)
	}
	mine := make([]models.Enquiry, 0, len(all))
	for _, e := range all {
		if e.Email == sess.email {
			mine = append(mine, e)
		}
	}
	return mine, nil
}

// SeedLedger installs demo transaction history for an identity's ledger,
// creating the ledger if the identity has never logged in.
func (s *Service) SeedLedger(ctx context.Context, email string, transactions []models.Transaction) error {
	identity, err := s.store.GetIdentity(ctx, email)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	led := s.ledgers[identity.Email]
	if led == nil {
		led = ledger.New(identity.ID, identity.Balance)
		s.ledgers[identity.Email] = led
	}
	led.Seed(transactions)
	return nil
}

// Close releases everything on shutdown.
func (s *Service) Close(ctx context.Context) {
	s.Logout(ctx)
	s.limiter.Clear()
}

func (s *Service) session() (*activeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, ErrNotAuthenticated
	}
	return s.current, nil
}

// checkAmount runs the ordered amount rules against the session's balance,
// mapping the insufficient-funds case onto the ledger's sentinel.
func (s *Service) checkAmount(sess *activeSession, amount decimal.Decimal) error {
	check := validation.ValidateTransactionAmount(amount, sess.ledger.Balance())
	if check.Valid {
		return nil
	}
	if check.Error == "Insufficient funds" {
		return ledger.ErrInsufficientFunds
	}
	return &ValidationError{Field: "amount", Reason: check.Error}
}

// generateAccountNumber produces an ACC-prefixed 9-digit account number.
func generateAccountNumber() string {
	n, _ := rand.Int(rand.Reader, big.NewInt(1000000000))
	return fmt.Sprintf("ACC%09d", n.Int64())
}
