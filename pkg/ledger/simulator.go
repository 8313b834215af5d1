package ledger

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/instapay/payment-core/pkg/models"
	"github.com/shopspring/decimal"
)

// Simulator defaults, tuned to mimic sporadic externally-initiated payments.
const (
	DefaultTickInterval      = 5 * time.Second
	DefaultEventProbability  = 0.10
	DefaultCreditProbability = 0.70
	DefaultMinEventAmount    = 10.0
	DefaultMaxEventAmount    = 110.0
)

// SimulatorConfig tunes the synthetic event stream. Zero values fall back to
// the defaults above.
type SimulatorConfig struct {
	TickInterval      time.Duration
	EventProbability  float64
	CreditProbability float64
	MinAmount         float64
	MaxAmount         float64
}

func (c SimulatorConfig) withDefaults() SimulatorConfig {
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.EventProbability <= 0 {
		c.EventProbability = DefaultEventProbability
	}
	if c.CreditProbability <= 0 {
		c.CreditProbability = DefaultCreditProbability
	}
	if c.MinAmount <= 0 {
		c.MinAmount = DefaultMinEventAmount
	}
	if c.MaxAmount <= c.MinAmount {
		c.MaxAmount = DefaultMaxEventAmount
	}
	return c
}

// Simulator synthesizes externally-initiated transactions on the owning
// ledger. Each tick has a fixed probability of producing one transaction with
// a random kind and amount; most ticks produce nothing, and a quiet stream is
// expected behavior, not starvation.
type Simulator struct {
	ledger *Ledger
	cfg    SimulatorConfig
	logger *slog.Logger

	rng *rand.Rand

	mu       sync.Mutex
	stopped  bool
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	started  bool
}

// NewSimulator creates a stopped simulator for the given ledger.
func NewSimulator(l *Ledger, cfg SimulatorConfig, logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{
		ledger: l,
		cfg:    cfg.withDefaults(),
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		done:   make(chan struct{}),
	}
}

// Start launches the tick loop. Starting twice is a no-op.
func (s *Simulator) Start() {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop()
}

// Stop halts the stream. It is idempotent, and once it returns no further
// tick fires and no subscriber callback is delivered: an in-flight tick
// either finished before Stop returned or sees the stopped flag and commits
// nothing.
func (s *Simulator) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

func (s *Simulator) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick rolls the dice and, on a hit, commits one synthetic transaction. The
// stopped flag is checked immediately before committing so a tick that was
// already in flight when Stop ran mutates nothing.
func (s *Simulator) tick() {
	if s.rng.Float64() >= s.cfg.EventProbability {
		return
	}

	kind := models.DEBIT
	description := "Automatic Payment"
	if s.rng.Float64() < s.cfg.CreditProbability {
		kind = models.CREDIT
		description = "Incoming Payment"
	}

	raw := s.cfg.MinAmount + s.rng.Float64()*(s.cfg.MaxAmount-s.cfg.MinAmount)
	amount := decimal.NewFromFloat(raw).Round(2)

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	update := s.ledger.applyExternal(kind, amount, description)
	s.logger.Debug("synthetic transaction",
		"owner", s.ledger.OwnerID(),
		"kind", string(kind),
		"amount", amount.String(),
		"new_balance", update.NewBalance.String(),
	)
}
