package ledger

import (
	"log/slog"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/instapay/payment-core/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSimulator(l *Ledger, cfg SimulatorConfig, seed int64) *Simulator {
	s := NewSimulator(l, cfg, slog.Default())
	s.rng = rand.New(rand.NewSource(seed))
	return s
}

func TestTickBelowProbabilityDoesNothing(t *testing.T) {
	l := New("user-1", dec("100.00"))
	// Probability so small the first roll cannot hit.
	s := newTestSimulator(l, SimulatorConfig{EventProbability: 1e-12}, 1)

	s.tick()

	assert.Empty(t, l.History())
	assert.True(t, l.Balance().Equal(dec("100.00")))
}

func TestTickSynthesizesCredit(t *testing.T) {
	l := New("user-1", dec("100.00"))
	s := newTestSimulator(l, SimulatorConfig{
		EventProbability:  1.0,
		CreditProbability: 1.0,
	}, 42)

	var updates []models.BalanceUpdate
	l.Subscribe(func(u models.BalanceUpdate) { updates = append(updates, u) })

	s.tick()

	history := l.History()
	require.Len(t, history, 1)
	tx := history[0]
	assert.Equal(t, models.CREDIT, tx.Kind)
	assert.Equal(t, "Incoming Payment", tx.Description)
	assert.True(t, tx.Amount.GreaterThanOrEqual(decimal.NewFromFloat(DefaultMinEventAmount)))
	assert.True(t, tx.Amount.LessThanOrEqual(decimal.NewFromFloat(DefaultMaxEventAmount)))
	assert.True(t, l.Balance().Equal(dec("100.00").Add(tx.Amount)))

	require.Len(t, updates, 1)
	assert.True(t, updates[0].NewBalance.Equal(l.Balance()))
}

func TestTickDebitClampsAtZero(t *testing.T) {
	// Balance far below the minimum synthetic amount: a simulated debit must
	// clamp at zero rather than reject.
	l := New("user-1", dec("1.00"))
	s := newTestSimulator(l, SimulatorConfig{
		EventProbability:  1.0,
		CreditProbability: 1e-12,
	}, 7)

	s.tick()

	history := l.History()
	require.Len(t, history, 1)
	assert.Equal(t, models.DEBIT, history[0].Kind)
	assert.Equal(t, "Automatic Payment", history[0].Description)
	assert.True(t, l.Balance().IsZero())
}

func TestStopPreventsFurtherDeliveries(t *testing.T) {
	l := New("user-1", dec("100.00"))
	s := newTestSimulator(l, SimulatorConfig{
		TickInterval:     time.Millisecond,
		EventProbability: 1.0,
	}, 3)

	var delivered atomic.Int64
	l.Subscribe(func(models.BalanceUpdate) { delivered.Add(1) })

	s.Start()
	// Let at least one tick land, then stop.
	deadline := time.After(time.Second)
	for delivered.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("simulator never fired")
		case <-time.After(time.Millisecond):
		}
	}

	s.Stop()
	seen := delivered.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, seen, delivered.Load(), "no delivery may happen after Stop returns")
}

func TestStopIsIdempotentAndTickAfterStopIsInert(t *testing.T) {
	l := New("user-1", dec("100.00"))
	s := newTestSimulator(l, SimulatorConfig{EventProbability: 1.0}, 9)

	s.Stop()
	s.Stop()

	// Even a tick forced after Stop must not mutate state or deliver.
	s.tick()
	assert.Empty(t, l.History())
}

func TestStartAfterStopIsNoOp(t *testing.T) {
	l := New("user-1", dec("100.00"))
	s := newTestSimulator(l, SimulatorConfig{
		TickInterval:     time.Millisecond,
		EventProbability: 1.0,
	}, 5)

	s.Stop()
	s.Start()

	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, l.History())
}
