package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/instapay/payment-core/pkg/models"
	"github.com/shopspring/decimal"
)

// ErrInsufficientFunds is returned when a debit exceeds the current balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrNonPositiveAmount is returned when an operation is attempted with a zero
// or negative amount.
var ErrNonPositiveAmount = errors.New("amount must be positive")

const referencePrefix = "TXN"

// Subscriber receives a balance update after every committed mutation,
// foreground or simulated.
type Subscriber func(models.BalanceUpdate)

// Ledger owns the balance and the append-only transaction history for one
// identity. All mutations are serialized through a single mutex so a
// simulator tick can never interleave with a foreground operation. A rejected
// operation leaves balance and history untouched.
type Ledger struct {
	ownerID string

	mu      sync.Mutex
	balance decimal.Decimal
	history []models.Transaction
	nextSeq int64

	subMu   sync.Mutex
	subs    map[int]Subscriber
	nextSub int

	now func() time.Time
}

// New creates a ledger with the given opening balance.
func New(ownerID string, openingBalance decimal.Decimal) *Ledger {
	return &Ledger{
		ownerID: ownerID,
		balance: openingBalance,
		nextSeq: 1,
		subs:    make(map[int]Subscriber),
		now:     time.Now,
	}
}

// OwnerID returns the identity this ledger belongs to.
func (l *Ledger) OwnerID() string {
	return l.ownerID
}

// Balance returns the current balance.
func (l *Ledger) Balance() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// History returns a copy of the transaction history, most recent first.
func (l *Ledger) History() []models.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.Transaction, len(l.history))
	for i, tx := range l.history {
		out[len(l.history)-1-i] = tx
	}
	return out
}

// Seed installs pre-existing transactions without touching the balance, for
// demo accounts that come with history. The reference sequence continues
// after the seeded entries.
func (l *Ledger) Seed(transactions []models.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.history = append(l.history, transactions...)
	l.nextSeq = int64(len(l.history)) + 1
}

// Credit appends a credit transaction and increases the balance.
func (l *Ledger) Credit(amount decimal.Decimal, description string) (models.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return models.Transaction{}, ErrNonPositiveAmount
	}

	l.mu.Lock()
	l.balance = l.balance.Add(amount)
	tx := l.appendLocked(models.CREDIT, amount, description, "")
	update := models.BalanceUpdate{NewBalance: l.balance, Transaction: tx}
	l.mu.Unlock()

	l.notify(update)
	return tx, nil
}

// Debit appends a debit transaction and decreases the balance. A debit whose
// amount exceeds the current balance is rejected before any mutation.
func (l *Ledger) Debit(amount decimal.Decimal, description string) (models.Transaction, error) {
	return l.debitTagged(amount, description, "")
}

// SendMoney debits the sender's ledger, tagging the transaction with the
// recipient identifier. Recipient accounts are external to this client, so no
// corresponding credit is created anywhere; this is a deliberate
// simplification, not double-entry bookkeeping.
func (l *Ledger) SendMoney(recipient string, amount decimal.Decimal, description string) (models.Transaction, error) {
	return l.debitTagged(amount, fmt.Sprintf("Transfer to %s: %s", recipient, description), recipient)
}

// Withdraw debits the given amount. When full is true the amount argument is
// ignored and the balance at the time of the call is withdrawn; the balance
// is read once, not re-read mid-operation. Returns the transaction and the
// new balance.
func (l *Ledger) Withdraw(amount decimal.Decimal, full bool) (models.Transaction, decimal.Decimal, error) {
	l.mu.Lock()

	description := "Partial Withdrawal"
	if full {
		amount = l.balance
		description = "Full Account Withdrawal"
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		l.mu.Unlock()
		return models.Transaction{}, l.balance, ErrNonPositiveAmount
	}
	if amount.GreaterThan(l.balance) {
		l.mu.Unlock()
		return models.Transaction{}, l.balance, ErrInsufficientFunds
	}

	l.balance = l.balance.Sub(amount)
	tx := l.appendLocked(models.DEBIT, amount, description, "")
	newBalance := l.balance
	update := models.BalanceUpdate{NewBalance: newBalance, Transaction: tx}
	l.mu.Unlock()

	l.notify(update)
	return tx, newBalance, nil
}

// Subscribe registers a balance-update subscriber and returns its
// unsubscribe function.
func (l *Ledger) Subscribe(fn Subscriber) func() {
	l.subMu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = fn
	l.subMu.Unlock()

	return func() {
		l.subMu.Lock()
		delete(l.subs, id)
		l.subMu.Unlock()
	}
}

func (l *Ledger) debitTagged(amount decimal.Decimal, description, recipient string) (models.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return models.Transaction{}, ErrNonPositiveAmount
	}

	l.mu.Lock()
	if amount.GreaterThan(l.balance) {
		l.mu.Unlock()
		return models.Transaction{}, ErrInsufficientFunds
	}

	l.balance = l.balance.Sub(amount)
	tx := l.appendLocked(models.DEBIT, amount, description, recipient)
	update := models.BalanceUpdate{NewBalance: l.balance, Transaction: tx}
	l.mu.Unlock()

	l.notify(update)
	return tx, nil
}

// applyExternal commits a simulated, externally-initiated transaction. A
// simulated debit larger than the balance clamps the balance at zero instead
// of rejecting, mirroring how the simulated counterparty would not know this
// client's balance.
func (l *Ledger) applyExternal(kind models.TransactionKind, amount decimal.Decimal, description string) models.BalanceUpdate {
	l.mu.Lock()

	if kind == models.CREDIT {
		l.balance = l.balance.Add(amount)
	} else {
		l.balance = decimal.Max(decimal.Zero, l.balance.Sub(amount))
	}
	tx := l.appendLocked(kind, amount, description, "")
	update := models.BalanceUpdate{NewBalance: l.balance, Transaction: tx}
	l.mu.Unlock()

	l.notify(update)
	return update
}

// appendLocked creates and appends a transaction. Caller must hold l.mu.
func (l *Ledger) appendLocked(kind models.TransactionKind, amount decimal.Decimal, description, recipient string) models.Transaction {
	tx := models.Transaction{
		ID:          l.nextSeq,
		Kind:        kind,
		Amount:      amount,
		Description: description,
		Recipient:   recipient,
		Reference:   fmt.Sprintf("%s%03d", referencePrefix, l.nextSeq),
		Status:      models.COMPLETED,
		OccurredAt:  l.now(),
	}
	l.nextSeq++
	l.history = append(l.history, tx)
	return tx
}

// notify delivers an update to a snapshot of subscribers, outside the ledger
// lock so a subscriber may call back into the ledger.
func (l *Ledger) notify(update models.BalanceUpdate) {
	l.subMu.Lock()
	snapshot := make([]Subscriber, 0, len(l.subs))
	for _, fn := range l.subs {
		snapshot = append(snapshot, fn)
	}
	l.subMu.Unlock()

	for _, fn := range snapshot {
		fn(update)
	}
}
