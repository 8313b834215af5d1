package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind distinguishes money flowing into or out of an account.
type TransactionKind string

const (
	CREDIT TransactionKind = "credit"
	DEBIT  TransactionKind = "debit"
)

// TransactionStatus defines the possible states of a transaction. Every
// transaction in this client settles synchronously, so COMPLETED is the only
// status ever emitted; the field exists to match the shape a real payment
// backend would return.
type TransactionStatus string

const (
	COMPLETED TransactionStatus = "completed"
)

// Transaction is a single committed ledger entry. Transactions are
// append-only: once created they are never mutated.
type Transaction struct {
	ID          int64             `json:"id"`
	Kind        TransactionKind   `json:"type"`
	Amount      decimal.Decimal   `json:"amount"`
	Description string            `json:"description"`
	Recipient   string            `json:"recipient,omitempty"`
	Reference   string            `json:"reference"`
	Status      TransactionStatus `json:"status"`
	OccurredAt  time.Time         `json:"date"`
}

// Identity is one account holder in the fixed in-memory identity set.
// Balance is owned by the identity's ledger and must only change through
// ledger operations.
type Identity struct {
	ID              string          `json:"id"`
	Email           string          `json:"email"`
	SecretHash      string          `json:"-"`
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	CellNumber      string          `json:"cell_number"`
	IdentityNumber  string          `json:"identity_number"`
	PhysicalAddress string          `json:"physical_address"`
	AccountNumber   string          `json:"account_number"`
	Balance         decimal.Decimal `json:"balance"`
	CreatedAt       time.Time       `json:"created_at"`
}

// RegistrationInput carries the fields a new account holder submits.
type RegistrationInput struct {
	Email           string
	Password        string
	FirstName       string
	LastName        string
	CellNumber      string
	IdentityNumber  string
	PhysicalAddress string
}

// ProfileUpdate holds the mutable, non-financial identity fields. Nil fields
// are left unchanged.
type ProfileUpdate struct {
	FirstName       *string `json:"first_name,omitempty"`
	LastName        *string `json:"last_name,omitempty"`
	CellNumber      *string `json:"cell_number,omitempty"`
	PhysicalAddress *string `json:"physical_address,omitempty"`
}

// Enquiry is a customer support message captured for later handling.
type Enquiry struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// BalanceUpdate is delivered to balance subscribers whenever a foreground
// operation or the background simulator changes a balance.
type BalanceUpdate struct {
	NewBalance  decimal.Decimal `json:"new_balance"`
	Transaction Transaction     `json:"transaction"`
}
