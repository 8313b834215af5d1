package ledger

import (
	"testing"

	"github.com/instapay/payment-core/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCredit(t *testing.T) {
	l := New("user-1", dec("100.00"))

	tx, err := l.Credit(dec("250.50"), "Salary Payment")
	require.NoError(t, err)

	assert.Equal(t, models.CREDIT, tx.Kind)
	assert.True(t, tx.Amount.Equal(dec("250.50")))
	assert.Equal(t, "Salary Payment", tx.Description)
	assert.Equal(t, models.COMPLETED, tx.Status)
	assert.Equal(t, "TXN001", tx.Reference)
	assert.True(t, l.Balance().Equal(dec("350.50")))
}

func TestCreditRejectsNonPositiveAmount(t *testing.T) {
	l := New("user-1", dec("100.00"))

	_, err := l.Credit(decimal.Zero, "nothing")
	assert.ErrorIs(t, err, ErrNonPositiveAmount)
	assert.True(t, l.Balance().Equal(dec("100.00")))
	assert.Empty(t, l.History())
}

func TestDebit(t *testing.T) {
	t.Run("within balance", func(t *testing.T) {
		l := New("user-1", dec("100.00"))

		tx, err := l.Debit(dec("40.25"), "Grocery Store Payment")
		require.NoError(t, err)

		assert.Equal(t, models.DEBIT, tx.Kind)
		assert.True(t, l.Balance().Equal(dec("59.75")))
	})

	t.Run("exact balance", func(t *testing.T) {
		l := New("user-1", dec("100.00"))

		_, err := l.Debit(dec("100.00"), "all of it")
		require.NoError(t, err)
		assert.True(t, l.Balance().IsZero())
	})

	t.Run("over balance leaves state untouched", func(t *testing.T) {
		l := New("user-1", dec("100.00"))

		_, err := l.Debit(dec("100.01"), "too much")
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.True(t, l.Balance().Equal(dec("100.00")))
		assert.Empty(t, l.History())
	})
}

func TestReferenceSequenceIsMonotonic(t *testing.T) {
	l := New("user-1", dec("1000.00"))

	first, err := l.Credit(dec("1.00"), "one")
	require.NoError(t, err)
	_, err = l.Debit(dec("5000.00"), "rejected")
	require.Error(t, err)
	second, err := l.Debit(dec("2.00"), "two")
	require.NoError(t, err)

	// A rejected operation must not consume a sequence number.
	assert.Equal(t, "TXN001", first.Reference)
	assert.Equal(t, "TXN002", second.Reference)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
}

func TestHistoryIsMostRecentFirst(t *testing.T) {
	l := New("user-1", dec("1000.00"))

	_, err := l.Credit(dec("1.00"), "first")
	require.NoError(t, err)
	_, err = l.Credit(dec("2.00"), "second")
	require.NoError(t, err)
	_, err = l.Debit(dec("3.00"), "third")
	require.NoError(t, err)

	history := l.History()
	require.Len(t, history, 3)
	assert.Equal(t, "third", history[0].Description)
	assert.Equal(t, "second", history[1].Description)
	assert.Equal(t, "first", history[2].Description)
}

func TestSendMoneyDebitsSenderOnly(t *testing.T) {
	l := New("user-1", dec("500.00"))

	tx, err := l.SendMoney("jane@example.com", dec("120.00"), "Rent share")
	require.NoError(t, err)

	assert.Equal(t, models.DEBIT, tx.Kind)
	assert.Equal(t, "jane@example.com", tx.Recipient)
	assert.Equal(t, "Transfer to jane@example.com: Rent share", tx.Description)
	assert.True(t, l.Balance().Equal(dec("380.00")))
}

func TestSendMoneyInsufficientFunds(t *testing.T) {
	l := New("user-1", dec("50.00"))

	_, err := l.SendMoney("jane@example.com", dec("60.00"), "too much")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.True(t, l.Balance().Equal(dec("50.00")))
}

func TestWithdraw(t *testing.T) {
	t.Run("partial", func(t *testing.T) {
		l := New("user-1", dec("1000.00"))

		tx, newBalance, err := l.Withdraw(dec("300.00"), false)
		require.NoError(t, err)

		assert.Equal(t, "Partial Withdrawal", tx.Description)
		assert.True(t, newBalance.Equal(dec("700.00")))
	})

	t.Run("full drains the balance snapshot", func(t *testing.T) {
		l := New("user-1", dec("1000.00"))

		tx, newBalance, err := l.Withdraw(decimal.Zero, true)
		require.NoError(t, err)

		assert.Equal(t, "Full Account Withdrawal", tx.Description)
		assert.True(t, tx.Amount.Equal(dec("1000.00")))
		assert.True(t, newBalance.IsZero())

		// The account is now empty; even one cent must be rejected.
		_, err = l.Debit(dec("0.01"), "post-drain")
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.True(t, l.Balance().IsZero())
	})

	t.Run("full withdrawal of an empty account is rejected", func(t *testing.T) {
		l := New("user-1", decimal.Zero)

		_, _, err := l.Withdraw(decimal.Zero, true)
		assert.ErrorIs(t, err, ErrNonPositiveAmount)
	})
}

func TestSubscribe(t *testing.T) {
	l := New("user-1", dec("100.00"))

	var updates []models.BalanceUpdate
	unsubscribe := l.Subscribe(func(u models.BalanceUpdate) {
		updates = append(updates, u)
	})

	_, err := l.Credit(dec("10.00"), "one")
	require.NoError(t, err)
	_, err = l.Debit(dec("5.00"), "two")
	require.NoError(t, err)

	require.Len(t, updates, 2)
	assert.True(t, updates[0].NewBalance.Equal(dec("110.00")))
	assert.True(t, updates[1].NewBalance.Equal(dec("105.00")))
	assert.Equal(t, "two", updates[1].Transaction.Description)

	unsubscribe()
	_, err = l.Credit(dec("1.00"), "after unsubscribe")
	require.NoError(t, err)
	assert.Len(t, updates, 2)
}

func TestRejectedOperationsDoNotNotify(t *testing.T) {
	l := New("user-1", dec("10.00"))

	notified := 0
	l.Subscribe(func(models.BalanceUpdate) { notified++ })

	_, err := l.Debit(dec("20.00"), "rejected")
	require.Error(t, err)
	assert.Zero(t, notified)
}

func TestSeedKeepsBalanceAndContinuesSequence(t *testing.T) {
	l := New("user-1", dec("1000.00"))

	l.Seed([]models.Transaction{
		{ID: 1, Kind: models.CREDIT, Amount: dec("2500.00"), Reference: "TXN001", Status: models.COMPLETED},
		{ID: 2, Kind: models.DEBIT, Amount: dec("150.00"), Reference: "TXN002", Status: models.COMPLETED},
	})

	assert.True(t, l.Balance().Equal(dec("1000.00")))

	tx, err := l.Credit(dec("5.00"), "fresh")
	require.NoError(t, err)
	assert.Equal(t, "TXN003", tx.Reference)
	assert.Len(t, l.History(), 3)
}
