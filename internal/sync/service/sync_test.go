package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fintrakhq/banksync/internal/sync/service"
	"github.com/fintrakhq/banksync/internal/sync/store"
	"github.com/fintrakhq/banksync/internal/sync/store/drivers/memory"
	"github.com/fintrakhq/banksync/pkg/gocardless"
)

func eur(amount string) gocardless.Amount {
	return gocardless.Amount{Amount: amount, Currency: "EUR"}
}

func TestSyncAccountTransactions(t *testing.T) {
	ctx := context.Background()

	t.Run("stores booked and pending", func(t *testing.T) {
		st := memory.New()
		provider := &fakeProvider{transactions: gocardless.Transactions{
			Transactions: gocardless.TransactionBuckets{
				Booked: []gocardless.Transaction{
					{TransactionID: "tx-1", TransactionAmount: eur("-12.50"), BookingDate: "2026-08-01"},
					{TransactionID: "tx-2", TransactionAmount: eur("1000.00"), BookingDate: "2026-08-02"},
				},
				Pending: []gocardless.Transaction{
					{TransactionID: "tx-3", TransactionAmount: eur("-3.20")},
				},
			},
		}}
		svc := service.NewSyncService(provider, st)

		res, err := svc.SyncAccountTransactions(ctx, "user-1", "acc-1", "", "")
		require.NoError(t, err)
		require.Equal(t, 3, res.Synced)
		require.Equal(t, 3, res.NewTransactions)
		require.Empty(t, res.Errors)

		rec, err := st.Collection(store.BankTransactions).FindOne(ctx, store.Filter{"userId": "user-1", "transactionId": "tx-3"})
		require.NoError(t, err)
		require.Equal(t, "pending", rec["status"])
		require.Equal(t, "acc-1", rec["accountId"])
	})

	t.Run("second run inserts nothing new", func(t *testing.T) {
		st := memory.New()
		provider := &fakeProvider{transactions: gocardless.Transactions{
			Transactions: gocardless.TransactionBuckets{
				Booked: []gocardless.Transaction{{TransactionID: "tx-1", TransactionAmount: eur("-5.00")}},
			},
		}}
		svc := service.NewSyncService(provider, st)

		_, err := svc.SyncAccountTransactions(ctx, "user-1", "acc-1", "", "")
		require.NoError(t, err)

		res, err := svc.SyncAccountTransactions(ctx, "user-1", "acc-1", "", "")
		require.NoError(t, err)
		require.Equal(t, 1, res.Synced)
		require.Zero(t, res.NewTransactions)
	})

	t.Run("falls back to internal transaction ID", func(t *testing.T) {
		st := memory.New()
		provider := &fakeProvider{transactions: gocardless.Transactions{
			Transactions: gocardless.TransactionBuckets{
				Booked: []gocardless.Transaction{{InternalTransactionID: "int-1", TransactionAmount: eur("-5.00")}},
			},
		}}
		svc := service.NewSyncService(provider, st)

		_, err := svc.SyncAccountTransactions(ctx, "user-1", "acc-1", "", "")
		require.NoError(t, err)

		res, err := svc.SyncAccountTransactions(ctx, "user-1", "acc-1", "", "")
		require.NoError(t, err)
		require.Zero(t, res.NewTransactions)
	})

	t.Run("transactions without any ID are still stored", func(t *testing.T) {
		st := memory.New()
		provider := &fakeProvider{transactions: gocardless.Transactions{
			Transactions: gocardless.TransactionBuckets{
				Booked: []gocardless.Transaction{{TransactionAmount: eur("-5.00")}},
			},
		}}
		svc := service.NewSyncService(provider, st)

		res, err := svc.SyncAccountTransactions(ctx, "user-1", "acc-1", "", "")
		require.NoError(t, err)
		require.Equal(t, 1, res.NewTransactions)
	})

	t.Run("same transaction for another owner is new", func(t *testing.T) {
		st := memory.New()
		provider := &fakeProvider{transactions: gocardless.Transactions{
			Transactions: gocardless.TransactionBuckets{
				Booked: []gocardless.Transaction{{TransactionID: "tx-1", TransactionAmount: eur("-5.00")}},
			},
		}}
		svc := service.NewSyncService(provider, st)

		_, err := svc.SyncAccountTransactions(ctx, "user-1", "acc-1", "", "")
		require.NoError(t, err)

		res, err := svc.SyncAccountTransactions(ctx, "user-2", "acc-1", "", "")
		require.NoError(t, err)
		require.Equal(t, 1, res.NewTransactions)
	})

	t.Run("provider failure lands in errors, not err", func(t *testing.T) {
		provider := &fakeProvider{err: gocardless.ErrAccountTransactions}
		svc := service.NewSyncService(provider, memory.New())

		res, err := svc.SyncAccountTransactions(ctx, "user-1", "acc-1", "", "")
		require.NoError(t, err)
		require.Len(t, res.Errors, 1)
		require.Zero(t, res.Synced)
	})

	t.Run("credential failure aborts", func(t *testing.T) {
		provider := &fakeProvider{err: gocardless.ErrCredentialsMissing}
		svc := service.NewSyncService(provider, memory.New())

		_, err := svc.SyncAccountTransactions(ctx, "user-1", "acc-1", "", "")
		require.True(t, errors.Is(err, gocardless.ErrCredentialsMissing))
	})
}
