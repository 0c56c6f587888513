package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fintrakhq/banksync/internal/sync/domain"
	"github.com/fintrakhq/banksync/internal/sync/store"
	"github.com/fintrakhq/banksync/pkg/gocardless"
	"github.com/fintrakhq/banksync/pkg/idx"
	"github.com/fintrakhq/banksync/pkg/slogx"
)

// SyncService pulls provider transactions into local storage.
type SyncService struct {
	provider Provider
	store    store.Store
}

func NewSyncService(provider Provider, st store.Store) *SyncService {
	return &SyncService{provider: provider, store: st}
}

// SyncResult summarizes one sync run. Synced counts every transaction seen
// (new or already stored); NewTransactions counts inserts only.
type SyncResult struct {
	Synced          int      `json:"synced"`
	NewTransactions int      `json:"newTransactions"`
	Errors          []string `json:"errors"`
}

// SyncAccountTransactions fetches booked and pending transactions for an
// account and stores the ones not seen before, deduplicating on the
// provider's transaction ID scoped to the owner. Per-transaction failures
// are collected and the run continues.
func (s *SyncService) SyncAccountTransactions(ctx context.Context, ownerID, accountID, dateFrom, dateTo string) (SyncResult, error) {
	res := SyncResult{Errors: []string{}}
	log := slogx.FromContext(ctx)

	txs, err := s.provider.AccountTransactions(ctx, accountID, dateFrom, dateTo)
	if err != nil {
		if errors.Is(err, gocardless.ErrCredentialsMissing) || errors.Is(err, gocardless.ErrAuthentication) {
			return res, err
		}
		res.Errors = append(res.Errors, fmt.Sprintf("Failed to fetch transactions from provider: %v", err))
		return res, nil
	}

	coll := s.store.Collection(store.BankTransactions)
	for _, tx := range txs.Transactions.Booked {
		s.syncOne(ctx, coll, ownerID, accountID, domain.StatusBooked, tx, &res)
	}
	for _, tx := range txs.Transactions.Pending {
		s.syncOne(ctx, coll, ownerID, accountID, domain.StatusPending, tx, &res)
	}

	log.Info("account sync completed",
		"account_id", accountID,
		"synced", res.Synced,
		"new", res.NewTransactions,
		"failed", len(res.Errors),
	)
	return res, nil
}

func (s *SyncService) syncOne(ctx context.Context, coll store.Collection, ownerID, accountID, status string, tx gocardless.Transaction, res *SyncResult) {
	txID := tx.TransactionID
	if txID == "" {
		txID = tx.InternalTransactionID
	}
	if txID == "" {
		// Some institutions omit both IDs; synthesize one so the record
		// is still stored, at the cost of dedup for that transaction.
		txID = fmt.Sprintf("%s_%s", accountID, idx.New())
	}

	_, err := coll.FindOne(ctx, store.Filter{"userId": ownerID, "transactionId": txID})
	switch {
	case err == nil:
		res.Synced++
		return
	case !errors.Is(err, store.ErrNotFound):
		res.Errors = append(res.Errors, fmt.Sprintf("Failed to process transaction: %v", err))
		return
	}

	doc := domain.BankTransaction{
		UserID:                            ownerID,
		AccountID:                         accountID,
		TransactionID:                     txID,
		Status:                            status,
		TransactionAmount:                 tx.TransactionAmount,
		BookingDate:                       tx.BookingDate,
		ValueDate:                         tx.ValueDate,
		BookingDateTime:                   tx.BookingDateTime,
		ValueDateTime:                     tx.ValueDateTime,
		CreditorName:                      tx.CreditorName,
		CreditorID:                        tx.CreditorID,
		DebtorName:                        tx.DebtorName,
		RemittanceInformationUnstructured: tx.RemittanceInformationUnstructured,
		BankTransactionCode:               tx.BankTransactionCode,
		ProprietaryBankTransactionCode:    tx.ProprietaryBankTransactionCode,
		InternalTransactionID:             tx.InternalTransactionID,
		EntryReference:                    tx.EntryReference,
		MandateID:                         tx.MandateID,
		CheckID:                           tx.CheckID,
		AdditionalInformation:             tx.AdditionalInformation,
		BalanceAfterTransaction:           tx.BalanceAfterTransaction,
	}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("Failed to process transaction: %v", err))
		return
	}

	res.NewTransactions++
	res.Synced++
}
