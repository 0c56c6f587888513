package domain

import "github.com/fintrakhq/banksync/pkg/gocardless"

// Category organizes transactions for tracking and analysis. Name is either
// a plain string or a language-keyed map ({"en": ..., "es": ...}); imports
// pass through whichever shape the source file uses.
type Category struct {
	ID       string   `bson:"_id,omitempty" json:"id,omitempty"`
	UserID   string   `bson:"userId" json:"userId"`
	Key      string   `bson:"key" json:"key"`
	Name     any      `bson:"name" json:"name"`
	Color    string   `bson:"color" json:"color"`
	Icon     string   `bson:"icon" json:"icon"`
	Keywords []string `bson:"keywords" json:"keywords"`
}

// Tag is a free-form label attached to transactions.
type Tag struct {
	ID     string `bson:"_id,omitempty" json:"id,omitempty"`
	UserID string `bson:"userId" json:"userId"`
	Key    string `bson:"key" json:"key"`
	Name   any    `bson:"name" json:"name"`
	Color  string `bson:"color" json:"color"`
	Icon   string `bson:"icon" json:"icon"`
}

// Counterparty types.
const (
	CounterpartyCompany     = "company"
	CounterpartyPerson      = "person"
	CounterpartyInstitution = "institution"
	CounterpartyOther       = "other"
)

// Counterparty is a person, company, or organization money moves to or from.
type Counterparty struct {
	ID            string `bson:"_id,omitempty" json:"id,omitempty"`
	UserID        string `bson:"userId" json:"userId"`
	Key           string `bson:"key" json:"key"`
	Name          string `bson:"name" json:"name"`
	Type          string `bson:"type" json:"type"`
	Logo          string `bson:"logo,omitempty" json:"logo,omitempty"`
	Email         string `bson:"email,omitempty" json:"email,omitempty"`
	Phone         string `bson:"phone,omitempty" json:"phone,omitempty"`
	Address       string `bson:"address,omitempty" json:"address,omitempty"`
	Notes         string `bson:"notes,omitempty" json:"notes,omitempty"`
	TitleTemplate string `bson:"titleTemplate,omitempty" json:"titleTemplate,omitempty"`
}

// Recurring transaction enums.
const (
	PeriodicityMonthly   = "MONTHLY"
	PeriodicityQuarterly = "QUARTERLY"
	PeriodicityYearly    = "YEARLY"

	TransactionExpense = "EXPENSE"
	TransactionIncome  = "INCOME"
)

// RecurringTransaction is a template for transactions that repeat on a
// fixed schedule. Uniqueness is composite: one title may recur at several
// periodicities.
type RecurringTransaction struct {
	ID              string   `bson:"_id,omitempty" json:"id,omitempty"`
	UserID          string   `bson:"userId" json:"userId"`
	Title           string   `bson:"title" json:"title"`
	Currency        string   `bson:"currency" json:"currency"`
	CategoryID      any      `bson:"category" json:"category"`
	TransactionType string   `bson:"transactionType" json:"transactionType"`
	MinAproxAmount  *float64 `bson:"minAproxAmount,omitempty" json:"minAproxAmount,omitempty"`
	MaxAproxAmount  *float64 `bson:"maxAproxAmount,omitempty" json:"maxAproxAmount,omitempty"`
	Periodicity     string   `bson:"periodicity" json:"periodicity"`
}

// CryptoAsset is a cryptocurrency holding.
type CryptoAsset struct {
	ID     string  `bson:"_id,omitempty" json:"id,omitempty"`
	UserID string  `bson:"userId" json:"userId"`
	Name   string  `bson:"name" json:"name"`
	Code   string  `bson:"code" json:"code"`
	Amount float64 `bson:"amount" json:"amount"`
}

// Bank transaction statuses.
const (
	StatusBooked  = "booked"
	StatusPending = "pending"
)

// BankTransaction is a provider transaction persisted locally after a sync.
// Provider fields are stored as received; TransactionID drives sync
// deduplication.
type BankTransaction struct {
	ID            string `bson:"_id,omitempty" json:"id,omitempty"`
	UserID        string `bson:"userId" json:"userId"`
	AccountID     string `bson:"accountId" json:"accountId"`
	TransactionID string `bson:"transactionId" json:"transactionId"`
	Status        string `bson:"status" json:"status"`

	TransactionAmount                 gocardless.Amount   `bson:"transactionAmount" json:"transactionAmount"`
	BookingDate                       string              `bson:"bookingDate,omitempty" json:"bookingDate,omitempty"`
	ValueDate                         string              `bson:"valueDate,omitempty" json:"valueDate,omitempty"`
	BookingDateTime                   string              `bson:"bookingDateTime,omitempty" json:"bookingDateTime,omitempty"`
	ValueDateTime                     string              `bson:"valueDateTime,omitempty" json:"valueDateTime,omitempty"`
	CreditorName                      string              `bson:"creditorName,omitempty" json:"creditorName,omitempty"`
	CreditorID                        string              `bson:"creditorId,omitempty" json:"creditorId,omitempty"`
	DebtorName                        string              `bson:"debtorName,omitempty" json:"debtorName,omitempty"`
	RemittanceInformationUnstructured string              `bson:"remittanceInformationUnstructured,omitempty" json:"remittanceInformationUnstructured,omitempty"`
	BankTransactionCode               string              `bson:"bankTransactionCode,omitempty" json:"bankTransactionCode,omitempty"`
	ProprietaryBankTransactionCode    string              `bson:"proprietaryBankTransactionCode,omitempty" json:"proprietaryBankTransactionCode,omitempty"`
	InternalTransactionID             string              `bson:"internalTransactionId,omitempty" json:"internalTransactionId,omitempty"`
	EntryReference                    string              `bson:"entryReference,omitempty" json:"entryReference,omitempty"`
	MandateID                         string              `bson:"mandateId,omitempty" json:"mandateId,omitempty"`
	CheckID                           string              `bson:"checkId,omitempty" json:"checkId,omitempty"`
	AdditionalInformation             string              `bson:"additionalInformation,omitempty" json:"additionalInformation,omitempty"`
	BalanceAfterTransaction           *gocardless.Balance `bson:"balanceAfterTransaction,omitempty" json:"balanceAfterTransaction,omitempty"`
}
