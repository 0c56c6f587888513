package gocardless

// DefaultBaseURL is the production endpoint of the GoCardless Bank Account
// Data API.
const DefaultBaseURL = "https://bankaccountdata.gocardless.com/api/v2"

// tokenResponse is the payload returned by POST /token/new/ and
// POST /token/refresh/. The expiry fields are TTLs in seconds, not
// absolute timestamps.
type tokenResponse struct {
	Access         string `json:"access"`
	AccessExpires  int64  `json:"access_expires"`
	Refresh        string `json:"refresh"`
	RefreshExpires int64  `json:"refresh_expires"`
}

// Institution describes a bank reachable through the provider.
type Institution struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	BIC                  string   `json:"bic"`
	TransactionTotalDays string   `json:"transaction_total_days"`
	Countries            []string `json:"countries"`
	Logo                 string   `json:"logo"`
	SupportedPayments    []string `json:"supported_payments,omitempty"`
	SupportedFeatures    []string `json:"supported_features,omitempty"`
}

// CreateRequisitionRequest is the payload for POST /requisitions/.
type CreateRequisitionRequest struct {
	Redirect          string `json:"redirect"`
	InstitutionID     string `json:"institution_id"`
	Reference         string `json:"reference,omitempty"`
	Agreement         string `json:"agreement,omitempty"`
	UserLanguage      string `json:"user_language,omitempty"`
	SSN               string `json:"ssn,omitempty"`
	AccountSelection  bool   `json:"account_selection,omitempty"`
	RedirectImmediate bool   `json:"redirect_immediate,omitempty"`
}

// Requisition represents a user's consent/link to one banking institution.
// Status codes follow the provider's requisition lifecycle (CR, GC, UA, RJ,
// SA, GA, EX).
type Requisition struct {
	ID                string   `json:"id"`
	Created           string   `json:"created"`
	Redirect          string   `json:"redirect"`
	Status            string   `json:"status"`
	InstitutionID     string   `json:"institution_id"`
	Agreement         string   `json:"agreement,omitempty"`
	Reference         string   `json:"reference"`
	Accounts          []string `json:"accounts"`
	UserLanguage      string   `json:"user_language,omitempty"`
	Link              string   `json:"link"`
	SSN               string   `json:"ssn,omitempty"`
	AccountSelection  bool     `json:"account_selection,omitempty"`
	RedirectImmediate bool     `json:"redirect_immediate,omitempty"`
}

// AccountDetails is the payload of GET /accounts/{id}/details/.
type AccountDetails struct {
	ID              string `json:"id"`
	IBAN            string `json:"iban"`
	InstitutionID   string `json:"institution_id"`
	Status          string `json:"status"`
	OwnerName       string `json:"owner_name,omitempty"`
	Name            string `json:"name,omitempty"`
	Product         string `json:"product,omitempty"`
	ResourceID      string `json:"resource_id,omitempty"`
	BIC             string `json:"bic,omitempty"`
	Currency        string `json:"currency"`
	CashAccountType string `json:"cash_account_type,omitempty"`
}

// Amount is a monetary value. The amount is kept as a string to preserve
// precision across the wire.
type Amount struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// Balance is one entry of GET /accounts/{id}/balances/.
// Account endpoints use the Berlin Group camelCase field naming.
type Balance struct {
	BalanceAmount Amount `json:"balanceAmount"`
	BalanceType   string `json:"balanceType"`
	ReferenceDate string `json:"referenceDate,omitempty"`
}

// Balances is the payload of GET /accounts/{id}/balances/.
type Balances struct {
	Balances []Balance `json:"balances"`
}

// Transaction is a single bank transaction as reported by the provider.
// The client forwards these records without interpreting them.
type Transaction struct {
	TransactionID                     string   `json:"transactionId,omitempty"`
	BookingDate                       string   `json:"bookingDate,omitempty"`
	ValueDate                         string   `json:"valueDate,omitempty"`
	TransactionAmount                 Amount   `json:"transactionAmount"`
	CreditorName                      string   `json:"creditorName,omitempty"`
	CreditorID                        string   `json:"creditorId,omitempty"`
	DebtorName                        string   `json:"debtorName,omitempty"`
	RemittanceInformationUnstructured string   `json:"remittanceInformationUnstructured,omitempty"`
	BankTransactionCode               string   `json:"bankTransactionCode,omitempty"`
	ProprietaryBankTransactionCode    string   `json:"proprietaryBankTransactionCode,omitempty"`
	InternalTransactionID             string   `json:"internalTransactionId,omitempty"`
	EntryReference                    string   `json:"entryReference,omitempty"`
	MandateID                         string   `json:"mandateId,omitempty"`
	CheckID                           string   `json:"checkId,omitempty"`
	BookingDateTime                   string   `json:"bookingDateTime,omitempty"`
	ValueDateTime                     string   `json:"valueDateTime,omitempty"`
	AdditionalInformation             string   `json:"additionalInformation,omitempty"`
	BalanceAfterTransaction           *Balance `json:"balanceAfterTransaction,omitempty"`
}

// TransactionBuckets splits transactions the way the provider reports them.
type TransactionBuckets struct {
	Booked  []Transaction `json:"booked"`
	Pending []Transaction `json:"pending"`
}

// Transactions is the payload of GET /accounts/{id}/transactions/.
type Transactions struct {
	Transactions TransactionBuckets `json:"transactions"`
}
