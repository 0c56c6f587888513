package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fintrakhq/banksync/internal/sync/service"
	"github.com/fintrakhq/banksync/pkg/gocardless"
	"github.com/fintrakhq/banksync/pkg/httpx"
	"github.com/fintrakhq/banksync/pkg/slogx"
)

// BankHandler serves the bank-linking surface: institutions, requisitions,
// account reads, and transaction syncs.
type BankHandler struct {
	Banks *service.BankService
	Sync  *service.SyncService
}

func (h *BankHandler) ListInstitutions(w http.ResponseWriter, r *http.Request) {
	institutions, err := h.Banks.ListInstitutions(r.Context(), r.URL.Query().Get("country"))
	if err != nil {
		writeProviderError(w, r, err, "Failed to fetch institutions")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, institutions)
}

func (h *BankHandler) CreateRequisition(w http.ResponseWriter, r *http.Request) {
	var params service.CreateRequisitionParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	requisition, err := h.Banks.CreateRequisition(r.Context(), httpx.UserIDFromContext(r.Context()), params)
	if err != nil {
		writeProviderError(w, r, err, "Failed to create requisition")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, requisition)
}

func (h *BankHandler) GetRequisition(w http.ResponseWriter, r *http.Request) {
	requisition, err := h.Banks.GetRequisition(r.Context(), r.PathValue("id"))
	if err != nil {
		writeProviderError(w, r, err, "Failed to fetch requisition")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, requisition)
}

func (h *BankHandler) AccountDetails(w http.ResponseWriter, r *http.Request) {
	details, err := h.Banks.AccountDetails(r.Context(), r.PathValue("id"))
	if err != nil {
		writeProviderError(w, r, err, "Failed to fetch account details")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, details)
}

func (h *BankHandler) AccountBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.Banks.AccountBalances(r.Context(), r.PathValue("id"))
	if err != nil {
		writeProviderError(w, r, err, "Failed to fetch balances")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, balances)
}

func (h *BankHandler) AccountTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	transactions, err := h.Banks.AccountTransactions(r.Context(), r.PathValue("id"), q.Get("date_from"), q.Get("date_to"))
	if err != nil {
		writeProviderError(w, r, err, "Failed to fetch transactions")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, transactions)
}

type syncRequest struct {
	DateFrom string `json:"dateFrom"`
	DateTo   string `json:"dateTo"`
}

func (h *BankHandler) SyncTransactions(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	res, err := h.Sync.SyncAccountTransactions(
		r.Context(),
		httpx.UserIDFromContext(r.Context()),
		r.PathValue("id"),
		req.DateFrom,
		req.DateTo,
	)
	if err != nil {
		writeProviderError(w, r, err, "Failed to sync transactions")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

// writeProviderError maps service failures to responses. Provider error
// details are logged but never leaked to clients; callers get the flat
// message plus a status that tells them whose fault it is.
func writeProviderError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	log := slogx.FromContext(r.Context())

	switch {
	case errors.Is(err, service.ErrMissingField):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, gocardless.ErrCredentialsMissing), errors.Is(err, gocardless.ErrAuthentication):
		log.Error("provider credentials unusable", "error", err)
		httpx.WriteError(w, http.StatusServiceUnavailable, "Banking provider credentials not configured")
	default:
		log.Error("provider request failed", "error", err)
		httpx.WriteError(w, http.StatusBadGateway, msg)
	}
}
