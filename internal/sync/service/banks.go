package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fintrakhq/banksync/pkg/gocardless"
	"github.com/fintrakhq/banksync/pkg/slogx"
)

// Provider is the slice of the banking provider the services use. The
// concrete implementation is *gocardless.Client; tests substitute fakes.
type Provider interface {
	Institutions(ctx context.Context, country string) ([]gocardless.Institution, error)
	CreateRequisition(ctx context.Context, req gocardless.CreateRequisitionRequest) (*gocardless.Requisition, error)
	Requisition(ctx context.Context, id string) (*gocardless.Requisition, error)
	AccountDetails(ctx context.Context, accountID string) (*gocardless.AccountDetails, error)
	AccountBalances(ctx context.Context, accountID string) (*gocardless.Balances, error)
	AccountTransactions(ctx context.Context, accountID, dateFrom, dateTo string) (*gocardless.Transactions, error)
}

// InstitutionCache caches per-country institution lists. Institution
// catalogs change rarely and the provider call is the slowest in the
// listing path.
type InstitutionCache interface {
	Get(ctx context.Context, country string) ([]gocardless.Institution, bool)
	Set(ctx context.Context, country string, institutions []gocardless.Institution)
}

// ErrMissingField reports a rejected request with a required field absent.
var ErrMissingField = errors.New("missing required field")

// BankService exposes the provider's bank-linking surface: institution
// discovery, requisition lifecycle, and account reads.
type BankService struct {
	provider       Provider
	cache          InstitutionCache
	defaultCountry string
}

func NewBankService(provider Provider, cache InstitutionCache, defaultCountry string) *BankService {
	if defaultCountry == "" {
		defaultCountry = "ES"
	}
	return &BankService{
		provider:       provider,
		cache:          cache,
		defaultCountry: defaultCountry,
	}
}

// ListInstitutions returns the banks available in a country, served from
// cache when possible.
func (s *BankService) ListInstitutions(ctx context.Context, country string) ([]gocardless.Institution, error) {
	if country == "" {
		country = s.defaultCountry
	}

	if s.cache != nil {
		if institutions, ok := s.cache.Get(ctx, country); ok {
			slogx.FromContext(ctx).Debug("institutions served from cache", "country", country)
			return institutions, nil
		}
	}

	institutions, err := s.provider.Institutions(ctx, country)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, country, institutions)
	}
	return institutions, nil
}

// CreateRequisitionParams is the host-facing requisition request.
type CreateRequisitionParams struct {
	InstitutionID string `json:"institutionId"`
	Redirect      string `json:"redirect"`
	Reference     string `json:"reference,omitempty"`
	UserLanguage  string `json:"userLanguage,omitempty"`
}

// CreateRequisition starts a bank link for a user. A missing reference gets
// a generated one so requisitions stay traceable back to the owner.
func (s *BankService) CreateRequisition(ctx context.Context, ownerID string, params CreateRequisitionParams) (*gocardless.Requisition, error) {
	if params.InstitutionID == "" {
		return nil, fmt.Errorf("%w: institutionId", ErrMissingField)
	}
	if params.Redirect == "" {
		return nil, fmt.Errorf("%w: redirect", ErrMissingField)
	}

	reference := params.Reference
	if reference == "" {
		reference = fmt.Sprintf("user_%s_%s", ownerID, uuid.NewString())
	}

	return s.provider.CreateRequisition(ctx, gocardless.CreateRequisitionRequest{
		InstitutionID: params.InstitutionID,
		Redirect:      params.Redirect,
		Reference:     reference,
		UserLanguage:  params.UserLanguage,
	})
}

// GetRequisition returns the current state of a requisition.
func (s *BankService) GetRequisition(ctx context.Context, id string) (*gocardless.Requisition, error) {
	return s.provider.Requisition(ctx, id)
}

// AccountDetails proxies the provider's account details.
func (s *BankService) AccountDetails(ctx context.Context, accountID string) (*gocardless.AccountDetails, error) {
	return s.provider.AccountDetails(ctx, accountID)
}

// AccountBalances proxies the provider's account balances.
func (s *BankService) AccountBalances(ctx context.Context, accountID string) (*gocardless.Balances, error) {
	return s.provider.AccountBalances(ctx, accountID)
}

// AccountTransactions proxies the provider's transaction listing without
// persisting anything. Use SyncService to store them.
func (s *BankService) AccountTransactions(ctx context.Context, accountID, dateFrom, dateTo string) (*gocardless.Transactions, error) {
	return s.provider.AccountTransactions(ctx, accountID, dateFrom, dateTo)
}
