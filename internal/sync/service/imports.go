package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/fintrakhq/banksync/internal/sync/domain"
	"github.com/fintrakhq/banksync/internal/sync/importer"
	"github.com/fintrakhq/banksync/internal/sync/store"
	"github.com/fintrakhq/banksync/pkg/slogx"
)

// ImportService runs bulk imports for each supported entity type. Imports
// for the same owner are serialized: the engine's lookup-then-insert is not
// atomic, so two concurrent imports of the same file could otherwise both
// miss the existence check and insert duplicates.
type ImportService struct {
	store  store.Store
	owners keyedMutex
}

func NewImportService(st store.Store) *ImportService {
	return &ImportService{store: st}
}

// ImportCategories imports category records from a JSON payload.
func (s *ImportService) ImportCategories(ctx context.Context, ownerID string, data []byte) (importer.Result, error) {
	return s.run(ctx, ownerID, data, store.Categories, importer.Config{
		EntityName:     "categories",
		ArrayProperty:  "categories",
		RequiredFields: []string{"key", "name"},
		UniqueField:    "key",
		Transform: func(ctx context.Context, row map[string]any, ownerID string) (any, error) {
			return domain.Category{
				UserID:   ownerID,
				Key:      stringField(row, "key"),
				Name:     row["name"],
				Color:    stringOr(row, "color", "#6B7280"),
				Icon:     stringOr(row, "icon", "folder"),
				Keywords: stringSlice(row, "keywords"),
			}, nil
		},
	})
}

// ImportTags imports tag records from a JSON payload.
func (s *ImportService) ImportTags(ctx context.Context, ownerID string, data []byte) (importer.Result, error) {
	return s.run(ctx, ownerID, data, store.Tags, importer.Config{
		EntityName:     "tags",
		ArrayProperty:  "tags",
		RequiredFields: []string{"key", "name"},
		UniqueField:    "key",
		Transform: func(ctx context.Context, row map[string]any, ownerID string) (any, error) {
			return domain.Tag{
				UserID: ownerID,
				Key:    stringField(row, "key"),
				Name:   row["name"],
				Color:  stringOr(row, "color", "#6B7280"),
				Icon:   stringOr(row, "icon", "pricetag"),
			}, nil
		},
	})
}

var counterpartyTypes = []string{
	domain.CounterpartyCompany,
	domain.CounterpartyPerson,
	domain.CounterpartyInstitution,
	domain.CounterpartyOther,
}

// ImportCounterparties imports counterparty records from a JSON payload.
func (s *ImportService) ImportCounterparties(ctx context.Context, ownerID string, data []byte) (importer.Result, error) {
	return s.run(ctx, ownerID, data, store.Counterparties, importer.Config{
		EntityName:     "counterparties",
		ArrayProperty:  "counterparties",
		RequiredFields: []string{"key", "name"},
		UniqueField:    "key",
		Validate: func(row map[string]any) string {
			if typ := stringField(row, "type"); typ != "" && !slices.Contains(counterpartyTypes, typ) {
				return "Invalid type value. Expected: company, person, institution, or other"
			}
			return ""
		},
		Transform: func(ctx context.Context, row map[string]any, ownerID string) (any, error) {
			return domain.Counterparty{
				UserID:        ownerID,
				Key:           stringField(row, "key"),
				Name:          stringField(row, "name"),
				Type:          stringOr(row, "type", domain.CounterpartyOther),
				Logo:          stringField(row, "logo"),
				Email:         stringField(row, "email"),
				Phone:         stringField(row, "phone"),
				Address:       stringField(row, "address"),
				Notes:         stringField(row, "notes"),
				TitleTemplate: stringField(row, "titleTemplate"),
			}, nil
		},
	})
}

var (
	currencies    = []string{"EUR", "GBP", "USD"}
	periodicities = []string{domain.PeriodicityMonthly, domain.PeriodicityQuarterly, domain.PeriodicityYearly}
	txTypes       = []string{domain.TransactionExpense, domain.TransactionIncome}
)

// ImportRecurringTransactions imports recurring transaction templates.
// Uniqueness is composite (title + periodicity); referenced categories are
// created on the fly when missing.
func (s *ImportService) ImportRecurringTransactions(ctx context.Context, ownerID string, data []byte) (importer.Result, error) {
	return s.run(ctx, ownerID, data, store.RecurringTransactions, importer.Config{
		EntityName:     "recurring transactions",
		ArrayProperty:  "recurringTransactions",
		RequiredFields: []string{"title", "currency", "category", "transactionType", "periodicity"},
		UniqueField:    "title",
		Validate: func(row map[string]any) string {
			if !slices.Contains(currencies, stringField(row, "currency")) {
				return "Invalid currency. Expected: EUR, GBP, or USD"
			}
			if !slices.Contains(txTypes, stringField(row, "transactionType")) {
				return "Invalid transaction type. Expected: EXPENSE or INCOME"
			}
			if !slices.Contains(periodicities, stringField(row, "periodicity")) {
				return "Invalid periodicity. Expected: MONTHLY, QUARTERLY, or YEARLY"
			}

			minAmount, hasMin := floatField(row, "minAproxAmount")
			maxAmount, hasMax := floatField(row, "maxAproxAmount")
			if hasMin && minAmount < 0 {
				return "minAproxAmount must be non-negative"
			}
			if hasMax && maxAmount < 0 {
				return "maxAproxAmount must be non-negative"
			}
			if hasMin && hasMax && minAmount > maxAmount {
				return "minAproxAmount cannot be greater than maxAproxAmount"
			}
			return ""
		},
		FindExisting: func(ctx context.Context, row map[string]any, ownerID string, coll store.Collection) (store.Record, error) {
			return coll.FindOne(ctx, store.Filter{
				"userId":      ownerID,
				"title":       row["title"],
				"periodicity": row["periodicity"],
			})
		},
		Transform: func(ctx context.Context, row map[string]any, ownerID string) (any, error) {
			categoryID, err := s.findOrCreateCategory(ctx, ownerID, stringField(row, "category"))
			if err != nil {
				return nil, err
			}

			doc := domain.RecurringTransaction{
				UserID:          ownerID,
				Title:           stringField(row, "title"),
				Currency:        stringField(row, "currency"),
				CategoryID:      categoryID,
				TransactionType: stringField(row, "transactionType"),
				Periodicity:     stringField(row, "periodicity"),
			}
			if v, ok := floatField(row, "minAproxAmount"); ok {
				doc.MinAproxAmount = &v
			}
			if v, ok := floatField(row, "maxAproxAmount"); ok {
				doc.MaxAproxAmount = &v
			}
			return doc, nil
		},
	})
}

// ImportCryptoAssets imports cryptocurrency holdings from a JSON payload.
func (s *ImportService) ImportCryptoAssets(ctx context.Context, ownerID string, data []byte) (importer.Result, error) {
	return s.run(ctx, ownerID, data, store.CryptoAssets, importer.Config{
		EntityName:     "crypto assets",
		ArrayProperty:  "cryptoAssets",
		RequiredFields: []string{"code", "name"},
		UniqueField:    "code",
		Validate: func(row map[string]any) string {
			if amount, ok := floatField(row, "amount"); ok && amount < 0 {
				return "Amount must be non-negative"
			}
			return ""
		},
		Transform: func(ctx context.Context, row map[string]any, ownerID string) (any, error) {
			amount, _ := floatField(row, "amount")
			return domain.CryptoAsset{
				UserID: ownerID,
				Name:   stringField(row, "name"),
				Code:   stringField(row, "code"),
				Amount: amount,
			}, nil
		},
	})
}

func (s *ImportService) run(ctx context.Context, ownerID string, data []byte, collName string, cfg importer.Config) (importer.Result, error) {
	unlock := s.owners.lock(ownerID)
	defer unlock()

	log := slogx.FromContext(ctx)

	res, err := importer.ImportJSON(ctx, data, ownerID, s.store.Collection(collName), cfg)
	if err != nil {
		log.Warn("import rejected", "entity", cfg.EntityName, "error", err)
		return importer.Result{}, err
	}

	log.Info("import completed",
		"entity", cfg.EntityName,
		"total", res.Total,
		"imported", res.Imported,
		"updated", res.Updated,
		"failed", len(res.Errors),
	)
	return res, nil
}

// findOrCreateCategory resolves a category key to its document ID, creating
// a basic category when the key is unknown.
func (s *ImportService) findOrCreateCategory(ctx context.Context, ownerID, key string) (any, error) {
	coll := s.store.Collection(store.Categories)

	rec, err := coll.FindOne(ctx, store.Filter{"userId": ownerID, "key": key})
	if err == nil {
		return rec.ID(), nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("category lookup failed: %w", err)
	}

	id, err := coll.InsertOne(ctx, domain.Category{
		UserID:   ownerID,
		Key:      key,
		Name:     capitalize(key),
		Color:    "#6B7280",
		Icon:     "folder",
		Keywords: []string{},
	})
	if err != nil {
		return nil, fmt.Errorf("category creation failed: %w", err)
	}
	return id, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// keyedMutex serializes work per key. Mutexes are kept for the service's
// lifetime; the key set is bounded by the active user population.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func stringField(row map[string]any, key string) string {
	s, _ := row[key].(string)
	return s
}

func stringOr(row map[string]any, key, fallback string) string {
	if s := stringField(row, key); s != "" {
		return s
	}
	return fallback
}

func floatField(row map[string]any, key string) (float64, bool) {
	switch v := row[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

func stringSlice(row map[string]any, key string) []string {
	items, _ := row[key].([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
