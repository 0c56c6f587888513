package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fintrakhq/banksync/internal/sync/service"
	"github.com/fintrakhq/banksync/internal/sync/store"
	"github.com/fintrakhq/banksync/internal/sync/store/drivers/memory"
)

func TestImportCategories(t *testing.T) {
	ctx := context.Background()

	t.Run("applies defaults", func(t *testing.T) {
		st := memory.New()
		svc := service.NewImportService(st)

		res, err := svc.ImportCategories(ctx, "user-1", []byte(`{"categories":[{"key":"food","name":{"en":"Food","es":"Comida"}}]}`))
		require.NoError(t, err)
		require.Equal(t, 1, res.Imported)

		rec, err := st.Collection(store.Categories).FindOne(ctx, store.Filter{"userId": "user-1", "key": "food"})
		require.NoError(t, err)
		require.Equal(t, "#6B7280", rec["color"])
		require.Equal(t, "folder", rec["icon"])
		require.Equal(t, []any{}, rec["keywords"])
	})

	t.Run("keeps provided values", func(t *testing.T) {
		st := memory.New()
		svc := service.NewImportService(st)

		_, err := svc.ImportCategories(ctx, "user-1", []byte(`[{"key":"food","name":"Food","color":"#FF0000","icon":"pizza","keywords":["restaurant"]}]`))
		require.NoError(t, err)

		rec, err := st.Collection(store.Categories).FindOne(ctx, store.Filter{"userId": "user-1", "key": "food"})
		require.NoError(t, err)
		require.Equal(t, "#FF0000", rec["color"])
		require.Equal(t, []any{"restaurant"}, rec["keywords"])
	})
}

func TestImportTags(t *testing.T) {
	st := memory.New()
	svc := service.NewImportService(st)

	res, err := svc.ImportTags(context.Background(), "user-1", []byte(`{"tags":[{"key":"work","name":"Work"}]}`))
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)

	rec, err := st.Collection(store.Tags).FindOne(context.Background(), store.Filter{"userId": "user-1", "key": "work"})
	require.NoError(t, err)
	require.Equal(t, "pricetag", rec["icon"])
}

func TestImportCounterparties(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects unknown type", func(t *testing.T) {
		svc := service.NewImportService(memory.New())

		res, err := svc.ImportCounterparties(ctx, "user-1", []byte(`[{"key":"acme","name":"ACME","type":"conglomerate"}]`))
		require.NoError(t, err)
		require.Equal(t, []string{"Row 1: Invalid type value. Expected: company, person, institution, or other"}, res.Errors)
	})

	t.Run("defaults type to other", func(t *testing.T) {
		st := memory.New()
		svc := service.NewImportService(st)

		_, err := svc.ImportCounterparties(ctx, "user-1", []byte(`[{"key":"acme","name":"ACME"}]`))
		require.NoError(t, err)

		rec, err := st.Collection(store.Counterparties).FindOne(ctx, store.Filter{"userId": "user-1", "key": "acme"})
		require.NoError(t, err)
		require.Equal(t, "other", rec["type"])
	})
}

func TestImportRecurringTransactions(t *testing.T) {
	ctx := context.Background()
	row := func(extra string) []byte {
		return []byte(`[{"title":"Rent","currency":"EUR","category":"housing","transactionType":"EXPENSE","periodicity":"MONTHLY"` + extra + `}]`)
	}

	t.Run("validation messages", func(t *testing.T) {
		svc := service.NewImportService(memory.New())
		tests := []struct {
			name string
			data string
			want string
		}{
			{
				"bad currency",
				`[{"title":"Rent","currency":"JPY","category":"housing","transactionType":"EXPENSE","periodicity":"MONTHLY"}]`,
				"Row 1: Invalid currency. Expected: EUR, GBP, or USD",
			},
			{
				"bad transaction type",
				`[{"title":"Rent","currency":"EUR","category":"housing","transactionType":"TRANSFER","periodicity":"MONTHLY"}]`,
				"Row 1: Invalid transaction type. Expected: EXPENSE or INCOME",
			},
			{
				"bad periodicity",
				`[{"title":"Rent","currency":"EUR","category":"housing","transactionType":"EXPENSE","periodicity":"WEEKLY"}]`,
				"Row 1: Invalid periodicity. Expected: MONTHLY, QUARTERLY, or YEARLY",
			},
			{
				"negative min",
				`[{"title":"Rent","currency":"EUR","category":"housing","transactionType":"EXPENSE","periodicity":"MONTHLY","minAproxAmount":-1}]`,
				"Row 1: minAproxAmount must be non-negative",
			},
			{
				"min above max",
				`[{"title":"Rent","currency":"EUR","category":"housing","transactionType":"EXPENSE","periodicity":"MONTHLY","minAproxAmount":100,"maxAproxAmount":50}]`,
				"Row 1: minAproxAmount cannot be greater than maxAproxAmount",
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				res, err := svc.ImportRecurringTransactions(ctx, "user-1", []byte(tt.data))
				require.NoError(t, err)
				require.Equal(t, []string{tt.want}, res.Errors)
			})
		}
	})

	t.Run("creates missing category", func(t *testing.T) {
		st := memory.New()
		svc := service.NewImportService(st)

		res, err := svc.ImportRecurringTransactions(ctx, "user-1", row(""))
		require.NoError(t, err)
		require.Equal(t, 1, res.Imported)

		cat, err := st.Collection(store.Categories).FindOne(ctx, store.Filter{"userId": "user-1", "key": "housing"})
		require.NoError(t, err)
		require.Equal(t, "Housing", cat["name"])

		tx, err := st.Collection(store.RecurringTransactions).FindOne(ctx, store.Filter{"userId": "user-1", "title": "Rent"})
		require.NoError(t, err)
		require.Equal(t, cat.ID(), tx["category"])
	})

	t.Run("reuses existing category", func(t *testing.T) {
		st := memory.New()
		svc := service.NewImportService(st)

		_, err := svc.ImportCategories(ctx, "user-1", []byte(`[{"key":"housing","name":"Housing","color":"#123456"}]`))
		require.NoError(t, err)

		_, err = svc.ImportRecurringTransactions(ctx, "user-1", row(""))
		require.NoError(t, err)

		cat, err := st.Collection(store.Categories).FindOne(ctx, store.Filter{"userId": "user-1", "key": "housing"})
		require.NoError(t, err)
		require.Equal(t, "#123456", cat["color"])
	})

	t.Run("same title with different periodicity is a new record", func(t *testing.T) {
		st := memory.New()
		svc := service.NewImportService(st)

		_, err := svc.ImportRecurringTransactions(ctx, "user-1", row(""))
		require.NoError(t, err)

		res, err := svc.ImportRecurringTransactions(ctx, "user-1", []byte(`[{"title":"Rent","currency":"EUR","category":"housing","transactionType":"EXPENSE","periodicity":"YEARLY"}]`))
		require.NoError(t, err)
		require.Equal(t, 1, res.Imported)
		require.Zero(t, res.Updated)
	})

	t.Run("same title and periodicity updates", func(t *testing.T) {
		svc := service.NewImportService(memory.New())

		_, err := svc.ImportRecurringTransactions(ctx, "user-1", row(""))
		require.NoError(t, err)

		res, err := svc.ImportRecurringTransactions(ctx, "user-1", row(`,"minAproxAmount":500`))
		require.NoError(t, err)
		require.Zero(t, res.Imported)
		require.Equal(t, 1, res.Updated)
	})
}

func TestImportCryptoAssets(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects negative amount", func(t *testing.T) {
		svc := service.NewImportService(memory.New())

		res, err := svc.ImportCryptoAssets(ctx, "user-1", []byte(`[{"code":"BTC","name":"Bitcoin","amount":-1}]`))
		require.NoError(t, err)
		require.Equal(t, []string{"Row 1: Amount must be non-negative"}, res.Errors)
	})

	t.Run("amount defaults to zero", func(t *testing.T) {
		st := memory.New()
		svc := service.NewImportService(st)

		_, err := svc.ImportCryptoAssets(ctx, "user-1", []byte(`{"cryptoAssets":[{"code":"ETH","name":"Ethereum"}]}`))
		require.NoError(t, err)

		rec, err := st.Collection(store.CryptoAssets).FindOne(ctx, store.Filter{"userId": "user-1", "code": "ETH"})
		require.NoError(t, err)
		require.Equal(t, float64(0), rec["amount"])
	})
}

func TestConcurrentImportsForOneOwnerDoNotDuplicate(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := service.NewImportService(st)
	data := []byte(`[{"key":"food","name":"Food"}]`)

	const runs = 8
	var wg sync.WaitGroup
	errs := make([]error, runs)
	for i := range runs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.ImportCategories(ctx, "user-1", data)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	// Exactly one document: delete it and the key must be gone.
	coll := st.Collection(store.Categories)
	rec, err := coll.FindOne(ctx, store.Filter{"userId": "user-1", "key": "food"})
	require.NoError(t, err)
	require.NoError(t, coll.DeleteOne(ctx, store.Filter{"_id": rec.ID()}))
	_, err = coll.FindOne(ctx, store.Filter{"userId": "user-1", "key": "food"})
	require.ErrorIs(t, err, store.ErrNotFound)
}
