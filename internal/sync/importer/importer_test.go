package importer_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fintrakhq/banksync/internal/sync/importer"
	"github.com/fintrakhq/banksync/internal/sync/store"
	"github.com/fintrakhq/banksync/internal/sync/store/drivers/memory"
)

func passthroughConfig() importer.Config {
	return importer.Config{
		EntityName:     "widgets",
		ArrayProperty:  "widgets",
		RequiredFields: []string{"key", "name"},
		UniqueField:    "key",
		Transform: func(ctx context.Context, row map[string]any, ownerID string) (any, error) {
			doc := map[string]any{"userId": ownerID}
			for k, v := range row {
				doc[k] = v
			}
			return doc, nil
		},
	}
}

func TestImportJSON(t *testing.T) {
	ctx := context.Background()

	t.Run("imports a bare array", func(t *testing.T) {
		coll := memory.New().Collection("widgets")

		res, err := importer.ImportJSON(ctx, []byte(`[{"key":"a","name":"A"},{"key":"b","name":"B"}]`), "user-1", coll, passthroughConfig())
		require.NoError(t, err)
		require.Equal(t, 2, res.Total)
		require.Equal(t, 2, res.Imported)
		require.Zero(t, res.Updated)
		require.Empty(t, res.Errors)
	})

	t.Run("imports a wrapped array", func(t *testing.T) {
		coll := memory.New().Collection("widgets")

		res, err := importer.ImportJSON(ctx, []byte(`{"widgets":[{"key":"a","name":"A"}]}`), "user-1", coll, passthroughConfig())
		require.NoError(t, err)
		require.Equal(t, 1, res.Imported)
	})

	t.Run("re-importing the same file updates instead of duplicating", func(t *testing.T) {
		coll := memory.New().Collection("widgets")
		data := []byte(`[{"key":"a","name":"A"},{"key":"b","name":"B"}]`)

		first, err := importer.ImportJSON(ctx, data, "user-1", coll, passthroughConfig())
		require.NoError(t, err)
		require.Equal(t, 2, first.Imported)

		second, err := importer.ImportJSON(ctx, data, "user-1", coll, passthroughConfig())
		require.NoError(t, err)
		require.Zero(t, second.Imported)
		require.Equal(t, 2, second.Updated)

		// Still exactly one document per key.
		rec, err := coll.FindOne(ctx, store.Filter{"userId": "user-1", "key": "a"})
		require.NoError(t, err)
		require.NoError(t, coll.DeleteOne(ctx, store.Filter{"_id": rec.ID()}))
		_, err = coll.FindOne(ctx, store.Filter{"userId": "user-1", "key": "a"})
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("update replaces the document wholesale", func(t *testing.T) {
		coll := memory.New().Collection("widgets")

		_, err := importer.ImportJSON(ctx, []byte(`[{"key":"a","name":"A","color":"red"}]`), "user-1", coll, passthroughConfig())
		require.NoError(t, err)

		// Second version drops the color field entirely.
		res, err := importer.ImportJSON(ctx, []byte(`[{"key":"a","name":"A2"}]`), "user-1", coll, passthroughConfig())
		require.NoError(t, err)
		require.Equal(t, 1, res.Updated)

		rec, err := coll.FindOne(ctx, store.Filter{"userId": "user-1", "key": "a"})
		require.NoError(t, err)
		require.Equal(t, "A2", rec["name"])
		require.NotContains(t, rec, "color")
	})

	t.Run("malformed JSON aborts with no result", func(t *testing.T) {
		coll := memory.New().Collection("widgets")

		_, err := importer.ImportJSON(ctx, []byte(`{not json`), "user-1", coll, passthroughConfig())
		require.ErrorIs(t, err, importer.ErrInvalidJSON)
	})

	t.Run("object without the expected array property aborts", func(t *testing.T) {
		coll := memory.New().Collection("widgets")

		_, err := importer.ImportJSON(ctx, []byte(`{"other":[]}`), "user-1", coll, passthroughConfig())
		require.ErrorIs(t, err, importer.ErrInvalidJSON)
	})

	t.Run("missing required fields are reported with names", func(t *testing.T) {
		coll := memory.New().Collection("widgets")

		res, err := importer.ImportJSON(ctx, []byte(`[{"key":"a"},{"name":"B"},{}]`), "user-1", coll, passthroughConfig())
		require.NoError(t, err)
		require.Equal(t, 3, res.Total)
		require.Zero(t, res.Imported)
		require.Equal(t, []string{
			"Row 1: Missing required fields (name)",
			"Row 2: Missing required fields (key)",
			"Row 3: Missing required fields (key, name)",
		}, res.Errors)
	})

	t.Run("falsy values count as missing", func(t *testing.T) {
		coll := memory.New().Collection("widgets")

		res, err := importer.ImportJSON(ctx, []byte(`[{"key":"","name":0}]`), "user-1", coll, passthroughConfig())
		require.NoError(t, err)
		require.Equal(t, []string{"Row 1: Missing required fields (key, name)"}, res.Errors)
	})

	t.Run("one bad row does not stop the batch", func(t *testing.T) {
		coll := memory.New().Collection("widgets")

		res, err := importer.ImportJSON(ctx, []byte(`[{"key":"a","name":"A"},{"key":"bad"},{"key":"c","name":"C"}]`), "user-1", coll, passthroughConfig())
		require.NoError(t, err)
		require.Equal(t, 2, res.Imported)
		require.Len(t, res.Errors, 1)
		require.Contains(t, res.Errors[0], "Row 2:")

		// Rows after the failure landed.
		_, err = coll.FindOne(ctx, store.Filter{"userId": "user-1", "key": "c"})
		require.NoError(t, err)
	})

	t.Run("custom validation short-circuits lookup and persistence", func(t *testing.T) {
		coll := memory.New().Collection("widgets")
		cfg := passthroughConfig()
		transformCalls := 0
		cfg.Transform = func(ctx context.Context, row map[string]any, ownerID string) (any, error) {
			transformCalls++
			return row, nil
		}
		cfg.Validate = func(row map[string]any) string {
			if row["name"] == "forbidden" {
				return "name is not allowed"
			}
			return ""
		}

		res, err := importer.ImportJSON(ctx, []byte(`[{"key":"a","name":"forbidden"}]`), "user-1", coll, cfg)
		require.NoError(t, err)
		require.Equal(t, []string{"Row 1: name is not allowed"}, res.Errors)
		require.Zero(t, transformCalls)

		_, err = coll.FindOne(ctx, store.Filter{"userId": "user-1", "key": "a"})
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("FindExisting takes precedence over the default lookup", func(t *testing.T) {
		coll := memory.New().Collection("widgets")
		cfg := passthroughConfig()
		cfg.FindExisting = func(ctx context.Context, row map[string]any, ownerID string, coll store.Collection) (store.Record, error) {
			return coll.FindOne(ctx, store.Filter{
				"userId": ownerID,
				"key":    row["key"],
				"name":   row["name"],
			})
		}

		// Same key, different name: composite lookup treats it as new.
		_, err := importer.ImportJSON(ctx, []byte(`[{"key":"a","name":"A"}]`), "user-1", coll, cfg)
		require.NoError(t, err)
		res, err := importer.ImportJSON(ctx, []byte(`[{"key":"a","name":"B"}]`), "user-1", coll, cfg)
		require.NoError(t, err)
		require.Equal(t, 1, res.Imported)
		require.Zero(t, res.Updated)
	})

	t.Run("rows are scoped to the owner", func(t *testing.T) {
		coll := memory.New().Collection("widgets")
		data := []byte(`[{"key":"a","name":"A"}]`)

		res1, err := importer.ImportJSON(ctx, data, "user-1", coll, passthroughConfig())
		require.NoError(t, err)
		require.Equal(t, 1, res1.Imported)

		// Another owner importing the same key creates, not updates.
		res2, err := importer.ImportJSON(ctx, data, "user-2", coll, passthroughConfig())
		require.NoError(t, err)
		require.Equal(t, 1, res2.Imported)
		require.Zero(t, res2.Updated)
	})

	t.Run("transform errors become row errors", func(t *testing.T) {
		coll := memory.New().Collection("widgets")
		cfg := passthroughConfig()
		cfg.Transform = func(ctx context.Context, row map[string]any, ownerID string) (any, error) {
			return nil, errors.New("referenced record unavailable")
		}

		res, err := importer.ImportJSON(ctx, []byte(`[{"key":"a","name":"A"}]`), "user-1", coll, cfg)
		require.NoError(t, err)
		require.Equal(t, []string{"Row 1: referenced record unavailable"}, res.Errors)
	})

	t.Run("every row lands in exactly one bucket", func(t *testing.T) {
		coll := memory.New().Collection("widgets")
		var rowsJSON string
		for i := range 10 {
			if i > 0 {
				rowsJSON += ","
			}
			if i%3 == 0 {
				rowsJSON += `{"key":"only-key"}`
			} else {
				rowsJSON += fmt.Sprintf(`{"key":"k%d","name":"N%d"}`, i, i)
			}
		}

		res, err := importer.ImportJSON(ctx, []byte("["+rowsJSON+"]"), "user-1", coll, passthroughConfig())
		require.NoError(t, err)
		require.Equal(t, res.Total, res.Imported+res.Updated+len(res.Errors))
	})
}
