// Package importer implements a generic idempotent bulk import over any
// store.Collection. Entity specifics (required fields, validation,
// transformation) are injected through Config; the engine owns parsing,
// per-row error isolation, and the full-replace upsert.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fintrakhq/banksync/internal/sync/store"
)

// ErrInvalidJSON reports an unusable payload. Unlike row-level failures it
// aborts the whole import before any document is touched.
var ErrInvalidJSON = errors.New("invalid JSON file")

// Config describes how to import one entity type.
type Config struct {
	// EntityName names the entity in logs and error messages.
	EntityName string

	// ArrayProperty is the object key holding the row array when the
	// payload is not a bare array (e.g. "categories").
	ArrayProperty string

	// RequiredFields must be present and non-falsy on every row.
	RequiredFields []string

	// UniqueField is the row field the default existence lookup matches
	// on, always scoped to the owner.
	UniqueField string

	// Transform converts a raw row into the document to persist. It may
	// perform I/O (e.g. find-or-create a referenced record).
	Transform func(ctx context.Context, row map[string]any, ownerID string) (any, error)

	// Validate optionally checks a row beyond required fields. A non-empty
	// return is the row's error message; the row is skipped before any
	// lookup or persistence.
	Validate func(row map[string]any) string

	// FindExisting optionally overrides the default uniqueness lookup,
	// e.g. for composite keys. It returns store.ErrNotFound when no
	// existing document matches.
	FindExisting func(ctx context.Context, row map[string]any, ownerID string, coll store.Collection) (store.Record, error)
}

// Result summarizes one import run. Every row lands in exactly one bucket:
// Imported + Updated + len(Errors) == Total.
type Result struct {
	Total    int      `json:"total"`
	Imported int      `json:"imported"`
	Updated  int      `json:"updated"`
	Errors   []string `json:"errors"`
}

// ImportJSON runs a bulk import. Row failures are isolated: each failed row
// contributes one "Row {n}: ..." entry (1-indexed, input order) and the
// batch continues. Existing documents are replaced wholesale, so re-running
// the same file converges instead of duplicating.
func ImportJSON(ctx context.Context, data []byte, ownerID string, coll store.Collection, cfg Config) (Result, error) {
	rows, err := parseRows(data, cfg.ArrayProperty)
	if err != nil {
		return Result{}, err
	}

	res := Result{Total: len(rows), Errors: []string{}}
	for i, row := range rows {
		imported, updated, rowErr := importRow(ctx, row, ownerID, coll, cfg)
		switch {
		case rowErr != "":
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %s", i+1, rowErr))
		case updated:
			res.Updated++
		case imported:
			res.Imported++
		}
	}
	return res, nil
}

func importRow(ctx context.Context, row map[string]any, ownerID string, coll store.Collection, cfg Config) (imported, updated bool, rowErr string) {
	if missing := missingFields(row, cfg.RequiredFields); len(missing) > 0 {
		return false, false, fmt.Sprintf("Missing required fields (%s)", strings.Join(missing, ", "))
	}

	if cfg.Validate != nil {
		if msg := cfg.Validate(row); msg != "" {
			return false, false, msg
		}
	}

	existing, err := findExisting(ctx, row, ownerID, coll, cfg)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return false, false, err.Error()
	}

	doc, err := cfg.Transform(ctx, row, ownerID)
	if err != nil {
		return false, false, err.Error()
	}

	if existing != nil {
		// Full replace: the incoming document wins entirely, including
		// fields the existing one had and the new one lacks.
		if err := coll.DeleteOne(ctx, store.Filter{"_id": existing.ID()}); err != nil {
			return false, false, err.Error()
		}
		if _, err := coll.InsertOne(ctx, doc); err != nil {
			return false, false, err.Error()
		}
		return false, true, ""
	}

	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return false, false, err.Error()
	}
	return true, false, ""
}

func findExisting(ctx context.Context, row map[string]any, ownerID string, coll store.Collection, cfg Config) (store.Record, error) {
	if cfg.FindExisting != nil {
		return cfg.FindExisting(ctx, row, ownerID, coll)
	}
	return coll.FindOne(ctx, store.Filter{
		"userId":        ownerID,
		cfg.UniqueField: row[cfg.UniqueField],
	})
}

// missingFields returns the required fields that are absent or falsy
// (nil, empty string, false, numeric zero). Empty arrays and objects
// count as present.
func missingFields(row map[string]any, required []string) []string {
	var missing []string
	for _, field := range required {
		if isFalsy(row[field]) {
			missing = append(missing, field)
		}
	}
	return missing
}

func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0
	case int:
		return t == 0
	default:
		return false
	}
}

func parseRows(data []byte, arrayProperty string) ([]map[string]any, error) {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	var items []any
	switch v := parsed.(type) {
	case []any:
		items = v
	case map[string]any:
		arr, ok := v[arrayProperty].([]any)
		if !ok {
			return nil, fmt.Errorf("%w: expected an array or an object with a %q array", ErrInvalidJSON, arrayProperty)
		}
		items = arr
	default:
		return nil, fmt.Errorf("%w: expected an array or an object with a %q array", ErrInvalidJSON, arrayProperty)
	}

	rows := make([]map[string]any, len(items))
	for i, item := range items {
		// Non-object rows surface as missing-field errors rather than
		// aborting the batch.
		row, _ := item.(map[string]any)
		if row == nil {
			row = map[string]any{}
		}
		rows[i] = row
	}
	return rows, nil
}
