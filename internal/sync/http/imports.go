package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/fintrakhq/banksync/internal/sync/importer"
	"github.com/fintrakhq/banksync/internal/sync/service"
	"github.com/fintrakhq/banksync/pkg/httpx"
	"github.com/fintrakhq/banksync/pkg/slogx"
)

// maxImportBytes caps import payloads. Import files are hand-exported
// entity lists, not data dumps.
const maxImportBytes = 10 << 20

// ImportHandler serves the bulk-import endpoints. Request bodies are the
// raw JSON files users export from other tools.
type ImportHandler struct {
	Imports *service.ImportService
}

func (h *ImportHandler) Categories(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "categories", h.Imports.ImportCategories)
}

func (h *ImportHandler) Tags(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "tags", h.Imports.ImportTags)
}

func (h *ImportHandler) Counterparties(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "counterparties", h.Imports.ImportCounterparties)
}

func (h *ImportHandler) RecurringTransactions(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "recurring transactions", h.Imports.ImportRecurringTransactions)
}

func (h *ImportHandler) CryptoAssets(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "crypto assets", h.Imports.ImportCryptoAssets)
}

func (h *ImportHandler) handle(
	w http.ResponseWriter,
	r *http.Request,
	entity string,
	run func(ctx context.Context, ownerID string, data []byte) (importer.Result, error),
) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		httpx.WriteError(w, http.StatusRequestEntityTooLarge, "import file too large")
		return
	}
	if len(data) == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "no file uploaded")
		return
	}

	res, err := run(ctx, httpx.UserIDFromContext(ctx), data)
	if err != nil {
		// Unusable payloads are the client's problem; anything else isn't.
		if errors.Is(err, importer.ErrInvalidJSON) {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error("import failed", "entity", entity, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to import "+entity)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, res)
}
