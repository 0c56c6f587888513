package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fintrakhq/banksync/internal/sync/service"
	"github.com/fintrakhq/banksync/internal/sync/store"
	"github.com/fintrakhq/banksync/pkg/httpx"
	"github.com/fintrakhq/banksync/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	BankService   *service.BankService
	SyncService   *service.SyncService
	ImportService *service.ImportService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerBanks()
	r.registerImports()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerBanks() {
	bankHandler := &BankHandler{
		Banks: r.BankService,
		Sync:  r.SyncService,
	}

	// Institution listing is cache-backed, so it tolerates a higher rate.
	r.Mux.Handle("GET /v1/institutions",
		httpx.Chain(http.HandlerFunc(bankHandler.ListInstitutions),
			httpx.RequireUser(),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("POST /v1/requisitions",
		httpx.Chain(http.HandlerFunc(bankHandler.CreateRequisition),
			httpx.RequireUser(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/requisitions/{id}",
		httpx.Chain(http.HandlerFunc(bankHandler.GetRequisition),
			httpx.RequireUser(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /v1/accounts/{id}/details",
		httpx.Chain(http.HandlerFunc(bankHandler.AccountDetails),
			httpx.RequireUser(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/accounts/{id}/balances",
		httpx.Chain(http.HandlerFunc(bankHandler.AccountBalances),
			httpx.RequireUser(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/accounts/{id}/transactions",
		httpx.Chain(http.HandlerFunc(bankHandler.AccountTransactions),
			httpx.RequireUser(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// Syncs hammer the provider hardest; keep them strict.
	r.Mux.Handle("POST /v1/accounts/{id}/sync",
		httpx.Chain(http.HandlerFunc(bankHandler.SyncTransactions),
			httpx.RequireUser(),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerImports() {
	importHandler := &ImportHandler{Imports: r.ImportService}

	// Imports are heavyweight writes - strict rate limits across the board.
	for path, handler := range map[string]http.HandlerFunc{
		"POST /v1/imports/categories":             importHandler.Categories,
		"POST /v1/imports/tags":                   importHandler.Tags,
		"POST /v1/imports/counterparties":         importHandler.Counterparties,
		"POST /v1/imports/recurring-transactions": importHandler.RecurringTransactions,
		"POST /v1/imports/crypto-assets":          importHandler.CryptoAssets,
	} {
		r.Mux.Handle(path,
			httpx.Chain(handler,
				httpx.RequireUser(),
				httpx.RateLimitByUser(httpx.StrictLimit),
			),
		)
	}
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
