package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/authz/domain"
	"github.com/aussiebroadwan/gatekeep/internal/authz/service"
	"github.com/aussiebroadwan/gatekeep/internal/authz/store"
	"github.com/aussiebroadwan/gatekeep/pkg/httpx"
	"github.com/aussiebroadwan/gatekeep/pkg/slogx"
)

// Route binds a mux pattern to its handler and the requirement a
// request must satisfy to reach it. The table in routes() is the single
// source of truth for what each endpoint demands.
type Route struct {
	Pattern     string
	Requirement domain.Requirement
	Handler     http.Handler
	Middlewares []httpx.Middleware
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	pipeline  *service.Pipeline
	ledger    *service.Ledger // nil disables the token lifecycle routes
	extractor *service.Extractor

	store        store.Store
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
}

func NewRouter(
	pipeline *service.Pipeline,
	ledger *service.Ledger,
	extractor *service.Extractor,
	st store.Store,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		pipeline:     pipeline,
		ledger:       ledger,
		extractor:    extractor,
		store:        st,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// routes returns the static route table. Authorization requirements sit
// next to the patterns they guard so a review of this function is a
// review of the whole policy surface.
func (r *Router) routes() []Route {
	table := []Route{
		{
			Pattern:     "GET /livez",
			Requirement: domain.Requirement{Public: true},
			Handler:     LivezHandler(r.startTime, r.buildVersion),
		},
		{
			Pattern:     "GET /readyz",
			Requirement: domain.Requirement{Public: true},
			Handler:     ReadyzHandler(r.store),
		},
		{
			Pattern:     "GET /v1/userinfo",
			Requirement: domain.Requirement{},
			Handler:     &UserInfoHandler{Extractor: r.extractor},
			Middlewares: []httpx.Middleware{httpx.RateLimitByIP(httpx.LenientLimit)},
		},
	}

	if r.ledger != nil {
		table = append(table,
			Route{
				// The refresh credential authenticates itself; no bearer
				// token is required to exchange it.
				Pattern:     "POST /v1/token/refresh",
				Requirement: domain.Requirement{Public: true},
				Handler:     &RefreshHandler{Ledger: r.ledger},
				Middlewares: []httpx.Middleware{httpx.RateLimitByIP(httpx.StrictLimit)},
			},
			Route{
				Pattern:     "POST /v1/logout",
				Requirement: domain.Requirement{},
				Handler:     &LogoutHandler{Ledger: r.ledger},
				Middlewares: []httpx.Middleware{httpx.RateLimitByIP(httpx.StrictLimit)},
			},
			Route{
				Pattern:     "POST /v1/logout_all",
				Requirement: domain.Requirement{},
				Handler:     &LogoutAllHandler{Ledger: r.ledger},
				Middlewares: []httpx.Middleware{httpx.RateLimitByIP(httpx.StrictLimit)},
			},
		)
	}

	return table
}

// ApplyRoutes registers the route table on the mux. Each route gets the
// authorization middleware for its requirement plus any route-local
// middleware (rate limits).
func (r *Router) ApplyRoutes() {
	for _, route := range r.routes() {
		mws := append([]httpx.Middleware{r.authorize(route.Requirement)}, route.Middlewares...)
		r.Mux.Handle(route.Pattern, httpx.Chain(route.Handler, mws...))
	}
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}
