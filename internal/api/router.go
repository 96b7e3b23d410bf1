package api

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/kitwms/internal/auth"
	"github.com/erazemk/kitwms/internal/model"
	"github.com/erazemk/kitwms/internal/packing"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sqlx.DB, issuer *auth.Issuer, packer *packing.Service) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, Issuer: issuer}
	usersHandler := &UsersHandler{DB: db}
	componentsHandler := &ComponentsHandler{DB: db}
	bundlesHandler := &BundlesHandler{DB: db}
	plansHandler := &PlansHandler{DB: db, Packing: packer}
	inventoryHandler := &InventoryHandler{DB: db}
	outboundHandler := &OutboundHandler{DB: db}

	authMW := AuthMiddleware(issuer, db)
	requireUsers := RequireCapability(model.CapManageUsers)
	requireCatalog := RequireCapability(model.CapManageCatalog)

	// authed wraps a handler that any logged-in user may call.
	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	// guarded additionally requires a capability.
	guarded := func(req func(http.Handler) http.Handler, h http.HandlerFunc) http.Handler {
		return authMW(req(h))
	}

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))
	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))
	mux.Handle("GET /api/auth/profile", authed(authHandler.Profile))

	// Users (owner only).
	mux.Handle("GET /api/users", guarded(requireUsers, usersHandler.List))
	mux.Handle("POST /api/users", guarded(requireUsers, usersHandler.Create))
	mux.Handle("PUT /api/users/{id}/password", guarded(requireUsers, usersHandler.ResetPassword))
	mux.Handle("DELETE /api/users/{id}", guarded(requireUsers, usersHandler.Delete))

	// Components: read (all), write (owner).
	mux.Handle("GET /api/components", authed(componentsHandler.List))
	mux.Handle("POST /api/components", guarded(requireCatalog, componentsHandler.Create))
	mux.Handle("GET /api/components/{id}", authed(componentsHandler.Get))
	mux.Handle("PUT /api/components/{id}", guarded(requireCatalog, componentsHandler.Update))
	mux.Handle("DELETE /api/components/{id}", guarded(requireCatalog, componentsHandler.Delete))
	mux.Handle("PUT /api/components/{id}/image", guarded(requireCatalog, componentsHandler.UploadImage))
	mux.Handle("GET /api/components/{id}/image", authed(componentsHandler.GetImage))

	// Bundles: read (all), write (owner).
	mux.Handle("GET /api/bundles", authed(bundlesHandler.List))
	mux.Handle("POST /api/bundles", guarded(requireCatalog, bundlesHandler.Create))
	mux.Handle("GET /api/bundles/{id}", authed(bundlesHandler.Get))
	mux.Handle("PUT /api/bundles/{id}", guarded(requireCatalog, bundlesHandler.Update))
	mux.Handle("DELETE /api/bundles/{id}", guarded(requireCatalog, bundlesHandler.Delete))
	mux.Handle("PUT /api/bundles/{id}/image", guarded(requireCatalog, bundlesHandler.UploadImage))
	mux.Handle("GET /api/bundles/{id}/image", authed(bundlesHandler.GetImage))
	mux.Handle("GET /api/bundles/{id}/requirements/{quantity}", authed(bundlesHandler.Requirements))

	// Restock plans (all).
	mux.Handle("GET /api/restock-plans", authed(plansHandler.List))
	mux.Handle("POST /api/restock-plans", authed(plansHandler.Create))
	mux.Handle("GET /api/restock-plans/{id}", authed(plansHandler.Get))
	mux.Handle("PUT /api/restock-plans/{id}", authed(plansHandler.Update))
	mux.Handle("DELETE /api/restock-plans/{id}", authed(plansHandler.Delete))
	mux.Handle("POST /api/restock-plans/{id}/validate", authed(plansHandler.Validate))
	mux.Handle("POST /api/restock-plans/{id}/pack", authed(plansHandler.Pack))

	// Inventory ledger (all).
	mux.Handle("GET /api/inventory/inbound", authed(inventoryHandler.ListInbound))
	mux.Handle("POST /api/inventory/inbound", authed(inventoryHandler.RecordInbound))
	mux.Handle("GET /api/inventory/outbound", authed(inventoryHandler.ListOutbound))
	mux.Handle("POST /api/inventory/outbound", authed(inventoryHandler.RecordOutbound))
	mux.Handle("GET /api/inventory/stock-overview", authed(inventoryHandler.StockOverview))

	// Outbound reports (all).
	mux.Handle("GET /api/outbound/component/{id}", authed(outboundHandler.ComponentHistory))
	mux.Handle("GET /api/outbound/restock-plan/{id}", authed(outboundHandler.PlanRecords))
	mux.Handle("GET /api/outbound/summary", authed(outboundHandler.Summary))

	return mux
}
