package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stocktally/stocktally/internal/catalog"
	"github.com/stocktally/stocktally/internal/masterdata/couriers"
	"github.com/stocktally/stocktally/internal/masterdata/customers"
	"github.com/stocktally/stocktally/internal/masterdata/mediums"
	"github.com/stocktally/stocktally/internal/masterdata/suppliers"
	"github.com/stocktally/stocktally/internal/platform/httpx"
	"github.com/stocktally/stocktally/internal/purchases"
	"github.com/stocktally/stocktally/internal/reports"
	"github.com/stocktally/stocktally/internal/sales"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	CatalogHandler   *catalog.Handler
	PurchasesHandler *purchases.Handler
	SalesHandler     *sales.Handler
	ReportsHandler   *reports.Handler
	SuppliersHandler *suppliers.Handler
	CustomersHandler *customers.Handler
	CouriersHandler  *couriers.Handler
	MediumsHandler   *mediums.Handler
}

// NewRouter constructs the chi.Router with default middleware.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: params.Logger, Config: params.Config}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/item-types", params.CatalogHandler.MountRoutes)
		r.Route("/purchases", params.PurchasesHandler.MountRoutes)
		r.Route("/sales", params.SalesHandler.MountRoutes)
		r.Route("/reports", params.ReportsHandler.MountRoutes)
		r.Route("/suppliers", params.SuppliersHandler.MountRoutes)
		r.Route("/customers", params.CustomersHandler.MountRoutes)
		r.Route("/couriers", params.CouriersHandler.MountRoutes)
		r.Route("/mediums", params.MediumsHandler.MountRoutes)
	})

	return r
}
