package reports

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stocktally/stocktally/internal/platform/httpx"
	"github.com/stocktally/stocktally/internal/shared"
)

// Handler exposes the report listings over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/units", h.Units)
	r.Get("/purchases", h.Purchases)
	r.Get("/sales", h.Sales)
	r.Get("/stock", h.Stock)
	r.Get("/counters", h.Counters)
}

// parseFilter reads repeated id/year/month/day parameters. Unparseable
// values are dropped rather than failing the listing.
func parseFilter(q url.Values) Filter {
	var f Filter
	for _, raw := range q["id"] {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			f.IDs = append(f.IDs, n)
		}
	}
	ints := func(key string) []int {
		var out []int
		for _, raw := range q[key] {
			if n, err := strconv.Atoi(raw); err == nil {
				out = append(out, n)
			}
		}
		return out
	}
	f.Years = ints("year")
	f.Months = ints("month")
	f.Days = ints("day")
	return f
}

func (h *Handler) Units(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	listing, err := h.service.Units(r.Context(), parseFilter(q), shared.ParsePageRequest(q.Get("page"), q.Get("per_page")))
	if err != nil {
		h.logger.Error("unit listing failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listing)
}

func (h *Handler) Purchases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	listing, err := h.service.Purchases(r.Context(), parseFilter(q), shared.ParsePageRequest(q.Get("page"), q.Get("per_page")))
	if err != nil {
		h.logger.Error("purchase listing failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listing)
}

func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	listing, err := h.service.Sales(r.Context(), parseFilter(q), shared.ParsePageRequest(q.Get("page"), q.Get("per_page")))
	if err != nil {
		h.logger.Error("sale listing failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listing)
}

func (h *Handler) Stock(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	listing, err := h.service.Stock(r.Context(), shared.ParsePageRequest(q.Get("page"), q.Get("per_page")))
	if err != nil {
		h.logger.Error("stock listing failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listing)
}

func (h *Handler) Counters(w http.ResponseWriter, r *http.Request) {
	counters, err := h.service.Counters(r.Context())
	if err != nil {
		h.logger.Error("counters failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, counters)
}
