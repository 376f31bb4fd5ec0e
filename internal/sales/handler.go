package sales

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stocktally/stocktally/internal/platform/httpx"
	"github.com/stocktally/stocktally/internal/shared"
)

// Handler exposes the sale ledger over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers the sale routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Get("/{id}/lines", h.Lines)
	r.Put("/{id}", h.Edit)
	r.Delete("/{id}", h.Delete)
}

type datePayload struct {
	Year   int `json:"year" validate:"required"`
	Month  int `json:"month" validate:"required"`
	Day    int `json:"day" validate:"required"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
}

func (p datePayload) input() shared.DateTimeInput {
	return shared.DateTimeInput{Year: p.Year, Month: p.Month, Day: p.Day, Hour: p.Hour, Minute: p.Minute, Second: p.Second}
}

type linePayload struct {
	TypeID    int64 `json:"type_id"`
	SalePrice int64 `json:"sale_price" validate:"gte=0"`
	Qty       int   `json:"qty" validate:"gte=0"`
}

type salePayload struct {
	Date        datePayload   `json:"date" validate:"required"`
	CustomerID  int64         `json:"customer_id" validate:"required,gt=0"`
	CourierID   *int64        `json:"courier_id"`
	MediumID    *int64        `json:"medium_id"`
	DeliveryFee *int64        `json:"delivery_fee"`
	Notes       string        `json:"notes"`
	Lines       []linePayload `json:"lines" validate:"required,min=1,dive"`
}

func (p salePayload) lines() []LineInput {
	out := make([]LineInput, 0, len(p.Lines))
	for _, line := range p.Lines {
		out = append(out, LineInput{TypeID: line.TypeID, SalePrice: line.SalePrice, Qty: line.Qty})
	}
	return out
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var p salePayload
	if err := httpx.DecodeJSON(r, &p); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(p); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	tr, err := h.service.Create(r.Context(), CreateInput{
		Date:        p.Date.input(),
		CustomerID:  p.CustomerID,
		CourierID:   p.CourierID,
		MediumID:    p.MediumID,
		DeliveryFee: p.DeliveryFee,
		Notes:       p.Notes,
		Lines:       p.lines(),
	})
	if err != nil {
		h.logger.Error("create sale failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, tr)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	tr, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tr)
}

func (h *Handler) Lines(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	lines, err := h.service.Lines(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"lines": lines})
}

func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var p salePayload
	if err := httpx.DecodeJSON(r, &p); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(p); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	err := h.service.Edit(r.Context(), id, EditInput{
		Date:        p.Date.input(),
		CustomerID:  p.CustomerID,
		CourierID:   p.CourierID,
		MediumID:    p.MediumID,
		DeliveryFee: p.DeliveryFee,
		Notes:       p.Notes,
		Lines:       p.lines(),
	})
	if err != nil {
		h.logger.Error("edit sale failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"updated": id})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": id})
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid transaction id")
		return 0, false
	}
	return id, true
}
