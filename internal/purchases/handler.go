package purchases

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stocktally/stocktally/internal/platform/httpx"
	"github.com/stocktally/stocktally/internal/shared"
)

// Handler exposes the purchase ledger over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers the purchase routes.
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

type createPayload struct {
	Date       datePayload `json:"date" validate:"required"`
	SupplierID int64       `json:"supplier_id" validate:"required,gt=0"`
	Notes      string      `json:"notes"`
	Lines      []struct {
		TypeID    int64 `json:"type_id"`
		UnitPrice int64 `json:"unit_price" validate:"gte=0"`
		Qty       int   `json:"qty" validate:"gte=0"`
	} `json:"lines" validate:"required,min=1,dive"`
}

type editPayload struct {
	Date       datePayload `json:"date" validate:"required"`
	SupplierID int64       `json:"supplier_id" validate:"required,gt=0"`
	Notes      string      `json:"notes"`
	Lines      []struct {
		TypeID      int64   `json:"type_id"`
		UnitPrice   int64   `json:"unit_price" validate:"gte=0"`
		Qty         int     `json:"qty" validate:"gte=0"`
		ExistingIDs []int64 `json:"existing_ids"`
	} `json:"lines" validate:"required,dive"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var p createPayload
	if err := httpx.DecodeJSON(r, &p); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(p); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	input := CreateInput{Date: p.Date.input(), SupplierID: p.SupplierID, Notes: p.Notes}
	for _, line := range p.Lines {
		input.Lines = append(input.Lines, LineInput{TypeID: line.TypeID, UnitPrice: line.UnitPrice, Qty: line.Qty})
	}

	tr, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logger.Error("create purchase failed", "error", err)
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
	var p editPayload
	if err := httpx.DecodeJSON(r, &p); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(p); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	input := EditInput{Date: p.Date.input(), SupplierID: p.SupplierID, Notes: p.Notes}
	for _, line := range p.Lines {
		input.Lines = append(input.Lines, EditLineInput{TypeID: line.TypeID, UnitPrice: line.UnitPrice, Qty: line.Qty, ExistingIDs: line.ExistingIDs})
	}

	if err := h.service.Edit(r.Context(), id, input); err != nil {
		h.logger.Error("edit purchase failed", "error", err, "id", id)
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
