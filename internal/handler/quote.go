package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/quotegen/quote-service/internal/quote"
)

type QuoteHandler struct {
	svc quote.Service
}

func NewQuoteHandler(svc quote.Service) *QuoteHandler {
	return &QuoteHandler{svc: svc}
}

func (h *QuoteHandler) RegisterRoutes(r chi.Router) {
	r.Post("/quotes", h.handleCreateQuote)
	r.Get("/quotes", h.handleListQuotes)
	r.Get("/quotes/{id}", h.handleGetQuote)
	r.Get("/quotes/{id}/status", h.handleGetStatus)
	r.Patch("/quotes/{id}/status", h.handleChangeStatus)
	r.Get("/quotes/{id}/pdf", h.handleQuotePDF)
}

type createQuoteRequest struct {
	Customer      quote.Customer   `json:"customer"`
	LineItems     []quote.LineItem `json:"line_items"`
	DiscountTotal float64          `json:"discount_total"`
	TaxRate       float64          `json:"tax_rate"`
	ShippingTotal float64          `json:"shipping_total"`
	Currency      string           `json:"currency"`
	ValidUntil    *time.Time       `json:"valid_until"`
	Terms         string           `json:"terms"`
	Notes         string           `json:"notes"`
}

func (h *QuoteHandler) handleCreateQuote(w http.ResponseWriter, r *http.Request) {
	var req createQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
		return
	}

	form := quote.QuoteForm{
		Customer:      req.Customer,
		LineItems:     req.LineItems,
		DiscountTotal: req.DiscountTotal,
		TaxRate:       req.TaxRate,
		ShippingTotal: req.ShippingTotal,
		Currency:      req.Currency,
		ValidUntil:    req.ValidUntil,
		Terms:         req.Terms,
		Notes:         req.Notes,
	}

	q, err := h.svc.CreateQuote(r.Context(), form)
	if err != nil {
		var verr *quote.ValidationError
		switch {
		case errors.As(err, &verr):
			respondJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   errorBody{Code: "VALIDATION_ERROR", Message: "quote input is invalid"},
				"details": verr.Fields,
			})
		case errors.Is(err, quote.ErrDuplicateQuoteNumber):
			respondError(w, http.StatusConflict, "DUPLICATE_NUMBER", "a quote with this number already exists")
		default:
			log.Error().Err(err).Msg("handler: failed to create quote")
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to create quote")
		}
		return
	}

	respondData(w, http.StatusCreated, q)
}

func (h *QuoteHandler) handleListQuotes(w http.ResponseWriter, r *http.Request) {
	filter := quote.ListFilter{}

	if status := r.URL.Query().Get("status"); status != "" {
		qs := quote.QuoteStatus(status)
		if !qs.Valid() {
			respondError(w, http.StatusBadRequest, "INVALID_STATUS", fmt.Sprintf("unknown status %q", status))
			return
		}
		filter.Status = qs
	}
	filter.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	filter.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))

	quotes, err := h.svc.ListQuotes(r.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to list quotes")
		respondError(w, http.StatusInternalServerError, "FETCH_ERROR", "failed to list quotes")
		return
	}

	respondData(w, http.StatusOK, quotes)
}

func (h *QuoteHandler) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := quoteID(w, r)
	if !ok {
		return
	}

	q, err := h.svc.GetQuote(r.Context(), id)
	if err != nil {
		respondFetchError(w, err)
		return
	}

	respondData(w, http.StatusOK, q)
}

type statusResponse struct {
	*quote.Quote
	StatusHistory []quote.StatusChange `json:"status_history"`
}

func (h *QuoteHandler) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := quoteID(w, r)
	if !ok {
		return
	}

	q, history, err := h.svc.GetQuoteWithHistory(r.Context(), id)
	if err != nil {
		respondFetchError(w, err)
		return
	}

	respondData(w, http.StatusOK, statusResponse{Quote: q, StatusHistory: history})
}

type changeStatusRequest struct {
	Status         string         `json:"status"`
	Comment        string         `json:"comment"`
	Metadata       map[string]any `json:"metadata"`
	NotifyCustomer bool           `json:"notifyCustomer"`
}

type transitionResponse struct {
	Quote      *quote.Quote       `json:"quote"`
	Transition quote.StatusChange `json:"transition"`
}

func (h *QuoteHandler) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := quoteID(w, r)
	if !ok {
		return
	}

	var req changeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
		return
	}
	if req.Status == "" {
		respondError(w, http.StatusBadRequest, "MISSING_STATUS", "status is required")
		return
	}

	newStatus := quote.QuoteStatus(req.Status)
	if !newStatus.Valid() {
		respondError(w, http.StatusBadRequest, "INVALID_STATUS", fmt.Sprintf("unknown status %q", req.Status))
		return
	}

	actorID, actorName := actor(r)
	q, change, err := h.svc.ChangeStatus(r.Context(), id, quote.StatusChangeInput{
		Status:         newStatus,
		Comment:        req.Comment,
		Metadata:       req.Metadata,
		NotifyCustomer: req.NotifyCustomer,
		ActorID:        actorID,
		ActorName:      actorName,
	})
	if err != nil {
		switch {
		case errors.Is(err, quote.ErrQuoteNotFound):
			respondError(w, http.StatusNotFound, "NOT_FOUND", "quote not found")
		case errors.Is(err, quote.ErrInvalidTransition), errors.Is(err, quote.ErrUnknownStatus):
			respondError(w, http.StatusBadRequest, "INVALID_TRANSITION", err.Error())
		case errors.Is(err, quote.ErrHistoryWrite):
			respondError(w, http.StatusInternalServerError, "HISTORY_ERROR", "failed to record status history")
		case errors.Is(err, quote.ErrQuoteUpdate):
			respondError(w, http.StatusInternalServerError, "UPDATE_ERROR", "failed to update quote status")
		case errors.Is(err, quote.ErrQuoteFetch):
			respondError(w, http.StatusInternalServerError, "FETCH_ERROR", "failed to fetch quote")
		default:
			log.Error().Err(err).Stringer("quote_id", id).Msg("handler: status change failed")
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "status change failed")
		}
		return
	}

	respondData(w, http.StatusOK, transitionResponse{Quote: q, Transition: *change})
}

func (h *QuoteHandler) handleQuotePDF(w http.ResponseWriter, r *http.Request) {
	id, ok := quoteID(w, r)
	if !ok {
		return
	}

	data, err := h.svc.RenderPDF(r.Context(), id)
	if err != nil {
		if errors.Is(err, quote.ErrQuoteNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "quote not found")
			return
		}
		log.Error().Err(err).Stringer("quote_id", id).Msg("handler: pdf rendering failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to render quote pdf")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="quote.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// quoteID extracts and parses the {id} route parameter, writing the error
// response itself on failure. An empty parameter never occurs through the
// registered routes since chi does not match them without an id segment; the
// MISSING_ID branch guards handlers mounted on other patterns.
func quoteID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		respondError(w, http.StatusBadRequest, "MISSING_ID", "quote id is required")
		return uuid.Nil, false
	}
	id, err := uuid.FromString(raw)
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "quote not found")
		return uuid.Nil, false
	}
	return id, true
}

func respondFetchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quote.ErrQuoteNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "quote not found")
	case errors.Is(err, quote.ErrQuoteFetch):
		respondError(w, http.StatusInternalServerError, "FETCH_ERROR", "failed to fetch quote")
	default:
		log.Error().Err(err).Msg("handler: unexpected fetch failure")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "unexpected error")
	}
}
