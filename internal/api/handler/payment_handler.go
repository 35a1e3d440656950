package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lendledger/internal/api/handler/dto"
	"lendledger/internal/domain/loan"
	"lendledger/internal/pkg/apperrors"
	"lendledger/internal/pkg/identifier"
)

type PaymentHandler struct {
	service loan.PaymentService
	logger  *slog.Logger
}

func NewPaymentHandler(s loan.PaymentService, l *slog.Logger) *PaymentHandler {
	if s == nil {
		panic("payment service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &PaymentHandler{
		service: s,
		logger:  l.With("component", "PaymentHandler"),
	}
}

func getPaymentIDFromURL(r *http.Request) (string, error) {
	id := chi.URLParam(r, "paymentID")
	if id == "" {
		return "", fmt.Errorf("%w: paymentID not found in URL path", apperrors.ErrInvalidArgument)
	}
	if !identifier.Valid(id) {
		return "", fmt.Errorf("%w: invalid paymentID format: %s", apperrors.ErrInvalidArgument, id)
	}
	return id, nil
}

// CreatePayment handles POST /payments
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	created, err := h.service.Create(r.Context(), loan.CreatePaymentInput{
		LoanID:      req.LoanID,
		Amount:      req.Amount,
		DueDate:     req.ParsedDueDate(),
		PaymentDate: req.ParsedPaymentDate(),
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to create payment", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := dto.NewPaymentResponse(created)
	h.logger.InfoContext(r.Context(), "Payment created successfully", slog.String("paymentID", resp.ID))
	respondJSON(w, http.StatusCreated, resp)
}

// GetPayment handles GET /payments/{paymentID}
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := getPaymentIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	p, err := h.service.Get(r.Context(), paymentID)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to get payment", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewPaymentResponse(p))
}

// ListPayments handles GET /payments?filter=
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	filter := loan.DueFilter(r.URL.Query().Get("filter"))

	payments, err := h.service.ListDue(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to list payments", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := make([]dto.PaymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = dto.NewPaymentResponse(p)
	}

	h.logger.InfoContext(r.Context(), "Payments listed successfully",
		slog.Int("count", len(resp)),
		slog.String("filter", string(filter)))
	respondJSON(w, http.StatusOK, resp)
}

// RecordPayment handles POST /payments/{paymentID}/record
func (h *PaymentHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := getPaymentIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.RecordPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	recorded, err := h.service.Record(r.Context(), paymentID, req.Amount, req.ParsedPaymentDate())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to record payment", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Payment recorded", slog.String("paymentID", paymentID))
	respondJSON(w, http.StatusOK, dto.NewPaymentResponse(recorded))
}

// UpdatePayment handles PUT /payments/{paymentID}
func (h *PaymentHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := getPaymentIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.UpdatePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	updated, err := h.service.Update(r.Context(), paymentID, loan.UpdatePaymentInput{
		Amount:  req.Amount,
		DueDate: req.ParsedDueDate(),
		Type:    loan.PaymentType(req.Type),
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to update payment", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewPaymentResponse(updated))
}
