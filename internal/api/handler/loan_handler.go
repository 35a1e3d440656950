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

type LoanHandler struct {
	service  loan.Service
	payments loan.PaymentService
	logger   *slog.Logger
}

func NewLoanHandler(s loan.Service, payments loan.PaymentService, l *slog.Logger) *LoanHandler {
	if s == nil || payments == nil {
		panic("loan handler dependencies cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &LoanHandler{
		service:  s,
		payments: payments,
		logger:   l.With("component", "LoanHandler"),
	}
}

func getLoanIDFromURL(r *http.Request) (string, error) {
	id := chi.URLParam(r, "loanID")
	if id == "" {
		return "", fmt.Errorf("%w: loanID not found in URL path", apperrors.ErrInvalidArgument)
	}
	if !identifier.Valid(id) {
		return "", fmt.Errorf("%w: invalid loanID format: %s", apperrors.ErrInvalidArgument, id)
	}
	return id, nil
}

// CreateLoan handles POST /loans
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	created, err := h.service.Create(r.Context(), req.CustomerID, req.Amount, req.InterestRate, req.ParsedStartDate())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to create loan", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := dto.NewLoanResponse(created)
	h.logger.InfoContext(r.Context(), "Loan created successfully", slog.String("loanID", resp.ID))
	respondJSON(w, http.StatusCreated, resp)
}

// GetLoan handles GET /loans/{loanID}
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	ls, err := h.service.GetWithStatus(r.Context(), loanID)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to get loan", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanWithStatusResponse(ls))
}

// ListLoans handles GET /loans?customerId=
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	customerID := r.URL.Query().Get("customerId")

	var (
		loans []*loan.LoanWithStatus
		err   error
	)
	if customerID != "" {
		loans, err = h.service.ListByCustomer(r.Context(), customerID)
	} else {
		loans, err = h.service.List(r.Context())
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to list loans", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := make([]dto.LoanResponse, len(loans))
	for i, ls := range loans {
		resp[i] = dto.NewLoanWithStatusResponse(ls)
	}

	h.logger.InfoContext(r.Context(), "Loans listed successfully", slog.Int("count", len(resp)))
	respondJSON(w, http.StatusOK, resp)
}

// UpdateLoan handles PUT /loans/{loanID}
func (h *LoanHandler) UpdateLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.UpdateLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	updated, err := h.service.Update(r.Context(), loanID, loan.UpdateInput{
		Amount:       req.Amount,
		InterestRate: req.InterestRate,
		StartDate:    req.ParsedStartDate(),
		Status:       loan.Status(req.Status),
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to update loan", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanResponse(updated))
}

// CloseLoan handles POST /loans/{loanID}/close
func (h *LoanHandler) CloseLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	closed, err := h.service.Close(r.Context(), loanID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to close loan", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Loan closed", slog.String("loanID", loanID))
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(closed))
}

// ListLoanPayments handles GET /loans/{loanID}/payments
func (h *LoanHandler) ListLoanPayments(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	payments, err := h.payments.ListByLoan(r.Context(), loanID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to list loan payments", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := make([]dto.PaymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = dto.NewPaymentResponse(p)
	}
	respondJSON(w, http.StatusOK, resp)
}

// ScheduleNextPayment handles POST /loans/{loanID}/payments/next
func (h *LoanHandler) ScheduleNextPayment(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	p, err := h.payments.ScheduleNext(r.Context(), loanID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to schedule next payment", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Next payment scheduled",
		slog.String("loanID", loanID),
		slog.String("paymentID", p.ID))
	respondJSON(w, http.StatusCreated, dto.NewPaymentResponse(p))
}
