package handler

import (
	"log/slog"
	"net/http"

	"lendledger/internal/api/handler/dto"
	"lendledger/internal/domain/dashboard"
)

type DashboardHandler struct {
	service dashboard.Service
	logger  *slog.Logger
}

func NewDashboardHandler(s dashboard.Service, l *slog.Logger) *DashboardHandler {
	if s == nil {
		panic("dashboard service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &DashboardHandler{
		service: s,
		logger:  l.With("component", "DashboardHandler"),
	}
}

// GetSummary handles GET /dashboard/summary?month=YYYY-MM
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")

	summary, err := h.service.Summary(r.Context(), month)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to build dashboard summary", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewDashboardSummaryResponse(summary))
}

// GetInterestByMonth handles GET /dashboard/interest-by-month
func (h *DashboardHandler) GetInterestByMonth(w http.ResponseWriter, r *http.Request) {
	series, err := h.service.MonthlyInterestSeries(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to build interest series", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewMonthlyInterestResponse(series))
}
