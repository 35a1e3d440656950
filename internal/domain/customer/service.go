package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"lendledger/internal/event"
	"lendledger/internal/pkg/apperrors"
)

type UpdateInput struct {
	Name        string
	Description string
	Mobile      string
	Status      Status
}

type Service interface {
	Create(ctx context.Context, name, description, mobile string) (*Customer, error)
	Get(ctx context.Context, customerID string) (*Customer, error)
	List(ctx context.Context, activeOnly bool) ([]*Customer, error)
	// Update persists every field except the creation timestamp.
	Update(ctx context.Context, customerID string, input UpdateInput) (*Customer, error)
	// Delete cascades over the customer's loans and payments in one transaction.
	Delete(ctx context.Context, customerID string) (CascadeResult, error)
	Deactivate(ctx context.Context, customerID string) error
	Reactivate(ctx context.Context, customerID string) error
}

// SummaryInvalidator drops cached dashboard aggregates after a confirmed write.
type SummaryInvalidator interface {
	InvalidateSummary(ctx context.Context) error
}

var _ Service = (*service)(nil)

type service struct {
	repo   Repository
	pub    event.Publisher
	cache  SummaryInvalidator
	logger *slog.Logger
}

func NewService(repo Repository, pub event.Publisher, cache SummaryInvalidator, logger *slog.Logger) Service {
	if repo == nil {
		panic("customer repository cannot be nil")
	}
	if pub == nil {
		pub = event.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to customer.NewService, using default stderr handler")
	}
	return &service{
		repo:   repo,
		pub:    pub,
		cache:  cache,
		logger: logger.With(slog.String("component", "customerService")),
	}
}

func (s *service) Create(ctx context.Context, name, description, mobile string) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to create new customer")

	name = strings.TrimSpace(name)
	if name == "" {
		s.logger.WarnContext(ctx, "Validation failed: name is empty")
		return nil, apperrors.NewValidationError("name", "name cannot be empty")
	}

	cust := NewCustomer(name, strings.TrimSpace(description), strings.TrimSpace(mobile))

	if err := s.repo.Create(ctx, cust); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to save new customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}

	s.publishChange(ctx, event.ActionCreated, cust.ID)
	s.invalidateSummary(ctx)

	s.logger.InfoContext(ctx, "Successfully created new customer", slog.String("customerID", cust.ID))
	return cust, nil
}

func (s *service) Get(ctx context.Context, customerID string) (*Customer, error) {
	cust, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.WarnContext(ctx, "Customer not found by repository", slog.String("customerID", customerID))
			return nil, fmt.Errorf("%w: customer %s", apperrors.ErrNotFound, customerID)
		}
		s.logger.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %s: %w", customerID, err)
	}
	return cust, nil
}

func (s *service) List(ctx context.Context, activeOnly bool) ([]*Customer, error) {
	customers, err := s.repo.FindAll(ctx, activeOnly)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing customers", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	s.logger.InfoContext(ctx, "Listed customers", slog.Int("count", len(customers)), slog.Bool("activeOnly", activeOnly))
	return customers, nil
}

func (s *service) Update(ctx context.Context, customerID string, input UpdateInput) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to update customer", slog.String("customerID", customerID))

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		s.logger.WarnContext(ctx, "Validation failed: name is empty")
		return nil, apperrors.NewValidationError("name", "name cannot be empty")
	}
	if input.Status != StatusActive && input.Status != StatusInactive {
		return nil, apperrors.NewValidationError("status", "status must be 'active' or 'inactive'")
	}

	cust, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	cust.Name = input.Name
	cust.Description = strings.TrimSpace(input.Description)
	cust.Mobile = strings.TrimSpace(input.Mobile)
	cust.Status = input.Status

	if err := s.repo.Update(ctx, cust); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to update customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to update customer %s: %w", customerID, err)
	}

	s.publishChange(ctx, event.ActionUpdated, cust.ID)
	s.invalidateSummary(ctx)

	s.logger.InfoContext(ctx, "Successfully updated customer", slog.String("customerID", cust.ID))
	return cust, nil
}

func (s *service) Delete(ctx context.Context, customerID string) (CascadeResult, error) {
	s.logger.InfoContext(ctx, "Attempting cascade delete of customer", slog.String("customerID", customerID))

	if _, err := s.Get(ctx, customerID); err != nil {
		return CascadeResult{}, err
	}

	result, err := s.repo.DeleteCascade(ctx, customerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Cascade delete failed, transaction rolled back", slog.Any("error", err))
		return CascadeResult{}, fmt.Errorf("failed to delete customer %s: %w", customerID, err)
	}

	s.publishChange(ctx, event.ActionDeleted, customerID)
	s.invalidateSummary(ctx)

	s.logger.InfoContext(ctx, "Cascade delete completed",
		slog.String("customerID", customerID),
		slog.Int64("loansDeleted", result.LoansDeleted),
		slog.Int64("paymentsDeleted", result.PaymentsDeleted))
	return result, nil
}

func (s *service) Deactivate(ctx context.Context, customerID string) error {
	return s.setStatus(ctx, customerID, StatusInactive)
}

func (s *service) Reactivate(ctx context.Context, customerID string) error {
	return s.setStatus(ctx, customerID, StatusActive)
}

func (s *service) setStatus(ctx context.Context, customerID string, status Status) error {
	if _, err := s.Get(ctx, customerID); err != nil {
		return err
	}
	if err := s.repo.SetStatus(ctx, customerID, status); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to set customer status", slog.Any("error", err))
		return fmt.Errorf("failed to set status for customer %s: %w", customerID, err)
	}
	s.publishChange(ctx, event.ActionUpdated, customerID)
	return nil
}

// publishChange is best-effort: a broker failure never fails the mutation.
func (s *service) publishChange(ctx context.Context, action event.Action, customerID string) {
	evt := event.NewEntityChanged(event.EntityCustomer, action, customerID)
	evt.CustomerID = customerID
	if err := s.pub.PublishEntityChanged(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish customer change event", slog.Any("error", err))
	}
}

func (s *service) invalidateSummary(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSummary(ctx); err != nil {
		s.logger.WarnContext(ctx, "Failed to invalidate dashboard summary cache", slog.Any("error", err))
	}
}
