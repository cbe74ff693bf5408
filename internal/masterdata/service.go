package masterdata

import "context"

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	ListTowers(ctx context.Context) ([]Tower, error)
	ListBudgetHeads(ctx context.Context) ([]BudgetHead, error)
	FindVendorByName(ctx context.Context, name string) (*Vendor, error)
	FirstCostCentre(ctx context.Context) (*CostCentre, error)
}

// Service exposes master-data lookups. Lookups return nil on miss
// rather than erroring so callers can degrade gracefully.
type Service struct {
	repo RepositoryPort
}

// NewService constructs the service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Towers lists all towers.
func (s *Service) Towers(ctx context.Context) ([]Tower, error) {
	return s.repo.ListTowers(ctx)
}

// BudgetHeads lists all budget heads.
func (s *Service) BudgetHeads(ctx context.Context) ([]BudgetHead, error) {
	return s.repo.ListBudgetHeads(ctx)
}

// VendorByName resolves a vendor by name.
func (s *Service) VendorByName(ctx context.Context, name string) (*Vendor, error) {
	return s.repo.FindVendorByName(ctx, name)
}

// FirstCostCentre returns the first cost centre in the system.
func (s *Service) FirstCostCentre(ctx context.Context) (*CostCentre, error) {
	return s.repo.FirstCostCentre(ctx)
}
