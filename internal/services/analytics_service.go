package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/siampay/installment-api/internal/models"
	"github.com/siampay/installment-api/internal/money"
	"github.com/siampay/installment-api/internal/repository"
	"github.com/siampay/installment-api/pkg/logger"
)

const dashboardCacheKey = "dashboard_stats"

type AnalyticsService struct {
	analyticsRepo repository.AnalyticsRepository
	contractRepo  repository.ContractRepository
	ledgerRepo    repository.LedgerRepository
	cacheTTL      time.Duration
}

func NewAnalyticsService(
	analyticsRepo repository.AnalyticsRepository,
	contractRepo repository.ContractRepository,
	ledgerRepo repository.LedgerRepository,
	cacheTTL time.Duration,
) *AnalyticsService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &AnalyticsService{
		analyticsRepo: analyticsRepo,
		contractRepo:  contractRepo,
		ledgerRepo:    ledgerRepo,
		cacheTTL:      cacheTTL,
	}
}

// GetDashboardStats returns the repayment dashboard summary, cached for
// the configured TTL. Growth figures compare the current calendar month
// against the previous one; a zero prior baseline reports zero growth
// rather than infinity.
func (s *AnalyticsService) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	cached, err := s.analyticsRepo.GetCache(ctx, dashboardCacheKey, nil)
	if err == nil && cached != nil {
		var stats models.DashboardStats
		if err := json.Unmarshal(cached.Data, &stats); err == nil {
			return &stats, nil
		}
	}

	stats, err := s.computeDashboardStats(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.analyticsRepo.SetCache(ctx, dashboardCacheKey, nil, stats, s.cacheTTL); err != nil {
		logger.Warn("failed to cache dashboard stats", "error", err)
	}

	return stats, nil
}

func (s *AnalyticsService) computeDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	nextMonth := monthStart.AddDate(0, 1, 0)
	prevMonthStart := monthStart.AddDate(0, -1, 0)

	totalContracts, err := s.contractRepo.CountByStatuses(ctx, models.ActiveStatuses)
	if err != nil {
		return nil, &ComputationError{Detail: "counting active contracts", Err: err}
	}

	monthlyPayments, err := s.ledgerRepo.SumPaidInPeriod(ctx, monthStart, nextMonth)
	if err != nil {
		return nil, &ComputationError{Detail: "summing monthly payments", Err: err}
	}

	overdueContracts, err := s.contractRepo.CountOverdue(ctx, now)
	if err != nil {
		return nil, &ComputationError{Detail: "counting overdue contracts", Err: err}
	}

	onTimeRate, err := s.onTimeRate(ctx, monthStart, nextMonth)
	if err != nil {
		return nil, err
	}

	currentCreated, err := s.contractRepo.CountCreatedBetween(ctx, monthStart, nextMonth)
	if err != nil {
		return nil, &ComputationError{Detail: "counting contracts created this month", Err: err}
	}
	priorCreated, err := s.contractRepo.CountCreatedBetween(ctx, prevMonthStart, monthStart)
	if err != nil {
		return nil, &ComputationError{Detail: "counting contracts created last month", Err: err}
	}

	priorPayments, err := s.ledgerRepo.SumPaidInPeriod(ctx, prevMonthStart, monthStart)
	if err != nil {
		return nil, &ComputationError{Detail: "summing last month payments", Err: err}
	}

	return &models.DashboardStats{
		TotalContracts:   totalContracts,
		MonthlyPayments:  monthlyPayments,
		OverdueContracts: overdueContracts,
		OnTimeRate:       onTimeRate,
		ContractsGrowth:  money.GrowthPercent(float64(currentCreated), float64(priorCreated)),
		PaymentsGrowth:   money.GrowthPercent(monthlyPayments, priorPayments),
	}, nil
}

func (s *AnalyticsService) onTimeRate(ctx context.Context, start, end time.Time) (int, error) {
	total, err := s.ledgerRepo.CountInPeriod(ctx, start, end)
	if err != nil {
		return 0, &ComputationError{Detail: "counting period payments", Err: err}
	}
	if total == 0 {
		return 100, nil
	}
	onTime, err := s.ledgerRepo.CountOnTimeInPeriod(ctx, start, end)
	if err != nil {
		return 0, &ComputationError{Detail: "counting on-time payments", Err: err}
	}
	return int(money.Round0(float64(onTime) / float64(total) * 100)), nil
}

// GetAgingSummary buckets the outstanding ledger by days past due
func (s *AnalyticsService) GetAgingSummary(ctx context.Context, branchCode string) (*models.AgingSummary, error) {
	return s.analyticsRepo.GetAgingSummary(ctx, branchCode, time.Now())
}

// InvalidateDashboard drops the cached dashboard stats so the next read
// recomputes
func (s *AnalyticsService) InvalidateDashboard(ctx context.Context) error {
	return s.analyticsRepo.InvalidateCache(ctx, dashboardCacheKey, nil)
}

// CleanExpiredCache removes stale cache rows; runs on the scheduler
func (s *AnalyticsService) CleanExpiredCache(ctx context.Context) error {
	return s.analyticsRepo.CleanExpiredCache(ctx)
}
