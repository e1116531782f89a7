package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/siampay/installment-api/internal/models"
	"github.com/siampay/installment-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type mockAnalyticsRepo struct {
	repository.AnalyticsRepository
	mockGetCache        func(ctx context.Context, key string, branchCode *string) (*models.AnalyticsCache, error)
	mockSetCache        func(ctx context.Context, key string, branchCode *string, data interface{}, ttl time.Duration) error
	mockInvalidateCache func(ctx context.Context, key string, branchCode *string) error
}

func (m *mockAnalyticsRepo) GetCache(ctx context.Context, key string, branchCode *string) (*models.AnalyticsCache, error) {
	return m.mockGetCache(ctx, key, branchCode)
}

func (m *mockAnalyticsRepo) SetCache(ctx context.Context, key string, branchCode *string, data interface{}, ttl time.Duration) error {
	return m.mockSetCache(ctx, key, branchCode, data, ttl)
}

func (m *mockAnalyticsRepo) InvalidateCache(ctx context.Context, key string, branchCode *string) error {
	return m.mockInvalidateCache(ctx, key, branchCode)
}

func TestAnalyticsService_GetDashboardStats(t *testing.T) {
	analyticsRepo := &mockAnalyticsRepo{}
	contractRepo := &mockContractRepo{}
	ledgerRepo := &mockLedgerRepo{}
	service := NewAnalyticsService(analyticsRepo, contractRepo, ledgerRepo, time.Minute)

	var cachedKey string
	analyticsRepo.mockGetCache = func(ctx context.Context, key string, branchCode *string) (*models.AnalyticsCache, error) {
		return nil, gorm.ErrRecordNotFound
	}
	analyticsRepo.mockSetCache = func(ctx context.Context, key string, branchCode *string, data interface{}, ttl time.Duration) error {
		cachedKey = key
		return nil
	}

	contractRepo.mockCountByStatuses = func(ctx context.Context, statuses []string) (int64, error) {
		assert.ElementsMatch(t, models.ActiveStatuses, statuses)
		return 25, nil
	}
	contractRepo.mockCountOverdue = func(ctx context.Context, now time.Time) (int64, error) {
		return 3, nil
	}

	var createdCalls int
	contractRepo.mockCountCreatedBetween = func(ctx context.Context, start, end time.Time) (int64, error) {
		createdCalls++
		if createdCalls == 1 {
			return 6, nil // current month
		}
		return 4, nil // prior month
	}

	var sumCalls int
	ledgerRepo.mockSumPaidInPeriod = func(ctx context.Context, start, end time.Time) (float64, error) {
		sumCalls++
		if sumCalls == 1 {
			return 50000, nil // current month
		}
		return 40000, nil // prior month
	}
	ledgerRepo.mockCountInPeriod = func(ctx context.Context, start, end time.Time) (int64, error) {
		return 10, nil
	}
	ledgerRepo.mockCountOnTimeInPeriod = func(ctx context.Context, start, end time.Time) (int64, error) {
		return 9, nil
	}

	stats, err := service.GetDashboardStats(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, int64(25), stats.TotalContracts)
	assert.Equal(t, 50000.0, stats.MonthlyPayments)
	assert.Equal(t, int64(3), stats.OverdueContracts)
	assert.Equal(t, 90, stats.OnTimeRate)
	assert.Equal(t, 50, stats.ContractsGrowth)
	assert.Equal(t, 25, stats.PaymentsGrowth)
	assert.Equal(t, "dashboard_stats", cachedKey)
}

func TestAnalyticsService_GetDashboardStats_CacheHit(t *testing.T) {
	analyticsRepo := &mockAnalyticsRepo{}
	service := NewAnalyticsService(analyticsRepo, &mockContractRepo{}, &mockLedgerRepo{}, time.Minute)

	cached := models.DashboardStats{TotalContracts: 7, OnTimeRate: 88}
	data, err := json.Marshal(cached)
	assert.NoError(t, err)

	analyticsRepo.mockGetCache = func(ctx context.Context, key string, branchCode *string) (*models.AnalyticsCache, error) {
		return &models.AnalyticsCache{CacheKey: key, Data: data}, nil
	}

	// A cache hit never touches the contract or ledger repos; their nil
	// mock funcs would panic if called
	stats, err := service.GetDashboardStats(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, int64(7), stats.TotalContracts)
	assert.Equal(t, 88, stats.OnTimeRate)
}

func TestAnalyticsService_GetDashboardStats_ZeroBaselines(t *testing.T) {
	analyticsRepo := &mockAnalyticsRepo{}
	contractRepo := &mockContractRepo{}
	ledgerRepo := &mockLedgerRepo{}
	service := NewAnalyticsService(analyticsRepo, contractRepo, ledgerRepo, time.Minute)

	analyticsRepo.mockGetCache = func(ctx context.Context, key string, branchCode *string) (*models.AnalyticsCache, error) {
		return nil, gorm.ErrRecordNotFound
	}
	analyticsRepo.mockSetCache = func(ctx context.Context, key string, branchCode *string, data interface{}, ttl time.Duration) error {
		return nil
	}

	contractRepo.mockCountByStatuses = func(ctx context.Context, statuses []string) (int64, error) {
		return 0, nil
	}
	contractRepo.mockCountOverdue = func(ctx context.Context, now time.Time) (int64, error) {
		return 0, nil
	}
	contractRepo.mockCountCreatedBetween = func(ctx context.Context, start, end time.Time) (int64, error) {
		return 0, nil
	}
	ledgerRepo.mockSumPaidInPeriod = func(ctx context.Context, start, end time.Time) (float64, error) {
		return 0, nil
	}
	ledgerRepo.mockCountInPeriod = func(ctx context.Context, start, end time.Time) (int64, error) {
		return 0, nil
	}

	stats, err := service.GetDashboardStats(context.Background())

	assert.NoError(t, err)
	// An empty period is fully on time and a zero baseline reports zero
	// growth
	assert.Equal(t, 100, stats.OnTimeRate)
	assert.Equal(t, 0, stats.ContractsGrowth)
	assert.Equal(t, 0, stats.PaymentsGrowth)
}

func TestAnalyticsService_InvalidateDashboard(t *testing.T) {
	analyticsRepo := &mockAnalyticsRepo{}
	service := NewAnalyticsService(analyticsRepo, &mockContractRepo{}, &mockLedgerRepo{}, time.Minute)

	var invalidated string
	analyticsRepo.mockInvalidateCache = func(ctx context.Context, key string, branchCode *string) error {
		invalidated = key
		return nil
	}

	assert.NoError(t, service.InvalidateDashboard(context.Background()))
	assert.Equal(t, "dashboard_stats", invalidated)
}
