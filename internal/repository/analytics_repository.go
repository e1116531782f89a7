package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/siampay/installment-api/internal/models"
	"gorm.io/gorm"
)

// AnalyticsRepository caches computed dashboard aggregates keyed by cache
// key and branch. A nil branch means the all-branches rollup.
type AnalyticsRepository interface {
	GetCache(ctx context.Context, key string, branchCode *string) (*models.AnalyticsCache, error)
	SetCache(ctx context.Context, key string, branchCode *string, data interface{}, ttl time.Duration) error
	InvalidateCache(ctx context.Context, key string, branchCode *string) error
	CleanExpiredCache(ctx context.Context) error

	GetAgingSummary(ctx context.Context, branchCode string, now time.Time) (*models.AgingSummary, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) GetCache(ctx context.Context, key string, branchCode *string) (*models.AnalyticsCache, error) {
	var cache models.AnalyticsCache
	db := r.db.WithContext(ctx).Where("cache_key = ?", key)
	if branchCode != nil {
		db = db.Where("branch_code = ?", *branchCode)
	} else {
		db = db.Where("branch_code IS NULL")
	}

	err := db.Where("expires_at > ?", time.Now()).First(&cache).Error
	if err != nil {
		return nil, err
	}
	return &cache, nil
}

func (r *analyticsRepository) SetCache(ctx context.Context, key string, branchCode *string, data interface{}, ttl time.Duration) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	cache := models.AnalyticsCache{
		CacheKey:   key,
		BranchCode: branchCode,
		Data:       jsonData,
		ExpiresAt:  time.Now().Add(ttl),
	}

	// Upsert strategy
	var existing models.AnalyticsCache
	db := r.db.WithContext(ctx).Where("cache_key = ?", key)
	if branchCode != nil {
		db = db.Where("branch_code = ?", *branchCode)
	} else {
		db = db.Where("branch_code IS NULL")
	}

	err = db.First(&existing).Error
	if err == nil {
		return r.db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
			"data":       jsonData,
			"expires_at": cache.ExpiresAt,
			"updated_at": time.Now(),
		}).Error
	}

	return r.db.WithContext(ctx).Create(&cache).Error
}

func (r *analyticsRepository) InvalidateCache(ctx context.Context, key string, branchCode *string) error {
	db := r.db.WithContext(ctx).Where("cache_key = ?", key)
	if branchCode != nil {
		db = db.Where("branch_code = ?", *branchCode)
	}
	return db.Delete(&models.AnalyticsCache{}).Error
}

func (r *analyticsRepository) CleanExpiredCache(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("expires_at <= ?", time.Now()).Delete(&models.AnalyticsCache{}).Error
}

// GetAgingSummary buckets pending entries past their due date by days
// overdue. Bucketing happens in SQL so a large ledger never loads into
// memory.
func (r *analyticsRepository) GetAgingSummary(ctx context.Context, branchCode string, now time.Time) (*models.AgingSummary, error) {
	var rows []struct {
		Bucket string
		Count  int64
		Amount float64
	}

	query := r.db.WithContext(ctx).Table("ledger_entries").
		Select(`CASE
			WHEN due_date >= ? THEN 'current'
			WHEN due_date >= ? THEN '1-30'
			WHEN due_date >= ? THEN '31-60'
			WHEN due_date >= ? THEN '61-90'
			WHEN due_date >= ? THEN '91-180'
			ELSE '180+'
		END as bucket, COUNT(*) as count, COALESCE(SUM(amount_due), 0) as amount`,
			now,
			now.AddDate(0, 0, -30),
			now.AddDate(0, 0, -60),
			now.AddDate(0, 0, -90),
			now.AddDate(0, 0, -180)).
		Where("status = ?", models.LedgerStatusPending).
		Group("bucket")

	if branchCode != "" {
		query = query.Where("branch_code = ?", branchCode)
	}

	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	summary := &models.AgingSummary{}
	for _, row := range rows {
		switch row.Bucket {
		case "current":
			summary.Current = row.Count
		case "1-30":
			summary.Days1To30 = row.Count
		case "31-60":
			summary.Days31To60 = row.Count
		case "61-90":
			summary.Days61To90 = row.Count
		case "91-180":
			summary.Days91To180 = row.Count
		case "180+":
			summary.Over180 = row.Count
		}
		if row.Bucket != "current" {
			summary.TotalOverdue += row.Count
			summary.OverdueAmount += row.Amount
		}
	}

	return summary, nil
}
