package models

import (
	"encoding/json"
	"time"
)

// AnalyticsCache represents a cached analytics result
type AnalyticsCache struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	CacheKey   string          `gorm:"not null;index:idx_analytics_cache_key_branch" json:"cache_key"`
	BranchCode *string         `gorm:"index:idx_analytics_cache_key_branch" json:"branch_code"`
	Data       json.RawMessage `gorm:"type:jsonb;not null" json:"data"`
	ExpiresAt  time.Time       `gorm:"not null;index" json:"expires_at"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TableName specifies the table name for AnalyticsCache
func (AnalyticsCache) TableName() string {
	return "analytics_cache"
}

// DashboardStats is the repayment dashboard summary
type DashboardStats struct {
	TotalContracts   int64   `json:"totalContracts"`
	MonthlyPayments  float64 `json:"monthlyPayments"`
	OverdueContracts int64   `json:"overdueContracts"`
	OnTimeRate       int     `json:"onTimeRate"`
	ContractsGrowth  int     `json:"contractsGrowth"`
	PaymentsGrowth   int     `json:"paymentsGrowth"`
}

// AgingSummary counts overdue ledger entries per days-past-due bucket
type AgingSummary struct {
	Current       int64   `json:"current"`
	Days1To30     int64   `json:"days_1_30"`
	Days31To60    int64   `json:"days_31_60"`
	Days61To90    int64   `json:"days_61_90"`
	Days91To180   int64   `json:"days_91_180"`
	Over180       int64   `json:"days_180_plus"`
	TotalOverdue  int64   `json:"total_overdue"`
	OverdueAmount float64 `json:"overdue_amount"`
}
