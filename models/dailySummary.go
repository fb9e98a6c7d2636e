package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailySummary holds the cashier-entered opening balance of one business day.
//
// Grain: (business_id, business_date). Everything else on the daily cash report is derived
// from orders and payments and never stored.
type DailySummary struct {
	BusinessId          string          `gorm:"primaryKey;size:64" json:"business_id"`
	BusinessDate        string          `gorm:"primaryKey;size:10" json:"business_date"`
	OpeningBalance      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"opening_balance"`
	OpeningBalanceSetBy string          `gorm:"size:100" json:"opening_balance_set_by"`
	OpeningBalanceSetAt *time.Time      `json:"opening_balance_set_at"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
