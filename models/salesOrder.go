package models

import (
	"time"

	"github.com/mmdatafocus/shop_ledger/config"
	"github.com/mmdatafocus/shop_ledger/ledger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SalesOrder struct {
	ID             int                  `gorm:"primary_key" json:"id"`
	BusinessId     string               `gorm:"size:64;index:idx_so_biz_date,priority:1;not null" json:"business_id"`
	OrderNumber    string               `gorm:"size:50" json:"order_number"`
	CustomerId     *int                 `gorm:"index" json:"customer_id"`
	CustomerName   string               `gorm:"size:100" json:"customer_name"`
	CustomerMobile string               `gorm:"size:20" json:"customer_mobile"`
	Total          decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"total"`
	PaidAmount     decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"paid_amount"`
	DueAmount      decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"due_amount"`
	PaymentStatus  ledger.PaymentStatus `gorm:"size:10;not null" json:"payment_status"`
	OrderDate      time.Time            `gorm:"not null" json:"order_date"`
	BusinessDate   string               `gorm:"size:10;index:idx_so_biz_date,priority:2" json:"business_date"`
	CreatedAt      time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeSave validates money, derives due amount and payment status, and stamps the business day.
func (o *SalesOrder) BeforeSave(tx *gorm.DB) error {
	if o.OrderDate.IsZero() {
		o.OrderDate = time.Now()
	}
	if err := ledger.CheckTransaction(o.toSale().Transaction()); err != nil {
		return err
	}
	o.DueAmount = o.Total.Sub(o.PaidAmount)
	o.PaymentStatus = ledger.StatusFor(o.Total, o.PaidAmount)
	o.BusinessDate = ledger.DayOf(o.OrderDate, config.BusinessLocation()).String()
	return nil
}

func (o SalesOrder) toSale() ledger.Sale {
	return ledger.Sale{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		CustomerId:     o.CustomerId,
		CustomerName:   o.CustomerName,
		CustomerMobile: o.CustomerMobile,
		Total:          o.Total,
		PaidAmount:     o.PaidAmount,
		PaymentStatus:  o.PaymentStatus,
		Date:           o.OrderDate,
		CreatedAt:      o.CreatedAt,
	}
}

func salesOrderFrom(s ledger.Sale) SalesOrder {
	return SalesOrder{
		OrderNumber:    s.OrderNumber,
		CustomerId:     s.CustomerId,
		CustomerName:   s.CustomerName,
		CustomerMobile: s.CustomerMobile,
		Total:          s.Total,
		PaidAmount:     s.PaidAmount,
		OrderDate:      s.Date,
	}
}
