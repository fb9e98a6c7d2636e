package models

import (
	"time"

	"github.com/mmdatafocus/shop_ledger/config"
	"github.com/mmdatafocus/shop_ledger/ledger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseBill struct {
	ID             int                  `gorm:"primary_key" json:"id"`
	BusinessId     string               `gorm:"size:64;index:idx_pb_biz_date,priority:1;not null" json:"business_id"`
	BillNumber     string               `gorm:"size:50" json:"bill_number"`
	SupplierId     *int                 `gorm:"index" json:"supplier_id"`
	SupplierName   string               `gorm:"size:100" json:"supplier_name"`
	SupplierMobile string               `gorm:"size:20" json:"supplier_mobile"`
	Total          decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"total"`
	PaidAmount     decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"paid_amount"`
	DueAmount      decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"due_amount"`
	PaymentStatus  ledger.PaymentStatus `gorm:"size:10;not null" json:"payment_status"`
	BillDate       time.Time            `gorm:"not null" json:"bill_date"`
	BusinessDate   string               `gorm:"size:10;index:idx_pb_biz_date,priority:2" json:"business_date"`
	Items          []PurchaseBillItem   `gorm:"foreignKey:PurchaseBillId" json:"items"`
	CreatedAt      time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

type PurchaseBillItem struct {
	ID             int             `gorm:"primary_key" json:"id"`
	PurchaseBillId int             `gorm:"index;not null" json:"purchase_bill_id"`
	Name           string          `gorm:"size:100;not null" json:"name"`
	Quantity       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	Price          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price"`
	TotalPrice     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_price"`
}

func (b *PurchaseBill) BeforeSave(tx *gorm.DB) error {
	if b.BillDate.IsZero() {
		b.BillDate = time.Now()
	}
	if err := ledger.CheckTransaction(b.toBill().Transaction()); err != nil {
		return err
	}
	b.DueAmount = b.Total.Sub(b.PaidAmount)
	b.PaymentStatus = ledger.StatusFor(b.Total, b.PaidAmount)
	b.BusinessDate = ledger.DayOf(b.BillDate, config.BusinessLocation()).String()
	return nil
}

// BeforeSave fills a missing line total from quantity and price.
func (i *PurchaseBillItem) BeforeSave(tx *gorm.DB) error {
	if i.TotalPrice.IsZero() {
		i.TotalPrice = ledger.RoundHalfUp(i.Quantity.Mul(i.Price), ledger.MoneyPlaces)
	}
	return nil
}

func (b PurchaseBill) toBill() ledger.PurchaseBill {
	items := make([]ledger.PurchaseItem, 0, len(b.Items))
	for _, i := range b.Items {
		items = append(items, ledger.PurchaseItem{Name: i.Name, Quantity: i.Quantity, Price: i.Price, TotalPrice: i.TotalPrice})
	}
	return ledger.PurchaseBill{
		ID:             b.ID,
		BillNumber:     b.BillNumber,
		SupplierId:     b.SupplierId,
		SupplierName:   b.SupplierName,
		SupplierMobile: b.SupplierMobile,
		Total:          b.Total,
		PaidAmount:     b.PaidAmount,
		PaymentStatus:  b.PaymentStatus,
		Items:          items,
		Date:           b.BillDate,
		CreatedAt:      b.CreatedAt,
	}
}

func purchaseBillFrom(p ledger.PurchaseBill) PurchaseBill {
	items := make([]PurchaseBillItem, 0, len(p.Items))
	for _, i := range p.Items {
		items = append(items, PurchaseBillItem{Name: i.Name, Quantity: i.Quantity, Price: i.Price, TotalPrice: i.TotalPrice})
	}
	return PurchaseBill{
		BillNumber:     p.BillNumber,
		SupplierId:     p.SupplierId,
		SupplierName:   p.SupplierName,
		SupplierMobile: p.SupplierMobile,
		Total:          p.Total,
		PaidAmount:     p.PaidAmount,
		BillDate:       p.Date,
		Items:          items,
	}
}
