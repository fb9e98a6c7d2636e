package models

import (
	"fmt"
	"time"

	"github.com/mmdatafocus/shop_ledger/config"
	"github.com/mmdatafocus/shop_ledger/ledger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Payment struct {
	ID            int                  `gorm:"primary_key" json:"id"`
	BusinessId    string               `gorm:"size:64;index:idx_pay_biz_date,priority:1;not null" json:"business_id"`
	PartyType     ledger.PartyType     `gorm:"size:10;not null;index" json:"party_type"`
	PartyId       *int                 `gorm:"index" json:"party_id"`
	PartyName     string               `gorm:"size:100" json:"party_name"`
	PartyMobile   string               `gorm:"size:20" json:"party_mobile"`
	Amount        decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"amount"`
	ReferenceType ledger.ReferenceType `gorm:"size:10" json:"reference_type"`
	ReferenceId   *int                 `json:"reference_id"`
	Notes         string               `gorm:"type:text" json:"notes"`
	PaymentDate   time.Time            `gorm:"not null" json:"payment_date"`
	BusinessDate  string               `gorm:"size:10;index:idx_pay_biz_date,priority:2" json:"business_date"`
	CreatedAt     time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Payment) BeforeSave(tx *gorm.DB) error {
	if !p.PartyType.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownPartyType, p.PartyType)
	}
	if p.PaymentDate.IsZero() {
		p.PaymentDate = time.Now()
	}
	if p.PartyType == ledger.PartyTypeExpense {
		// expenses never belong to a party
		p.PartyId = nil
	}
	if err := ledger.CheckAmount(ledger.TransactionRef{Kind: ledger.TransactionKindPayment, ID: p.ID}, "amount", p.Amount); err != nil {
		return err
	}
	p.BusinessDate = ledger.DayOf(p.PaymentDate, config.BusinessLocation()).String()
	return nil
}

func (p Payment) toPayment() ledger.Payment {
	return ledger.Payment{
		ID:            p.ID,
		PartyType:     p.PartyType,
		PartyId:       p.PartyId,
		PartyName:     p.PartyName,
		PartyMobile:   p.PartyMobile,
		Amount:        p.Amount,
		ReferenceType: p.ReferenceType,
		ReferenceId:   p.ReferenceId,
		Notes:         p.Notes,
		Date:          p.PaymentDate,
		CreatedAt:     p.CreatedAt,
	}
}

func paymentFrom(p ledger.Payment) Payment {
	return Payment{
		PartyType:     p.PartyType,
		PartyId:       p.PartyId,
		PartyName:     p.PartyName,
		PartyMobile:   p.PartyMobile,
		Amount:        p.Amount,
		ReferenceType: p.ReferenceType,
		ReferenceId:   p.ReferenceId,
		Notes:         p.Notes,
		PaymentDate:   p.Date,
	}
}
