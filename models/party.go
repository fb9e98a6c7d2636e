package models

import (
	"strings"
	"time"

	"github.com/mmdatafocus/shop_ledger/ledger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PartyColumns is shared by the customers and suppliers tables.
type PartyColumns struct {
	ID                  int             `gorm:"primary_key" json:"id"`
	BusinessId          string          `gorm:"size:64;index;not null" json:"business_id"`
	Name                string          `gorm:"size:100;not null" json:"name"`
	NormalizedName      string          `gorm:"size:100;index" json:"-"`
	Mobile              string          `gorm:"size:20;index" json:"mobile"`
	Email               string          `gorm:"size:100" json:"email"`
	Gstin               string          `gorm:"size:15" json:"gstin"`
	OpeningBalance      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"opening_balance"`
	OpeningBalanceSetBy string          `gorm:"size:100" json:"opening_balance_set_by"`
	OpeningBalanceSetAt *time.Time      `json:"opening_balance_set_at"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *PartyColumns) BeforeSave(tx *gorm.DB) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Mobile = strings.TrimSpace(p.Mobile)
	p.NormalizedName = ledger.NormalizeName(p.Name)
	return nil
}

func (p PartyColumns) toParty(t ledger.PartyType) ledger.Party {
	return ledger.Party{
		ID:                  p.ID,
		Type:                t,
		Name:                p.Name,
		Mobile:              p.Mobile,
		Email:               p.Email,
		Gstin:               p.Gstin,
		OpeningBalance:      p.OpeningBalance,
		OpeningBalanceSetBy: p.OpeningBalanceSetBy,
		OpeningBalanceSetAt: p.OpeningBalanceSetAt,
		CreatedAt:           p.CreatedAt,
	}
}

type Customer struct {
	PartyColumns
}

type Supplier struct {
	PartyColumns
}

func partyTable(t ledger.PartyType) (string, error) {
	switch t {
	case ledger.PartyTypeCustomer:
		return "customers", nil
	case ledger.PartyTypeSupplier:
		return "suppliers", nil
	}
	return "", ErrUnknownPartyType
}

// NewParty is the create payload for a customer or supplier.
type NewParty struct {
	Name           string          `json:"name" validate:"required,max=100"`
	Mobile         string          `json:"mobile" validate:"omitempty,max=20"`
	Email          string          `json:"email" validate:"omitempty,email,max=100"`
	Gstin          string          `json:"gstin" validate:"omitempty,len=15,alphanum"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

func NewPartyFromDraft(d ledger.PartyDraft) NewParty {
	return NewParty{
		Name:           d.Name,
		Mobile:         d.Mobile,
		OpeningBalance: d.OpeningBalance,
	}
}
