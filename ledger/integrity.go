package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MinMatchMobileLength is the shortest mobile number used as a match key.
const MinMatchMobileLength = 10

type OrphanCategory string

const (
	OrphanCategorySales            OrphanCategory = "unlinked_sales"
	OrphanCategoryPurchases        OrphanCategory = "unlinked_purchases"
	OrphanCategoryCustomerPayments OrphanCategory = "unlinked_customer_payments"
	OrphanCategorySupplierPayments OrphanCategory = "unlinked_supplier_payments"
)

// NormalizeName is the natural key used for duplicate detection: trimmed and case folded.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IsOrphan reports a transaction that names a party but carries no party id.
// Fully paid sales are exempt; expenses never belong to a party.
func IsOrphan(t Transaction) bool {
	if t.PartyId != nil {
		return false
	}
	if strings.TrimSpace(t.PartyName) == "" {
		return false
	}
	if !t.PartyType.IsParty() {
		return false
	}
	return !t.IsFullyPaidSale()
}

func categoryOf(t Transaction) (OrphanCategory, bool) {
	switch {
	case t.Kind == TransactionKindSale:
		return OrphanCategorySales, true
	case t.Kind == TransactionKindPurchase:
		return OrphanCategoryPurchases, true
	case t.Kind == TransactionKindPayment && t.PartyType == PartyTypeCustomer:
		return OrphanCategoryCustomerPayments, true
	case t.Kind == TransactionKindPayment && t.PartyType == PartyTypeSupplier:
		return OrphanCategorySupplierPayments, true
	}
	return "", false
}

type OrphanCounts struct {
	Sales            int `json:"unlinked_sales"`
	Purchases        int `json:"unlinked_purchases"`
	CustomerPayments int `json:"unlinked_customer_payments"`
	SupplierPayments int `json:"unlinked_supplier_payments"`
	Total            int `json:"total"`
}

type OrphanReport struct {
	Sales            []Transaction `json:"sales"`
	Purchases        []Transaction `json:"purchases"`
	CustomerPayments []Transaction `json:"customer_payments"`
	SupplierPayments []Transaction `json:"supplier_payments"`
	Counts           OrphanCounts  `json:"counts"`
	// Unnamed counts id-less rows with a blank party name; they cannot be matched to anything.
	Unnamed int `json:"unnamed"`
	Scanned int `json:"scanned"`
}

// Reconciled reports that no orphan was found.
func (r OrphanReport) Reconciled() bool {
	return r.Counts.Total == 0
}

// Orphans returns every orphan, grouped by category.
func (r OrphanReport) Orphans() []Transaction {
	all := make([]Transaction, 0, r.Counts.Total)
	all = append(all, r.Sales...)
	all = append(all, r.Purchases...)
	all = append(all, r.CustomerPayments...)
	all = append(all, r.SupplierPayments...)
	return all
}

func (r OrphanReport) CountFor(c OrphanCategory) int {
	switch c {
	case OrphanCategorySales:
		return r.Counts.Sales
	case OrphanCategoryPurchases:
		return r.Counts.Purchases
	case OrphanCategoryCustomerPayments:
		return r.Counts.CustomerPayments
	case OrphanCategorySupplierPayments:
		return r.Counts.SupplierPayments
	}
	return 0
}

// FindOrphans scans transactions for missing party links.
func FindOrphans(txns []Transaction) OrphanReport {
	report := OrphanReport{
		Sales:            []Transaction{},
		Purchases:        []Transaction{},
		CustomerPayments: []Transaction{},
		SupplierPayments: []Transaction{},
	}
	for _, t := range txns {
		report.Scanned++
		if t.PartyId == nil && strings.TrimSpace(t.PartyName) == "" && t.PartyType.IsParty() && !t.IsFullyPaidSale() {
			report.Unnamed++
			continue
		}
		if !IsOrphan(t) {
			continue
		}
		category, ok := categoryOf(t)
		if !ok {
			continue
		}
		switch category {
		case OrphanCategorySales:
			report.Sales = append(report.Sales, t)
			report.Counts.Sales++
		case OrphanCategoryPurchases:
			report.Purchases = append(report.Purchases, t)
			report.Counts.Purchases++
		case OrphanCategoryCustomerPayments:
			report.CustomerPayments = append(report.CustomerPayments, t)
			report.Counts.CustomerPayments++
		case OrphanCategorySupplierPayments:
			report.SupplierPayments = append(report.SupplierPayments, t)
			report.Counts.SupplierPayments++
		}
		report.Counts.Total++
	}
	return report
}

type ResolutionAction string

const (
	ResolutionActionLink   ResolutionAction = "link"
	ResolutionActionCreate ResolutionAction = "create"
)

type MatchRule string

const (
	MatchRuleName   MatchRule = "name"
	MatchRuleMobile MatchRule = "mobile"
	MatchRuleNone   MatchRule = "none"
)

// PartyDraft is a party proposed for creation from an orphaned transaction.
type PartyDraft struct {
	Type           PartyType       `json:"type"`
	Name           string          `json:"name"`
	Mobile         string          `json:"mobile"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

type Resolution struct {
	Action      ResolutionAction `json:"action"`
	Rule        MatchRule        `json:"rule"`
	Transaction TransactionRef   `json:"transaction"`
	// Party is set for link, Draft for create.
	Party *Party      `json:"party,omitempty"`
	Draft *PartyDraft `json:"draft,omitempty"`
}

type matchConfig struct {
	strict bool
}

type MatchOption func(*matchConfig)

// WithStrictMatching fails with ErrAmbiguousMatch instead of taking the first candidate.
func WithStrictMatching() MatchOption {
	return func(c *matchConfig) {
		c.strict = true
	}
}

// ResolveOrphan proposes how to link an orphaned transaction. It never mutates anything.
//
// Rules, first match wins: exact normalized name, then exact mobile (only for mobiles of at
// least MinMatchMobileLength characters), else create a new party with a zero opening balance.
func ResolveOrphan(t Transaction, parties []Party, opts ...MatchOption) (*Resolution, error) {
	cfg := matchConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !IsOrphan(t) {
		return nil, fmt.Errorf("%w: %s", ErrNotOrphaned, t.Ref())
	}

	name := NormalizeName(t.PartyName)
	var byName []Party
	for _, p := range parties {
		if p.Type == t.PartyType && NormalizeName(p.Name) == name {
			byName = append(byName, p)
		}
	}
	if match, err := pick(t, byName, MatchRuleName, cfg); match != nil || err != nil {
		return match, err
	}

	mobile := strings.TrimSpace(t.PartyMobile)
	if len(mobile) >= MinMatchMobileLength {
		var byMobile []Party
		for _, p := range parties {
			if p.Type == t.PartyType && strings.TrimSpace(p.Mobile) == mobile {
				byMobile = append(byMobile, p)
			}
		}
		if match, err := pick(t, byMobile, MatchRuleMobile, cfg); match != nil || err != nil {
			return match, err
		}
	}

	return &Resolution{
		Action:      ResolutionActionCreate,
		Rule:        MatchRuleNone,
		Transaction: t.Ref(),
		Draft: &PartyDraft{
			Type:           t.PartyType,
			Name:           strings.TrimSpace(t.PartyName),
			Mobile:         mobile,
			OpeningBalance: decimal.Zero,
		},
	}, nil
}

func pick(t Transaction, candidates []Party, rule MatchRule, cfg matchConfig) (*Resolution, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if cfg.strict && len(candidates) > 1 {
		return nil, fmt.Errorf("%w: %s matches %d parties by %s", ErrAmbiguousMatch, t.Ref(), len(candidates), rule)
	}
	party := candidates[0]
	return &Resolution{
		Action:      ResolutionActionLink,
		Rule:        rule,
		Transaction: t.Ref(),
		Party:       &party,
	}, nil
}
