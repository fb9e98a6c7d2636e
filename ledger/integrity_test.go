package ledger_test

import (
	"errors"
	"testing"

	"github.com/mmdatafocus/shop_ledger/ledger"
)

func orphanSale(id int, name, mobile string) ledger.Transaction {
	return ledger.Sale{ID: id, CustomerName: name, CustomerMobile: mobile, Total: dec("100"), PaidAmount: dec("0"),
		PaymentStatus: ledger.PaymentStatusUnpaid, Date: day(5, 10)}.Transaction()
}

func TestFindOrphans(t *testing.T) {
	txns := []ledger.Transaction{
		orphanSale(1, "Ravi ", ""),
		// fully paid walk-in sales never need a party
		ledger.Sale{ID: 2, CustomerName: "Walk-in", Total: dec("40"), PaidAmount: dec("40"),
			PaymentStatus: ledger.PaymentStatusPaid, Date: day(5, 11)}.Transaction(),
		ledger.Sale{ID: 3, CustomerId: intPtr(1), CustomerName: "Ravi", Total: dec("10"), PaidAmount: dec("0"),
			PaymentStatus: ledger.PaymentStatusUnpaid, Date: day(5, 12)}.Transaction(),
		ledger.PurchaseBill{ID: 4, SupplierName: "Fresh Farms", Total: dec("900"), PaidAmount: dec("0"),
			PaymentStatus: ledger.PaymentStatusUnpaid, Date: day(5, 9)}.Transaction(),
		ledger.Payment{ID: 5, PartyType: ledger.PartyTypeCustomer, PartyName: "Meena", Amount: dec("50"),
			ReferenceType: ledger.ReferenceTypeAdvance, Date: day(5, 13)}.Transaction(),
		ledger.Payment{ID: 6, PartyType: ledger.PartyTypeSupplier, PartyName: "Milk Co", Amount: dec("70"),
			ReferenceType: ledger.ReferenceTypePurchase, Date: day(5, 14)}.Transaction(),
		ledger.Payment{ID: 7, PartyType: ledger.PartyTypeExpense, PartyName: "Electricity", Amount: dec("300"),
			Date: day(5, 15)}.Transaction(),
		orphanSale(8, "   ", ""),
	}

	report := ledger.FindOrphans(txns)
	if report.Counts.Sales != 1 || report.Counts.Purchases != 1 || report.Counts.CustomerPayments != 1 || report.Counts.SupplierPayments != 1 {
		t.Fatalf("unexpected counts %+v", report.Counts)
	}
	if report.Counts.Total != 4 || len(report.Orphans()) != 4 || report.Reconciled() {
		t.Fatalf("expected 4 orphans, got %+v", report.Counts)
	}
	if report.Unnamed != 1 || report.Scanned != len(txns) {
		t.Fatalf("expected 1 unnamed of %d scanned, got %d of %d", len(txns), report.Unnamed, report.Scanned)
	}
	if report.Sales[0].ID != 1 || report.CountFor(ledger.OrphanCategoryPurchases) != 1 {
		t.Fatalf("unexpected sales orphans %+v", report.Sales)
	}
}

func TestFindOrphans_Empty(t *testing.T) {
	report := ledger.FindOrphans(nil)
	if !report.Reconciled() || report.Sales == nil || len(report.Orphans()) != 0 {
		t.Fatalf("expected reconciled empty report, got %+v", report)
	}
}

func TestResolveOrphan_MatchesByNormalizedName(t *testing.T) {
	parties := []ledger.Party{
		{ID: 1, Type: ledger.PartyTypeSupplier, Name: "Ravi"},
		{ID: 2, Type: ledger.PartyTypeCustomer, Name: "Ravi"},
	}
	res, err := ledger.ResolveOrphan(orphanSale(10, "ravi ", ""), parties)
	if err != nil {
		t.Fatalf("ResolveOrphan: %v", err)
	}
	if res.Action != ledger.ResolutionActionLink || res.Rule != ledger.MatchRuleName || res.Party.ID != 2 {
		t.Fatalf("expected link to customer 2 by name, got %+v", res)
	}
	if res.Transaction.Kind != ledger.TransactionKindSale || res.Transaction.ID != 10 {
		t.Fatalf("unexpected transaction ref %s", res.Transaction)
	}
}

func TestResolveOrphan_MobileRule(t *testing.T) {
	parties := []ledger.Party{
		{ID: 3, Type: ledger.PartyTypeCustomer, Name: "R. Kumar", Mobile: "9876543210"},
		{ID: 4, Type: ledger.PartyTypeCustomer, Name: "Short", Mobile: "12345"},
	}
	testCases := []struct {
		name     string
		mobile   string
		action   ledger.ResolutionAction
		rule     ledger.MatchRule
		expected int
	}{
		{"ten digit mobile links", " 9876543210 ", ledger.ResolutionActionLink, ledger.MatchRuleMobile, 3},
		{"short mobile is never a key", "12345", ledger.ResolutionActionCreate, ledger.MatchRuleNone, 0},
		{"no mobile", "", ledger.ResolutionActionCreate, ledger.MatchRuleNone, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := ledger.ResolveOrphan(orphanSale(11, "Ravi Kumar", tc.mobile), parties)
			if err != nil {
				t.Fatalf("ResolveOrphan: %v", err)
			}
			if res.Action != tc.action || res.Rule != tc.rule {
				t.Fatalf("expected %s by %s, got %s by %s", tc.action, tc.rule, res.Action, res.Rule)
			}
			if tc.action == ledger.ResolutionActionLink && res.Party.ID != tc.expected {
				t.Fatalf("expected party %d, got %d", tc.expected, res.Party.ID)
			}
			if tc.action == ledger.ResolutionActionCreate {
				if res.Draft == nil || res.Draft.Name != "Ravi Kumar" || !res.Draft.OpeningBalance.IsZero() {
					t.Fatalf("unexpected draft %+v", res.Draft)
				}
			}
		})
	}
}

func TestResolveOrphan_Ambiguous(t *testing.T) {
	parties := []ledger.Party{
		{ID: 7, Type: ledger.PartyTypeCustomer, Name: "Ravi"},
		{ID: 8, Type: ledger.PartyTypeCustomer, Name: "RAVI"},
	}
	res, err := ledger.ResolveOrphan(orphanSale(12, "Ravi", ""), parties)
	if err != nil || res.Party.ID != 7 {
		t.Fatalf("expected first candidate to win by default, got %+v, %v", res, err)
	}
	_, err = ledger.ResolveOrphan(orphanSale(12, "Ravi", ""), parties, ledger.WithStrictMatching())
	if !errors.Is(err, ledger.ErrAmbiguousMatch) {
		t.Fatalf("expected ErrAmbiguousMatch, got %v", err)
	}
}

func TestResolveOrphan_NotOrphaned(t *testing.T) {
	linked := ledger.Sale{ID: 13, CustomerId: intPtr(1), CustomerName: "Ravi", Total: dec("5"), PaidAmount: dec("0"),
		PaymentStatus: ledger.PaymentStatusUnpaid}.Transaction()
	if _, err := ledger.ResolveOrphan(linked, nil); !errors.Is(err, ledger.ErrNotOrphaned) {
		t.Fatalf("expected ErrNotOrphaned, got %v", err)
	}
}

// Applying every resolution in turn must leave nothing orphaned.
func TestResolveOrphan_RepairConverges(t *testing.T) {
	txns := []ledger.Transaction{
		orphanSale(1, "Ravi", ""),
		orphanSale(2, "ravi ", ""),
		orphanSale(3, "Meena", "9000000001"),
		orphanSale(4, "M. Iyer", "9000000001"),
	}
	var parties []ledger.Party
	nextId := 100
	for i := range txns {
		res, err := ledger.ResolveOrphan(txns[i], parties)
		if err != nil {
			t.Fatalf("ResolveOrphan(%d): %v", txns[i].ID, err)
		}
		switch res.Action {
		case ledger.ResolutionActionLink:
			txns[i].PartyId = intPtr(res.Party.ID)
		case ledger.ResolutionActionCreate:
			p := ledger.Party{ID: nextId, Type: res.Draft.Type, Name: res.Draft.Name, Mobile: res.Draft.Mobile}
			nextId++
			parties = append(parties, p)
			txns[i].PartyId = intPtr(p.ID)
		}
	}
	if len(parties) != 2 {
		t.Fatalf("expected 2 parties created, got %d", len(parties))
	}
	if *txns[1].PartyId != 100 || *txns[3].PartyId != 101 {
		t.Fatalf("expected later orphans to reuse created parties, got %d and %d", *txns[1].PartyId, *txns[3].PartyId)
	}
	if report := ledger.FindOrphans(txns); !report.Reconciled() {
		t.Fatalf("expected zero orphans after repair, got %+v", report.Counts)
	}
}
