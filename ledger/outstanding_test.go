package ledger_test

import (
	"math/rand"
	"testing"

	"github.com/mmdatafocus/shop_ledger/ledger"
)

func sampleBalances() []ledger.PartyBalance {
	return []ledger.PartyBalance{
		{PartyId: 1, PartyType: ledger.PartyTypeCustomer, Name: "Ravi", Balance: dec("1500")},
		{PartyId: 2, PartyType: ledger.PartyTypeCustomer, Name: "Meena", Balance: dec("-200")},
		{PartyId: 3, PartyType: ledger.PartyTypeCustomer, Name: "Arun", Balance: dec("0")},
		{PartyId: 4, PartyType: ledger.PartyTypeSupplier, Name: "Fresh Farms", Balance: dec("900.50")},
		{PartyId: 5, PartyType: ledger.PartyTypeSupplier, Name: "Milk Co", Balance: dec("-100")},
		{PartyId: 6, PartyType: ledger.PartyTypeExpense, Name: "Rent", Balance: dec("999")},
	}
}

func TestAggregate(t *testing.T) {
	out := ledger.Aggregate(sampleBalances())

	if !out.TotalReceivable.Equal(dec("1500")) {
		t.Fatalf("receivable: expected 1500, got %s", out.TotalReceivable)
	}
	if !out.TotalPayable.Equal(dec("900.50")) {
		t.Fatalf("payable: expected 900.50, got %s", out.TotalPayable)
	}
	if !out.TotalAdvance.Equal(dec("300")) || !out.CustomerAdvance.Equal(dec("200")) || !out.SupplierAdvance.Equal(dec("100")) {
		t.Fatalf("advances: %s / %s / %s", out.TotalAdvance, out.CustomerAdvance, out.SupplierAdvance)
	}
	if !out.NetPosition.Equal(dec("599.50")) || !out.IsFavorable() {
		t.Fatalf("net position: expected 599.50, got %s", out.NetPosition)
	}
	if out.Parties != 5 || out.Ignored != 1 {
		t.Fatalf("expected 5 parties and 1 ignored, got %d and %d", out.Parties, out.Ignored)
	}
	if out.PartiesWithDue != 2 || out.CustomersWithDue != 1 || out.SuppliersWithDue != 1 || out.PartiesWithAdvance != 2 {
		t.Fatalf("unexpected counts %+v", out)
	}
}

func TestAggregate_Empty(t *testing.T) {
	out := ledger.Aggregate(nil)
	if !out.TotalReceivable.IsZero() || !out.TotalPayable.IsZero() || !out.NetPosition.IsZero() || out.Parties != 0 {
		t.Fatalf("expected zero aggregate, got %+v", out)
	}
	if !out.IsFavorable() {
		t.Fatalf("zero net position counts as favorable")
	}
}

func TestAggregate_UnfavorablePosition(t *testing.T) {
	out := ledger.Aggregate([]ledger.PartyBalance{
		{PartyId: 1, PartyType: ledger.PartyTypeCustomer, Balance: dec("100")},
		{PartyId: 2, PartyType: ledger.PartyTypeSupplier, Balance: dec("400")},
	})
	if !out.NetPosition.Equal(dec("-300")) || out.IsFavorable() {
		t.Fatalf("expected net position -300, got %s", out.NetPosition)
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	balances := sampleBalances()
	expected := ledger.Aggregate(balances)

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 25; i++ {
		shuffled := append([]ledger.PartyBalance(nil), balances...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := ledger.Aggregate(shuffled)
		if !got.TotalReceivable.Equal(expected.TotalReceivable) ||
			!got.TotalPayable.Equal(expected.TotalPayable) ||
			!got.TotalAdvance.Equal(expected.TotalAdvance) ||
			got.PartiesWithDue != expected.PartiesWithDue {
			t.Fatalf("permutation %d changed the aggregate: %+v vs %+v", i, got, expected)
		}
	}
}

func TestAggregate_FromLedgers(t *testing.T) {
	sale := ledger.Sale{ID: 1, CustomerId: intPtr(1), Total: dec("250"), PaidAmount: dec("50"),
		PaymentStatus: ledger.PaymentStatusPartial, Date: day(3, 10)}
	l, err := ledger.ComputeLedger(customer("0"), []ledger.Transaction{sale.Transaction()})
	if err != nil {
		t.Fatalf("ComputeLedger: %v", err)
	}
	out := ledger.Aggregate([]ledger.PartyBalance{l.PartyBalance()})
	if !out.TotalReceivable.Equal(dec("200")) || out.CustomersWithDue != 1 {
		t.Fatalf("expected receivable 200 from the ledger, got %+v", out)
	}
}
