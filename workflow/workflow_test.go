package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/mmdatafocus/shop_ledger/config"
	"github.com/mmdatafocus/shop_ledger/ledger"
	"github.com/mmdatafocus/shop_ledger/models"
	"github.com/mmdatafocus/shop_ledger/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(i int) *int {
	return &i
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func businessCtx() context.Context {
	ctx := utils.SetBusinessIdInContext(context.Background(), "shop-1")
	return utils.SetUsernameInContext(ctx, "owner")
}

// recordEvents replaces the publisher for the duration of a test.
func recordEvents(t *testing.T) *[]config.LedgerEvent {
	t.Helper()
	var (
		mu     sync.Mutex
		events []config.LedgerEvent
	)
	original := publishLedgerEvent
	publishLedgerEvent = func(ctx context.Context, evt config.LedgerEvent) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, evt)
		return evt.ID, nil
	}
	t.Cleanup(func() { publishLedgerEvent = original })
	return &events
}

type memStore struct {
	mu       sync.Mutex
	parties  []ledger.Party
	txns     []ledger.Transaction
	reports  []models.ReconciliationReport
	summary  *models.DailySummary
	nextId   int
	writes   int
	listErr  error
	linkErrs map[ledger.TransactionRef]error
}

func (m *memStore) ListUnlinkedTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []ledger.Transaction
	for _, t := range m.txns {
		if t.PartyId == nil {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) ListParties(ctx context.Context, partyType ledger.PartyType) ([]ledger.Party, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ledger.Party
	for _, p := range m.parties {
		if p.Type == partyType {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) CreateParty(ctx context.Context, draft ledger.PartyDraft) (*ledger.Party, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.parties {
		if p.Type == draft.Type && ledger.NormalizeName(p.Name) == ledger.NormalizeName(draft.Name) {
			return nil, models.ErrDuplicateParty
		}
	}
	m.nextId++
	m.writes++
	p := ledger.Party{ID: 100 + m.nextId, Type: draft.Type, Name: draft.Name, Mobile: draft.Mobile, OpeningBalance: draft.OpeningBalance}
	m.parties = append(m.parties, p)
	return &p, nil
}

func (m *memStore) UpdateTransactionPartyId(ctx context.Context, ref ledger.TransactionRef, partyId int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.linkErrs[ref]; err != nil {
		return err
	}
	for i, t := range m.txns {
		if t.Ref() != ref {
			continue
		}
		if t.PartyId != nil {
			return ledger.ErrNotOrphaned
		}
		m.txns[i].PartyId = intPtr(partyId)
		m.writes++
		return nil
	}
	return utils.ErrorRecordNotFound
}

func (m *memStore) SaveReconciliationReports(ctx context.Context, rows []models.ReconciliationReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, rows...)
	return nil
}

func (m *memStore) SetDailySummaryOpeningBalance(ctx context.Context, day ledger.Day, amount decimal.Decimal, actor string, at time.Time) (*models.DailySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	setAt := at
	m.summary = &models.DailySummary{
		BusinessId:          "shop-1",
		BusinessDate:        day.String(),
		OpeningBalance:      amount,
		OpeningBalanceSetBy: actor,
		OpeningBalanceSetAt: &setAt,
	}
	copied := *m.summary
	return &copied, nil
}

func orphanScenario() *memStore {
	return &memStore{
		parties: []ledger.Party{
			{ID: 1, Type: ledger.PartyTypeCustomer, Name: "Ravi Kumar", Mobile: "9876543210"},
			{ID: 2, Type: ledger.PartyTypeSupplier, Name: "Fresh Farms"},
		},
		txns: []ledger.Transaction{
			ledger.Sale{ID: 1, CustomerName: " ravi kumar ", Total: dec("500"), PaidAmount: dec("0"), PaymentStatus: ledger.PaymentStatusUnpaid}.Transaction(),
			ledger.Sale{ID: 2, CustomerName: "R. Kumar", CustomerMobile: "9876543210", Total: dec("200"), PaidAmount: dec("50"), PaymentStatus: ledger.PaymentStatusPartial}.Transaction(),
			ledger.Sale{ID: 3, CustomerName: "Walk In", Total: dec("80"), PaidAmount: dec("80"), PaymentStatus: ledger.PaymentStatusPaid}.Transaction(),
			ledger.Sale{ID: 4, CustomerName: "Anita", Total: dec("300"), PaidAmount: dec("0"), PaymentStatus: ledger.PaymentStatusUnpaid}.Transaction(),
			ledger.Payment{ID: 5, PartyType: ledger.PartyTypeCustomer, PartyName: "ANITA", Amount: dec("100"), ReferenceType: ledger.ReferenceTypeAdvance}.Transaction(),
			ledger.PurchaseBill{ID: 6, SupplierName: "Fresh Farms", Total: dec("900"), PaidAmount: dec("0"), PaymentStatus: ledger.PaymentStatusUnpaid}.Transaction(),
		},
	}
}

func TestRunOrphanResolution_Apply(t *testing.T) {
	events := recordEvents(t)
	store := orphanScenario()

	result, err := RunOrphanResolution(businessCtx(), store, quietLogger(), OrphanResolutionOptions{Apply: true})
	if err != nil {
		t.Fatalf("RunOrphanResolution: %v", err)
	}
	if result.DryRun || result.Orphans != 5 || result.Failed != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	// Anita is created once and reused for her payment
	if result.Created != 1 || result.Linked != 4 {
		t.Fatalf("expected 1 created and 4 linked, got %d / %d", result.Created, result.Linked)
	}
	if result.CorrelationId == "" {
		t.Fatalf("expected a correlation id")
	}

	linked := map[int]int{}
	for _, txn := range store.txns {
		if txn.PartyId != nil {
			linked[txn.ID] = *txn.PartyId
		}
	}
	if linked[1] != 1 || linked[2] != 1 || linked[6] != 2 {
		t.Fatalf("unexpected links %v", linked)
	}
	if _, ok := linked[3]; ok {
		t.Fatalf("fully paid walk-in sale must stay unlinked")
	}
	if linked[4] == 0 || linked[4] != linked[5] {
		t.Fatalf("sale and payment for Anita should share one new party, got %v", linked)
	}

	// one party_created plus five orphan_linked
	if len(*events) != 6 {
		t.Fatalf("expected 6 events, got %d", len(*events))
	}

	again, err := RunOrphanResolution(businessCtx(), store, quietLogger(), OrphanResolutionOptions{Apply: true})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if again.Orphans != 0 || again.Created != 0 {
		t.Fatalf("a repaired store should be reconciled, got %+v", again)
	}
}

func TestRunOrphanResolution_DryRunDoesNotWrite(t *testing.T) {
	events := recordEvents(t)
	store := orphanScenario()

	result, err := RunOrphanResolution(businessCtx(), store, quietLogger(), OrphanResolutionOptions{})
	if err != nil {
		t.Fatalf("RunOrphanResolution: %v", err)
	}
	if !result.DryRun || result.Created != 1 || result.Linked != 4 {
		t.Fatalf("dry run should preview the same plan, got %+v", result)
	}
	if store.writes != 0 || len(*events) != 0 {
		t.Fatalf("dry run wrote %d rows and published %d events", store.writes, len(*events))
	}
	for _, outcome := range result.Outcomes {
		if outcome.Applied {
			t.Fatalf("dry run outcome marked applied: %+v", outcome)
		}
	}
}

func TestRunOrphanResolution_StrictAmbiguousIsRecorded(t *testing.T) {
	recordEvents(t)
	store := &memStore{
		parties: []ledger.Party{
			{ID: 1, Type: ledger.PartyTypeCustomer, Name: "Ravi"},
			{ID: 2, Type: ledger.PartyTypeCustomer, Name: "ravi"},
		},
		txns: []ledger.Transaction{
			ledger.Sale{ID: 1, CustomerName: "Ravi", Total: dec("10"), PaidAmount: dec("0"), PaymentStatus: ledger.PaymentStatusUnpaid}.Transaction(),
			ledger.Sale{ID: 2, CustomerName: "Meena", Total: dec("20"), PaidAmount: dec("0"), PaymentStatus: ledger.PaymentStatusUnpaid}.Transaction(),
		},
	}

	result, err := RunOrphanResolution(businessCtx(), store, quietLogger(), OrphanResolutionOptions{Apply: true, Strict: true})
	if err != nil {
		t.Fatalf("RunOrphanResolution: %v", err)
	}
	if result.Failed != 1 || result.Created != 1 {
		t.Fatalf("expected one failure and one creation, got %+v", result)
	}
	if len(store.reports) != 1 || store.reports[0].EntityId != 1 || store.reports[0].CheckType != models.CheckTypeOrphanResolution {
		t.Fatalf("unexpected reconciliation rows %+v", store.reports)
	}
	if store.reports[0].CorrelationId != result.CorrelationId {
		t.Fatalf("reconciliation row should carry the run correlation id")
	}
}

func TestRunOrphanResolution_LinkFailure(t *testing.T) {
	recordEvents(t)
	store := orphanScenario()
	broken := ledger.TransactionRef{Kind: ledger.TransactionKindSale, ID: 1}
	store.linkErrs = map[ledger.TransactionRef]error{broken: errors.New("deadlock")}

	result, err := RunOrphanResolution(businessCtx(), store, quietLogger(), OrphanResolutionOptions{Apply: true})
	if err != nil {
		t.Fatalf("RunOrphanResolution: %v", err)
	}
	if result.Failed != 1 || result.Linked != 3 || len(store.reports) != 1 {
		t.Fatalf("expected the failed row to be skipped and recorded, got %+v", result)
	}

	store.linkErrs[broken] = errors.New("deadlock")
	stopped, err := RunOrphanResolution(businessCtx(), store, quietLogger(), OrphanResolutionOptions{Apply: true, StopOnError: true})
	if !errors.Is(err, ErrStoppedOnError) || stopped.Failed != 1 {
		t.Fatalf("expected the run to stop on the first failure, got %v, %+v", err, stopped)
	}
}

func TestRunOrphanResolution_Errors(t *testing.T) {
	if _, err := RunOrphanResolution(context.Background(), orphanScenario(), quietLogger(), OrphanResolutionOptions{}); !errors.Is(err, utils.ErrorMissingBusiness) {
		t.Fatalf("expected ErrorMissingBusiness, got %v", err)
	}
	store := &memStore{listErr: errors.New("connection refused")}
	if _, err := RunOrphanResolution(businessCtx(), store, quietLogger(), OrphanResolutionOptions{}); !errors.Is(err, ledger.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestSetDailyOpeningBalance(t *testing.T) {
	events := recordEvents(t)
	loc := config.BusinessLocation()
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, loc)
	today := ledger.DayOf(now, loc)

	testCases := []struct {
		name     string
		ctx      context.Context
		day      ledger.Day
		amount   decimal.Decimal
		actor    string
		expected error
	}{
		{"historical day", businessCtx(), "2026-03-13", dec("100"), "cashier", ErrHistoricalDay},
		{"negative amount", businessCtx(), today, dec("-1"), "cashier", ledger.ErrInvalidAmount},
		{"missing actor", businessCtx(), today, dec("100"), "  ", ErrMissingActor},
		{"missing business", context.Background(), today, dec("100"), "cashier", utils.ErrorMissingBusiness},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := &memStore{}
			_, err := SetDailyOpeningBalance(tc.ctx, store, quietLogger(), tc.day, tc.amount, tc.actor, now)
			if !errors.Is(err, tc.expected) {
				t.Fatalf("expected %v, got %v", tc.expected, err)
			}
			if store.writes != 0 {
				t.Fatalf("rejected call must not write")
			}
		})
	}

	store := &memStore{}
	summary, err := SetDailyOpeningBalance(businessCtx(), store, quietLogger(), today, dec("2000"), "cashier", now)
	if err != nil {
		t.Fatalf("SetDailyOpeningBalance: %v", err)
	}
	if !summary.OpeningBalance.Equal(dec("2000")) || summary.OpeningBalanceSetBy != "cashier" {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(*events) != 1 || (*events)[0].Action != config.LedgerEventOpeningBalanceSet {
		t.Fatalf("expected one opening balance event, got %+v", *events)
	}
}

func TestSetDailyOpeningBalance_ConcurrentSetters(t *testing.T) {
	recordEvents(t)
	loc := config.BusinessLocation()
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, loc)
	today := ledger.DayOf(now, loc)
	store := &memStore{}

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			amount := decimal.NewFromInt(int64(i * 100))
			if _, err := SetDailyOpeningBalance(businessCtx(), store, quietLogger(), today, amount, fmt.Sprintf("cashier-%d", i), now); err != nil {
				t.Errorf("setter %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	// the stored value must be exactly one writer's amount and actor
	got := store.summary
	if got == nil {
		t.Fatalf("expected a stored summary")
	}
	expectedActor := fmt.Sprintf("cashier-%d", got.OpeningBalance.IntPart()/100)
	if got.OpeningBalanceSetBy != expectedActor {
		t.Fatalf("amount %s and actor %s come from different writers", got.OpeningBalance, got.OpeningBalanceSetBy)
	}
}
