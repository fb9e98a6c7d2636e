package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmdatafocus/shop_ledger/config"
	"github.com/mmdatafocus/shop_ledger/ledger"
	"github.com/mmdatafocus/shop_ledger/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the gorm-backed persistence of parties, transactions and daily summaries.
// Every query is scoped to the business id carried by the context.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) scoped(ctx context.Context) (*gorm.DB, string, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, "", utils.ErrorMissingBusiness
	}
	return s.db.WithContext(ctx), businessId, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.ErrorRecordNotFound
	}
	return err
}

/* daily cash inputs */

func (s *Store) ListOrdersByDate(ctx context.Context, day ledger.Day) ([]ledger.Sale, error) {
	db, businessId, err := s.scoped(ctx)
	if err != nil {
		return nil, err
	}
	var rows []SalesOrder
	if err := db.Where("business_id = ? AND business_date = ?", businessId, day.String()).
		Order("order_date, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	later, err := collectedLater(db, businessId, day, ids)
	if err != nil {
		return nil, err
	}
	sales := make([]ledger.Sale, 0, len(rows))
	for _, r := range rows {
		sale := r.toSale()
		if amount, ok := later[r.ID]; ok {
			// as of the order's own day
			sale.PaidAmount = decimal.Max(decimal.Zero, sale.PaidAmount.Sub(amount))
			sale.PaymentStatus = ledger.StatusFor(sale.Total, sale.PaidAmount)
		}
		sales = append(sales, sale)
	}
	return sales, nil
}

func (s *Store) ListPaymentsByDate(ctx context.Context, day ledger.Day) ([]ledger.Payment, error) {
	db, businessId, err := s.scoped(ctx)
	if err != nil {
		return nil, err
	}
	var rows []Payment
	if err := db.Where("business_id = ? AND business_date = ?", businessId, day.String()).
		Order("payment_date, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	payments := make([]ledger.Payment, 0, len(rows))
	for _, r := range rows {
		payments = append(payments, r.toPayment())
	}
	return payments, nil
}

// GetDailySummary returns utils.ErrorRecordNotFound when no opening balance was entered for day.
func (s *Store) GetDailySummary(ctx context.Context, day ledger.Day) (*DailySummary, error) {
	db, businessId, err := s.scoped(ctx)
	if err != nil {
		return nil, err
	}
	var row DailySummary
	if err := db.Where("business_id = ? AND business_date = ?", businessId, day.String()).First(&row).Error; err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

// SetDailySummaryOpeningBalance upserts the opening balance of day in a single statement,
// so concurrent setters leave exactly one amount with its setBy/setAt pair.
func (s *Store) SetDailySummaryOpeningBalance(ctx context.Context, day ledger.Day, amount decimal.Decimal, actor string, at time.Time) (*DailySummary, error) {
	db, businessId, err := s.scoped(ctx)
	if err != nil {
		return nil, err
	}
	row := DailySummary{
		BusinessId:          businessId,
		BusinessDate:        day.String(),
		OpeningBalance:      amount,
		OpeningBalanceSetBy: actor,
		OpeningBalanceSetAt: &at,
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "business_id"}, {Name: "business_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"opening_balance", "opening_balance_set_by", "opening_balance_set_at", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	invalidateDailyCash(businessId, day.String())
	return &row, nil
}

/* parties */

func (s *Store) ListParties(ctx context.Context, partyType ledger.PartyType) ([]ledger.Party, error) {
	table, err := partyTable(partyType)
	if err != nil {
		return nil, err
	}
	db, businessId, err := s.scoped(ctx)
	if err != nil {
		return nil, err
	}
	var rows []PartyColumns
	if err := db.Table(table).Where("business_id = ?", businessId).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	parties := make([]ledger.Party, 0, len(rows))
	for _, r := range rows {
		parties = append(parties, r.toParty(partyType))
	}
	return parties, nil
}

func (s *Store) GetParty(ctx context.Context, partyType ledger.PartyType, id int) (*ledger.Party, error) {
	table, err := partyTable(partyType)
	if err != nil {
		return nil, err
	}
	db, businessId, err := s.scoped(ctx)
	if err != nil {
		return nil, err
	}
	var row PartyColumns
	if err := db.Table(table).Where("business_id = ? AND id = ?", businessId, id).First(&row).Error; err != nil {
		return nil, notFound(err)
	}
	party := row.toParty(partyType)
	return &party, nil
}

// CreateParty creates the party proposed by an orphan resolution.
func (s *Store) CreateParty(ctx context.Context, draft ledger.PartyDraft) (*ledger.Party, error) {
	return s.CreatePartyWithDetails(ctx, draft.Type, NewPartyFromDraft(draft))
}

func (s *Store) CreatePartyWithDetails(ctx context.Context, partyType ledger.PartyType, input NewParty) (*ledger.Party, error) {
	table, err := partyTable(partyType)
	if err != nil {
		return nil, err
	}
	if err := utils.Validate(input); err != nil {
		return nil, err
	}
	if input.Mobile != "" && config.StrictPhoneValidation() {
		if err := utils.ValidatePhoneNumber(input.Mobile, config.PhoneRegion()); err != nil {
			return nil, err
		}
	}
	if err := ledger.CheckSignedAmount(ledger.TransactionRef{}, "opening_balance", input.OpeningBalance); err != nil {
		return nil, err
	}
	db, businessId, err := s.scoped(ctx)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := db.Table(table).Where("business_id = ? AND normalized_name = ?", businessId, ledger.NormalizeName(input.Name)).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateParty, input.Name)
	}

	row := PartyColumns{
		BusinessId:     businessId,
		Name:           input.Name,
		Mobile:         input.Mobile,
		Email:          input.Email,
		Gstin:          input.Gstin,
		OpeningBalance: input.OpeningBalance,
	}
	if !input.OpeningBalance.IsZero() {
		actor, _ := utils.GetUsernameFromContext(ctx)
		now := time.Now()
		row.OpeningBalanceSetBy = actor
		row.OpeningBalanceSetAt = &now
	}
	if err := db.Table(table).Create(&row).Error; err != nil {
		return nil, err
	}
	party := row.toParty(partyType)
	return &party, nil
}

// SetPartyOpeningBalance records the opening balance of a party once; a second set is refused.
func (s *Store) SetPartyOpeningBalance(ctx context.Context, partyType ledger.PartyType, id int, amount decimal.Decimal, actor string, at time.Time) (*ledger.Party, error) {
	table, err := partyTable(partyType)
	if err != nil {
		return nil, err
	}
	if err := ledger.CheckSignedAmount(ledger.TransactionRef{}, "opening_balance", amount); err != nil {
		return nil, err
	}
	db, businessId, err := s.scoped(ctx)
	if err != nil {
		return nil, err
	}
	res := db.Session(&gorm.Session{SkipHooks: true}).Table(table).
		Where("business_id = ? AND id = ? AND opening_balance_set_at IS NULL", businessId, id).
		Updates(map[string]interface{}{
			"opening_balance":        amount,
			"opening_balance_set_by": actor,
			"opening_balance_set_at": at,
			"updated_at":             at,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetParty(ctx, partyType, id); err != nil {
			return nil, err
		}
		return nil, ErrOpeningBalanceAlreadySet
	}
	return s.GetParty(ctx, partyType, id)
}

// DeleteParty never cascades: a party with any linked transaction is kept.
func (s *Store) DeleteParty(ctx context.Context, partyType ledger.PartyType, id int) error {
	table, err := partyTable(partyType)
	if err != nil {
		return err
	}
	db, businessId, err := s.scoped(ctx)
	if err != nil {
		return err
	}
	if _, err := s.GetParty(ctx, partyType, id); err != nil {
		return err
	}

	var documents, payments int64
	switch partyType {
	case ledger.PartyTypeCustomer:
		err = db.Model(&SalesOrder{}).Where("business_id = ? AND customer_id = ?", businessId, id).Count(&documents).Error
	case ledger.PartyTypeSupplier:
		err = db.Model(&PurchaseBill{}).Where("business_id = ? AND supplier_id = ?", businessId, id).Count(&documents).Error
	}
	if err != nil {
		return err
	}
	if err := db.Model(&Payment{}).Where("business_id = ? AND party_type = ? AND party_id = ?", businessId, partyType, id).
		Count(&payments).Error; err != nil {
		return err
	}
	if documents+payments > 0 {
		return fmt.Errorf("%w: %d transaction(s)", ErrPartyHasTransactions, documents+payments)
	}
	return db.Table(table).Where("business_id = ? AND id = ?", businessId, id).Delete(&PartyColumns{}).Error
}

/* party transactions */

// ListTransactionsForParty returns every sale, purchase and payment linked to partyId, plus
// the unlinked rows whose party name matches partyName (trimmed, case-insensitive). With
// partyId 0 only the name match applies.
func (s *Store) ListTransactionsForParty(ctx context.Context, partyType ledger.PartyType, partyId int, partyName string) ([]ledger.Transaction, error) {
	if !partyType.IsParty() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPartyType, partyType)
	}
	db, businessId, err := s.scoped(ctx)
	if err != nil {
		return nil, err
	}
	name := ledger.NormalizeName(partyName)
	if partyId == 0 && name == "" {
		return []ledger.Transaction{}, nil
	}

	var txns []ledger.Transaction
	switch partyType {
	case ledger.PartyTypeCustomer:
		var rows []SalesOrder
		q := db.Where("business_id = ?", businessId).Where(linkedOrNamed("customer_id", "customer_name", partyId, name))
		if err := q.Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			txns = append(txns, r.toSale().Transaction())
		}
	case ledger.PartyTypeSupplier:
		var rows []PurchaseBill
		q := db.Preload("Items").Where("business_id = ?", businessId).
			Where(linkedOrNamed("supplier_id", "supplier_name", partyId, name))
		if err := q.Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			txns = append(txns, r.toBill().Transaction())
		}
	}

	var payments []Payment
	q := db.Where("business_id = ? AND party_type = ?", businessId, partyType).
		Where(linkedOrNamed("party_id", "party_name", partyId, name))
	if err := q.Find(&payments).Error; err != nil {
		return nil, err
	}
	for _, p := range payments {
		txns = append(txns, p.toPayment().Transaction())
	}
	return txns, nil
}

// ListUnlinkedTransactions returns every row without a party id that could belong to a party.
// Fully paid sales and expenses are left out.
func (s *Store) ListUnlinkedTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	db, businessId, err := s.scoped(ctx)
	if err != nil {
		return nil, err
	}
	var orders []SalesOrder
	if err := db.Where("business_id = ? AND customer_id IS NULL AND payment_status <> ?", businessId, ledger.PaymentStatusPaid).
		Order("id").Find(&orders).Error; err != nil {
		return nil, err
	}
	var bills []PurchaseBill
	if err := db.Where("business_id = ? AND supplier_id IS NULL", businessId).Order("id").Find(&bills).Error; err != nil {
		return nil, err
	}
	var payments []Payment
	if err := db.Where("business_id = ? AND party_id IS NULL AND party_type IN ?", businessId,
		[]ledger.PartyType{ledger.PartyTypeCustomer, ledger.PartyTypeSupplier}).Order("id").Find(&payments).Error; err != nil {
		return nil, err
	}

	txns := make([]ledger.Transaction, 0, len(orders)+len(bills)+len(payments))
	for _, o := range orders {
		txns = append(txns, o.toSale().Transaction())
	}
	for _, b := range bills {
		txns = append(txns, b.toBill().Transaction())
	}
	for _, p := range payments {
		txns = append(txns, p.toPayment().Transaction())
	}
	return txns, nil
}

// UpdateTransactionPartyId links an orphaned row to partyId. Rows that already carry a party
// id are never touched and report ledger.ErrNotOrphaned.
func (s *Store) UpdateTransactionPartyId(ctx context.Context, ref ledger.TransactionRef, partyId int) error {
	db, businessId, err := s.scoped(ctx)
	if err != nil {
		return err
	}

	var (
		model     interface{}
		column    string
		partyType ledger.PartyType
	)
	switch ref.Kind {
	case ledger.TransactionKindSale:
		model, column, partyType = &SalesOrder{}, "customer_id", ledger.PartyTypeCustomer
	case ledger.TransactionKindPurchase:
		model, column, partyType = &PurchaseBill{}, "supplier_id", ledger.PartyTypeSupplier
	case ledger.TransactionKindPayment:
		var p Payment
		if err := db.Where("business_id = ? AND id = ?", businessId, ref.ID).First(&p).Error; err != nil {
			return notFound(err)
		}
		if !p.PartyType.IsParty() {
			return fmt.Errorf("%w: %s is an expense", ledger.ErrInapplicableTransaction, ref)
		}
		model, column, partyType = &Payment{}, "party_id", p.PartyType
	default:
		return fmt.Errorf("unknown transaction kind %q", ref.Kind)
	}

	if _, err := s.GetParty(ctx, partyType, partyId); err != nil {
		return fmt.Errorf("party %s#%d: %w", partyType, partyId, err)
	}

	res := db.Session(&gorm.Session{SkipHooks: true}).Model(model).
		Where(fmt.Sprintf("business_id = ? AND id = ? AND %s IS NULL", column), businessId, ref.ID).
		Update(column, partyId)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := db.Model(model).Where("business_id = ? AND id = ?", businessId, ref.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return utils.ErrorRecordNotFound
		}
		return fmt.Errorf("%w: %s", ledger.ErrNotOrphaned, ref)
	}
	return nil
}

func linkedOrNamed(idColumn, nameColumn string, partyId int, name string) clause.Expr {
	unlinked := fmt.Sprintf("%s IS NULL AND LOWER(TRIM(%s)) = ?", idColumn, nameColumn)
	switch {
	case partyId > 0 && name != "":
		return gorm.Expr(fmt.Sprintf("(%s = ? OR (%s))", idColumn, unlinked), partyId, name)
	case partyId > 0:
		return gorm.Expr(idColumn+" = ?", partyId)
	default:
		return gorm.Expr(unlinked, name)
	}
}

/* transaction writes */

func (s *Store) checkPartyLink(ctx context.Context, partyType ledger.PartyType, partyId *int) error {
	if partyId == nil {
		return nil
	}
	if _, err := s.GetParty(ctx, partyType, *partyId); err != nil {
		return fmt.Errorf("party %s#%d: %w", partyType, *partyId, err)
	}
	return nil
}

func (s *Store) CreateSalesOrder(ctx context.Context, sale ledger.Sale) (*ledger.Sale, error) {
	db, businessId, err := s.scoped(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.checkPartyLink(ctx, ledger.PartyTypeCustomer, sale.CustomerId); err != nil {
		return nil, err
	}
	row := salesOrderFrom(sale)
	row.BusinessId = businessId
	if err := db.Create(&row).Error; err != nil {
		return nil, err
	}
	invalidateDailyCash(businessId, row.BusinessDate)
	created := row.toSale()
	return &created, nil
}

func (s *Store) CreatePurchaseBill(ctx context.Context, bill ledger.PurchaseBill) (*ledger.PurchaseBill, error) {
	db, businessId, err := s.scoped(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.checkPartyLink(ctx, ledger.PartyTypeSupplier, bill.SupplierId); err != nil {
		return nil, err
	}
	row := purchaseBillFrom(bill)
	row.BusinessId = businessId
	if err := db.Create(&row).Error; err != nil {
		return nil, err
	}
	created := row.toBill()
	return &created, nil
}

// CreatePayment stores a payment. A customer payment against an order, or a supplier payment
// against a purchase bill, is added to that document's paid amount in the same transaction;
// one that would overpay the document fails with ledger.ErrInvalidAmount. An unlinked
// settlement payment takes the document's party.
func (s *Store) CreatePayment(ctx context.Context, payment ledger.Payment) (*ledger.Payment, error) {
	db, businessId, err := s.scoped(ctx)
	if err != nil {
		return nil, err
	}
	if payment.PartyType.IsParty() {
		if err := s.checkPartyLink(ctx, payment.PartyType, payment.PartyId); err != nil {
			return nil, err
		}
	}
	row := paymentFrom(payment)
	row.BusinessId = businessId
	if err := ledger.CheckAmount(ledger.TransactionRef{Kind: ledger.TransactionKindPayment}, "amount", row.Amount); err != nil {
		return nil, err
	}

	var doc *settledDocument
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		doc, err = settleDocument(tx, businessId, row, row.Amount)
		if err != nil {
			return err
		}
		if doc != nil && doc.PartyId != nil {
			switch {
			case row.PartyId == nil:
				row.PartyId = doc.PartyId
			case *row.PartyId != *doc.PartyId:
				return fmt.Errorf("%w: %s belongs to party #%d, not #%d", ledger.ErrInapplicableTransaction, doc.Ref, *doc.PartyId, *row.PartyId)
			}
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, err
	}
	days := []string{row.BusinessDate}
	if doc != nil {
		days = append(days, doc.BusinessDate)
	}
	invalidateDailyCash(businessId, days...)
	created := row.toPayment()
	return &created, nil
}

func (s *Store) DeleteSalesOrder(ctx context.Context, id int) error {
	db, businessId, err := s.scoped(ctx)
	if err != nil {
		return err
	}
	var row SalesOrder
	if err := db.Where("business_id = ? AND id = ?", businessId, id).First(&row).Error; err != nil {
		return notFound(err)
	}
	if err := db.Delete(&row).Error; err != nil {
		return err
	}
	invalidateDailyCash(businessId, row.BusinessDate)
	return nil
}

// DeletePayment removes a payment and takes a settlement back off its document's paid amount.
func (s *Store) DeletePayment(ctx context.Context, id int) error {
	db, businessId, err := s.scoped(ctx)
	if err != nil {
		return err
	}
	var (
		row Payment
		doc *settledDocument
	)
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("business_id = ? AND id = ?", businessId, id).First(&row).Error; err != nil {
			return notFound(err)
		}
		var err error
		doc, err = settleDocument(tx, businessId, row, row.Amount.Neg())
		if err != nil && !errors.Is(err, utils.ErrorRecordNotFound) {
			return err
		}
		return tx.Delete(&row).Error
	})
	if err != nil {
		return err
	}
	days := []string{row.BusinessDate}
	if doc != nil {
		days = append(days, doc.BusinessDate)
	}
	invalidateDailyCash(businessId, days...)
	return nil
}

/* reconciliation */

func (s *Store) SaveReconciliationReports(ctx context.Context, rows []ReconciliationReport) error {
	if len(rows) == 0 {
		return nil
	}
	db, businessId, err := s.scoped(ctx)
	if err != nil {
		return err
	}
	for i := range rows {
		rows[i].BusinessId = businessId
	}
	return db.Create(&rows).Error
}

func (s *Store) ListReconciliationReports(ctx context.Context, checkType string) ([]ReconciliationReport, error) {
	db, businessId, err := s.scoped(ctx)
	if err != nil {
		return nil, err
	}
	var rows []ReconciliationReport
	if err := db.Where("business_id = ? AND check_type = ?", businessId, checkType).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
