package reports

import (
	"bytes"
	"fmt"

	"github.com/mmdatafocus/shop_ledger/ledger"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// money cells are written as fixed two-place strings so no float rounding leaks into the sheet
func money(d decimal.Decimal) string {
	return d.StringFixed(ledger.MoneyPlaces)
}

func writeSheet(f *excelize.File, sheetName string, headings []string, rows [][]interface{}) error {
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}
	for i, h := range headings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func newWorkbook(sheetName string, headings []string, rows [][]interface{}) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := writeSheet(f, sheetName, headings, rows); err != nil {
		f.Close()
		return nil, err
	}
	if idx, err := f.GetSheetIndex(sheetName); err == nil {
		f.SetActiveSheet(idx)
	}
	// excelize always starts with Sheet1
	if sheetName != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}
	return f, nil
}

func ExportPartyLedgerExcel(l *ledger.Ledger) (*excelize.File, error) {
	rows := make([][]interface{}, 0, len(l.Entries)+1)
	for _, e := range l.Entries {
		ref := ""
		if !e.Ref.IsZero() {
			ref = e.Ref.String()
		}
		rows = append(rows, []interface{}{
			e.Date.Format(ledger.DayLayout), ref, e.Number, e.Description, money(e.Debit), money(e.Credit), money(e.Balance),
		})
	}
	rows = append(rows, []interface{}{"", "", "", "Total", money(l.TotalDebit), money(l.TotalCredit), money(l.Balance)})
	return newWorkbook("Ledger", []string{"Date", "Reference", "Number", "Description", "Debit", "Credit", "Balance"}, rows)
}

func ExportDailyCashExcel(r *DailyCashReport) (*excelize.File, error) {
	c := r.DailyCash
	line := func(label string, t ledger.Tally) []interface{} {
		return []interface{}{label, t.Count, money(t.Amount)}
	}
	rows := [][]interface{}{
		{"Opening balance", "", money(c.OpeningBalance)},
		line("Orders", c.Orders),
		line("Paid orders", c.PaidOrders),
		line("Partial orders", c.PartialOrders),
		line("Unpaid orders", c.UnpaidOrders),
		line("Cash sales", c.CashSales),
		line("Credit sales", c.CreditSales),
		line("Total business done", c.TotalBusinessDone),
		line("Customer receipts", c.CustomerReceipts),
		line("Order linked receipts", c.OrderLinkedReceipts),
		line("Supplier payments", c.SupplierPayments),
		line("Expenses", c.Expenses),
		line("Overlapping receipts", c.OverlapTotal),
		{"Net cash flow today", "", money(c.NetCashFlowToday)},
		{"Expected cash", "", money(c.ExpectedCash)},
	}
	return newWorkbook(fmt.Sprintf("Cash %s", c.Day), []string{"Line", "Count", "Amount"}, rows)
}

func ExportOutstandingExcel(r *OutstandingReport) (*excelize.File, error) {
	rows := make([][]interface{}, 0, len(r.Balances)+4)
	for _, b := range r.Balances {
		rows = append(rows, []interface{}{string(b.PartyType), b.PartyId, b.Name, money(b.Balance)})
	}
	rows = append(rows,
		[]interface{}{"", "", "Total receivable", money(r.TotalReceivable)},
		[]interface{}{"", "", "Total payable", money(r.TotalPayable)},
		[]interface{}{"", "", "Total advance", money(r.TotalAdvance)},
		[]interface{}{"", "", "Net position", money(r.NetPosition)},
	)
	return newWorkbook("Outstanding", []string{"Type", "Party Id", "Name", "Balance"}, rows)
}

// WorkbookBytes serializes f as xlsx.
func WorkbookBytes(f *excelize.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
