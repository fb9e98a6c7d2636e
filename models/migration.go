package models

import "gorm.io/gorm"

func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&Customer{}, &Supplier{},
		&SalesOrder{},
		&PurchaseBill{}, &PurchaseBillItem{},
		&Payment{},
		&DailySummary{},
		&ReconciliationReport{},
	)
}
