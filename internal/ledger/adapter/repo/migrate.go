package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/xxz807/bizledger/internal/ledger/domain"
)

// Migrate 建表: 手工分录表族 + 发票/采购订单只读表族
func Migrate(ctx context.Context, db *gorm.DB) error {
	err := db.WithContext(ctx).AutoMigrate(
		&domain.LedgerEntry{},
		&domain.LedgerLineItem{},
		&domain.LedgerSingleMaterial{},
		&customerRecord{},
		&invoiceRecord{},
		&invoiceItemRecord{},
		&purchaseOrderRecord{},
		&purchaseOrderItemRecord{},
		&poInvoiceRecord{},
		&poInvoiceItemRecord{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
