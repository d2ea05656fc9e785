package repo

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xxz807/bizledger/internal/ledger/domain"
)

// GormEntryRepo 手工分录仓储，Postgres 与 SQLite 共用同一套 GORM 查询
type GormEntryRepo struct {
	db *gorm.DB
}

func NewEntryRepo(db *gorm.DB) *GormEntryRepo {
	return &GormEntryRepo{db: db}
}

type amountPair struct {
	DebitAmount  decimal.Decimal
	CreditAmount decimal.Decimal
}

func (r *GormEntryRepo) SumBalance(ctx context.Context, tx *gorm.DB, customerID int64) (decimal.Decimal, error) {
	// 不用 SQL SUM：SQLite 会把 decimal 列聚合成 float，这里在内存里用 decimal 累加
	var pairs []amountPair
	err := tx.WithContext(ctx).Model(&domain.LedgerEntry{}).
		Select("debit_amount, credit_amount").
		Where("customer_id = ?", customerID).
		Scan(&pairs).Error
	if err != nil {
		return decimal.Zero, domain.Persist("sum balance", err)
	}

	sum := decimal.Zero
	for _, p := range pairs {
		sum = domain.Accumulate(sum, p.DebitAmount, p.CreditAmount)
	}
	return sum, nil
}

func (r *GormEntryRepo) SequencesOn(ctx context.Context, tx *gorm.DB, customerID int64, date domain.Date) ([]decimal.Decimal, error) {
	var rows []struct {
		Sequence decimal.Decimal
	}
	err := tx.WithContext(ctx).Model(&domain.LedgerEntry{}).
		Select("sequence").
		Where("customer_id = ? AND entry_date = ?", customerID, date).
		Scan(&rows).Error
	if err != nil {
		return nil, domain.Persist("load sequences", err)
	}

	seqs := make([]decimal.Decimal, len(rows))
	for i, row := range rows {
		seqs[i] = row.Sequence
	}
	return seqs, nil
}

func (r *GormEntryRepo) Create(ctx context.Context, tx *gorm.DB, entry *domain.LedgerEntry) error {
	// GORM 会自动处理 LedgerEntry -> LineItems / SingleMaterial 的关联插入
	return domain.Persist("insert entry", tx.WithContext(ctx).Create(entry).Error)
}

func (r *GormEntryRepo) Lookup(ctx context.Context, tx *gorm.DB, id int64) (*domain.LedgerEntry, error) {
	var entry domain.LedgerEntry
	if err := tx.WithContext(ctx).First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.Persist("lookup entry", err)
	}
	return &entry, nil
}

func (r *GormEntryRepo) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
	db := tx.WithContext(ctx)

	// 显式删除明细，不依赖数据库是否开启外键级联
	if err := db.Where("entry_id = ?", id).Delete(&domain.LedgerLineItem{}).Error; err != nil {
		return domain.Persist("delete line items", err)
	}
	if err := db.Where("entry_id = ?", id).Delete(&domain.LedgerSingleMaterial{}).Error; err != nil {
		return domain.Persist("delete single material", err)
	}

	result := db.Delete(&domain.LedgerEntry{}, id)
	if result.Error != nil {
		return domain.Persist("delete entry", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormEntryRepo) ListChronological(ctx context.Context, tx *gorm.DB, customerID int64) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	err := tx.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("entry_date ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, domain.Persist("list chronological", err)
	}
	return entries, nil
}

func (r *GormEntryRepo) UpdateBalance(ctx context.Context, tx *gorm.DB, id int64, balance decimal.Decimal) error {
	// 注意：必须使用传入的 tx (事务会话)，而不是 r.db
	result := tx.WithContext(ctx).Model(&domain.LedgerEntry{}).
		Where("id = ?", id).
		Update("balance", balance)
	if result.Error != nil {
		return domain.Persist("update balance", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormEntryRepo) UpdateDetails(ctx context.Context, tx *gorm.DB, id int64, patch domain.EntryPatch) error {
	fields := map[string]interface{}{}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Status != nil {
		fields["status"] = *patch.Status
	}
	if patch.ClearDueDate {
		fields["due_date"] = nil
	} else if patch.DueDate != nil {
		fields["due_date"] = *patch.DueDate
	}
	if patch.PaymentMode != nil {
		fields["payment_mode"] = *patch.PaymentMode
	}
	if patch.ChequeNo != nil {
		fields["cheque_no"] = *patch.ChequeNo
	}
	if len(fields) == 0 {
		return nil
	}

	result := tx.WithContext(ctx).Model(&domain.LedgerEntry{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return domain.Persist("update entry", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormEntryRepo) FindByID(ctx context.Context, id int64) (*domain.LedgerEntry, error) {
	var entry domain.LedgerEntry
	err := r.db.WithContext(ctx).
		Preload("LineItems", orderLines).
		Preload("SingleMaterial").
		First(&entry, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.Persist("find entry", err)
	}
	return &entry, nil
}

func (r *GormEntryRepo) List(ctx context.Context, customerID int64, filter domain.EntryFilter) ([]domain.LedgerEntry, error) {
	q := r.db.WithContext(ctx).
		Preload("LineItems", orderLines).
		Where("customer_id = ?", customerID)

	if filter.Range.From != nil {
		q = q.Where("entry_date >= ?", *filter.Range.From)
	}
	if filter.Range.To != nil {
		q = q.Where("entry_date <= ?", *filter.Range.To)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var entries []domain.LedgerEntry
	if err := q.Order("entry_date DESC, sequence ASC").Find(&entries).Error; err != nil {
		return nil, domain.Persist("list entries", err)
	}
	return entries, nil
}

func orderLines(db *gorm.DB) *gorm.DB {
	return db.Order("line_sequence ASC")
}
