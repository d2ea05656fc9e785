package domain

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EntryRepository 手工分录仓储接口
// 这是一个 Port (端口)，写路径上的方法接收事务会话 tx
type EntryRepository interface {
	// SumBalance 客户全部既有分录的 debit - credit 合计 (不按日期过滤)
	SumBalance(ctx context.Context, tx *gorm.DB, customerID int64) (decimal.Decimal, error)

	// SequencesOn 客户在某一天已有分录的序号
	SequencesOn(ctx context.Context, tx *gorm.DB, customerID int64, date Date) ([]decimal.Decimal, error)

	// Create 保存分录主表及其明细 (在同一事务中)
	Create(ctx context.Context, tx *gorm.DB, entry *LedgerEntry) error

	// Lookup 在事务内按 ID 查询分录 (不加载明细)
	Lookup(ctx context.Context, tx *gorm.DB, id int64) (*LedgerEntry, error)

	// Delete 删除分录并级联删除明细
	Delete(ctx context.Context, tx *gorm.DB, id int64) error

	// ListChronological 客户全部分录，按 (entry_date, id) 升序
	ListChronological(ctx context.Context, tx *gorm.DB, customerID int64) ([]LedgerEntry, error)

	// UpdateBalance 覆盖单条分录的余额快照
	UpdateBalance(ctx context.Context, tx *gorm.DB, id int64, balance decimal.Decimal) error

	// UpdateDetails 只修改描述类字段
	UpdateDetails(ctx context.Context, tx *gorm.DB, id int64, patch EntryPatch) error

	// FindByID 按 ID 查询分录并加载明细
	FindByID(ctx context.Context, id int64) (*LedgerEntry, error)

	// List 客户分录列表，按 entry_date 降序、sequence 升序
	List(ctx context.Context, customerID int64, filter EntryFilter) ([]LedgerEntry, error)
}

// SourceRepository 来源发票的只读仓储
type SourceRepository interface {
	// CustomerName 客户 ID 解析为名称，未找到时返回空串
	CustomerName(ctx context.Context, customerID int64) (string, error)

	// ListInvoices 按客户 ID 查询销售发票
	ListInvoices(ctx context.Context, customerID int64, r DateRange) ([]SourceInvoice, error)

	// ListPOInvoices 按客户名称查询采购订单发票
	ListPOInvoices(ctx context.Context, customerName string, r DateRange) ([]SourceInvoice, error)
}
