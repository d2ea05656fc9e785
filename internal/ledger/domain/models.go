package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry 手工录入的台账分录
// 对应数据库表: ledger_entries
type LedgerEntry struct {
	ID               int64           `gorm:"primaryKey;autoIncrement"`
	CustomerID       int64           `gorm:"not null;index:idx_ledger_entries_customer_date,priority:1"`
	EntryDate        Date            `gorm:"type:date;not null;index:idx_ledger_entries_customer_date,priority:2"`
	Description      string          `gorm:"type:text"`
	BillNo           string          `gorm:"type:varchar(64)"`
	PaymentMode      string          `gorm:"type:varchar(32);not null;default:'Cash'"`
	ChequeNo         string          `gorm:"type:varchar(64)"`
	DebitAmount      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	CreditAmount     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	Balance          decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"` // 写入时的余额快照，读取时不重算
	Status           string          `gorm:"type:varchar(32);not null;default:'pending'"`
	DueDate          *Date           `gorm:"type:date"`
	HasMultipleItems bool            `gorm:"not null;default:false"`
	SalesTaxRate     decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0"`
	SalesTaxAmount   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	Sequence         decimal.Decimal `gorm:"type:decimal(10,1);not null;default:1"` // 同日排序键，.5 为税额行
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// 关联关系 (二选一，由 HasMultipleItems 决定)
	LineItems      []LedgerLineItem      `gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE"`
	SingleMaterial *LedgerSingleMaterial `gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// LedgerLineItem 多明细分录的明细行
// 对应数据库表: ledger_line_items
type LedgerLineItem struct {
	ID           int64           `gorm:"primaryKey;autoIncrement"`
	EntryID      int64           `gorm:"not null;index"`
	Description  string          `gorm:"type:text"`
	Quantity     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	Rate         decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	TaxRate      decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	TotalWithTax decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	ItemType     ItemType        `gorm:"type:varchar(32);not null;default:'material'"`
	LineSequence int             `gorm:"not null"`
}

func (LedgerLineItem) TableName() string {
	return "ledger_line_items"
}

// LedgerSingleMaterial 单一物料分录的物料行
// 对应数据库表: ledger_single_materials
type LedgerSingleMaterial struct {
	ID           int64           `gorm:"primaryKey;autoIncrement"`
	EntryID      int64           `gorm:"not null;uniqueIndex"`
	BillNo       string          `gorm:"type:varchar(64)"`
	Quantity     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	Rate         decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	TaxRate      decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	TotalWithTax decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
}

func (LedgerSingleMaterial) TableName() string {
	return "ledger_single_materials"
}

// SourceInvoice 归一化后的来源发票 (销售发票或采购订单发票)，只读
type SourceInvoice struct {
	ID              int64
	Number          string
	Kind            RowType // RowInvoice 或 RowPOInvoice
	BillDate        *Date
	DueDate         *Date
	PaymentTermDays int
	Subtotal        decimal.Decimal
	TaxRate         decimal.Decimal
	TaxAmount       decimal.Decimal
	TotalAmount     decimal.Decimal
	Status          string
	Description     string
	Mtr             decimal.Decimal // 明细数量合计
	Rate            decimal.Decimal // 代表单价
}

// LedgerRow 聚合视图中的一行，每次读取时重新计算，不落库
type LedgerRow struct {
	Date            *Date
	Particulars     string
	Description     string
	DueDate         *Date
	Debit           decimal.Decimal
	Credit          decimal.Decimal
	Balance         decimal.Decimal
	Days            int
	DaysOutstanding int
	Type            RowType
	Sequence        decimal.Decimal
	InvoiceID       int64
	Status          string
	Mtr             decimal.Decimal
	Rate            decimal.Decimal
}

// EntryFilter 分录列表过滤条件
type EntryFilter struct {
	Range  DateRange
	Status string
}

// EntryPatch 创建后允许修改的字段，nil 表示不修改
type EntryPatch struct {
	Description *string
	Status      *string
	DueDate     *Date
	PaymentMode *string
	ChequeNo    *string

	// ClearDueDate 清空到期日，优先于 DueDate
	ClearDueDate bool
}

// IsEmpty 没有任何待修改字段
func (p EntryPatch) IsEmpty() bool {
	return p.Description == nil && p.Status == nil && p.DueDate == nil &&
		p.PaymentMode == nil && p.ChequeNo == nil && !p.ClearDueDate
}

// EntrySummary 分录列表汇总
type EntrySummary struct {
	TotalDebit     decimal.Decimal
	TotalCredit    decimal.Decimal
	CurrentBalance decimal.Decimal
	TotalEntries   int
}
