package repo

import (
	"database/sql/driver"
	"math"

	"github.com/shopspring/decimal"

	"github.com/xxz807/bizledger/internal/ledger/domain"
)

// 以下为发票与采购订单表族的只读映射，表结构由业务系统维护

// amount 宽松金额: NULL 或无法解析的值一律按 0 处理，避免把 NaN 带进余额
type amount struct {
	decimal.Decimal
}

func (a *amount) Scan(src interface{}) error {
	if f, ok := src.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		a.Decimal = decimal.Zero
		return nil
	}
	var d decimal.NullDecimal
	if err := d.Scan(src); err != nil || !d.Valid {
		a.Decimal = decimal.Zero
		return nil
	}
	a.Decimal = d.Decimal
	return nil
}

func (a amount) Value() (driver.Value, error) {
	return a.Decimal.String(), nil
}

// sourceDate 宽松日期: NULL 或无法解析的值视为缺失日期，单行脏数据不影响整张台账
type sourceDate struct {
	date *domain.Date
}

func (s *sourceDate) Scan(src interface{}) error {
	var d domain.Date
	if src == nil || d.Scan(src) != nil || d.IsZero() {
		s.date = nil
		return nil
	}
	s.date = &d
	return nil
}

func (s sourceDate) Value() (driver.Value, error) {
	if s.date == nil {
		return nil, nil
	}
	return s.date.Value()
}

type customerRecord struct {
	ID   int64  `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"type:varchar(200);not null;index"`
}

func (customerRecord) TableName() string { return "customers" }

type invoiceRecord struct {
	ID              int64        `gorm:"primaryKey;autoIncrement"`
	InvoiceNumber   string       `gorm:"type:varchar(64)"`
	CustomerID      int64        `gorm:"not null;index"`
	BillDate        sourceDate   `gorm:"type:date;index"`
	DueDate         sourceDate   `gorm:"type:date"`
	PaymentTermDays int          `gorm:"not null;default:0"`
	Subtotal        amount       `gorm:"type:decimal(20,4)"`
	TaxRate         amount       `gorm:"type:decimal(10,4)"`
	TaxAmount       amount       `gorm:"type:decimal(20,4)"`
	TotalAmount     amount       `gorm:"type:decimal(20,4)"`
	Status          string       `gorm:"type:varchar(32)"`

	Items []invoiceItemRecord `gorm:"foreignKey:InvoiceID"`
}

func (invoiceRecord) TableName() string { return "invoices" }

type invoiceItemRecord struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	InvoiceID   int64  `gorm:"not null;index"`
	Description string `gorm:"type:text"`
	Quantity    amount `gorm:"type:decimal(20,4)"`
	Rate        amount `gorm:"type:decimal(20,4)"`
}

func (invoiceItemRecord) TableName() string { return "invoice_items" }

type poInvoiceRecord struct {
	ID              int64        `gorm:"primaryKey;autoIncrement"`
	InvoiceNumber   string       `gorm:"type:varchar(64)"`
	CustomerName    string       `gorm:"type:varchar(200);not null;index"`
	PurchaseOrderID *int64       `gorm:"index"`
	BillDate        sourceDate   `gorm:"type:date;index"`
	DueDate         sourceDate   `gorm:"type:date"`
	PaymentTermDays int          `gorm:"not null;default:0"`
	Subtotal        amount       `gorm:"type:decimal(20,4)"`
	TaxRate         amount       `gorm:"type:decimal(10,4)"`
	TaxAmount       amount       `gorm:"type:decimal(20,4)"`
	TotalAmount     amount       `gorm:"type:decimal(20,4)"`
	Status          string       `gorm:"type:varchar(32)"`
	Notes           string       `gorm:"type:text"`

	Items         []poInvoiceItemRecord `gorm:"foreignKey:POInvoiceID"`
	PurchaseOrder *purchaseOrderRecord  `gorm:"foreignKey:PurchaseOrderID"`
}

func (poInvoiceRecord) TableName() string { return "po_invoices" }

type poInvoiceItemRecord struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	POInvoiceID int64  `gorm:"column:po_invoice_id;not null;index"`
	Description string `gorm:"type:text"`
	Quantity    amount `gorm:"type:decimal(20,4)"`
	Rate        amount `gorm:"type:decimal(20,4)"`
}

func (poInvoiceItemRecord) TableName() string { return "po_invoice_items" }

type purchaseOrderRecord struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	PONumber     string `gorm:"column:po_number;type:varchar(64)"`
	CustomerName string `gorm:"type:varchar(200);index"`

	Items []purchaseOrderItemRecord `gorm:"foreignKey:PurchaseOrderID"`
}

func (purchaseOrderRecord) TableName() string { return "purchase_orders" }

type purchaseOrderItemRecord struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	PurchaseOrderID int64  `gorm:"not null;index"`
	Description     string `gorm:"type:text"`
	Quantity        amount `gorm:"type:decimal(20,4)"`
	Rate            amount `gorm:"type:decimal(20,4)"`
}

func (purchaseOrderItemRecord) TableName() string { return "purchase_order_items" }
