package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xxz807/bizledger/internal/ledger/domain"
)

// GormSourceRepo 读取销售发票与采购订单发票
type GormSourceRepo struct {
	db *gorm.DB
}

func NewSourceRepo(db *gorm.DB) *GormSourceRepo {
	return &GormSourceRepo{db: db}
}

func (r *GormSourceRepo) CustomerName(ctx context.Context, customerID int64) (string, error) {
	var c customerRecord
	if err := r.db.WithContext(ctx).First(&c, customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", domain.Persist("resolve customer name", err)
	}
	return c.Name, nil
}

func (r *GormSourceRepo) ListInvoices(ctx context.Context, customerID int64, rng domain.DateRange) ([]domain.SourceInvoice, error) {
	q := r.db.WithContext(ctx).
		Preload("Items", orderByID).
		Where("customer_id = ?", customerID)
	q = withinRange(q, rng)

	var records []invoiceRecord
	if err := q.Order("bill_date ASC, id ASC").Find(&records).Error; err != nil {
		return nil, domain.Persist("list invoices", err)
	}

	out := make([]domain.SourceInvoice, 0, len(records))
	for _, rec := range records {
		// SQL 过滤对无法解析的日期不可靠，这里再按解析后的日期过滤一次
		if !rng.Contains(rec.BillDate.date) {
			continue
		}
		descs := make([]string, 0, len(rec.Items))
		lines := make([]lineFigures, 0, len(rec.Items))
		for _, it := range rec.Items {
			descs = append(descs, it.Description)
			lines = append(lines, lineFigures{it.Quantity.Decimal, it.Rate.Decimal})
		}
		mtr, rate := summarizeLines(lines)

		out = append(out, domain.SourceInvoice{
			ID:              rec.ID,
			Number:          rec.InvoiceNumber,
			Kind:            domain.RowInvoice,
			BillDate:        rec.BillDate.date,
			DueDate:         rec.DueDate.date,
			PaymentTermDays: rec.PaymentTermDays,
			Subtotal:        rec.Subtotal.Decimal,
			TaxRate:         rec.TaxRate.Decimal,
			TaxAmount:       rec.TaxAmount.Decimal,
			TotalAmount:     rec.TotalAmount.Decimal,
			Status:          rec.Status,
			Description:     joinDescriptions(descs),
			Mtr:             mtr,
			Rate:            rate,
		})
	}
	return out, nil
}

func (r *GormSourceRepo) ListPOInvoices(ctx context.Context, customerName string, rng domain.DateRange) ([]domain.SourceInvoice, error) {
	if customerName == "" {
		return nil, nil
	}

	q := r.db.WithContext(ctx).
		Preload("Items", orderByID).
		Preload("PurchaseOrder").
		Preload("PurchaseOrder.Items", orderByID).
		Where("customer_name = ?", customerName)
	q = withinRange(q, rng)

	var records []poInvoiceRecord
	if err := q.Order("bill_date ASC, id ASC").Find(&records).Error; err != nil {
		return nil, domain.Persist("list po invoices", err)
	}

	out := make([]domain.SourceInvoice, 0, len(records))
	for _, rec := range records {
		if !rng.Contains(rec.BillDate.date) {
			continue
		}
		desc, mtr, rate := describePOInvoice(rec)
		out = append(out, domain.SourceInvoice{
			ID:              rec.ID,
			Number:          rec.InvoiceNumber,
			Kind:            domain.RowPOInvoice,
			BillDate:        rec.BillDate.date,
			DueDate:         rec.DueDate.date,
			PaymentTermDays: rec.PaymentTermDays,
			Subtotal:        rec.Subtotal.Decimal,
			TaxRate:         rec.TaxRate.Decimal,
			TaxAmount:       rec.TaxAmount.Decimal,
			TotalAmount:     rec.TotalAmount.Decimal,
			Status:          rec.Status,
			Description:     desc,
			Mtr:             mtr,
			Rate:            rate,
		})
	}
	return out, nil
}

// describePOInvoice 描述回退链: PO 发票明细 -> 发票备注 -> 原采购订单明细
func describePOInvoice(rec poInvoiceRecord) (string, decimal.Decimal, decimal.Decimal) {
	lines := make([]lineFigures, 0, len(rec.Items))
	descs := make([]string, 0, len(rec.Items))
	for _, it := range rec.Items {
		descs = append(descs, it.Description)
		lines = append(lines, lineFigures{it.Quantity.Decimal, it.Rate.Decimal})
	}

	var poDescs []string
	var poLines []lineFigures
	if rec.PurchaseOrder != nil {
		for _, it := range rec.PurchaseOrder.Items {
			poDescs = append(poDescs, it.Description)
			poLines = append(poLines, lineFigures{it.Quantity.Decimal, it.Rate.Decimal})
		}
	}
	if len(lines) == 0 {
		lines = poLines
	}
	mtr, rate := summarizeLines(lines)

	if desc := joinDescriptions(descs); desc != "" {
		return desc, mtr, rate
	}
	if notes := strings.TrimSpace(rec.Notes); notes != "" {
		return notes, mtr, rate
	}
	return joinDescriptions(poDescs), mtr, rate
}

type lineFigures struct {
	quantity decimal.Decimal
	rate     decimal.Decimal
}

// summarizeLines 数量合计与首行单价
func summarizeLines(lines []lineFigures) (decimal.Decimal, decimal.Decimal) {
	mtr := decimal.Zero
	for _, l := range lines {
		mtr = mtr.Add(l.quantity)
	}
	if len(lines) == 0 {
		return mtr, decimal.Zero
	}
	return mtr, lines[0].rate
}

func joinDescriptions(descs []string) string {
	parts := make([]string, 0, len(descs))
	for _, d := range descs {
		if d = strings.TrimSpace(d); d != "" {
			parts = append(parts, d)
		}
	}
	return strings.Join(parts, ", ")
}

func withinRange(q *gorm.DB, rng domain.DateRange) *gorm.DB {
	if rng.From != nil {
		q = q.Where("bill_date >= ?", *rng.From)
	}
	if rng.To != nil {
		q = q.Where("bill_date <= ?", *rng.To)
	}
	return q
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
