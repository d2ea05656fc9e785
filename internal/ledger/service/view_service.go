package service

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xxz807/bizledger/internal/ledger/domain"
	"github.com/xxz807/bizledger/internal/platform/metrics"
)

// ViewService 只读的客户台账聚合：销售发票 + 采购订单发票，拆税、排序、累计余额
type ViewService struct {
	sources domain.SourceRepository
	logger  *zap.Logger
	now     func() time.Time
}

func NewViewService(sources domain.SourceRepository, logger *zap.Logger) *ViewService {
	return &ViewService{
		sources: sources,
		logger:  logger.Named("view_service"),
		now:     time.Now,
	}
}

// CustomerLedger 生成客户台账，不落库，可重复调用
func (s *ViewService) CustomerLedger(ctx context.Context, customerID int64, rng domain.DateRange) ([]domain.LedgerRow, error) {
	if customerID <= 0 {
		return nil, domain.NewValidationError("customerId", "is required")
	}

	// 1. 销售发票按客户 ID 查询
	invoices, err := s.sources.ListInvoices(ctx, customerID, rng)
	if err != nil {
		return nil, err
	}

	// 2. 采购订单发票按客户名称查询 (ID -> 名称 -> PO 发票)，名称解析不到视为空集
	name, err := s.sources.CustomerName(ctx, customerID)
	if err != nil {
		return nil, err
	}
	var poInvoices []domain.SourceInvoice
	if name == "" {
		s.logger.Warn("customer name not resolved, po invoices skipped", zap.Int64("customer_id", customerID))
	} else {
		poInvoices, err = s.sources.ListPOInvoices(ctx, name, rng)
		if err != nil {
			return nil, err
		}
	}

	// 3. 按抓取顺序分配序号 (两个来源共用计数器)，拆出税额行
	rows := make([]domain.LedgerRow, 0, 2*(len(invoices)+len(poInvoices)))
	counter := 0
	for _, batch := range [][]domain.SourceInvoice{invoices, poInvoices} {
		for _, inv := range batch {
			if !rng.Contains(inv.BillDate) {
				continue
			}
			counter++
			rows = append(rows, splitInvoice(inv, counter)...)
		}
	}

	// 4. 排序并累计余额
	domain.SortRows(rows)
	domain.ApplyRunningBalance(rows, s.now())

	metrics.AggregatedRows.Observe(float64(len(rows)))
	s.logger.Debug("customer ledger aggregated",
		zap.Int64("customer_id", customerID),
		zap.Int("invoices", len(invoices)),
		zap.Int("po_invoices", len(poInvoices)),
		zap.Int("rows", len(rows)),
	)
	return rows, nil
}

// splitInvoice 主行记不含税金额，有税额时紧跟一行税额行
func splitInvoice(inv domain.SourceInvoice, seq int) []domain.LedgerRow {
	sequence := decimal.NewFromInt(int64(seq))
	main := domain.LedgerRow{
		Date:            inv.BillDate,
		Particulars:     invoiceRef(inv),
		Description:     inv.Description,
		DueDate:         inv.DueDate,
		Debit:           domain.ProductAmount(inv.Subtotal, inv.TaxAmount, inv.TotalAmount),
		Credit:          decimal.Zero,
		DaysOutstanding: inv.PaymentTermDays,
		Type:            inv.Kind,
		Sequence:        sequence,
		InvoiceID:       inv.ID,
		Status:          inv.Status,
		Mtr:             inv.Mtr,
		Rate:            inv.Rate,
	}
	if !domain.HasTax(inv.TaxAmount) {
		return []domain.LedgerRow{main}
	}

	tax := domain.LedgerRow{
		Date:            inv.BillDate,
		Particulars:     domain.TaxParticulars(invoiceRef(inv)),
		Description:     domain.TaxDescription(inv.TaxRate),
		DueDate:         inv.DueDate,
		Debit:           inv.TaxAmount,
		Credit:          decimal.Zero,
		DaysOutstanding: inv.PaymentTermDays,
		Type:            inv.Kind.TaxType(),
		Sequence:        domain.TaxSequence(sequence),
		InvoiceID:       inv.ID,
		Status:          inv.Status,
		Mtr:             decimal.Zero,
		Rate:            decimal.Zero,
	}
	return []domain.LedgerRow{main, tax}
}

func invoiceRef(inv domain.SourceInvoice) string {
	if inv.Number != "" {
		return inv.Number
	}
	return strconv.FormatInt(inv.ID, 10)
}
