package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xxz807/bizledger/internal/ledger/domain"
	"github.com/xxz807/bizledger/internal/platform/metrics"
)

// CreateEntryRequest 定义创建分录的输入 (Input)
type CreateEntryRequest struct {
	CustomerID   int64
	EntryDate    *domain.Date
	Description  string
	BillNo       string
	PaymentMode  string
	ChequeNo     string
	DebitAmount  decimal.Decimal
	CreditAmount decimal.Decimal
	DueDate      *domain.Date
	Status       string

	SalesTaxRate   decimal.Decimal
	SalesTaxAmount decimal.Decimal

	// UseLineItems 为 true 时使用 LineItems，否则按 Quantity/Rate 生成单一物料行
	UseLineItems bool
	LineItems    []LineItemRequest
	Quantity     decimal.Decimal
	Rate         decimal.Decimal
}

type LineItemRequest struct {
	Description string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
	TaxRate     decimal.Decimal
	ItemType    domain.ItemType
}

// CreateEntryResult 创建结果，TaxEntry 仅在有销售税时存在
type CreateEntryResult struct {
	Entry     *domain.LedgerEntry
	LineItems []domain.LedgerLineItem
	TaxEntry  *domain.LedgerEntry
}

// EntryService 手工分录核心服务
type EntryService struct {
	db      *gorm.DB // 用于开启事务
	entries domain.EntryRepository
	locks   *customerLocks
	logger  *zap.Logger
}

func NewEntryService(db *gorm.DB, entries domain.EntryRepository, logger *zap.Logger) *EntryService {
	return &EntryService{
		db:      db,
		entries: entries,
		locks:   newCustomerLocks(),
		logger:  logger.Named("entry_service"),
	}
}

// Create 创建分录 (ACID Transaction Script)
func (s *EntryService) Create(ctx context.Context, req CreateEntryRequest) (result *CreateEntryResult, err error) {
	defer func() { metrics.ObserveWrite("create", err) }()

	// 1. 基础校验，失败时不开事务
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(req.CustomerID)
	defer unlock()

	result = &CreateEntryResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// A. 历史余额：客户全部既有分录，不限日期
		previous, err := s.entries.SumBalance(ctx, tx, req.CustomerID)
		if err != nil {
			return err
		}
		balance := domain.Accumulate(previous, req.DebitAmount, req.CreditAmount)
		if err := domain.CheckBalance(balance); err != nil {
			return err
		}

		// B. 同客户同日期的序号
		seqs, err := s.entries.SequencesOn(ctx, tx, req.CustomerID, *req.EntryDate)
		if err != nil {
			return err
		}
		sequence := domain.NextSequence(seqs)

		// C. 主分录 + 明细
		entry := buildEntry(req, balance, sequence)
		if err := s.entries.Create(ctx, tx, entry); err != nil {
			return err
		}
		result.Entry = entry
		result.LineItems = entry.LineItems

		// D. 销售税单独成行，紧跟主分录
		if domain.HasTax(req.SalesTaxAmount) {
			taxBalance := domain.Accumulate(balance, req.SalesTaxAmount, decimal.Zero)
			if err := domain.CheckBalance(taxBalance); err != nil {
				return err
			}
			taxEntry := buildTaxEntry(req, taxBalance, domain.TaxSequence(sequence))
			if err := s.entries.Create(ctx, tx, taxEntry); err != nil {
				return err
			}
			result.TaxEntry = taxEntry
		}
		return nil
	})
	if err != nil {
		// 如果失败，Transaction 已经回滚整个事务
		s.logger.Warn("create entry failed", zap.Int64("customer_id", req.CustomerID), zap.Error(err))
		return nil, err
	}

	fields := []zap.Field{
		zap.Int64("customer_id", req.CustomerID),
		zap.Int64("entry_id", result.Entry.ID),
		zap.String("balance", result.Entry.Balance.String()),
	}
	if result.TaxEntry != nil {
		fields = append(fields, zap.Int64("tax_entry_id", result.TaxEntry.ID))
	}
	s.logger.Info("entry created", fields...)
	return result, nil
}

func validateCreate(req CreateEntryRequest) error {
	if req.CustomerID <= 0 {
		return domain.NewValidationError("customerId", "is required")
	}
	if req.EntryDate == nil || req.EntryDate.IsZero() {
		return domain.NewValidationError("entryDate", "is required")
	}
	// 按入库精度判断，0.001 这类金额入库后为 0
	if domain.RoundMoney(req.DebitAmount).IsZero() && domain.RoundMoney(req.CreditAmount).IsZero() {
		return domain.NewValidationError("debitAmount", "debit or credit amount is required")
	}
	if req.DebitAmount.IsNegative() {
		return domain.NewValidationError("debitAmount", "must not be negative")
	}
	if req.CreditAmount.IsNegative() {
		return domain.NewValidationError("creditAmount", "must not be negative")
	}
	if req.SalesTaxAmount.IsNegative() {
		return domain.NewValidationError("salesTaxAmount", "must not be negative")
	}
	if req.UseLineItems && len(req.LineItems) == 0 {
		return domain.NewValidationError("lineItems", "at least one line item is required when useLineItems is set")
	}
	return nil
}

func buildEntry(req CreateEntryRequest, balance, sequence decimal.Decimal) *domain.LedgerEntry {
	entry := &domain.LedgerEntry{
		CustomerID:       req.CustomerID,
		EntryDate:        *req.EntryDate,
		Description:      req.Description,
		BillNo:           req.BillNo,
		PaymentMode:      orDefault(req.PaymentMode, domain.DefaultPaymentMode),
		ChequeNo:         req.ChequeNo,
		DebitAmount:      domain.RoundMoney(req.DebitAmount),
		CreditAmount:     domain.RoundMoney(req.CreditAmount),
		Balance:          domain.RoundMoney(balance),
		Status:           orDefault(req.Status, domain.DefaultEntryStatus),
		DueDate:          req.DueDate,
		HasMultipleItems: req.UseLineItems,
		SalesTaxRate:     req.SalesTaxRate,
		SalesTaxAmount:   domain.RoundMoney(req.SalesTaxAmount),
		Sequence:         sequence,
	}

	// 明细二选一：多明细 或 单一物料
	if req.UseLineItems {
		entry.LineItems = make([]domain.LedgerLineItem, len(req.LineItems))
		for i, item := range req.LineItems {
			amount, total := domain.LineAmounts(item.Quantity, item.Rate, item.TaxRate)
			entry.LineItems[i] = domain.LedgerLineItem{
				Description:  item.Description,
				Quantity:     item.Quantity,
				Rate:         item.Rate,
				TaxRate:      item.TaxRate,
				Amount:       amount,
				TotalWithTax: total,
				ItemType:     domain.ItemType(orDefault(string(item.ItemType), string(domain.ItemMaterial))),
				LineSequence: i + 1,
			}
		}
	} else if !req.Quantity.IsZero() || !req.Rate.IsZero() {
		amount, total := domain.LineAmounts(req.Quantity, req.Rate, req.SalesTaxRate)
		entry.SingleMaterial = &domain.LedgerSingleMaterial{
			BillNo:       req.BillNo,
			Quantity:     req.Quantity,
			Rate:         req.Rate,
			TaxRate:      req.SalesTaxRate,
			Amount:       amount,
			TotalWithTax: total,
		}
	}
	return entry
}

func buildTaxEntry(req CreateEntryRequest, balance, sequence decimal.Decimal) *domain.LedgerEntry {
	return &domain.LedgerEntry{
		CustomerID:   req.CustomerID,
		EntryDate:    *req.EntryDate,
		Description:  domain.EntryTaxDescription(req.SalesTaxRate, req.Description, req.BillNo),
		BillNo:       req.BillNo,
		PaymentMode:  orDefault(req.PaymentMode, domain.DefaultPaymentMode),
		ChequeNo:     req.ChequeNo,
		DebitAmount:  domain.RoundMoney(req.SalesTaxAmount),
		CreditAmount: decimal.Zero,
		Balance:      domain.RoundMoney(balance),
		Status:       orDefault(req.Status, domain.DefaultEntryStatus),
		DueDate:      req.DueDate,
		SalesTaxRate: req.SalesTaxRate,
		Sequence:     sequence,
	}
}

// List 客户分录列表及汇总
func (s *EntryService) List(ctx context.Context, customerID int64, filter domain.EntryFilter) ([]domain.LedgerEntry, domain.EntrySummary, error) {
	if customerID <= 0 {
		return nil, domain.EntrySummary{}, domain.NewValidationError("customerId", "is required")
	}

	entries, err := s.entries.List(ctx, customerID, filter)
	if err != nil {
		return nil, domain.EntrySummary{}, err
	}
	return entries, summarize(entries), nil
}

// summarize 合计借贷，当前余额取 (date, sequence) 最大的分录
func summarize(entries []domain.LedgerEntry) domain.EntrySummary {
	summary := domain.EntrySummary{
		TotalDebit:     decimal.Zero,
		TotalCredit:    decimal.Zero,
		CurrentBalance: decimal.Zero,
		TotalEntries:   len(entries),
	}

	var latest *domain.LedgerEntry
	for i := range entries {
		e := &entries[i]
		summary.TotalDebit = summary.TotalDebit.Add(e.DebitAmount)
		summary.TotalCredit = summary.TotalCredit.Add(e.CreditAmount)
		if latest == nil || e.EntryDate.After(latest.EntryDate) ||
			(e.EntryDate.Equal(latest.EntryDate) && e.Sequence.GreaterThan(latest.Sequence)) {
			latest = e
		}
	}
	if latest != nil {
		summary.CurrentBalance = latest.Balance
	}
	return summary
}

// Get 按 ID 查询分录
func (s *EntryService) Get(ctx context.Context, id int64) (*domain.LedgerEntry, error) {
	if id <= 0 {
		return nil, domain.ErrNotFound
	}
	return s.entries.FindByID(ctx, id)
}

// Update 只允许修改描述、状态、到期日、付款方式、支票号；金额与余额创建后不可变
func (s *EntryService) Update(ctx context.Context, id int64, patch domain.EntryPatch) (entry *domain.LedgerEntry, err error) {
	defer func() { metrics.ObserveWrite("update", err) }()

	if id <= 0 {
		return nil, domain.ErrNotFound
	}
	if patch.PaymentMode != nil && strings.TrimSpace(*patch.PaymentMode) == "" {
		return nil, domain.NewValidationError("paymentMode", "must not be empty")
	}
	if patch.Status != nil && strings.TrimSpace(*patch.Status) == "" {
		return nil, domain.NewValidationError("status", "must not be empty")
	}

	if patch.IsEmpty() {
		return s.entries.FindByID(ctx, id)
	}
	if err := s.entries.UpdateDetails(ctx, s.db, id, patch); err != nil {
		return nil, err
	}

	s.logger.Info("entry updated", zap.Int64("entry_id", id))
	return s.entries.FindByID(ctx, id)
}

// Delete 删除分录，并在同一事务中重算该客户之后所有分录的余额
func (s *EntryService) Delete(ctx context.Context, id int64) (err error) {
	defer func() { metrics.ObserveWrite("delete", err) }()

	if id <= 0 {
		return domain.ErrNotFound
	}

	// 先确定客户，再按客户加锁
	target, err := s.entries.Lookup(ctx, s.db, id)
	if err != nil {
		return err
	}
	unlock := s.locks.Lock(target.CustomerID)
	defer unlock()

	recomputed := 0
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// A. 加锁后重新确认分录仍然存在
		deleted, err := s.entries.Lookup(ctx, tx, id)
		if err != nil {
			return err
		}

		// B. 删除分录 (级联删除明细)
		if err := s.entries.Delete(ctx, tx, id); err != nil {
			return err
		}

		// C. 重算 (date, id) 排在被删分录之后的所有余额
		remaining, err := s.entries.ListChronological(ctx, tx, deleted.CustomerID)
		if err != nil {
			return err
		}
		running := decimal.Zero
		for _, e := range remaining {
			running = domain.Accumulate(running, e.DebitAmount, e.CreditAmount)
			if !after(e, deleted) {
				continue
			}
			if err := domain.CheckBalance(running); err != nil {
				return err
			}
			if err := s.entries.UpdateBalance(ctx, tx, e.ID, domain.RoundMoney(running)); err != nil {
				return err
			}
			recomputed++
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("delete entry failed", zap.Int64("entry_id", id), zap.Error(err))
		return err
	}

	metrics.BalancesRecomputed.Add(float64(recomputed))
	s.logger.Info("entry deleted",
		zap.Int64("entry_id", id),
		zap.Int64("customer_id", target.CustomerID),
		zap.Int("balances_recomputed", recomputed),
	)
	return nil
}

// after 判断 e 是否在 ref 之后: date 更晚，或同日且 id 更大
func after(e domain.LedgerEntry, ref *domain.LedgerEntry) bool {
	if e.EntryDate.After(ref.EntryDate) {
		return true
	}
	return e.EntryDate.Equal(ref.EntryDate) && e.ID > ref.ID
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
