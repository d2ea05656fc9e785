package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xxz807/bizledger/internal/ledger/domain"
)

// CreateEntryReq 对应前端发来的 JSON
// 金额既可以传数字也可以传字符串，decimal 负责解析
type CreateEntryReq struct {
	CustomerID     int64            `json:"customerId" binding:"required,gt=0"`
	EntryDate      string           `json:"entryDate" binding:"required"`
	Description    string           `json:"description"`
	BillNo         string           `json:"billNo"`
	PaymentMode    string           `json:"paymentMode"`
	ChequeNo       string           `json:"chequeNo"`
	DebitAmount    *decimal.Decimal `json:"debitAmount"`
	CreditAmount   *decimal.Decimal `json:"creditAmount"`
	DueDate        string           `json:"dueDate"`
	Status         string           `json:"status"`
	SalesTaxRate   *decimal.Decimal `json:"salesTaxRate"`
	SalesTaxAmount *decimal.Decimal `json:"salesTaxAmount"`
	UseLineItems   bool             `json:"useLineItems"`
	LineItems      []LineItemReq    `json:"lineItems" binding:"dive"`
	Quantity       *decimal.Decimal `json:"quantity"`
	Rate           *decimal.Decimal `json:"rate"`
}

type LineItemReq struct {
	Description string           `json:"description"`
	Quantity    *decimal.Decimal `json:"quantity"`
	Rate        *decimal.Decimal `json:"rate"`
	TaxRate     *decimal.Decimal `json:"taxRate"`
	ItemType    string           `json:"itemType" binding:"omitempty,oneof=material service"`
}

// UpdateEntryReq 只包含创建后可修改的字段
type UpdateEntryReq struct {
	Description *string `json:"description"`
	Status      *string `json:"status"`
	DueDate     *string `json:"dueDate"`
	PaymentMode *string `json:"paymentMode"`
	ChequeNo    *string `json:"chequeNo"`
}

type LineItemResp struct {
	ID           int64   `json:"id"`
	EntryID      int64   `json:"entryId"`
	Description  string  `json:"description"`
	Quantity     float64 `json:"quantity"`
	Rate         float64 `json:"rate"`
	TaxRate      float64 `json:"taxRate"`
	Amount       float64 `json:"amount"`
	TotalWithTax float64 `json:"totalWithTax"`
	ItemType     string  `json:"itemType"`
	LineSequence int     `json:"lineSequence"`
}

type SingleMaterialResp struct {
	ID           int64   `json:"id"`
	BillNo       string  `json:"billNo"`
	Quantity     float64 `json:"quantity"`
	Rate         float64 `json:"rate"`
	TaxRate      float64 `json:"taxRate"`
	Amount       float64 `json:"amount"`
	TotalWithTax float64 `json:"totalWithTax"`
}

type EntryResp struct {
	ID               int64               `json:"id"`
	CustomerID       int64               `json:"customerId"`
	EntryDate        string              `json:"entryDate"`
	Description      string              `json:"description"`
	BillNo           string              `json:"billNo"`
	PaymentMode      string              `json:"paymentMode"`
	ChequeNo         string              `json:"chequeNo"`
	DebitAmount      float64             `json:"debitAmount"`
	CreditAmount     float64             `json:"creditAmount"`
	Balance          float64             `json:"balance"`
	Status           string              `json:"status"`
	DueDate          *string             `json:"dueDate"`
	HasMultipleItems bool                `json:"hasMultipleItems"`
	SalesTaxRate     float64             `json:"salesTaxRate"`
	SalesTaxAmount   float64             `json:"salesTaxAmount"`
	Sequence         float64             `json:"sequence"`
	LineItems        []LineItemResp      `json:"lineItems,omitempty"`
	SingleMaterial   *SingleMaterialResp `json:"singleMaterial,omitempty"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

type SummaryResp struct {
	TotalDebit     float64 `json:"totalDebit"`
	TotalCredit    float64 `json:"totalCredit"`
	CurrentBalance float64 `json:"currentBalance"`
	TotalEntries   int     `json:"totalEntries"`
}

type LedgerRowResp struct {
	Date            *string `json:"date"`
	Particulars     string  `json:"particulars"`
	Description     string  `json:"description"`
	DueDate         *string `json:"dueDate"`
	Debit           float64 `json:"debit"`
	Credit          float64 `json:"credit"`
	Balance         float64 `json:"balance"`
	Days            int     `json:"days"`
	DaysOutstanding int     `json:"daysOutstanding"`
	Type            string  `json:"type"`
	Sequence        float64 `json:"sequence"`
	InvoiceID       int64   `json:"invoiceId"`
	Status          string  `json:"status"`
	Mtr             float64 `json:"mtr"`
	Rate            float64 `json:"rate"`
}

// money 金额统一保留两位小数后以数字输出
func money(d decimal.Decimal) float64 {
	return domain.RoundMoney(d).InexactFloat64()
}

func dateString(d *domain.Date) *string {
	if d == nil || d.IsZero() {
		return nil
	}
	s := d.String()
	return &s
}

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func toEntryResp(e *domain.LedgerEntry) EntryResp {
	resp := EntryResp{
		ID:               e.ID,
		CustomerID:       e.CustomerID,
		EntryDate:        e.EntryDate.String(),
		Description:      e.Description,
		BillNo:           e.BillNo,
		PaymentMode:      e.PaymentMode,
		ChequeNo:         e.ChequeNo,
		DebitAmount:      money(e.DebitAmount),
		CreditAmount:     money(e.CreditAmount),
		Balance:          money(e.Balance),
		Status:           e.Status,
		DueDate:          dateString(e.DueDate),
		HasMultipleItems: e.HasMultipleItems,
		SalesTaxRate:     e.SalesTaxRate.InexactFloat64(),
		SalesTaxAmount:   money(e.SalesTaxAmount),
		Sequence:         e.Sequence.InexactFloat64(),
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
	if e.HasMultipleItems {
		resp.LineItems = toLineItemResps(e.LineItems)
	}
	if m := e.SingleMaterial; m != nil {
		resp.SingleMaterial = &SingleMaterialResp{
			ID:           m.ID,
			BillNo:       m.BillNo,
			Quantity:     m.Quantity.InexactFloat64(),
			Rate:         money(m.Rate),
			TaxRate:      m.TaxRate.InexactFloat64(),
			Amount:       money(m.Amount),
			TotalWithTax: money(m.TotalWithTax),
		}
	}
	return resp
}

func toLineItemResps(items []domain.LedgerLineItem) []LineItemResp {
	out := make([]LineItemResp, len(items))
	for i, it := range items {
		out[i] = LineItemResp{
			ID:           it.ID,
			EntryID:      it.EntryID,
			Description:  it.Description,
			Quantity:     it.Quantity.InexactFloat64(),
			Rate:         money(it.Rate),
			TaxRate:      it.TaxRate.InexactFloat64(),
			Amount:       money(it.Amount),
			TotalWithTax: money(it.TotalWithTax),
			ItemType:     string(it.ItemType),
			LineSequence: it.LineSequence,
		}
	}
	return out
}

func toSummaryResp(s domain.EntrySummary) SummaryResp {
	return SummaryResp{
		TotalDebit:     money(s.TotalDebit),
		TotalCredit:    money(s.TotalCredit),
		CurrentBalance: money(s.CurrentBalance),
		TotalEntries:   s.TotalEntries,
	}
}

func toLedgerRowResps(rows []domain.LedgerRow) []LedgerRowResp {
	out := make([]LedgerRowResp, len(rows))
	for i, r := range rows {
		out[i] = LedgerRowResp{
			Date:            dateString(r.Date),
			Particulars:     r.Particulars,
			Description:     r.Description,
			DueDate:         dateString(r.DueDate),
			Debit:           money(r.Debit),
			Credit:          money(r.Credit),
			Balance:         money(r.Balance),
			Days:            r.Days,
			DaysOutstanding: r.DaysOutstanding,
			Type:            string(r.Type),
			Sequence:        r.Sequence.InexactFloat64(),
			InvoiceID:       r.InvoiceID,
			Status:          r.Status,
			Mtr:             r.Mtr.InexactFloat64(),
			Rate:            money(r.Rate),
		}
	}
	return out
}
