package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// 读路径与写路径共用的余额、排序、拆税规则

var (
	half = decimal.NewFromFloat(0.5)
	// decimal(20,4) 列能容纳的整数部分上限
	maxBalance = decimal.New(1, 16)
	hundred    = decimal.NewFromInt(100)
)

// ProductAmount 计算发票的不含税金额
// 有税额时优先取 subtotal，subtotal 缺失则用 total - tax；无税额时取 total
func ProductAmount(subtotal, taxAmount, totalAmount decimal.Decimal) decimal.Decimal {
	if taxAmount.IsPositive() {
		if subtotal.IsPositive() {
			return subtotal
		}
		return totalAmount.Sub(taxAmount)
	}
	return totalAmount
}

// HasTax 是否需要拆出独立的税额行
func HasTax(taxAmount decimal.Decimal) bool {
	return taxAmount.IsPositive()
}

// TaxSequence 税额行紧跟父行: parent + 0.5
func TaxSequence(parent decimal.Decimal) decimal.Decimal {
	return parent.Add(half)
}

// Accumulate 余额累加: prev + debit - credit
func Accumulate(prev, debit, credit decimal.Decimal) decimal.Decimal {
	return prev.Add(debit).Sub(credit)
}

// RoundMoney 金额保留两位小数
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// CheckBalance 余额必须能落入存储列，否则整次写入失败，不做截断
func CheckBalance(b decimal.Decimal) error {
	if b.Abs().GreaterThanOrEqual(maxBalance) {
		return fmt.Errorf("%w: %s", ErrInvalidBalance, b.String())
	}
	return nil
}

// TaxParticulars 聚合视图税额行的摘要
func TaxParticulars(invoiceRef string) string {
	return "Sales Tax Rate @ " + invoiceRef
}

// TaxDescription 聚合视图税额行的说明
func TaxDescription(rate decimal.Decimal) string {
	return rate.String() + "% sales tax"
}

// EntryTaxDescription 手工分录税额行的说明，description 为空时退回 billNo
func EntryTaxDescription(rate decimal.Decimal, description, billNo string) string {
	label := strings.TrimSpace(description)
	if label == "" {
		label = billNo
	}
	return fmt.Sprintf("Sales Tax (%s%%) - %s", rate.String(), label)
}

// LineAmounts 明细行金额: amount = qty * rate, total = amount * (1 + taxRate/100)
func LineAmounts(quantity, rate, taxRate decimal.Decimal) (amount, totalWithTax decimal.Decimal) {
	amount = quantity.Mul(rate)
	totalWithTax = amount.Mul(decimal.NewFromInt(1).Add(taxRate.Div(hundred)))
	return RoundMoney(amount), RoundMoney(totalWithTax)
}

// SortRows 按 (date asc, sequence asc) 稳定排序，缺失日期排在最前
func SortRows(rows []LedgerRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		di, dj := rows[i].Date, rows[j].Date
		switch {
		case di == nil && dj != nil:
			return true
		case di != nil && dj == nil:
			return false
		case di != nil && dj != nil && !di.Equal(*dj):
			return di.Before(*dj)
		}
		return rows[i].Sequence.LessThan(rows[j].Sequence)
	})
}

// ApplyRunningBalance 自上而下累计余额，并计算距 today 的天数
func ApplyRunningBalance(rows []LedgerRow, today time.Time) {
	running := decimal.Zero
	for i := range rows {
		running = Accumulate(running, rows[i].Debit, rows[i].Credit)
		rows[i].Balance = running
		rows[i].Days = DaysBetween(rows[i].Date, today)
	}
}

// DaysBetween ceil(|today - date| / 1 day)，缺失日期返回 0
func DaysBetween(d *Date, today time.Time) int {
	if d == nil || d.IsZero() {
		return 0
	}
	diff := today.Sub(d.Time)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(diff.Hours() / 24))
}

// NextSequence 同一客户同一日期的下一个整数序号: 已有整数部分最大值 + 1
func NextSequence(existing []decimal.Decimal) decimal.Decimal {
	next := decimal.NewFromInt(1)
	for _, s := range existing {
		candidate := s.Floor().Add(decimal.NewFromInt(1))
		if candidate.GreaterThan(next) {
			next = candidate
		}
	}
	return next
}
