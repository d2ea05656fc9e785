package domain

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// RowType 台账行类型
type RowType string

const (
	RowInvoice   RowType = "Invoice"   // 销售发票主行
	RowTax       RowType = "Tax"       // 销售发票税额行
	RowPOInvoice RowType = "POInvoice" // 采购订单发票主行
	RowPOTax     RowType = "POTax"     // 采购订单发票税额行
)

// TaxType 返回主行对应的税额行类型
func (t RowType) TaxType() RowType {
	if t == RowPOInvoice {
		return RowPOTax
	}
	return RowTax
}

// IsTax 是否为合成的税额行
func (t RowType) IsTax() bool {
	return t == RowTax || t == RowPOTax
}

const (
	DefaultPaymentMode = "Cash"
	DefaultEntryStatus = "pending"
)

// ItemType 明细行类型
type ItemType string

const (
	ItemMaterial ItemType = "material"
	ItemService  ItemType = "service"
)

// DateLayout 接口与存储统一使用的日期格式
const DateLayout = "2006-01-02"

// Date 只保留年月日的日期 (UTC 零点)
// 以 "YYYY-MM-DD" 文本写入数据库，Postgres 的 date 列与 SQLite 的文本列都能按字典序比较
type Date struct {
	time.Time
}

// NewDate 构造日期
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf 截取时间点所在的日期
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate 解析 YYYY-MM-DD
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// AddDays 日期加减天数
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// Before 严格早于
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

// After 严格晚于
func (d Date) After(o Date) bool { return d.Time.After(o.Time) }

// Equal 同一天
func (d Date) Equal(o Date) bool { return d.Time.Equal(o.Time) }

// Value 实现 driver.Valuer
func (d Date) Value() (driver.Value, error) {
	return d.Format(DateLayout), nil
}

// Scan 实现 sql.Scanner，兼容驱动返回 time.Time 或文本
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.parseLoose(v)
	case []byte:
		return d.parseLoose(string(v))
	case nil:
		*d = Date{}
		return nil
	}
	return fmt.Errorf("domain: cannot scan %T into Date", src)
}

func (d *Date) parseLoose(s string) error {
	if len(s) >= len(DateLayout) {
		if parsed, err := ParseDate(s[:len(DateLayout)]); err == nil {
			*d = parsed
			return nil
		}
	}
	return fmt.Errorf("domain: invalid date %q", s)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("domain: invalid date %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateRange 可选的闭区间日期过滤
type DateRange struct {
	From *Date
	To   *Date
}

// IsZero 没有任何边界
func (r DateRange) IsZero() bool {
	return r.From == nil && r.To == nil
}

// Contains 判断日期是否落在区间内
// 设置了边界时，缺失的日期视为不匹配
func (r DateRange) Contains(d *Date) bool {
	if r.IsZero() {
		return true
	}
	if d == nil || d.IsZero() {
		return false
	}
	if r.From != nil && d.Before(*r.From) {
		return false
	}
	if r.To != nil && d.After(*r.To) {
		return false
	}
	return true
}
