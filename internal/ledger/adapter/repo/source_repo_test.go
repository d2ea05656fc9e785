package repo

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/xxz807/bizledger/internal/ledger/domain"
	"github.com/xxz807/bizledger/internal/platform/database"
)

func amountOf(s string) amount {
	return amount{decimal.RequireFromString(s)}
}

func dateOf(t *testing.T, s string) *domain.Date {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return &d
}

func sourceDateOf(t *testing.T, s string) sourceDate {
	t.Helper()
	return sourceDate{dateOf(t, s)}
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := database.OpenTest(t)
	require.NoError(t, Migrate(context.Background(), db))
	return db
}

func TestSourceRepo_CustomerName(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.Create(&customerRecord{ID: 3, Name: "Acme Textiles"}).Error)
	repo := NewSourceRepo(db)

	name, err := repo.CustomerName(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Acme Textiles", name)

	name, err = repo.CustomerName(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestSourceRepo_ListInvoices(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.Create(&invoiceRecord{
		InvoiceNumber: "INV-2", CustomerID: 1, BillDate: sourceDateOf(t, "2024-01-20"),
		Subtotal: amountOf("900"), TaxRate: amountOf("11.11"), TaxAmount: amountOf("100"), TotalAmount: amountOf("1000"),
		Status: "Unpaid", PaymentTermDays: 15,
		Items: []invoiceItemRecord{
			{Description: "Lawn", Quantity: amountOf("10"), Rate: amountOf("50")},
			{Description: "  ", Quantity: amountOf("5"), Rate: amountOf("80")},
			{Description: "Voile", Quantity: amountOf("2.5"), Rate: amountOf("90")},
		},
	}).Error)
	require.NoError(t, db.Create(&invoiceRecord{
		InvoiceNumber: "INV-1", CustomerID: 1, BillDate: sourceDateOf(t, "2024-01-05"), TotalAmount: amountOf("40"),
	}).Error)
	require.NoError(t, db.Create(&invoiceRecord{
		InvoiceNumber: "OTHER", CustomerID: 2, BillDate: sourceDateOf(t, "2024-01-05"), TotalAmount: amountOf("1"),
	}).Error)
	repo := NewSourceRepo(db)

	got, err := repo.ListInvoices(context.Background(), 1, domain.DateRange{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "INV-1", got[0].Number)

	inv := got[1]
	assert.Equal(t, domain.RowInvoice, inv.Kind)
	assert.Equal(t, "2024-01-20", inv.BillDate.String())
	assert.Equal(t, 15, inv.PaymentTermDays)
	assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(900)))
	assert.True(t, inv.TaxAmount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "Lawn, Voile", inv.Description)
	assert.True(t, inv.Mtr.Equal(decimal.RequireFromString("17.5")), "mtr = %s", inv.Mtr)
	assert.True(t, inv.Rate.Equal(decimal.NewFromInt(50)))

	got, err = repo.ListInvoices(context.Background(), 1, domain.DateRange{From: dateOf(t, "2024-01-10")})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "INV-2", got[0].Number)
}

func TestSourceRepo_LenientAmounts(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.Exec(
		`INSERT INTO invoices (invoice_number, customer_id, bill_date, payment_term_days, subtotal, tax_rate, tax_amount, total_amount, status)
		 VALUES (?, ?, ?, 0, NULL, NULL, ?, ?, '')`,
		"INV-X", 4, "2024-02-01", "not-a-number", "120.5",
	).Error)
	repo := NewSourceRepo(db)

	got, err := repo.ListInvoices(context.Background(), 4, domain.DateRange{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Subtotal.IsZero())
	assert.True(t, got[0].TaxAmount.IsZero())
	assert.True(t, got[0].TotalAmount.Equal(decimal.RequireFromString("120.5")))
}

func TestSourceRepo_UnparseableDates(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.Create(&invoiceRecord{
		InvoiceNumber: "INV-OK", CustomerID: 1, BillDate: sourceDateOf(t, "2024-01-10"), TotalAmount: amountOf("10"),
	}).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO invoices (invoice_number, customer_id, bill_date, due_date, payment_term_days, total_amount, status)
		 VALUES (?, ?, 'garbage', '31/12/2024', 0, ?, '')`,
		"INV-BAD", 1, "20",
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO po_invoices (invoice_number, customer_name, bill_date, payment_term_days, total_amount, status, notes)
		 VALUES (?, ?, 'not-a-date', 0, ?, '', '')`,
		"PI-BAD", "Blue Mills", "30",
	).Error)
	repo := NewSourceRepo(db)
	ctx := context.Background()

	// 无过滤：脏日期的发票保留，日期视为缺失
	got, err := repo.ListInvoices(ctx, 1, domain.DateRange{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	byNumber := map[string]domain.SourceInvoice{}
	for _, inv := range got {
		byNumber[inv.Number] = inv
	}
	assert.Equal(t, "2024-01-10", byNumber["INV-OK"].BillDate.String())
	assert.Nil(t, byNumber["INV-BAD"].BillDate)
	assert.Nil(t, byNumber["INV-BAD"].DueDate)

	// 有过滤：脏日期的发票被排除，不影响其他发票
	got, err = repo.ListInvoices(ctx, 1, domain.DateRange{From: dateOf(t, "2024-01-01")})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "INV-OK", got[0].Number)

	po, err := repo.ListPOInvoices(ctx, "Blue Mills", domain.DateRange{})
	require.NoError(t, err)
	require.Len(t, po, 1)
	assert.Nil(t, po[0].BillDate)

	po, err = repo.ListPOInvoices(ctx, "Blue Mills", domain.DateRange{From: dateOf(t, "2024-01-01")})
	require.NoError(t, err)
	assert.Empty(t, po)
}

func TestSourceRepo_ListPOInvoices_DescriptionFallback(t *testing.T) {
	db := openDB(t)
	po := purchaseOrderRecord{
		PONumber: "PO-1", CustomerName: "Blue Mills",
		Items: []purchaseOrderItemRecord{
			{Description: "Denim", Quantity: amountOf("30"), Rate: amountOf("12")},
			{Description: "Twill", Quantity: amountOf("10"), Rate: amountOf("14")},
		},
	}
	require.NoError(t, db.Create(&po).Error)

	records := []poInvoiceRecord{
		{
			InvoiceNumber: "PI-1", CustomerName: "Blue Mills", BillDate: sourceDateOf(t, "2024-01-01"),
			TotalAmount: amountOf("10"), PurchaseOrderID: &po.ID,
			Items: []poInvoiceItemRecord{{Description: "Canvas", Quantity: amountOf("4"), Rate: amountOf("2.5")}},
		},
		{
			InvoiceNumber: "PI-2", CustomerName: "Blue Mills", BillDate: sourceDateOf(t, "2024-01-02"),
			TotalAmount: amountOf("20"), Notes: "  rush order  ", PurchaseOrderID: &po.ID,
		},
		{
			InvoiceNumber: "PI-3", CustomerName: "Blue Mills", BillDate: sourceDateOf(t, "2024-01-03"),
			TotalAmount: amountOf("30"), PurchaseOrderID: &po.ID,
		},
		{
			InvoiceNumber: "PI-4", CustomerName: "Blue Mills", BillDate: sourceDateOf(t, "2024-01-04"),
			TotalAmount: amountOf("40"),
		},
		{
			InvoiceNumber: "PI-OTHER", CustomerName: "Red Looms", BillDate: sourceDateOf(t, "2024-01-01"),
			TotalAmount: amountOf("50"),
		},
	}
	for i := range records {
		require.NoError(t, db.Create(&records[i]).Error)
	}
	repo := NewSourceRepo(db)

	got, err := repo.ListPOInvoices(context.Background(), "Blue Mills", domain.DateRange{})
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, domain.RowPOInvoice, got[0].Kind)
	assert.Equal(t, "Canvas", got[0].Description)
	assert.True(t, got[0].Mtr.Equal(decimal.NewFromInt(4)))
	assert.True(t, got[0].Rate.Equal(decimal.RequireFromString("2.5")))

	assert.Equal(t, "rush order", got[1].Description)
	assert.True(t, got[1].Mtr.Equal(decimal.NewFromInt(40)), "mtr falls back to po lines")

	assert.Equal(t, "Denim, Twill", got[2].Description)
	assert.True(t, got[2].Rate.Equal(decimal.NewFromInt(12)))

	assert.Empty(t, got[3].Description)
	assert.True(t, got[3].Mtr.IsZero())
}

func TestSourceRepo_ListPOInvoices_EmptyName(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.Create(&poInvoiceRecord{
		InvoiceNumber: "PI-1", CustomerName: "", BillDate: sourceDateOf(t, "2024-01-01"), TotalAmount: amountOf("1"),
	}).Error)

	got, err := NewSourceRepo(db).ListPOInvoices(context.Background(), "", domain.DateRange{})
	require.NoError(t, err)
	assert.Empty(t, got)
}
