package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xxz807/bizledger/internal/ledger/domain"
	"github.com/xxz807/bizledger/internal/ledger/service"
)

type LedgerHandler struct {
	views   *service.ViewService
	entries *service.EntryService
}

func NewLedgerHandler(views *service.ViewService, entries *service.EntryService) *LedgerHandler {
	return &LedgerHandler{views: views, entries: entries}
}

// RegisterRoutes 注册路由
func (h *LedgerHandler) RegisterRoutes(r *gin.RouterGroup) {
	customers := r.Group("/customers/:customerId")
	{
		customers.GET("/ledger", h.GetCustomerLedger)
		customers.GET("/ledger/entries", h.ListEntries)
	}

	entries := r.Group("/ledger/entries")
	{
		entries.POST("", h.CreateEntry)
		entries.GET("/:id", h.GetEntry)
		entries.PUT("/:id", h.UpdateEntry)
		entries.DELETE("/:id", h.DeleteEntry)
	}
}

// GetCustomerLedger 聚合台账
// GET /api/v1/customers/:customerId/ledger?fromDate=&toDate=
func (h *LedgerHandler) GetCustomerLedger(c *gin.Context) {
	customerID, err := customerParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	rng, err := dateRangeQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}

	rows, err := h.views.CustomerLedger(c.Request.Context(), customerID, rng)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": toLedgerRowResps(rows)})
}

// CreateEntry 新增手工分录
// POST /api/v1/ledger/entries
func (h *LedgerHandler) CreateEntry(c *gin.Context) {
	var req CreateEntryReq

	// 1. 参数绑定与基础校验
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request: " + err.Error()})
		return
	}

	// 2. DTO 转换 (API Layer -> Service Layer)
	svcReq, err := toCreateRequest(req)
	if err != nil {
		writeError(c, err)
		return
	}

	// 3. 调用业务逻辑
	result, err := h.entries.Create(c.Request.Context(), svcReq)
	if err != nil {
		writeError(c, err)
		return
	}

	// 4. 返回成功响应
	data := gin.H{
		"entry":     toEntryResp(result.Entry),
		"lineItems": toLineItemResps(result.LineItems),
	}
	if result.TaxEntry != nil {
		data["taxEntry"] = toEntryResp(result.TaxEntry)
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Ledger entry created successfully",
		"data":    data,
	})
}

// ListEntries 客户分录列表
// GET /api/v1/customers/:customerId/ledger/entries?fromDate=&toDate=&status=
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	customerID, err := customerParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	rng, err := dateRangeQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}

	entries, summary, err := h.entries.List(c.Request.Context(), customerID, domain.EntryFilter{
		Range:  rng,
		Status: c.Query("status"),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]EntryResp, len(entries))
	for i := range entries {
		resp[i] = toEntryResp(&entries[i])
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"entries": resp,
			"summary": toSummaryResp(summary),
		},
	})
}

// GetEntry GET /api/v1/ledger/entries/:id
func (h *LedgerHandler) GetEntry(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	entry, err := h.entries.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": toEntryResp(entry)})
}

// UpdateEntry PUT /api/v1/ledger/entries/:id
func (h *LedgerHandler) UpdateEntry(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		writeError(c, err)
		return
	}

	var req UpdateEntryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request: " + err.Error()})
		return
	}
	patch, err := toPatch(req)
	if err != nil {
		writeError(c, err)
		return
	}

	entry, err := h.entries.Update(c.Request.Context(), id, patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Ledger entry updated successfully",
		"data":    toEntryResp(entry),
	})
}

// DeleteEntry DELETE /api/v1/ledger/entries/:id
func (h *LedgerHandler) DeleteEntry(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.entries.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Ledger entry deleted successfully"})
}

func customerParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("customerId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("customerId", "is required")
	}
	return id, nil
}

func idParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		// 非法 ID 不可能对应任何分录
		return 0, domain.ErrNotFound
	}
	return id, nil
}

func dateRangeQuery(c *gin.Context) (domain.DateRange, error) {
	var rng domain.DateRange
	from, err := optionalDate("fromDate", c.Query("fromDate"))
	if err != nil {
		return rng, err
	}
	to, err := optionalDate("toDate", c.Query("toDate"))
	if err != nil {
		return rng, err
	}
	rng.From, rng.To = from, to
	return rng, nil
}

func optionalDate(field, raw string) (*domain.Date, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return nil, domain.NewValidationError(field, "must be YYYY-MM-DD")
	}
	return &d, nil
}

func toCreateRequest(req CreateEntryReq) (service.CreateEntryRequest, error) {
	entryDate, err := optionalDate("entryDate", req.EntryDate)
	if err != nil {
		return service.CreateEntryRequest{}, err
	}
	dueDate, err := optionalDate("dueDate", req.DueDate)
	if err != nil {
		return service.CreateEntryRequest{}, err
	}

	svcReq := service.CreateEntryRequest{
		CustomerID:     req.CustomerID,
		EntryDate:      entryDate,
		Description:    req.Description,
		BillNo:         req.BillNo,
		PaymentMode:    req.PaymentMode,
		ChequeNo:       req.ChequeNo,
		DebitAmount:    decimalOrZero(req.DebitAmount),
		CreditAmount:   decimalOrZero(req.CreditAmount),
		DueDate:        dueDate,
		Status:         req.Status,
		SalesTaxRate:   decimalOrZero(req.SalesTaxRate),
		SalesTaxAmount: decimalOrZero(req.SalesTaxAmount),
		UseLineItems:   req.UseLineItems,
		Quantity:       decimalOrZero(req.Quantity),
		Rate:           decimalOrZero(req.Rate),
	}
	if req.UseLineItems {
		svcReq.LineItems = make([]service.LineItemRequest, len(req.LineItems))
		for i, it := range req.LineItems {
			svcReq.LineItems[i] = service.LineItemRequest{
				Description: it.Description,
				Quantity:    decimalOrZero(it.Quantity),
				Rate:        decimalOrZero(it.Rate),
				TaxRate:     decimalOrZero(it.TaxRate),
				ItemType:    domain.ItemType(it.ItemType),
			}
		}
	}
	return svcReq, nil
}

func toPatch(req UpdateEntryReq) (domain.EntryPatch, error) {
	patch := domain.EntryPatch{
		Description: req.Description,
		Status:      req.Status,
		PaymentMode: req.PaymentMode,
		ChequeNo:    req.ChequeNo,
	}
	if req.DueDate != nil {
		// "dueDate": "" 表示清空到期日
		if *req.DueDate == "" {
			patch.ClearDueDate = true
			return patch, nil
		}
		due, err := optionalDate("dueDate", *req.DueDate)
		if err != nil {
			return patch, err
		}
		patch.DueDate = due
	}
	return patch, nil
}
